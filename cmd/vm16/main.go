// Command vm16 is the CLI entry point for the 16-bit bytecode VM toolkit:
// run/debug it interactively, disassemble a binary, explore its reachable
// state space, or run the scripted solution driver (spec.md §6 "CLI").
//
// Structured as a github.com/spf13/cobra command tree in place of the
// teacher's flat flag.Parse() (main.go), since this toolkit needs several
// independent subcommands sharing one set of persistent flags rather than
// one fixed mode; logging follows the teacher's own logio.Logger idiom
// (SetOutput/ErrorIf/ExitCode) unchanged.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/chzyer/readline"

	"vm16kit/internal/config"
	"vm16kit/internal/disasm"
	"vm16kit/internal/explore"
	"vm16kit/internal/flushio"
	"vm16kit/internal/logio"
	"vm16kit/internal/memimage"
	"vm16kit/internal/opcode"
	"vm16kit/internal/panicerr"
	"vm16kit/internal/persist"
	"vm16kit/internal/shell"
	"vm16kit/internal/solve"
	"vm16kit/internal/vm"
)

var log logio.Logger

func main() {
	log.SetOutput(os.Stderr)
	defer os.Exit(log.ExitCode())

	root := newRootCommand()
	// Recover any unexpected panic (e.g. a malformed binary tripping a bug
	// deeper than the VM's own Fault handling) as a reported error instead
	// of a crash, the teacher's own goroutine-isolation idiom (isolate.go).
	err := panicerr.Recover("vm16", func() error {
		return root.Execute()
	})
	if err != nil {
		log.ErrorIf(err)
	}
}

// defaultConfigPath is the fixed config file name looked up when --config
// is not given; its absence is not an error (spec.md §2 "Configuration"
// falls back to Default() tunables when no file is present).
const defaultConfigPath = "vm16.toml"

// cliFlags holds the persistent flags shared by every subcommand (spec.md
// §6 "-f|--file", "-c|--commands", "-a|--archfile", "--config").
type cliFlags struct {
	file       string
	commands   string
	archfile   string
	configPath string
}

func newRootCommand() *cobra.Command {
	var flags cliFlags

	root := &cobra.Command{
		Use:   "vm16",
		Short: "Interpreter, debugger, and solver toolkit for the 16-bit bytecode VM",
	}
	root.PersistentFlags().StringVarP(&flags.file, "file", "f", "challenge.bin", "binary image path")
	root.PersistentFlags().StringVarP(&flags.commands, "commands", "c", "", "semicolon-separated pre-scripted commands")
	root.PersistentFlags().StringVarP(&flags.archfile, "archfile", "a", "arch-spec", "architecture spec path")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "TOML config path (default: "+defaultConfigPath+" if present)")

	root.AddCommand(
		newRunCommand(&flags, false),
		newRunCommand(&flags, true),
		newDisasmCommand(&flags),
		newExploreCommand(&flags),
		newSolveCommand(&flags),
	)
	return root
}

// config loads the TOML config named by --config (falling back to
// defaultConfigPath when unset, and to config.Default() when neither
// exists), then overlays the -f/-a flags so they always win over the file.
func (f *cliFlags) config() (config.Config, error) {
	path := f.configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config %q: %w", path, err)
	}
	cfg.BinaryPath = f.file
	cfg.ArchSpecPath = f.archfile
	return cfg, nil
}

// bootVM loads the architecture spec and binary named by flags and
// constructs a fresh, unstarted VM over them. Extra options (e.g.
// vm.WithLogf for "debug") are applied at construction time, same as the
// teacher's own functional-option idiom.
func bootVM(f *cliFlags, opts ...vm.Option) (*vm.VM, error) {
	archF, err := os.Open(f.archfile)
	if err != nil {
		return nil, fmt.Errorf("opening arch spec: %w", err)
	}
	defer archF.Close()

	table, _, err := opcode.ParseArchSpec(archF)
	if err != nil {
		return nil, fmt.Errorf("parsing arch spec: %w", err)
	}

	binF, err := os.Open(f.file)
	if err != nil {
		return nil, fmt.Errorf("opening binary: %w", err)
	}
	defer binF.Close()

	img, err := memimage.Load(binF)
	if err != nil {
		return nil, fmt.Errorf("loading binary: %w", err)
	}

	allOpts := append([]vm.Option{vm.WithTable(table)}, opts...)
	return vm.New(img, allOpts...), nil
}

// newRunCommand builds "run" and, when trace is true, "debug" (spec.md §6:
// "debug (alias for run with tracing enabled)").
func newRunCommand(flags *cliFlags, trace bool) *cobra.Command {
	name, short := "run", "Boot the VM and drop into the interactive shell"
	if trace {
		name, short = "debug", "Like run, but with instruction tracing enabled"
	}

	return &cobra.Command{
		Use:   name,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd.Context(), flags, trace)
		},
	}
}

func runShell(ctx context.Context, flags *cliFlags, trace bool) error {
	var opts []vm.Option
	if trace {
		opts = append(opts, vm.WithLogf(log.Leveledf("TRACE")))
	}
	v, err := bootVM(flags, opts...)
	if err != nil {
		return err
	}
	v.Run(ctx)

	cfg, err := flags.config()
	if err != nil {
		return err
	}
	store, err := persist.NewStore(cfg.SnapshotDir)
	if err != nil {
		return err
	}

	// Wrap stdout in a flushable writer so buffered output reaches the
	// terminal between prompts rather than waiting for process exit,
	// matching the teacher's flushio.NewWriteFlusher idiom around its own
	// output pipe.
	out := flushio.NewWriteFlusher(os.Stdout)
	defer out.Flush()

	sh := shell.New(v, store, cfg, out)
	fmt.Fprint(out, v.Read())
	out.Flush()

	if flags.commands != "" {
		if err := sh.RunCommands(ctx, flags.commands); err != nil {
			return err
		}
		out.Flush()
	}

	if isatty.IsTerminal(os.Stdin.Fd()) {
		return runInteractive(ctx, sh, out)
	}
	return sh.Loop(ctx, os.Stdin)
}

// runInteractive drives sh.Dispatch from a readline-backed prompt, giving
// line editing and history when stdin is a real terminal (spec.md §6
// contemplates no particular UI, so this is purely an ergonomics layer over
// Shell.Dispatch).
func runInteractive(ctx context.Context, sh *shell.Shell, out flushio.WriteFlusher) error {
	rl, err := readline.New("> ")
	if err != nil {
		return fmt.Errorf("starting readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or readline.ErrInterrupt
			return nil
		}
		if dispErr := sh.Dispatch(ctx, line); dispErr != nil {
			if errors.Is(dispErr, shell.ErrQuit) {
				return nil
			}
			fmt.Fprintln(out, dispErr)
		}
		out.Flush()
	}
}

func newDisasmCommand(flags *cliFlags) *cobra.Command {
	var lines int
	var addr uint16

	cmd := &cobra.Command{
		Use:   "disasm",
		Short: "Disassemble the binary from a given address",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := bootVM(flags)
			if err != nil {
				return err
			}
			for _, l := range disasm.Disassemble(v.Mem, v.Table, addr, lines) {
				fmt.Fprintf(os.Stdout, "%d: %s\n", l.Addr, l.Text)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&lines, "lines", 50, "number of lines to disassemble")
	cmd.Flags().Uint16Var(&addr, "addr", 0, "starting address")
	return cmd
}

func newExploreCommand(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "explore",
		Short: "Boot the VM and print the discovered room graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			v, err := bootVM(flags)
			if err != nil {
				return err
			}
			v.Run(ctx)
			v.Read()

			cfg, err := flags.config()
			if err != nil {
				return err
			}
			addr, err := explore.DiscoverLocationAddress(ctx, v, cfg.OpeningPath)
			if err != nil {
				return fmt.Errorf("discovering location address: %w", err)
			}
			v.LocationAddr = &addr

			g, err := explore.Explore(ctx, v, addr, cfg.ExploreWorkers)
			if err != nil {
				return fmt.Errorf("exploring: %w", err)
			}
			for loc, edges := range g.Edges {
				for _, e := range edges {
					fmt.Fprintf(os.Stdout, "%d --%s--> %d\n", loc, e.Direction, e.To)
				}
			}
			return nil
		},
	}
}

func newSolveCommand(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "solve",
		Short: "Run the scripted solution driver and print every recovered code",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.config()
			if err != nil {
				return err
			}
			codes, err := solve.New(cfg).Run(cmd.Context())
			printCodes(codes)
			return err
		},
	}
}

func printCodes(codes solve.Codes) {
	fmt.Fprintf(os.Stdout, "code 1 (arch spec):  %s\n", codes.ArchSpec)
	fmt.Fprintf(os.Stdout, "code 2 (startup):    %s\n", codes.Startup)
	fmt.Fprintf(os.Stdout, "code 3 (self test):  %s\n", codes.SelfTest)
	fmt.Fprintf(os.Stdout, "code 4 (tablet):     %s\n", codes.Tablet)
	fmt.Fprintf(os.Stdout, "code 5 (chisel):     %s\n", codes.Chisel)
	fmt.Fprintf(os.Stdout, "code 6 (teleport 1): %s\n", codes.Teleport1)
	fmt.Fprintf(os.Stdout, "code 7 (teleport 2): %s\n", codes.Teleport2)
	fmt.Fprintf(os.Stdout, "code 8 (mirror):     %s\n", codes.Mirror)
}
