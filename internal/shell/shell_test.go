package shell_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vm16kit/internal/config"
	"vm16kit/internal/memimage"
	"vm16kit/internal/persist"
	"vm16kit/internal/shell"
	"vm16kit/internal/vm"
)

// Minimal local assembler, trimmed down from internal/explore's, used only
// to build the tiny echo program below without hand-counting addresses.
type asm struct {
	words  []uint16
	labels map[string]int
	fixups map[int]string
}

func newAsm() *asm { return &asm{labels: map[string]int{}, fixups: map[int]string{}} }
func (a *asm) label(name string) { a.labels[name] = len(a.words) }
func (a *asm) emit(ws ...uint16)  { a.words = append(a.words, ws...) }
func (a *asm) ref(name string) {
	a.fixups[len(a.words)] = name
	a.words = append(a.words, 0)
}
func (a *asm) outStr(s string) {
	for _, b := range []byte(s) {
		a.emit(19, uint16(b)) // out <char>
	}
}
func (a *asm) build(t *testing.T) memimage.Image {
	t.Helper()
	img := make(memimage.Image, len(a.words))
	copy(img, a.words)
	for idx, name := range a.fixups {
		addr, ok := a.labels[name]
		require.True(t, ok, "undefined label %q", name)
		img[idx] = uint16(addr)
	}
	return img
}

const (
	opJmp  = 6
	opJt   = 7
	opEq   = 4
	opIn   = 20
)

const (
	r0 = 32768 + iota
	r1
	r2
)

// buildFirstCharEcho assembles a program that, for each line sent to it,
// reads one character, drains the rest up to and including the newline,
// and prints "first=<c>\n" naming the character it read first. This shows
// where each line begins, but not whether an alias was expanded: "l" and
// "look" share their first character (see buildSecondCharEcho).
func buildFirstCharEcho(t *testing.T) memimage.Image {
	t.Helper()
	a := newAsm()

	a.label("loop")
	a.emit(opIn, r0)
	a.outStr("first=")
	a.emit(19, r0)
	a.outStr("\n")

	a.label("drain")
	a.emit(opIn, r1)
	a.emit(opEq, r2, r1, 10)
	a.emit(opJt, r2)
	a.ref("loop")
	a.emit(opJmp)
	a.ref("drain")

	return a.build(t)
}

// buildSecondCharEcho is like buildFirstCharEcho but prints
// "second=<c>\n" naming the second character of each line, which is what
// tells "l" (second char '\n') apart from its expansion "look" ('o').
func buildSecondCharEcho(t *testing.T) memimage.Image {
	t.Helper()
	a := newAsm()

	a.label("loop")
	a.emit(opIn, r0)
	a.emit(opIn, r1)
	a.outStr("second=")
	a.emit(19, r1)
	a.outStr("\n")

	a.label("drain")
	a.emit(opEq, r2, r1, 10)
	a.emit(opJt, r2)
	a.ref("loop")
	a.emit(opIn, r1)
	a.emit(opJmp)
	a.ref("drain")

	return a.build(t)
}

func mustRun(ctx context.Context, t *testing.T, v *vm.VM) {
	t.Helper()
	require.Equal(t, vm.Suspended, v.Run(ctx))
}

func newTestShell(t *testing.T, img memimage.Image) (*shell.Shell, *bytes.Buffer) {
	t.Helper()
	ctx := context.Background()
	v := vm.New(img)
	mustRun(ctx, t, v)

	store, err := persist.NewStore(t.TempDir())
	require.NoError(t, err)

	cfg := config.Default()
	cfg.MacroDir = t.TempDir()

	var out bytes.Buffer
	sh := shell.New(v, store, cfg, &out)
	return sh, &out
}

func TestDispatchAliasExpansion(t *testing.T) {
	ctx := context.Background()
	sh, out := newTestShell(t, buildFirstCharEcho(t))

	require.NoError(t, sh.Dispatch(ctx, "l"))
	assert.Equal(t, "first=l\n", out.String(), "an alias line reaches the VM as one line")

	sh2, out2 := newTestShell(t, buildSecondCharEcho(t))
	require.NoError(t, sh2.Dispatch(ctx, "l"))
	assert.Equal(t, "second=o\n", out2.String(), "alias should expand to \"look\" before being sent")
}

func TestDispatchSemicolonChaining(t *testing.T) {
	ctx := context.Background()
	sh, out := newTestShell(t, buildFirstCharEcho(t))

	require.NoError(t, sh.Dispatch(ctx, "l;n"))
	assert.Equal(t, "first=l\nfirst=n\n", out.String())
}

func TestDispatchUnknownDebugCommand(t *testing.T) {
	ctx := context.Background()
	sh, out := newTestShell(t, buildFirstCharEcho(t))

	require.NoError(t, sh.Dispatch(ctx, ".bogus"))
	assert.Contains(t, out.String(), "unknown debug command")
}

func TestDispatchQuit(t *testing.T) {
	ctx := context.Background()
	sh, _ := newTestShell(t, buildFirstCharEcho(t))

	err := sh.Dispatch(ctx, ".quit")
	assert.ErrorIs(t, err, shell.ErrQuit)

	err = sh.Dispatch(ctx, ".q")
	assert.ErrorIs(t, err, shell.ErrQuit)
}

func TestLoopStopsOnQuit(t *testing.T) {
	ctx := context.Background()
	sh, out := newTestShell(t, buildFirstCharEcho(t))

	r := strings.NewReader(".pc\n.quit\nl\n")
	require.NoError(t, sh.Loop(ctx, r))
	assert.Contains(t, out.String(), "pc=")
	assert.NotContains(t, out.String(), "first=l", "lines after .quit must not be dispatched")
}

func TestCmdRegAndPC(t *testing.T) {
	ctx := context.Background()
	sh, out := newTestShell(t, buildFirstCharEcho(t))
	sh.VM.Regs[3] = 42

	require.NoError(t, sh.Dispatch(ctx, ".reg"))
	assert.Contains(t, out.String(), "r3=42\n")

	out.Reset()
	require.NoError(t, sh.Dispatch(ctx, ".pc"))
	assert.Contains(t, out.String(), "pc=")
}

func TestCmdMemoryAndStackReadWrite(t *testing.T) {
	ctx := context.Background()
	sh, out := newTestShell(t, buildFirstCharEcho(t))

	require.NoError(t, sh.Dispatch(ctx, ".wm 0 777"))
	out.Reset()
	require.NoError(t, sh.Dispatch(ctx, ".pm 0 1"))
	assert.Contains(t, out.String(), "mem[0]=777\n")

	sh.VM.Stack = []uint16{1, 2, 3}
	require.NoError(t, sh.Dispatch(ctx, ".ws 1 99"))
	out.Reset()
	require.NoError(t, sh.Dispatch(ctx, ".ps 0 3"))
	assert.Contains(t, out.String(), "stack[0]=1\n")
	assert.Contains(t, out.String(), "stack[1]=99\n")
	assert.Contains(t, out.String(), "stack[2]=3\n")

	require.NoError(t, sh.Dispatch(ctx, ".wr 2 555"))
	assert.Equal(t, uint16(555), sh.VM.Regs[2])
}

func TestCmdLocRequiresDiscoveredAddress(t *testing.T) {
	ctx := context.Background()
	sh, _ := newTestShell(t, buildFirstCharEcho(t))

	err := sh.Dispatch(ctx, ".loc")
	assert.Error(t, err, "location address has not been discovered yet")

	addr := uint16(0)
	sh.VM.LocationAddr = &addr
	require.NoError(t, sh.Dispatch(ctx, ".loc 123"))
	val, err := sh.VM.Mem.Get(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(123), val)
}

func TestCmdSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	sh, out := newTestShell(t, buildFirstCharEcho(t))
	sh.VM.Regs[0] = 11

	require.NoError(t, sh.Dispatch(ctx, ".save"))
	sh.VM.Regs[0] = 22
	out.Reset()
	require.NoError(t, sh.Dispatch(ctx, ".load"))
	assert.Equal(t, uint16(11), sh.VM.Regs[0], "load should restore the saved register value")

	require.NoError(t, sh.Dispatch(ctx, ".save mine"))
	_, err := sh.Store.Load("mine")
	require.NoError(t, err)
}

func TestCmdDiffAgainstCurrentState(t *testing.T) {
	ctx := context.Background()
	sh, out := newTestShell(t, buildFirstCharEcho(t))

	require.NoError(t, sh.Dispatch(ctx, ".save before"))
	sh.VM.Regs[4] = 9

	out.Reset()
	require.NoError(t, sh.Dispatch(ctx, ".diff before"))
	assert.Contains(t, out.String(), "reg[4]: 0 -> 9\n")
}

func TestCmdMacroForwardsSplitCommands(t *testing.T) {
	ctx := context.Background()
	sh, out := newTestShell(t, buildFirstCharEcho(t))

	macroPath := filepath.Join(sh.Config.MacroDir, "open.macro")
	require.NoError(t, os.WriteFile(macroPath, []byte("l\nn;s\n"), 0o644))

	require.NoError(t, sh.Dispatch(ctx, ".macro open.macro"))
	assert.Equal(t, "first=l\nfirst=n\nfirst=s\n", out.String())
}

func TestCmdGiveAllZeroesConfiguredRange(t *testing.T) {
	ctx := context.Background()
	img := memimage.Image{1, 1, 1, 1}
	v := vm.New(img)

	store, err := persist.NewStore(t.TempDir())
	require.NoError(t, err)
	cfg := config.Default()
	cfg.GiveAllRange = config.GiveAllRange{Start: 0, End: 3, Stride: 1}

	var out bytes.Buffer
	sh := shell.New(v, store, cfg, &out)

	require.NoError(t, sh.Dispatch(ctx, ".giveall"))
	for addr := uint16(0); addr < 4; addr++ {
		val, err := v.Mem.Get(addr)
		require.NoError(t, err)
		assert.Equal(t, uint16(0), val)
	}
}

func TestCmdSolveCoinsIssuesUseCommandsInOrder(t *testing.T) {
	ctx := context.Background()
	sh, out := newTestShell(t, buildFirstCharEcho(t))

	require.NoError(t, sh.Dispatch(ctx, ".solve coins"))
	// Every "use <coin>" line starts with 'u'; five coins means five
	// first-char echoes, all reporting 'u'.
	assert.Equal(t, strings.Repeat("first=u\n", 5), out.String())
}
