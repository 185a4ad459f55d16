package hotcall_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vm16kit/internal/hotcall"
	"vm16kit/internal/memimage"
	"vm16kit/internal/pattern"
	"vm16kit/internal/vm"
)

func buildImage(t *testing.T, prefix, suffix int) memimage.Image {
	t.Helper()
	img := make(memimage.Image, 0, prefix+len(pattern.TeleportCallPattern)+suffix)
	for i := 0; i < prefix; i++ {
		img = append(img, 0)
	}
	for _, w := range pattern.TeleportCallPattern {
		if w.Any {
			img = append(img, 1) // concrete stand-in for a wildcard slot
		} else {
			img = append(img, w.Value)
		}
	}
	for i := 0; i < suffix; i++ {
		img = append(img, 0)
	}
	return img
}

func TestPatchTeleporterCallFindsUniqueMatch(t *testing.T) {
	img := buildImage(t, 3, 3)
	v := vm.New(img)

	addr, err := hotcall.PatchTeleporterCall(v)
	require.NoError(t, err)
	assert.Equal(t, uint16(3+38), addr)
	require.NotNil(t, v.TeleportCallAddr)
	assert.Equal(t, addr, *v.TeleportCallAddr)
}

func TestPatchTeleporterCallIsIdempotent(t *testing.T) {
	img := buildImage(t, 0, 0)
	v := vm.New(img)

	addr1, err := hotcall.PatchTeleporterCall(v)
	require.NoError(t, err)
	addr2, err := hotcall.PatchTeleporterCall(v)
	require.NoError(t, err)
	assert.Equal(t, addr1, addr2)
}

func TestPatchTeleporterCallNoMatch(t *testing.T) {
	v := vm.New(memimage.Image{0, 0, 0, 0})
	_, err := hotcall.PatchTeleporterCall(v)
	assert.ErrorIs(t, err, hotcall.ErrNoMatch)
}

func TestPatchTeleporterCallAmbiguous(t *testing.T) {
	a := buildImage(t, 0, 0)
	b := buildImage(t, 0, 0)
	img := append(memimage.Image{}, a...)
	img = append(img, b...)
	v := vm.New(img)

	_, err := hotcall.PatchTeleporterCall(v)
	assert.ErrorIs(t, err, hotcall.ErrAmbiguousMatch)
}

func TestPatchTeleporterCallHookSetsConfirmedRegisters(t *testing.T) {
	// Build: call <subAddr>; halt; <pattern with its call-target operand
	// pointing at subAddr>; <subAddr>: push 99; ret.
	const subAddr = uint16(60)

	prog := []uint16{17, subAddr, 0}
	img := make(memimage.Image, len(prog))
	copy(img, prog)

	patternStart := len(img)
	for i, w := range pattern.TeleportCallPattern {
		if i == 39 { // the call-target operand slot (see callOffsetInPattern+1)
			img = append(img, subAddr)
		} else if w.Any {
			img = append(img, 1)
		} else {
			img = append(img, w.Value)
		}
	}
	require.Equal(t, patternStart+len(pattern.TeleportCallPattern), len(img))

	for uint16(len(img)) < subAddr {
		img = append(img, 0)
	}
	img = append(img, 2, 99, 18) // push 99; ret — never actually run

	v := vm.New(img)
	_, err := hotcall.PatchTeleporterCall(v)
	require.NoError(t, err)

	st := v.Run(context.Background())
	assert.Equal(t, vm.Halted, st)
	assert.Equal(t, uint16(6), v.Regs[0], "bypass must set register 0 to the confirmed outcome")
	assert.Equal(t, uint16(5), v.Regs[1], "bypass must set register 1 to the confirmed outcome")
	assert.Equal(t, uint16(25734), v.Regs[7], "bypass must set register 7 to the secret value")
	assert.Empty(t, v.Stack, "bypassed call must not push a return address")
}

func TestPatchedCallIsBypassedDuringExecution(t *testing.T) {
	// Program: call <subroutine>, halt, <subroutine>: push 99; ret
	subroutineAddr := uint16(6)
	prog := []uint16{17, subroutineAddr, 0, 0, 0, 0, 2, 99, 18}
	img := make(memimage.Image, len(prog))
	copy(img, prog)

	v := vm.New(img)
	v.AddHook(subroutineAddr, func(v *vm.VM) {
		v.Regs[0] = 7
	})

	st := v.Run(context.Background())
	assert.Equal(t, vm.Halted, st)
	assert.Equal(t, uint16(7), v.Regs[0], "hook must fire in place of the call")
	assert.Empty(t, v.Stack, "bypassed call must not push a return address")
}
