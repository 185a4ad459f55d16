// Package memimage implements the VM's main memory: a flat, word-addressed
// image loaded from a little-endian binary.
package memimage

import (
	"errors"
	"fmt"
	"io"
)

// ErrOddLength indicates a binary image with a trailing unpaired byte.
var ErrOddLength = errors.New("memimage: binary image has a trailing odd byte")

// OutOfRangeError indicates an access past the end of the image.
type OutOfRangeError struct {
	Addr uint16
	Size int
	Op   string
}

func (e OutOfRangeError) Error() string {
	return fmt.Sprintf("memimage: %v out of range @%v (size %v)", e.Op, e.Addr, e.Size)
}

// Image is an ordered sequence of 16-bit words, addressable from 0.
type Image []uint16

// Load reads r as a flat little-endian sequence of 16-bit words. Word 0 is
// the first instruction; there is no header or separator.
func Load(r io.Reader) (Image, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(raw)%2 != 0 {
		return nil, ErrOddLength
	}
	img := make(Image, len(raw)/2)
	for i := range img {
		img[i] = uint16(raw[2*i]) | uint16(raw[2*i+1])<<8
	}
	return img, nil
}

// Len returns the number of words in the image.
func (img Image) Len() int { return len(img) }

// Get returns the word at addr, or an error if addr is out of range.
func (img Image) Get(addr uint16) (uint16, error) {
	if int(addr) >= len(img) {
		return 0, OutOfRangeError{addr, len(img), "load"}
	}
	return img[addr], nil
}

// Set stores val at addr, or returns an error if addr is out of range.
// Set never extends the image; internal/vm does not grow it either, and
// treats an out-of-range store as a fault.
func (img Image) Set(addr uint16, val uint16) error {
	if int(addr) >= len(img) {
		return OutOfRangeError{addr, len(img), "stor"}
	}
	img[addr] = val
	return nil
}

// Clone returns a deep copy that shares no backing array with img.
func (img Image) Clone() Image {
	out := make(Image, len(img))
	copy(out, img)
	return out
}

// Grow returns a copy of img extended to at least size words, zero-filled.
// It never shrinks img.
func (img Image) Grow(size int) Image {
	if size <= len(img) {
		return img
	}
	out := make(Image, size)
	copy(out, img)
	return out
}
