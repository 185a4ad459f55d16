package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// magic tags the length-prefixed binary format so Deserialize can reject
// files that aren't one of ours before trying to interpret their contents.
const magic = "VM16SNAP"

// Serialize encodes s as a length-prefixed binary record: a magic header,
// then each slice field framed by its own uint32 length (word/byte count,
// not raw byte length, for the uint16 slices), with the registers and PC
// written as fixed-width words and the optional addresses in their own
// framing (writeOptionalAddr), chosen over a textual encoding for
// round-trip speed on multi-megaword memory images.
func Serialize(s Snapshot) []byte {
	var buf bytes.Buffer
	bw := &errWriter{w: &buf}
	bw.write([]byte(magic))
	writeWordSlice(bw, s.Mem)
	for _, r := range s.Regs {
		bw.writeUint16(r)
	}
	writeWordSlice(bw, s.Stack)
	bw.writeUint16(s.PC)
	writeByteSlice(bw, s.Input)
	writeByteSlice(bw, []byte(s.Output))
	writeOptionalAddr(bw, s.LocationAddr)
	writeOptionalAddr(bw, s.TeleportCallAddr)
	return buf.Bytes()
}

// Deserialize decodes a Snapshot previously produced by Serialize.
func Deserialize(data []byte) (Snapshot, error) {
	br := &errReader{r: bytes.NewReader(data)}

	hdr := make([]byte, len(magic))
	br.read(hdr)
	if br.err == nil && !bytes.Equal(hdr, []byte(magic)) {
		return Snapshot{}, fmt.Errorf("snapshot: bad magic header %q", hdr)
	}

	var s Snapshot
	s.Mem = readWordSlice(br)
	for i := range s.Regs {
		s.Regs[i] = br.readUint16()
	}
	s.Stack = readWordSlice(br)
	s.PC = br.readUint16()
	s.Input = readByteSlice(br)
	s.Output = string(readByteSlice(br))
	s.LocationAddr = readOptionalAddr(br)
	s.TeleportCallAddr = readOptionalAddr(br)

	if br.err != nil && br.err != io.EOF {
		return Snapshot{}, fmt.Errorf("snapshot: decode: %w", br.err)
	}
	return s, nil
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) write(p []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(p)
}

func (e *errWriter) writeUint16(v uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	e.write(buf[:])
}

func (e *errWriter) writeUint32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	e.write(buf[:])
}

func writeWordSlice(e *errWriter, words []uint16) {
	e.writeUint32(uint32(len(words)))
	for _, w := range words {
		e.writeUint16(w)
	}
}

func writeByteSlice(e *errWriter, b []byte) {
	e.writeUint32(uint32(len(b)))
	e.write(b)
}

func writeOptionalAddr(e *errWriter, addr *uint16) {
	if addr == nil {
		e.write([]byte{0})
		return
	}
	e.write([]byte{1})
	e.writeUint16(*addr)
}

type errReader struct {
	r   io.Reader
	err error
}

func (e *errReader) read(p []byte) {
	if e.err != nil {
		return
	}
	_, e.err = io.ReadFull(e.r, p)
}

func (e *errReader) readUint16() uint16 {
	var buf [2]byte
	e.read(buf[:])
	return binary.LittleEndian.Uint16(buf[:])
}

func (e *errReader) readUint32() uint32 {
	var buf [4]byte
	e.read(buf[:])
	return binary.LittleEndian.Uint32(buf[:])
}

func readWordSlice(e *errReader) []uint16 {
	n := e.readUint32()
	if e.err != nil || n == 0 {
		return nil
	}
	out := make([]uint16, n)
	for i := range out {
		out[i] = e.readUint16()
	}
	return out
}

func readByteSlice(e *errReader) []byte {
	n := e.readUint32()
	if e.err != nil || n == 0 {
		return nil
	}
	out := make([]byte, n)
	e.read(out)
	return out
}

func readOptionalAddr(e *errReader) *uint16 {
	var tag [1]byte
	e.read(tag[:])
	if e.err != nil || tag[0] == 0 {
		return nil
	}
	addr := e.readUint16()
	return &addr
}
