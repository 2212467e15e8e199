package libio

import (
	"encoding/binary"
	"io"
)

// BinaryReader keeps the first error and turns every later read into a no-op,
// so a sequence of reads needs only one error check.
type BinaryReader struct {
	Order  binary.ByteOrder
	Src    io.Reader
	Offset int
	Err    error
	buf    [4]byte
}

func (br *BinaryReader) read(n int) []byte {
	if br.Err != nil {
		return nil
	}
	b := br.buf[:n]
	if _, err := io.ReadFull(br.Src, b); err != nil {
		br.Err = err
		return nil
	}
	br.Offset += n
	return b
}

func (br *BinaryReader) ReadUint32() uint32 {
	b := br.read(4)
	if b == nil {
		return 0
	}
	return br.Order.Uint32(b)
}

func (br *BinaryReader) ReadRef(data any) (ok bool) {
	if br.Err != nil {
		return false
	}
	if err := binary.Read(br.Src, br.Order, data); err != nil {
		br.Err = err
		return false
	}
	br.Offset += binary.Size(data)
	return true
}

type BinaryWriter struct {
	Order binary.ByteOrder
	Dst   io.Writer
	Err   error
	buf   [4]byte
}

func (bw *BinaryWriter) WriteBytes(p []byte) (ok bool) {
	if bw.Err != nil {
		return false
	}
	if _, err := bw.Dst.Write(p); err != nil {
		bw.Err = err
		return false
	}
	return true
}

func (bw *BinaryWriter) WriteUint32(i uint32) (ok bool) {
	bw.Order.PutUint32(bw.buf[:], i)
	return bw.WriteBytes(bw.buf[:4])
}

func (bw *BinaryWriter) WriteRef(data any) (ok bool) {
	if bw.Err != nil {
		return false
	}
	if err := binary.Write(bw.Dst, bw.Order, data); err != nil {
		bw.Err = err
		return false
	}
	return true
}
