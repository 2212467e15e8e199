package libio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/chewxy/math32"
	"github.com/pierrec/lz4/v4"
)

// MagicNumberF32 starts every .f32 file.
const MagicNumberF32 = 0x6f726731

type Version uint32

const Version1 = Version(1)

type Compression uint32

const (
	CompressionNone = Compression(iota)
	// CompressionFixedPoint16Lz4 quantizes each channel to 16 bit between its
	// minimum and maximum, then compresses the result with lz4.
	CompressionFixedPoint16Lz4
)

var ErrCorrupt = errors.New("f32 file is corrupt")

// Header is the fixed size prefix of an .f32 file.
type Header struct {
	Check         uint32
	Version       Version
	Width, Height uint32
	Compression   Compression
	Unused        [12]uint8
}

func EncodeFloatImage(w io.Writer, img *FloatImage, compression Compression) error {
	bw := &BinaryWriter{Dst: w, Order: binary.LittleEndian}

	header := Header{
		Check:       MagicNumberF32,
		Version:     Version1,
		Width:       uint32(img.Width),
		Height:      uint32(img.Height),
		Compression: compression,
	}
	if !bw.WriteRef(header) {
		return fmt.Errorf("could not write f32 header: %w", bw.Err)
	}

	switch compression {
	case CompressionNone:
		bw.WriteRef(img.Pix)
	case CompressionFixedPoint16Lz4:
		lzw := lz4.NewWriter(bw.Dst)
		if err := lzw.Apply(lz4.CompressionLevelOption(lz4.Fast)); err != nil {
			return err
		}
		if _, err := lzw.Write(quantize(img)); err != nil {
			return fmt.Errorf("could not compress f32 pixels: %w", err)
		}
		if err := lzw.Close(); err != nil {
			return fmt.Errorf("could not compress f32 pixels: %w", err)
		}
	default:
		return fmt.Errorf("unknown f32 compression %d", compression)
	}

	if bw.Err != nil {
		return fmt.Errorf("could not write f32 pixels: %w", bw.Err)
	}
	return nil
}

func DecodeFloatImage(r io.Reader) (*FloatImage, error) {
	br := &BinaryReader{Src: r, Order: binary.LittleEndian}

	header := Header{}
	if !br.ReadRef(&header) {
		return nil, fmt.Errorf("expected f32 header: %w", br.Err)
	}
	if header.Check != MagicNumberF32 {
		return nil, fmt.Errorf("%w: bad magic number 0x%08x", ErrCorrupt, header.Check)
	}
	if header.Version != Version1 {
		return nil, fmt.Errorf("f32 version %d unsupported", header.Version)
	}
	if header.Width == 0 || header.Height == 0 || header.Width > 1<<15 || header.Height > 1<<15 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrCorrupt, header.Width, header.Height)
	}

	width, height := int(header.Width), int(header.Height)
	count := width * height

	var img *FloatImage
	switch header.Compression {
	case CompressionNone:
		data, err := readPayload(br.Src, count*Channels*4)
		if err != nil {
			return nil, fmt.Errorf("could not read f32 pixels: %w", err)
		}
		img = NewFloatImage(nil, width, height)
		pr := &BinaryReader{Src: bytes.NewReader(data), Order: binary.LittleEndian}
		if !pr.ReadRef(img.Pix) {
			return nil, fmt.Errorf("could not read f32 pixels: %w", pr.Err)
		}
	case CompressionFixedPoint16Lz4:
		data, err := readPayload(lz4.NewReader(br.Src), Channels*(8+count*2))
		if err != nil {
			return nil, fmt.Errorf("could not decompress f32 pixels: %w", err)
		}
		img = NewFloatImage(nil, width, height)
		if err := dequantize(img, data); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown compression %d", ErrCorrupt, header.Compression)
	}

	return img, nil
}

// readPayload grows its buffer only as data arrives, so a header promising
// more than the file holds fails before the image is allocated.
func readPayload(r io.Reader, size int) ([]byte, error) {
	var buf bytes.Buffer
	n, err := io.CopyN(&buf, r, int64(size))
	if err == io.EOF {
		err = fmt.Errorf("%w: got %d of %d bytes", io.ErrUnexpectedEOF, n, size)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// per channel: min and max as float bits, then one uint16 per pixel
func quantizedSize(img *FloatImage) int {
	return Channels * (8 + img.Count()*2)
}

func quantize(img *FloatImage) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, quantizedSize(img)))
	bw := &BinaryWriter{Order: binary.LittleEndian, Dst: buf}
	fix := make([]uint16, img.Count())

	for ch := 0; ch < Channels; ch++ {
		lo, hi := math32.Inf(1), math32.Inf(-1)
		for i := ch; i < len(img.Pix); i += Channels {
			lo = math32.Min(lo, img.Pix[i])
			hi = math32.Max(hi, img.Pix[i])
		}
		span := hi - lo
		for i := range fix {
			if span > 0 {
				fix[i] = uint16(math32.Round((img.Pix[i*Channels+ch] - lo) / span * 0xffff))
			} else {
				fix[i] = 0
			}
		}
		bw.WriteUint32(math32.Float32bits(lo))
		bw.WriteUint32(math32.Float32bits(hi))
		bw.WriteRef(fix)
	}
	return buf.Bytes()
}

func dequantize(img *FloatImage, data []byte) error {
	br := &BinaryReader{Src: bytes.NewReader(data), Order: binary.LittleEndian}
	fix := make([]uint16, img.Count())

	for ch := 0; ch < Channels; ch++ {
		lo := math32.Float32frombits(br.ReadUint32())
		hi := math32.Float32frombits(br.ReadUint32())
		if !br.ReadRef(fix) {
			return fmt.Errorf("could not read channel %d: %w", ch, br.Err)
		}
		span := hi - lo
		for i, v := range fix {
			img.Pix[i*Channels+ch] = float32(v)/0xffff*span + lo
		}
	}
	return nil
}
