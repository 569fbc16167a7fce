package convert

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
)

// NoGlyph is the glyph index of a colour block instruction
const NoGlyph = -1

// Instruction draws one glyph or block at a cell of the sampled grid
type Instruction struct {
	Pos   image.Point
	Glyph int
	Color color.RGBA
}

// Output is the instruction list for one frame together with the geometry
// a render target needs to place it
type Output struct {
	Mode Mode
	// Size is the sampled grid size in cells
	Size image.Point
	// Stride is the distance in source pixels between sampled sites
	Stride image.Point

	Instructions []Instruction

	// per worker scratch, reused between frames
	bands [][]Instruction
}

// Reset empties the output, keeping its storage
func (o *Output) Reset() {
	o.Instructions = o.Instructions[:0]
	o.Size = image.Point{}
}

// Clone returns a deep copy of the output
func (o *Output) Clone() *Output {
	return &Output{
		Mode:         o.Mode,
		Size:         o.Size,
		Stride:       o.Stride,
		Instructions: append([]Instruction(nil), o.Instructions...),
	}
}

type header struct {
	Mode             uint8
	Width, Height    uint32
	StrideX, StrideY uint32
	Count            uint32
}

type record struct {
	X, Y       uint32
	Glyph      int32
	R, G, B, A uint8
}

// MarshalBinary encodes the output into a stable little-endian form. Equal
// outputs always encode to identical bytes.
func (o *Output) MarshalBinary() ([]byte, error) {
	b := new(bytes.Buffer)

	h := header{
		Mode:    uint8(o.Mode),
		Width:   uint32(o.Size.X),
		Height:  uint32(o.Size.Y),
		StrideX: uint32(o.Stride.X),
		StrideY: uint32(o.Stride.Y),
		Count:   uint32(len(o.Instructions)),
	}
	if err := binary.Write(b, binary.LittleEndian, &h); err != nil {
		return nil, err
	}

	for _, in := range o.Instructions {
		r := record{
			X:     uint32(in.Pos.X),
			Y:     uint32(in.Pos.Y),
			Glyph: int32(in.Glyph),
			R:     in.Color.R,
			G:     in.Color.G,
			B:     in.Color.B,
			A:     in.Color.A,
		}
		if err := binary.Write(b, binary.LittleEndian, &r); err != nil {
			return nil, err
		}
	}

	return b.Bytes(), nil
}

// UnmarshalBinary decodes the form written by MarshalBinary
func (o *Output) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)

	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return err
	}

	if int64(h.Count)*int64(binary.Size(record{})) != int64(r.Len()) {
		return errors.New("convert: instruction data has the wrong length")
	}

	o.Mode = Mode(h.Mode)
	o.Size = image.Pt(int(h.Width), int(h.Height))
	o.Stride = image.Pt(int(h.StrideX), int(h.StrideY))
	o.Instructions = o.Instructions[:0]

	for i := uint32(0); i < h.Count; i++ {
		var rec record
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return err
		}
		o.Instructions = append(o.Instructions, Instruction{
			Pos:   image.Pt(int(rec.X), int(rec.Y)),
			Glyph: int(rec.Glyph),
			Color: color.RGBA{rec.R, rec.G, rec.B, rec.A},
		})
	}

	return nil
}
