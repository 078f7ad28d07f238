// Package png declares binschema schemas for the PNG container format and
// helpers to list, embed and extract files carried in a private "deAd"
// chunk. It models the chunk envelope, the IHDR payload and an unknown-
// chunk catch-all; payload schemas are dispatched by the 4-byte chunk type.
//
// See https://www.w3.org/TR/PNG/ for the format.
package png

import (
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/oy3o/binschema"
)

// PNG is big-endian throughout.
var (
	u8  = binschema.UInt8().WithOrder(binschema.BE)
	u32 = binschema.UInt32().WithOrder(binschema.BE)
)

// magic is the 8-byte PNG file signature.
const magic = "\x89PNG\r\n\x1a\n"

// ErrNotPNG indicates the input does not start with the PNG signature.
var ErrNotPNG = errors.New("png: not a PNG file")

// Signature is the schema of the 8-byte file signature.
var Signature = binschema.MustNew("PNGSignature",
	binschema.Field{Name: "signature", Type: u8, Count: binschema.Count(8)},
)

// IHDR is the schema of the image header chunk payload.
var IHDR = binschema.MustNew("IHDR",
	binschema.Field{Name: "width", Type: u32},
	binschema.Field{Name: "height", Type: u32},
	binschema.Field{Name: "bit_depth", Type: u8},
	binschema.Field{Name: "color_type", Type: u8},
	binschema.Field{Name: "compression_method", Type: u8},
	binschema.Field{Name: "filter_method", Type: u8},
	binschema.Field{Name: "interlace_method", Type: u8},
)

// Embedded is the schema of the private "deAd" chunk payload: one named
// file. Both lengths default to the size of the list they prefix, so a
// hand-built payload only needs name and data set.
var Embedded = binschema.MustNew("deAd",
	binschema.Field{Name: "name_len", Type: u32, Default: binschema.CountOf("name")},
	binschema.Field{Name: "name", Type: u8, Count: binschema.CountedBy("name_len")},
	binschema.Field{Name: "data_len", Type: u32, Default: binschema.CountOf("data")},
	binschema.Field{Name: "data", Type: u8, Count: binschema.CountedBy("data_len")},
)

// Unknown carries the payload of chunk types we do not model. Its byte
// count lives in the enclosing chunk envelope, reached through the parent
// link.
var Unknown = binschema.MustNew("UnknownData",
	binschema.Field{Name: "data", Type: u8, Count: binschema.CountFunc(envelopeLength)},
)

func envelopeLength(c *binschema.Composite) (int, error) {
	chunk := c.Parent()
	if chunk == nil {
		return 0, fmt.Errorf("png: unknown chunk data decoded outside a chunk envelope")
	}
	n, err := chunk.GetInt("length")
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Chunks dispatches chunk payload schemas by the 4-character chunk type.
// Unrecognized types fall back to Unknown.
var Chunks = binschema.NewRegistry(Unknown)

func init() {
	Chunks.Register("IHDR", IHDR)
	Chunks.Register("deAd", Embedded)
}

// Chunk is the schema of the chunk envelope: payload length, 4-byte type,
// type-dispatched payload, CRC. Both length and crc default to computed
// values, so hand-built chunks only need type and data set.
var Chunk = binschema.MustNew("Chunk",
	binschema.Field{Name: "length", Type: u32, Default: binschema.DefaultFunc(payloadSize)},
	binschema.Field{Name: "type", Type: u8, Count: binschema.Count(4)},
	binschema.Field{Name: "data", Resolve: Chunks.Resolver(chunkTag)},
	binschema.Field{Name: "crc", Type: u32, Default: binschema.DefaultFunc(chunkCRC)},
)

func chunkTag(c *binschema.Composite) (string, error) {
	b, err := c.GetBytes("type")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func payloadSize(c *binschema.Composite) (any, error) {
	d, err := c.GetComposite("data")
	if err != nil {
		return nil, err
	}
	n, err := d.Size()
	if err != nil {
		return nil, err
	}
	return n, nil
}

// chunkCRC computes the CRC-32 over the chunk type and packed payload, per
// the PNG chunk layout. Chunks decoded from a file keep the CRC read off
// the wire; the default only applies to chunks built in memory.
func chunkCRC(c *binschema.Composite) (any, error) {
	tag, err := c.GetBytes("type")
	if err != nil {
		return nil, err
	}
	d, err := c.GetComposite("data")
	if err != nil {
		return nil, err
	}
	payload, err := d.Pack()
	if err != nil {
		return nil, err
	}
	h := crc32.NewIEEE()
	h.Write(tag)
	h.Write(payload)
	return h.Sum32(), nil
}

// ChunkType returns a chunk's 4-character type tag.
func ChunkType(chunk *binschema.Composite) (string, error) {
	b, err := chunk.GetBytes("type")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// File is a decoded PNG: the signature, the chunks in file order, and any
// bytes after IEND (the format tolerates trailers, so they are preserved).
type File struct {
	Signature *binschema.Composite
	Chunks    []*binschema.Composite
	Trailing  []byte
}

// Decode parses a whole PNG image held in memory. It walks the stream
// chunk by chunk until the IEND sentinel.
func Decode(data []byte) (*File, error) {
	sig, n, err := Signature.UnpackFrom(data, 0, nil)
	if err != nil {
		return nil, ErrNotPNG
	}
	got, err := sig.GetBytes("signature")
	if err != nil {
		return nil, err
	}
	if string(got) != magic {
		return nil, ErrNotPNG
	}

	f := &File{Signature: sig}
	offset := n
	for {
		if offset >= len(data) {
			return nil, fmt.Errorf("png: no IEND chunk before end of input")
		}
		chunk, cn, err := Chunk.UnpackFrom(data, offset, nil)
		if err != nil {
			return nil, fmt.Errorf("png: chunk at offset %d: %w", offset, err)
		}
		f.Chunks = append(f.Chunks, chunk)
		offset += cn

		tag, err := ChunkType(chunk)
		if err != nil {
			return nil, err
		}
		if tag == "IEND" {
			break
		}
	}
	f.Trailing = append([]byte(nil), data[offset:]...)
	return f, nil
}

// Encode packs the file back to bytes: signature, chunks in order,
// preserved trailer.
func (f *File) Encode() ([]byte, error) {
	out, err := f.Signature.Pack()
	if err != nil {
		return nil, err
	}
	for i, chunk := range f.Chunks {
		b, err := chunk.Pack()
		if err != nil {
			return nil, fmt.Errorf("png: pack chunk %d: %w", i, err)
		}
		out = append(out, b...)
	}
	return append(out, f.Trailing...), nil
}

// NewSignature returns a signature composite holding the PNG magic.
func NewSignature() *binschema.Composite {
	c := Signature.NewValue()
	if err := c.Set("signature", []byte(magic)); err != nil {
		panic(err)
	}
	return c
}

// EmbedFile builds a deAd chunk carrying one named file. Lengths and CRC
// materialize from their defaults when the chunk is packed.
func EmbedFile(name string, content []byte) (*binschema.Composite, error) {
	payload := Embedded.NewValue()
	if err := payload.Set("name", []byte(name)); err != nil {
		return nil, err
	}
	if err := payload.Set("data", content); err != nil {
		return nil, err
	}

	chunk := Chunk.NewValue()
	// Type must be set before data: the payload schema dispatches on it.
	if err := chunk.Set("type", []byte("deAd")); err != nil {
		return nil, err
	}
	if err := chunk.Set("data", payload); err != nil {
		return nil, err
	}
	return chunk, nil
}

// EmbeddedFile returns the name and content of a deAd chunk's payload.
func EmbeddedFile(chunk *binschema.Composite) (name string, content []byte, err error) {
	d, err := chunk.GetComposite("data")
	if err != nil {
		return "", nil, err
	}
	n, err := d.GetBytes("name")
	if err != nil {
		return "", nil, err
	}
	content, err = d.GetBytes("data")
	if err != nil {
		return "", nil, err
	}
	return string(n), content, nil
}

// InsertBeforeEnd inserts chunk just before the final chunk, which is IEND
// in any file produced by Decode.
func (f *File) InsertBeforeEnd(chunk *binschema.Composite) {
	if len(f.Chunks) == 0 {
		f.Chunks = append(f.Chunks, chunk)
		return
	}
	i := len(f.Chunks) - 1
	f.Chunks = append(f.Chunks[:i:i], append([]*binschema.Composite{chunk}, f.Chunks[i:]...)...)
}
