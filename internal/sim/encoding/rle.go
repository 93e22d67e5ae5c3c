package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// Layer is a compact, row-major string map: each cell is an index into
// Palette, run-length encoded as base64(varint id, varint run) pairs.
type Layer struct {
	Palette []string `json:"palette"`
	RLE     string   `json:"rle"`
}

// EncodeLayer builds a palette in first-seen order and encodes values.
func EncodeLayer(values []string) Layer {
	index := map[string]uint16{}
	var palette []string
	ids := make([]uint16, len(values))
	for i, v := range values {
		id, ok := index[v]
		if !ok {
			id = uint16(len(palette))
			index[v] = id
			palette = append(palette, v)
		}
		ids[i] = id
	}
	return Layer{Palette: palette, RLE: EncodeRLE(ids)}
}

func (l Layer) Decode() ([]string, error) {
	ids, err := DecodeRLE(l.RLE)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		if int(id) >= len(l.Palette) {
			return nil, fmt.Errorf("palette id %d out of range (%d entries)", id, len(l.Palette))
		}
		out[i] = l.Palette[id]
	}
	return out, nil
}

// EncodeRLE encodes palette ids as base64(varint pairs) of (id, run_len).
func EncodeRLE(ids []uint16) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	for i := 0; i < len(ids); {
		id := ids[i]
		run := 1
		for i+run < len(ids) && ids[i+run] == id {
			run++
		}
		n := binary.PutUvarint(tmp[:], uint64(id))
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], uint64(run))
		buf.Write(tmp[:n])
		i += run
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func DecodeRLE(b64 string) ([]uint16, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	var out []uint16
	for i := 0; i < len(raw); {
		id, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if id > 0xFFFF {
			return nil, fmt.Errorf("palette id too large: %d", id)
		}
		if run == 0 || run > 1<<24 {
			return nil, fmt.Errorf("bad run length %d at %d", run, i)
		}
		for k := uint64(0); k < run; k++ {
			out = append(out, uint16(id))
		}
	}
	return out, nil
}
