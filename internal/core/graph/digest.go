package graph

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// Digest hashes the structure and parameter values of the whole graph. Two
// graphs built from the same host state produce the same digest regardless
// of the order the messages arrived in.
func (g *Graph) Digest() uint64 {
	ids := make([]ID, 0, len(g.entities))
	for id := range g.entities {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	h := xxhash.New()
	var buf [8]byte
	writeInt := func(v int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		_, _ = h.Write(buf[:])
	}

	for _, id := range ids {
		e := g.entities[id]
		writeInt(int64(id))
		writeInt(int64(e.ParentID()))
		_, _ = h.WriteString(e.Type())
		_, _ = h.Write([]byte{0, byte(e.Kind())})

		p, ok := e.(*Param)
		if !ok {
			continue
		}
		for i, v := range p.values {
			switch n := v.(type) {
			case float64:
				writeInt(int64(math.Float64bits(n)))
			case string:
				_, _ = h.WriteString(n)
			default:
				_, _ = h.WriteString(fmt.Sprint(n))
			}
			if i < len(p.types) {
				_, _ = h.WriteString(string(p.types[i]))
			}
			_, _ = h.Write([]byte{0})
		}
	}
	return h.Sum64()
}
