package graph

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"

	"fortio.org/safecast"
)

// Digest fingerprints the graph: the asset count, then per asset in id order
// its source hash, lowered code and mapping. Strings and the mapping are
// length-prefixed so asset boundaries stay unambiguous.
// Equal digests mean the emitter produces byte-identical bundles.
func (g *Graph) Digest() [32]byte {
	d := digester{h: sha256.New()}
	d.length(len(g.Assets))
	for _, a := range g.Assets {
		_, _ = d.h.Write(a.Hash[:])
		d.str(a.Code)
		entries := a.Mapping.Entries()
		d.length(len(entries))
		for _, e := range entries {
			d.str(e.Specifier)
			d.u32(uint32(e.ID))
		}
	}
	var out [32]byte
	copy(out[:], d.h.Sum(nil))
	return out
}

// DigestHex is Digest in lowercase hex.
func (g *Graph) DigestHex() string {
	d := g.Digest()
	return hex.EncodeToString(d[:])
}

type digester struct {
	h   hash.Hash
	buf [4]byte
}

func (d *digester) u32(v uint32) {
	binary.BigEndian.PutUint32(d.buf[:], v)
	_, _ = d.h.Write(d.buf[:])
}

func (d *digester) length(n int) {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("digest length overflow: %w", err))
	}
	d.u32(v)
}

func (d *digester) str(s string) {
	d.length(len(s))
	_, _ = d.h.Write([]byte(s))
}
