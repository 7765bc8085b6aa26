package field

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// Digest returns a hex sha256 over the grid dimensions, terrain bytes and
// corruption bit patterns. Identical fields give identical digests.
func Digest(g *Grid) string {
	h := sha256.New()
	var tmp [8]byte

	binary.LittleEndian.PutUint64(tmp[:], uint64(g.w))
	h.Write(tmp[:])
	binary.LittleEndian.PutUint64(tmp[:], uint64(g.h))
	h.Write(tmp[:])

	buf := make([]byte, len(g.terrain))
	for i, t := range g.terrain {
		buf[i] = byte(t)
	}
	h.Write(buf)

	for _, v := range g.corruption {
		binary.LittleEndian.PutUint32(tmp[:4], math.Float32bits(v))
		h.Write(tmp[:4])
	}
	return hex.EncodeToString(h.Sum(nil))
}
