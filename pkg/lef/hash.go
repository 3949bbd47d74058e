package lef

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// modelHash derives Header.ModelHash from normalized metadata: hash the
// fixed-width encoded metadata bytes with blake2b and fold the digest
// down to 32 bits by XOR-ing it in 4-byte lanes. Using a cryptographic
// hash rather than a simple checksum here means two models that differ
// only in metadata essentially never collide, which matters since this
// hash doubles as a model-identity key in caches and logs.
func modelHash(m *Metadata) uint32 {
	sum := blake2b.Sum256(encodeMetadata(m))
	var folded uint32
	for i := 0; i < len(sum); i += 4 {
		folded ^= binary.LittleEndian.Uint32(sum[i : i+4])
	}
	return folded
}
