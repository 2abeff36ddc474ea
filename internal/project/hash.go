package project

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Digest is a SHA-256 value; it matches source.File.Hash.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// IsZero reports whether d was never computed.
func (d Digest) IsZero() bool { return d == Digest{} }

// Combine hashes content followed by deps in the given order.
func Combine(content Digest, deps ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, d := range deps {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// Fingerprint hashes the settings that change elaboration output. Two
// configurations with the same fingerprint produce identical results for
// the same file.
func (a Analysis) Fingerprint() Digest {
	h := sha256.New()
	_, _ = h.Write([]byte("move_keeps_trait=" + strconv.FormatBool(a.MoveKeepsTrait) + "\n"))
	_, _ = h.Write([]byte("strict_aliasing=" + strconv.FormatBool(a.StrictAliasing) + "\n"))
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
