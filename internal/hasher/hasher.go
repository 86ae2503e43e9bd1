// Package hasher provides the digests that can be computed over every
// output file, and their textual multibase rendering.
package hasher

import (
	"encoding/base32"
	"hash"

	"github.com/klauspost/cpuid/v2"
	sha256 "github.com/minio/sha256-simd"
	"github.com/multiformats/go-base36"
	"github.com/pkg/errors"
	"github.com/twmb/murmur3"
	"golang.org/x/crypto/blake2b"
)

type Maker func() hash.Hash

// "none" maps to a nil Maker: no digest is computed
var AvailableHashers = map[string]Maker{
	"none":     nil,
	"sha2-256": sha256.New,
	"blake2b-256": func() hash.Hash {
		// only fails on oversized keys
		h, _ := blake2b.New256(nil)
		return h
	},
	"murmur3-128": func() hash.Hash { return murmur3.New128() },
}

// Accelerated reports whether the named hash runs on dedicated CPU
// instructions on this machine.
func Accelerated(name string) bool {
	switch name {
	case "sha2-256":
		return cpuid.CPU.Supports(cpuid.SHA) || cpuid.CPU.Supports(cpuid.SHA2)
	case "blake2b-256":
		return cpuid.CPU.Supports(cpuid.AVX2)
	default:
		return false
	}
}

var AvailableMultibases = map[string]struct{}{
	"base32": {},
	"base36": {},
}

// Formatter returns a function rendering digests in the given multibase,
// including the multibase prefix character.
func Formatter(multibase string) (func([]byte) string, error) {
	switch multibase {
	case "base32":
		b32Encoder := base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)
		return func(d []byte) string { return "b" + b32Encoder.EncodeToString(d) }, nil
	case "base36":
		return func(d []byte) string { return "k" + base36.EncodeToStringLc(d) }, nil
	default:
		return nil, errors.Errorf("unsupported digest multibase '%s'", multibase)
	}
}
