package hasher

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKnownDigests(t *testing.T) {
	for name, want := range map[string]string{
		// sha256("")
		"sha2-256": "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		// blake2b-256("")
		"blake2b-256": "0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8",
	} {
		h := AvailableHashers[name]()
		assert.Equal(t, want, hex.EncodeToString(h.Sum(nil)), name)
	}

	m := AvailableHashers["murmur3-128"]()
	m.Write([]byte("x"))
	assert.Len(t, m.Sum(nil), 16)

	assert.Nil(t, AvailableHashers["none"])
}

func TestFormatter(t *testing.T) {
	b32, err := Formatter("base32")
	require.NoError(t, err)
	assert.Equal(t, "bmzxw6", b32([]byte("foo")))

	b36, err := Formatter("base36")
	require.NoError(t, err)
	assert.Equal(t, byte('k'), b36([]byte("foo"))[0])

	_, err = Formatter("base58")
	assert.Error(t, err)

	for mb := range AvailableMultibases {
		_, err := Formatter(mb)
		assert.NoError(t, err, mb)
	}
}
