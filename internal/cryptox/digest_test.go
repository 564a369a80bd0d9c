package cryptox

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

func TestDigest_MatchesBlake2b(t *testing.T) {
	want := blake2b.Sum256([]byte("hello"))

	got, err := Digest(strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, want[:], got)
}

func TestDigest_DifferentInputsDiffer(t *testing.T) {
	a, err := HexDigest(strings.NewReader("a"))
	require.NoError(t, err)
	b, err := HexDigest(strings.NewReader("b"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 64)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestDigest_ReadError(t *testing.T) {
	_, err := Digest(failingReader{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read failed")
}

func TestDigestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o600))

	got, err := DigestFile(path)
	require.NoError(t, err)

	want := blake2b.Sum256([]byte("content"))
	assert.Equal(t, want[:], got)

	_, err = DigestFile(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
}
