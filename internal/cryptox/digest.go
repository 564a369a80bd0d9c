// Package cryptox provides content digests used to derive stable identities
// for local files.
package cryptox

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"
)

// Digest returns the BLAKE2b-256 sum of everything read from r.
func Digest(r io.Reader) ([]byte, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(h, r); err != nil {
		return nil, fmt.Errorf("digest: %w", err)
	}
	return h.Sum(nil), nil
}

// DigestFile returns the BLAKE2b-256 sum of the file at path.
func DigestFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Digest(f)
}

// HexDigest is Digest encoded as lowercase hex.
func HexDigest(r io.Reader) (string, error) {
	sum, err := Digest(r)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sum), nil
}
