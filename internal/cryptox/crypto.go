// Package cryptox holds the payload transforms applied to message bodies
// before they reach disk: lz4 compression for plain storage, and anonymous
// public-key sealing when a recipient key is on file.
package cryptox

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
	"golang.org/x/crypto/nacl/box"
)

// KeySize is the length of an X25519 recipient key.
const KeySize = 32

// Compress returns the lz4 frame encoding of data.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		_ = zw.Close()
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress inflates an lz4 frame produced by Compress.
func Decompress(data []byte) ([]byte, error) {
	out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	return out, nil
}

// Seal encrypts the whole message for the recipient's public key. Only the
// holder of the matching private key can open the result; the sender keeps
// no decryption capability.
func Seal(message []byte, recipient *[KeySize]byte) ([]byte, error) {
	sealed, err := box.SealAnonymous(nil, message, recipient, rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("seal: %w", err)
	}
	return sealed, nil
}

// Open decrypts a message produced by Seal using the recipient's key pair.
func Open(sealed []byte, publicKey, privateKey *[KeySize]byte) ([]byte, error) {
	message, ok := box.OpenAnonymous(nil, sealed, publicKey, privateKey)
	if !ok {
		return nil, fmt.Errorf("open: decryption failed")
	}
	return message, nil
}

// GenerateKeyPair creates a fresh X25519 key pair.
func GenerateKeyPair() (publicKey, privateKey *[KeySize]byte, err error) {
	return box.GenerateKey(rand.Reader)
}
