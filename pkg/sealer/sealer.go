package sealer

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	KeySize   = 32
	nonceSize = 24
)

var (
	ErrKeySize = errors.New("sealing key must be 32 bytes")
	ErrOpen    = errors.New("sealed data is corrupt or was sealed with another key")
)

type Key [KeySize]byte

// ParseKey decodes a hex encoded key.
func ParseKey(s string) (*Key, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	if len(raw) != KeySize {
		return nil, ErrKeySize
	}
	var k Key
	copy(k[:], raw)
	return &k, nil
}

// GenerateKey returns a random key, hex encoded.
func GenerateKey() (string, error) {
	bytes := make([]byte, KeySize)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// Seal encrypts and authenticates msg. The random nonce is prepended.
func Seal(key *Key, msg []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}
	k := [KeySize]byte(*key)
	return secretbox.Seal(nonce[:], msg, &nonce, &k), nil
}

func Open(key *Key, sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, ErrOpen
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	k := [KeySize]byte(*key)
	msg, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &k)
	if !ok {
		return nil, ErrOpen
	}
	return msg, nil
}
