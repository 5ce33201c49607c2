// Package codegen produces random fixed-length alphanumeric short codes.
package codegen

import (
	"crypto/rand"
	"io"
)

// Alphabet holds the 62 characters a code is drawn from.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultLength is the code length used when none is configured.
const DefaultLength = 6

// maxByte is the largest multiple of len(Alphabet) that fits in a byte.
// Bytes at or above it are rejected so every character is equally likely.
const maxByte = 256 - (256 % len(Alphabet))

// Generator draws codes from a random source. It does not check for
// collisions; the caller retries on conflict.
type Generator struct {
	length int
	rand   io.Reader
}

// New returns a Generator backed by crypto/rand.
func New(length int) *Generator {
	return NewWithReader(length, rand.Reader)
}

// NewWithReader returns a Generator reading randomness from r.
func NewWithReader(length int, r io.Reader) *Generator {
	if length <= 0 {
		length = DefaultLength
	}

	return &Generator{
		length: length,
		rand:   r,
	}
}

// Length returns the number of characters in generated codes.
func (g *Generator) Length() int {
	return g.length
}

// Generate returns a new code.
func (g *Generator) Generate() (string, error) {
	code := make([]byte, 0, g.length)
	buf := make([]byte, g.length+g.length/2)

	for len(code) < g.length {
		if _, err := io.ReadFull(g.rand, buf); err != nil {
			return "", err
		}

		for _, b := range buf {
			if int(b) >= maxByte {
				continue
			}
			code = append(code, Alphabet[int(b)%len(Alphabet)])
			if len(code) == g.length {
				break
			}
		}
	}

	return string(code), nil
}

// IsCode reports whether s could have been produced by a Generator.
func IsCode(s string) bool {
	if s == "" {
		return false
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9') {
			return false
		}
	}

	return true
}
