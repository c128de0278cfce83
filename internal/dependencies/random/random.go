package random

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Random provides random identifier generation that can be mocked for testing
type Random interface {
	// String generates a random string of the given length from the given alphabet
	String(length int, alphabet string) string
}

// NanoID implements Random using nanoid's crypto-backed generator
type NanoID struct{}

// New creates a new NanoID generator
func New() *NanoID {
	return &NanoID{}
}

// String generates a random string of the given length from the given alphabet.
// It returns an empty string for an empty alphabet or non-positive length.
func (r *NanoID) String(length int, alphabet string) string {
	if length <= 0 || len(alphabet) == 0 {
		return ""
	}
	id, err := gonanoid.Generate(alphabet, length)
	if err != nil {
		return ""
	}
	return id
}
