package utils

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

// NewID returns a UUID v4. If the secure random source is unavailable
// (seen on some locked-down POS terminals), it falls back to a
// pseudo-random id so inserts never fail on id generation.
func NewID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return pseudoID()
	}
	return id.String()
}

func pseudoID() string {
	return fmt.Sprintf("%08x-%04x-4%03x-%04x-%012x",
		rand.Int63n(1<<32), rand.Int63n(1<<16), rand.Int63n(1<<12),
		rand.Int63n(1<<16), rand.Int63n(1<<44))
}

// RandomSuffix returns n upper-case hex characters for SKU suffixes.
func RandomSuffix(n int) string {
	const alphabet = "0123456789ABCDEF"
	b := make([]byte, n)
	id, err := uuid.NewRandom()
	if err == nil {
		for i := range b {
			b[i] = alphabet[int(id[i%len(id)])%len(alphabet)]
		}
		return string(b)
	}
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}
