package filekit

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
)

// Namer produces random file names (without extension) for the generated
// filename policy.
type Namer interface {
	Name() (string, error)
}

// NamerFunc adapts a function to the Namer interface.
type NamerFunc func() (string, error)

// Name calls f.
func (f NamerFunc) Name() (string, error) { return f() }

// RandomNamer generates URL-safe names of Length characters from crypto/rand.
// The zero value produces 32-character names.
type RandomNamer struct {
	Length int
}

// Name returns a new random name.
func (n RandomNamer) Name() (string, error) {
	length := n.Length
	if length <= 0 {
		length = 32
	}
	// base64 yields 4 characters per 3 bytes
	buf := make([]byte, (length*3+3)/4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("filekit: random name: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)[:length], nil
}

// UUIDNamer generates version 4 UUIDs.
type UUIDNamer struct{}

// Name returns a new UUID string.
func (UUIDNamer) Name() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("filekit: uuid name: %w", err)
	}
	return id.String(), nil
}

// NamerByName returns the namer registered under name: "random" (or "")
// and "uuid".
func NamerByName(name string) (Namer, error) {
	switch name {
	case "", "random":
		return RandomNamer{}, nil
	case "uuid":
		return UUIDNamer{}, nil
	default:
		return nil, fmt.Errorf("filekit: unknown namer %q", name)
	}
}
