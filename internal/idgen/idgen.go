// Package idgen generates short, URL-safe ids for export objects.
package idgen

import (
	"fmt"
	"strings"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet is lowercase-only so generated object keys sort and compare the
// same on case-insensitive filesystems.
const Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Length is the number of random characters (excluding any prefix).
const Length = 12

// Generate returns a random id with no prefix.
func Generate() (string, error) {
	return GenerateWithPrefix("")
}

// GenerateWithPrefix returns prefix followed by a random id.
func GenerateWithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}

// ObjectKey returns "<prefix><name>-<id><ext>", e.g.
// "reports/delivery-orders-k3j9x0a1b2c3.jsonl". A non-empty prefix without a
// trailing slash gets one.
func ObjectKey(prefix, name, ext string) (string, error) {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	id, err := GenerateWithPrefix(prefix + name + "-")
	if err != nil {
		return "", err
	}
	return id + ext, nil
}
