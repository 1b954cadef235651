// Package id generates prefixed record identifiers.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// PrefixInstall prefixes pack install record ids.
const PrefixInstall = "inst"

// Generator produces a unique id for prefix. Components take one so tests can pin ids.
type Generator func(prefix string) (string, error)

// Generate returns "prefix-<nanoid>", e.g. "inst-V1StGXR8_Z5jdHi6B-myT".
// It fails only when the system cannot supply secure randomness.
func Generate(prefix string) (string, error) {
	n, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + n, nil
}

// Sequential returns a Generator yielding "prefix-1", "prefix-2", ... for deterministic tests.
// The returned Generator is not safe for concurrent use.
func Sequential() Generator {
	var n int
	return func(prefix string) (string, error) {
		n++
		return fmt.Sprintf("%s-%d", prefix, n), nil
	}
}
