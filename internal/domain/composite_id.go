// Package domain contains the catalog records resolved by Packdex: media, characters, and the ids that join them.
package domain

import (
	"regexp"
	"slices"
	"strings"

	"github.com/packdex/packdex-server/internal/errors"
)

// DefaultBuiltinPackID is the pack id of the built-in catalog.
const DefaultBuiltinPackID = "anilist"

// ExplicitIDPrefix marks a query that names a composite id instead of text.
const ExplicitIDPrefix = "id="

//nolint:gochecknoglobals // Static list shared by validation and the CLI
var reservedPackIDs = []string{"anilist", "fable"}

var packIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

var tenantIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// CompositeID is the system-wide key of a media or character: "packId:localId".
type CompositeID string

// NewCompositeID joins a pack id and a local id.
func NewCompositeID(packID, localID string) CompositeID {
	return CompositeID(packID + ":" + localID)
}

// ParseCompositeID validates s and returns it as a CompositeID.
// The pack id ends at the first colon; the local id may contain further colons.
func ParseCompositeID(s string) (CompositeID, error) {
	s = strings.TrimSpace(s)
	packID, localID, ok := strings.Cut(s, ":")
	if !ok || packID == "" || localID == "" {
		return "", errors.InvalidRequestf("malformed id %q: expected packId:localId", s)
	}
	if !ValidPackID(packID) {
		return "", errors.InvalidRequestf("malformed id %q: invalid pack id", s)
	}
	return CompositeID(s), nil
}

// PackID returns the owning pack id.
func (c CompositeID) PackID() string {
	packID, _, _ := strings.Cut(string(c), ":")
	return packID
}

// LocalID returns the id of the record inside its pack.
func (c CompositeID) LocalID() string {
	_, localID, _ := strings.Cut(string(c), ":")
	return localID
}

// String implements fmt.Stringer.
func (c CompositeID) String() string {
	return string(c)
}

// ValidPackID reports whether id is a syntactically valid pack id.
func ValidPackID(id string) bool {
	return packIDPattern.MatchString(id)
}

// ValidTenantID reports whether id can name a tenant: 1 to 128 letters, digits, '.', '_' or '-'.
func ValidTenantID(id string) bool {
	return len(id) <= 128 && tenantIDPattern.MatchString(id)
}

// IsReservedPackID reports whether id belongs to a built-in catalog.
func IsReservedPackID(id string) bool {
	return slices.Contains(reservedPackIDs, id)
}

// ResolveReference turns a record reference found inside pack packID into a CompositeID.
// Bare local ids refer to the same pack; "other:5" refers to another pack.
func ResolveReference(packID, ref string) CompositeID {
	ref = strings.TrimSpace(ref)
	if other, localID, ok := strings.Cut(ref, ":"); ok && other != "" && localID != "" {
		return CompositeID(ref)
	}
	return NewCompositeID(packID, ref)
}
