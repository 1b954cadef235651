package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/packdex/packdex-server/internal/domain"
	"github.com/packdex/packdex-server/internal/errors"
)

// Format is a manifest encoding.
type Format string

// Supported manifest formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf picks a format from a file extension. ok is false for unsupported extensions.
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	default:
		return "", false
	}
}

// DecodeManifest reads a manifest in the given format. Unknown fields are rejected.
func DecodeManifest(r io.Reader, format Format) (Manifest, error) {
	var m Manifest
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&m); err != nil {
			return Manifest{}, errors.Wrap(err, errors.CodeInvalidPack, "malformed JSON manifest")
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil {
			return Manifest{}, errors.Wrap(err, errors.CodeInvalidPack, "malformed YAML manifest")
		}
	default:
		return Manifest{}, errors.InvalidPackf("unsupported manifest format %q", format)
	}
	return m, nil
}

// ReadManifest loads a manifest file, choosing the decoder by extension.
func ReadManifest(path string) (Manifest, error) {
	format, ok := FormatOf(path)
	if !ok {
		return Manifest{}, errors.InvalidPackf("unsupported manifest file %q", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}

	m, err := DecodeManifest(bytes.NewReader(data), format)
	if err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return m, nil
}

// LoadFile reads and builds the pack stored at path.
func LoadFile(path string, kind domain.PackKind, opts BuildOptions) (*Pack, error) {
	m, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	p, err := Build(m, kind, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return p, nil
}

// LoadDir builds every manifest file directly inside dir as a community pack, in file name order.
// Files that fail are skipped; their errors are joined into the returned error
// alongside the packs that loaded.
func LoadDir(dir string, opts BuildOptions) ([]*Pack, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read packs dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := FormatOf(e.Name()); ok {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	var (
		packs []*Pack
		errs  []error
	)
	for _, name := range names {
		p, err := LoadFile(filepath.Join(dir, name), domain.PackKindCommunity, opts)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		packs = append(packs, p)
	}

	return packs, errors.Join(errs...)
}
