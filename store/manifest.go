package store

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"dogebridge.dev/core/wire"
)

const SchemaVersionV1 uint32 = 1

// Manifest is the crash-safe commit point for the bridge header: the
// mutable scalar state that must never be observed half-written. Buffer
// payloads and merkle leaves live in bbolt buckets instead; they are either
// present or absent per-key, so they don't need the same atomic-file
// treatment.
type Manifest struct {
	SchemaVersion uint32 `json:"schema_version"`
	BridgeIDHex   string `json:"bridge_id_hex"`
	HeaderHex     string `json:"header_hex"`
}

// HeaderOf decodes the manifest's stored BridgeHeader.
func (m *Manifest) HeaderOf() (wire.BridgeHeader, error) {
	b, err := hex.DecodeString(m.HeaderHex)
	if err != nil {
		return wire.BridgeHeader{}, fmt.Errorf("manifest: header hex: %w", err)
	}
	return wire.DecodeBridgeHeader(b)
}

// NewManifest builds a manifest for bridgeIDHex with header as its initial
// BridgeHeader.
func NewManifest(bridgeIDHex string, header wire.BridgeHeader) *Manifest {
	return &Manifest{
		SchemaVersion: SchemaVersionV1,
		BridgeIDHex:   bridgeIDHex,
		HeaderHex:     hex.EncodeToString(header.Encode()),
	}
}

func manifestPath(bridgeDir string) string {
	return filepath.Join(bridgeDir, "MANIFEST.json")
}

func readManifest(bridgeDir string) (*Manifest, error) {
	b, err := os.ReadFile(manifestPath(bridgeDir)) // #nosec G304 -- bridgeDir is derived from operator-controlled datadir, not user input.
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("manifest json: %w", err)
	}
	return &m, nil
}

// writeManifestAtomic writes MANIFEST.json as a crash-safe commit point:
// write temp -> fsync temp -> rename -> fsync dir.
func writeManifestAtomic(bridgeDir string, m *Manifest) error {
	if m == nil {
		return fmt.Errorf("manifest: nil")
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest json: %w", err)
	}
	b = append(b, '\n')

	final := manifestPath(bridgeDir)
	tmp := final + ".tmp"

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600) // #nosec G304 -- tmp path derived from operator-controlled datadir.
	if err != nil {
		return fmt.Errorf("manifest open tmp: %w", err)
	}
	_, werr := f.Write(b)
	serr := f.Sync()
	cerr := f.Close()
	if werr != nil {
		return fmt.Errorf("manifest write tmp: %w", werr)
	}
	if serr != nil {
		return fmt.Errorf("manifest fsync tmp: %w", serr)
	}
	if cerr != nil {
		return fmt.Errorf("manifest close tmp: %w", cerr)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("manifest rename: %w", err)
	}

	d, err := os.Open(bridgeDir) // #nosec G304 -- bridgeDir derived from operator-controlled datadir.
	if err != nil {
		return fmt.Errorf("manifest fsync dir open: %w", err)
	}
	if err := d.Sync(); err != nil {
		_ = d.Close()
		return fmt.Errorf("manifest fsync dir: %w", err)
	}
	if err := d.Close(); err != nil {
		return fmt.Errorf("manifest fsync dir close: %w", err)
	}
	return nil
}
