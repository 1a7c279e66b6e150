package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// BridgeDir returns the on-disk directory for a given bridge deployment
// under datadir: datadir/bridges/<bridge_id_hex>/.
func BridgeDir(datadir string, bridgeIDHex string) string {
	return filepath.Join(datadir, "bridges", bridgeIDHex)
}

func ensureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}
