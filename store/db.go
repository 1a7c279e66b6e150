// Package store persists everything the bridge core's in-memory state
// doesn't keep resident: withdrawal requests and their tree leaves,
// auto-claim deposit records, per-user manual-claim leaves, the snapshot
// ring, and the current BridgeHeader. It reprojects the host chain's
// preallocated-account model onto a general embedded KV store, per
// SPEC_FULL.md's design notes.
package store

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"dogebridge.dev/core/wire"
)

var (
	bucketWithdrawalRequests = []byte("withdrawal_requests_by_index")
	bucketWithdrawalSnaps    = []byte("withdrawal_snapshots_by_slot")
	bucketDeposits           = []byte("auto_claim_deposits_by_index")
	bucketManualClaims       = []byte("manual_claim_leaves") // nested per-user buckets
	bucketBufferPayloads     = []byte("buffer_payloads_by_key")
)

// DB is the bridge core's persistence handle: one bbolt file plus an
// atomically-written manifest file per bridge deployment.
type DB struct {
	bridgeDir string
	db        *bolt.DB
	manifest  *Manifest
}

// Open opens (creating if absent) the bbolt store and reads the manifest
// for bridgeIDHex under datadir. A missing manifest is not an error: the
// caller must Initialize before using the bridge.
func Open(datadir string, bridgeIDHex string) (*DB, error) {
	if datadir == "" {
		return nil, fmt.Errorf("store: datadir required")
	}
	if bridgeIDHex == "" {
		return nil, fmt.Errorf("store: bridge_id_hex required")
	}

	bridgeDir := BridgeDir(datadir, bridgeIDHex)
	if err := ensureDir(bridgeDir); err != nil {
		return nil, err
	}
	if err := ensureDir(filepath.Join(bridgeDir, "db")); err != nil {
		return nil, err
	}

	path := filepath.Join(bridgeDir, "db", "kv.db")
	bdb, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open bbolt: %w", err)
	}

	d := &DB{bridgeDir: bridgeDir, db: bdb}

	if err := d.db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketWithdrawalRequests, bucketWithdrawalSnaps, bucketDeposits, bucketManualClaims, bucketBufferPayloads} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", string(b), err)
			}
		}
		return nil
	}); err != nil {
		_ = bdb.Close()
		return nil, err
	}

	m, err := readManifest(bridgeDir)
	if err != nil {
		if os.IsNotExist(err) {
			return d, nil // uninitialized bridge; caller must Initialize.
		}
		_ = bdb.Close()
		return nil, fmt.Errorf("store: read manifest: %w", err)
	}
	if m.SchemaVersion > SchemaVersionV1 {
		_ = bdb.Close()
		return nil, fmt.Errorf("store: manifest schema_version %d > supported %d", m.SchemaVersion, SchemaVersionV1)
	}
	d.manifest = m
	return d, nil
}

func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

func (d *DB) BridgeDir() string { return d.bridgeDir }

func (d *DB) Manifest() *Manifest {
	if d == nil {
		return nil
	}
	return d.manifest
}

func (d *DB) SetManifest(m *Manifest) error {
	if d == nil {
		return fmt.Errorf("store: nil db")
	}
	if err := writeManifestAtomic(d.bridgeDir, m); err != nil {
		return err
	}
	d.manifest = m
	return nil
}

func be64(n uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], n)
	return b[:]
}

// PutWithdrawalRequest stores request at its assigned index.
func (d *DB) PutWithdrawalRequest(index uint64, req wire.WithdrawalRequest) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketWithdrawalRequests).Put(be64(index), req.Encode())
	})
}

// GetWithdrawalRequest reads back the request at index.
func (d *DB) GetWithdrawalRequest(index uint64) (wire.WithdrawalRequest, bool, error) {
	var out wire.WithdrawalRequest
	var ok bool
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketWithdrawalRequests).Get(be64(index))
		if v == nil {
			return nil
		}
		req, err := wire.DecodeWithdrawalRequest(v)
		if err != nil {
			return err
		}
		out, ok = req, true
		return nil
	})
	return out, ok, err
}

// PutWithdrawalSnapshot stores a snapshot ring entry at slot.
func (d *DB) PutWithdrawalSnapshot(slot uint32, snap wire.WithdrawalChainSnapshot) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketWithdrawalSnaps).Put(be32(slot), snap.Encode())
	})
}

// GetWithdrawalSnapshot reads back the snapshot at slot.
func (d *DB) GetWithdrawalSnapshot(slot uint32) (wire.WithdrawalChainSnapshot, bool, error) {
	var out wire.WithdrawalChainSnapshot
	var ok bool
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketWithdrawalSnaps).Get(be32(slot))
		if v == nil {
			return nil
		}
		snap, err := wire.DecodeWithdrawalChainSnapshot(v)
		if err != nil {
			return err
		}
		out, ok = snap, true
		return nil
	})
	return out, ok, err
}

// PutDepositRecord stores an auto-claimed deposit at its tree index.
func (d *DB) PutDepositRecord(index uint64, rec wire.DepositRecord) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDeposits).Put(be64(index), rec.Encode())
	})
}

// GetDepositRecord reads back the deposit record at index.
func (d *DB) GetDepositRecord(index uint64) (wire.DepositRecord, bool, error) {
	var out wire.DepositRecord
	var ok bool
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketDeposits).Get(be64(index))
		if v == nil {
			return nil
		}
		rec, err := wire.DecodeDepositRecord(v)
		if err != nil {
			return err
		}
		out, ok = rec, true
		return nil
	})
	return out, ok, err
}

// PutManualClaim records that user claimed txHash at their subtree index.
func (d *DB) PutManualClaim(user [32]byte, index uint64, txHash [32]byte) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		userBucket, err := tx.Bucket(bucketManualClaims).CreateBucketIfNotExists(user[:])
		if err != nil {
			return err
		}
		return userBucket.Put(be64(index), txHash[:])
	})
}

// HasManualClaim reports whether user has already claimed txHash, scanning
// their subtree bucket. Subtrees are small in practice (bounded by
// merkle.MaxDepth capacity) so a linear scan is acceptable.
func (d *DB) HasManualClaim(user [32]byte, txHash [32]byte) (bool, error) {
	found := false
	err := d.db.View(func(tx *bolt.Tx) error {
		userBucket := tx.Bucket(bucketManualClaims).Bucket(user[:])
		if userBucket == nil {
			return nil
		}
		return userBucket.ForEach(func(_, v []byte) error {
			if len(v) == 32 && [32]byte(v) == txHash {
				found = true
			}
			return nil
		})
	})
	return found, err
}

// PutBufferPayload stores raw bytes under key, e.g. a generic buffer's
// staged Dogecoin transaction bytes keyed by its account identifier.
func (d *DB) PutBufferPayload(key string, payload []byte) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketBufferPayloads).Put([]byte(key), payload)
	})
}

// GetBufferPayload reads back the bytes stored under key.
func (d *DB) GetBufferPayload(key string) ([]byte, bool, error) {
	var out []byte
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketBufferPayloads).Get([]byte(key))
		if v == nil {
			return nil
		}
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

func be32(n uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], n)
	return b[:]
}
