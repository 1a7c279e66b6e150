// Package config defines the bridge operator's deployment configuration,
// validated the way the reference node config is: a plain struct and a
// field-by-field ValidateConfig, no validation library.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the operator-supplied deployment configuration.
type Config struct {
	BridgeIDHex        string `json:"bridge_id_hex"`
	DataDir            string `json:"data_dir"`
	OperatorPubkeyHex  string `json:"operator_pubkey_hex"`
	WrappedMintHex     string `json:"wrapped_mint_hex"`
	DepositFeeBps      uint16 `json:"deposit_fee_bps"`
	WithdrawalFeeBps   uint16 `json:"withdrawal_fee_bps"`
	FlatFeeSats        uint64 `json:"flat_fee_sats"`
	ReorgDepthLimit    uint32 `json:"reorg_depth_limit"`
}

func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".dogebridge"
	}
	return filepath.Join(home, ".dogebridge")
}

// DefaultConfig returns a Config with the spec's named defaults: 10-block
// reorg tolerance (SPEC_FULL §3/§5) and no fees.
func DefaultConfig() Config {
	return Config{
		BridgeIDHex:      "",
		DataDir:          DefaultDataDir(),
		DepositFeeBps:    0,
		WithdrawalFeeBps: 0,
		FlatFeeSats:      0,
		ReorgDepthLimit:  10,
	}
}

func ValidateConfig(cfg Config) error {
	if err := validateHex32("bridge_id_hex", cfg.BridgeIDHex); err != nil {
		return err
	}
	if cfg.DataDir == "" {
		return errors.New("data_dir is required")
	}
	if err := validateHex32("operator_pubkey_hex", cfg.OperatorPubkeyHex); err != nil {
		return err
	}
	if err := validateHex32("wrapped_mint_hex", cfg.WrappedMintHex); err != nil {
		return err
	}
	if cfg.DepositFeeBps > 10_000 {
		return errors.New("deposit_fee_bps must be <= 10000")
	}
	if cfg.WithdrawalFeeBps > 10_000 {
		return errors.New("withdrawal_fee_bps must be <= 10000")
	}
	if cfg.ReorgDepthLimit == 0 || cfg.ReorgDepthLimit > 100 {
		return errors.New("reorg_depth_limit must be in 1..100")
	}
	return nil
}

func validateHex32(field, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", field)
	}
	b, err := hex.DecodeString(value)
	if err != nil {
		return fmt.Errorf("%s: invalid hex: %w", field, err)
	}
	if len(b) != 32 {
		return fmt.Errorf("%s: want 32 bytes, got %d", field, len(b))
	}
	return nil
}
