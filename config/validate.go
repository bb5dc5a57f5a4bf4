package config

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

var validLogLevels = map[string]struct{}{
	"debug": {}, "info": {}, "warn": {}, "warning": {}, "error": {},
}

// ValidateConfig rejects configurations the ledger cannot run with.
func ValidateConfig(c *Config) error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: DataDir must be set")
	}
	escrowID, err := solana.PublicKeyFromBase58(c.EscrowProgramID)
	if err != nil {
		return fmt.Errorf("config: EscrowProgramID: %w", err)
	}
	custodyID, err := solana.PublicKeyFromBase58(c.CustodyProgramID)
	if err != nil {
		return fmt.Errorf("config: CustodyProgramID: %w", err)
	}
	if escrowID == custodyID {
		return fmt.Errorf("config: escrow and custody programs must differ")
	}
	if escrowID == solana.SystemProgramID || custodyID == solana.SystemProgramID {
		return fmt.Errorf("config: program ids must not be the system program")
	}
	if c.Rent.LamportsPerByteYear == 0 || c.Rent.ExemptionYears == 0 {
		return fmt.Errorf("config: rent parameters must be positive")
	}
	if c.API.RequestsPerMinute < 0 || c.API.Burst < 0 {
		return fmt.Errorf("config: api rate limits must not be negative")
	}
	if _, ok := validLogLevels[c.Log.Level]; !ok {
		return fmt.Errorf("config: unknown log level %q", c.Log.Level)
	}
	return nil
}
