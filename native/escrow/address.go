package escrow

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

const (
	escrowSeedPrefix = "escrow"
	vaultSeedPrefix  = "vault"
)

// SeedBytes is the little-endian form of seed used in address derivation.
func SeedBytes(seed uint64) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, seed)
	return out
}

func escrowSeeds(maker solana.PublicKey, seed uint64) [][]byte {
	return [][]byte{[]byte(escrowSeedPrefix), maker.Bytes(), SeedBytes(seed)}
}

func vaultSeeds(escrow solana.PublicKey) [][]byte {
	return [][]byte{[]byte(vaultSeedPrefix), escrow.Bytes()}
}

func withBump(seeds [][]byte, bump uint8) [][]byte {
	out := make([][]byte, 0, len(seeds)+1)
	out = append(out, seeds...)
	return append(out, []byte{bump})
}

// FindEscrowAddress derives the escrow record address of maker's swap
// identified by seed.
func FindEscrowAddress(programID, maker solana.PublicKey, seed uint64) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(escrowSeeds(maker, seed), programID)
}

// FindVaultAddress derives the vault holding that backs escrow.
func FindVaultAddress(programID, escrow solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(vaultSeeds(escrow), programID)
}

// escrowAddressWithBump recomputes an escrow address from a stored bump.
func escrowAddressWithBump(programID, maker solana.PublicKey, seed uint64, bump uint8) (solana.PublicKey, error) {
	return solana.CreateProgramAddress(withBump(escrowSeeds(maker, seed), bump), programID)
}
