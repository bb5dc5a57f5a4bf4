package runtime

// AccountStorageOverhead is the per-account byte count charged on top of the
// account's data when computing rent.
const AccountStorageOverhead = 128

// Rent prices account storage. An account is exempt once it holds
// ExemptionYears worth of rent for its size.
type Rent struct {
	LamportsPerByteYear uint64
	ExemptionYears      uint64
}

// DefaultRent mirrors the mainnet parameters: 3480 lamports per byte-year and
// a two year exemption threshold.
func DefaultRent() Rent {
	return Rent{LamportsPerByteYear: 3480, ExemptionYears: 2}
}

// MinimumBalance returns the lamports an account of dataLen bytes needs to be
// rent exempt.
func (r Rent) MinimumBalance(dataLen int) uint64 {
	return (AccountStorageOverhead + uint64(dataLen)) * r.LamportsPerByteYear * r.ExemptionYears
}

// IsExempt reports whether lamports cover the exemption threshold.
func (r Rent) IsExempt(lamports uint64, dataLen int) bool {
	return lamports >= r.MinimumBalance(dataLen)
}
