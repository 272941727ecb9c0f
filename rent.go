package swapvault

import "math"

// AccountStorageOverhead is the number of bytes every account is charged
// for on top of its data.
const AccountStorageOverhead = 128

// Rent describes how much an account must hold to be exempt from rent.
type Rent struct {
	LamportsPerByteYear uint64  `toml:"lamports_per_byte_year"`
	ExemptionThreshold  float64 `toml:"exemption_threshold"`
}

// DefaultRent is the rent used when none is configured.
var DefaultRent = Rent{
	LamportsPerByteYear: 3480,
	ExemptionThreshold:  2.0,
}

// MinimumBalance returns the lowest lamport balance an account of the given
// data size needs to persist indefinitely.
func (r Rent) MinimumBalance(space int) uint64 {
	bytes := uint64(AccountStorageOverhead + space)
	return uint64(math.Floor(float64(bytes*r.LamportsPerByteYear) * r.ExemptionThreshold))
}

// IsExempt returns true if the balance is enough for an account of the
// given size.
func (r Rent) IsExempt(lamports uint64, space int) bool {
	return lamports >= r.MinimumBalance(space)
}
