package model

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Authority is the process-wide authorization record: the contract owner set
// at first boot and the mutable fraud oracle. A zero oracle address means
// fraud protection is disabled, not open to all callers.
type Authority struct {
	Owner       common.Address `json:"owner"`
	FraudOracle common.Address `json:"fraud_oracle"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// FraudProtectionActive reports whether a fraud oracle is configured.
func (a *Authority) FraudProtectionActive() bool {
	return a != nil && !IsZeroAddress(a.FraudOracle)
}

// IsOracle reports whether addr is the configured fraud oracle. It is false
// for every address, including the zero address, while the oracle is unset.
func (a *Authority) IsOracle(addr common.Address) bool {
	return a.FraudProtectionActive() && a.FraudOracle == addr
}
