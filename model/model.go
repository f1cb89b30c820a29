/*
Copyright 2025 SafeSend Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package model

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TokenDecimals is the fixed-point precision of PYUSD. All amounts are stored
// as micro-PYUSD (*big.Int); decimal strings only exist at the API boundary.
const TokenDecimals = 6

// ErrInvalidAddress is returned when a caller-supplied address is not a valid
// 20-byte hex address.
var ErrInvalidAddress = errors.New("invalid address")

// GenerateUUIDWithSuffix generates a UUID with a given module name as a prefix.
// This is useful for creating unique identifiers with context-specific prefixes.
func GenerateUUIDWithSuffix(module string) string {
	id := uuid.New()
	uuidStr := id.String()
	idWithSuffix := fmt.Sprintf("%s_%s", module, uuidStr)
	return idWithSuffix
}

// ParseAddress validates and normalizes a hex address string.
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return common.HexToAddress(s), nil
}

// IsZeroAddress reports whether addr is the zero address. The zero address is
// never a valid party and doubles as "unset" for the fraud oracle.
func IsZeroAddress(addr common.Address) bool {
	return addr == (common.Address{})
}

// ParseAmount converts a decimal PYUSD string (e.g. "100.00") into
// micro-PYUSD. Amounts with more than TokenDecimals fractional digits are
// rejected rather than truncated.
func ParseAmount(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.Exponent() < -TokenDecimals {
		return nil, fmt.Errorf("amount %q exceeds %d decimal places", s, TokenDecimals)
	}
	return d.Shift(TokenDecimals).BigInt(), nil
}

// FormatAmount renders micro-PYUSD as a decimal PYUSD string.
func FormatAmount(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -TokenDecimals).String()
}

// CloneBigInt returns a copy of v, treating nil as zero.
func CloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
