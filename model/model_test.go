package model

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    *big.Int
		wantErr bool
	}{
		{name: "whole PYUSD", in: "100.00", want: big.NewInt(100_000_000)},
		{name: "six decimal places", in: "0.000001", want: big.NewInt(1)},
		{name: "large price", in: "2500", want: big.NewInt(2_500_000_000)},
		{name: "too many decimals", in: "1.0000001", wantErr: true},
		{name: "not a number", in: "ten", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, 0, tt.want.Cmp(got))
		})
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "100", FormatAmount(big.NewInt(100_000_000)))
	assert.Equal(t, "0.000001", FormatAmount(big.NewInt(1)))
	assert.Equal(t, "0", FormatAmount(nil))
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0x52908400098527886E0F7030069857D2E4169EE7")
	assert.NoError(t, err)
	assert.False(t, IsZeroAddress(addr))

	_, err = ParseAddress("not-an-address")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestEscrowStatusTerminal(t *testing.T) {
	assert.False(t, EscrowStatusActive.Terminal())
	assert.True(t, EscrowStatusReleased.Terminal())
	assert.True(t, EscrowStatusRefunded.Terminal())
	assert.True(t, EscrowStatusFraudFlagged.Terminal())
	assert.False(t, EscrowStatus("UNKNOWN").Terminal())
}

func TestAuthorityOracleChecks(t *testing.T) {
	oracle := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	unset := &Authority{}
	assert.False(t, unset.FraudProtectionActive())
	// An unset oracle must not authorize anyone, the zero address included.
	assert.False(t, unset.IsOracle(common.Address{}))
	assert.False(t, unset.IsOracle(oracle))

	set := &Authority{FraudOracle: oracle}
	assert.True(t, set.FraudProtectionActive())
	assert.True(t, set.IsOracle(oracle))
	assert.False(t, set.IsOracle(common.HexToAddress("0x00000000000000000000000000000000000000bb")))
}

func TestEscrowClone(t *testing.T) {
	e := &Escrow{ID: 1, Amount: big.NewInt(500), Status: EscrowStatusActive}
	clone := e.Clone()
	clone.Amount.SetInt64(9)
	assert.Equal(t, int64(500), e.Amount.Int64())
}
