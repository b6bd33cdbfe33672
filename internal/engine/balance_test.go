package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToBaseUnits(t *testing.T) {
	cases := []struct {
		name     string
		amount   string
		decimals int32
		want     uint64
	}{
		{"whole", "100", 6, 100_000_000},
		{"fractional", "1.5", 9, 1_500_000_000},
		{"truncates excess precision", "1.2345678", 6, 1_234_567},
		{"truncates toward zero", "0.9999999", 6, 999_999},
		{"zero", "0", 6, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToBaseUnits(decimal.RequireFromString(tc.amount), tc.decimals)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestToBaseUnitsOverflow(t *testing.T) {
	huge := decimal.RequireFromString("99999999999999999999999999")
	_, err := ToBaseUnits(huge, 9)
	require.Error(t, err)
	assert.Equal(t, CodeInternalError, toEngineError(err).Code)
}

func TestLockRequiresExistingUser(t *testing.T) {
	table := NewBalanceTable()
	err := table.Lock("ghost", "USDC", 100)
	require.Error(t, err)
	assert.Equal(t, CodeUserNotFound, toEngineError(err).Code)
}

func TestLockInsufficientBalance(t *testing.T) {
	table := NewBalanceTable()
	table.Seed("1", "USDC", 50)

	err := table.Lock("1", "USDC", 51)
	require.Error(t, err)
	assert.Equal(t, CodeInsufficientBalance, toEngineError(err).Code)

	// nothing moved
	snap, ok := table.Snapshot("1")
	require.True(t, ok)
	assert.Equal(t, uint64(50), snap["USDC"].AvailableAmount)
	assert.Equal(t, uint64(0), snap["USDC"].LockedAmount)
}

func TestLockUnlockRoundTrip(t *testing.T) {
	table := NewBalanceTable()
	table.Seed("1", "USDC", 1000)

	require.NoError(t, table.Lock("1", "USDC", 400))
	snap, _ := table.Snapshot("1")
	assert.Equal(t, uint64(600), snap["USDC"].AvailableAmount)
	assert.Equal(t, uint64(400), snap["USDC"].LockedAmount)

	require.NoError(t, table.Unlock("1", "USDC", 400))
	snap, _ = table.Snapshot("1")
	assert.Equal(t, uint64(1000), snap["USDC"].AvailableAmount)
	assert.Equal(t, uint64(0), snap["USDC"].LockedAmount)
}

func TestUnlockMoreThanLockedFails(t *testing.T) {
	table := NewBalanceTable()
	table.Seed("1", "USDC", 100)
	require.NoError(t, table.Lock("1", "USDC", 40))

	err := table.Unlock("1", "USDC", 41)
	require.Error(t, err)
	assert.Equal(t, CodeInternalError, toEngineError(err).Code)
}

func TestSettleMovesLockedFunds(t *testing.T) {
	table := NewBalanceTable()
	table.Seed("buyer", "USDC", 1000)
	table.Seed("seller", "SOL", 10)

	require.NoError(t, table.Lock("buyer", "USDC", 100))
	require.NoError(t, table.Lock("seller", "SOL", 5))

	err := table.Settle([]Settlement{
		{UserID: "buyer", Asset: "USDC", DebitLocked: 100},
		{UserID: "buyer", Asset: "SOL", CreditAvailable: 5},
		{UserID: "seller", Asset: "SOL", DebitLocked: 5},
		{UserID: "seller", Asset: "USDC", CreditAvailable: 100},
	})
	require.NoError(t, err)

	buyer, _ := table.Snapshot("buyer")
	assert.Equal(t, uint64(900), buyer["USDC"].AvailableAmount)
	assert.Equal(t, uint64(0), buyer["USDC"].LockedAmount)
	assert.Equal(t, uint64(5), buyer["SOL"].AvailableAmount)

	seller, _ := table.Snapshot("seller")
	assert.Equal(t, uint64(5), seller["SOL"].AvailableAmount)
	assert.Equal(t, uint64(0), seller["SOL"].LockedAmount)
	assert.Equal(t, uint64(100), seller["USDC"].AvailableAmount)
}

func TestSettleLeavesTableUntouchedOnBadDebit(t *testing.T) {
	table := NewBalanceTable()
	table.Seed("buyer", "USDC", 1000)
	require.NoError(t, table.Lock("buyer", "USDC", 100))

	err := table.Settle([]Settlement{
		{UserID: "buyer", Asset: "USDC", DebitLocked: 101},
		{UserID: "buyer", Asset: "SOL", CreditAvailable: 5},
	})
	require.Error(t, err)

	snap, _ := table.Snapshot("buyer")
	assert.Equal(t, uint64(900), snap["USDC"].AvailableAmount)
	assert.Equal(t, uint64(100), snap["USDC"].LockedAmount)
	_, hasSol := snap["SOL"]
	assert.False(t, hasSol)
}

func TestTotalForAsset(t *testing.T) {
	table := NewBalanceTable()
	table.Seed("1", "USDC", 300)
	table.Seed("2", "USDC", 700)
	require.NoError(t, table.Lock("2", "USDC", 650))

	assert.Equal(t, uint64(1000), table.TotalForAsset("USDC"))
}
