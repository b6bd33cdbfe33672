package engine

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Yusufzhafir/go-exchange/pkg/model"
)

// AssetBalance is the ledger entry for one (user, asset) pair, denominated in
// the asset's smallest unit. Available+Locked only ever changes through a
// lock, unlock or settle operation.
type AssetBalance struct {
	AvailableAmount uint64 `json:"available_amount"`
	LockedAmount    uint64 `json:"locked_amount"`
}

// BalanceTable is the one structure shared across every market worker. The
// mutex spans a whole lock-or-settle step and is never held during I/O.
type BalanceTable struct {
	mu       sync.Mutex
	balances map[string]map[string]*AssetBalance
}

func NewBalanceTable() *BalanceTable {
	return &BalanceTable{
		balances: make(map[string]map[string]*AssetBalance),
	}
}

// Seed credits an initial available amount. Startup only.
func (t *BalanceTable) Seed(userID, asset string, available uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.assetBalance(userID, asset).AvailableAmount += available
}

// assetBalance lazily creates the (user, asset) entry. Callers hold t.mu.
func (t *BalanceTable) assetBalance(userID, asset string) *AssetBalance {
	assets, ok := t.balances[userID]
	if !ok {
		assets = make(map[string]*AssetBalance)
		t.balances[userID] = assets
	}
	bal, ok := assets[asset]
	if !ok {
		bal = &AssetBalance{}
		assets[asset] = bal
	}
	return bal
}

// Lock reserves amount against a pending order. The user must already exist
// in the table; the asset entry is created lazily.
func (t *BalanceTable) Lock(userID, asset string, amount uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.balances[userID]; !ok {
		return newError(CodeUserNotFound, "user %s not found", userID)
	}

	bal := t.assetBalance(userID, asset)
	if bal.AvailableAmount < amount {
		return newError(CodeInsufficientBalance,
			"user %s has %d %s available, needs %d", userID, bal.AvailableAmount, asset, amount)
	}
	bal.AvailableAmount -= amount
	bal.LockedAmount += amount
	return nil
}

// Unlock releases a previously locked amount back to available (cancel path).
func (t *BalanceTable) Unlock(userID, asset string, amount uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.balances[userID]; !ok {
		return newError(CodeUserNotFound, "user %s not found", userID)
	}

	bal := t.assetBalance(userID, asset)
	if bal.LockedAmount < amount {
		return newError(CodeInternalError,
			"unlock of %d %s exceeds locked %d for user %s", amount, asset, bal.LockedAmount, userID)
	}
	bal.LockedAmount -= amount
	bal.AvailableAmount += amount
	return nil
}

// Settlement moves settled funds for one (user, asset) pair: DebitLocked is
// removed from the locked amount of the asset given up, CreditAvailable is
// added to the available amount of the asset received.
type Settlement struct {
	UserID          string
	Asset           string
	DebitLocked     uint64
	CreditAvailable uint64
}

// Settle applies all entries atomically under one critical section. It
// verifies every debit first so a violation leaves the table untouched.
func (t *BalanceTable) Settle(entries []Settlement) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	type balKey struct{ user, asset string }
	debits := make(map[balKey]uint64, len(entries))
	for _, e := range entries {
		if e.DebitLocked > 0 {
			debits[balKey{e.UserID, e.Asset}] += e.DebitLocked
		}
	}
	for key, total := range debits {
		assets, ok := t.balances[key.user]
		if !ok {
			return newError(CodeInternalError, "settlement for unknown user %s", key.user)
		}
		bal, ok := assets[key.asset]
		if !ok || bal.LockedAmount < total {
			return newError(CodeInternalError,
				"settlement debit of %d %s exceeds locked balance for user %s", total, key.asset, key.user)
		}
	}

	for _, e := range entries {
		bal := t.assetBalance(e.UserID, e.Asset)
		bal.LockedAmount -= e.DebitLocked
		bal.AvailableAmount += e.CreditAvailable
	}
	return nil
}

// Snapshot copies a user's per-asset balances for the balance query path.
func (t *BalanceTable) Snapshot(userID string) (map[string]AssetBalance, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	assets, ok := t.balances[userID]
	if !ok {
		return nil, false
	}
	out := make(map[string]AssetBalance, len(assets))
	for asset, bal := range assets {
		out[asset] = *bal
	}
	return out, true
}

// TotalForAsset sums available+locked across all users. Used by invariant
// checks and tests; not part of the request path.
func (t *BalanceTable) TotalForAsset(asset string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var total uint64
	for _, assets := range t.balances {
		if bal, ok := assets[asset]; ok {
			total += bal.AvailableAmount + bal.LockedAmount
		}
	}
	return total
}

// ToBaseUnits converts a decimal amount into the asset's integer smallest
// unit: amount * 10^decimals, truncated toward zero. Fractional dust below
// the smallest unit is never credited or charged. Overflow is an
// InternalError and must abort the request before any balance mutation.
func ToBaseUnits(amount decimal.Decimal, decimals int32) (uint64, error) {
	if amount.IsNegative() {
		return 0, newError(CodeInternalError, "negative amount %s", amount)
	}
	shifted := amount.Shift(decimals).Truncate(0)
	bi := shifted.BigInt()
	if !bi.IsUint64() {
		return 0, newError(CodeInternalError, "amount %s overflows base units at scale %d", amount, decimals)
	}
	return bi.Uint64(), nil
}

// lockForOrder computes the asset and amount a taker must reserve: Buy locks
// price*quantity in the quote asset, Sell locks quantity in the base asset.
func lockForOrder(order *model.Order, cfg MarketConfig) (asset string, amount uint64, err error) {
	switch order.Side {
	case model.SideBuy:
		amount, err = ToBaseUnits(order.Price.Mul(order.Quantity), cfg.QuoteDecimals)
		return cfg.Quote, amount, err
	case model.SideSell:
		amount, err = ToBaseUnits(order.Quantity, cfg.BaseDecimals)
		return cfg.Base, amount, err
	}
	return "", 0, newError(CodeInternalError, "unknown side %q", order.Side)
}
