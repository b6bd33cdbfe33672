// Package dbfiller drains the persistence queue into Postgres so the hot
// path never waits on the database.
package dbfiller

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Yusufzhafir/go-exchange/pkg/model"
)

// --- Repository Interface ---
type Repository interface {
	InsertOrder(ctx context.Context, tx *sqlx.Tx, order model.OrderRow) error
	UpdateOrderFills(ctx context.Context, tx *sqlx.Tx, updates []model.OrderUpdate) error
	CancelOrders(ctx context.Context, tx *sqlx.Tx, orderIDs []string) error
	InsertTrades(ctx context.Context, tx *sqlx.Tx, trades []model.TradeRow) error
}

// --- Implementation ---
type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) InsertOrder(ctx context.Context, tx *sqlx.Tx, order model.OrderRow) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO orders (order_id, quantity, filled_quantity, price, side, status, created_at)
         VALUES ($1,$2,$3,$4,$5,$6,NOW())
         ON CONFLICT (order_id) DO NOTHING`,
		order.OrderID, order.Quantity, order.FilledQuantity, order.Price, order.Side, order.Status)
	return err
}

func (r *repositoryImpl) UpdateOrderFills(ctx context.Context, tx *sqlx.Tx, updates []model.OrderUpdate) error {
	for _, update := range updates {
		_, err := tx.ExecContext(ctx,
			`UPDATE orders SET filled_quantity=$1, status=$2 WHERE order_id=$3`,
			update.FilledQuantity, update.Status, update.OrderID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repositoryImpl) CancelOrders(ctx context.Context, tx *sqlx.Tx, orderIDs []string) error {
	query, args, err := sqlx.In(
		`UPDATE orders SET status=? WHERE order_id IN (?)`,
		model.OrderStatusCancelled, orderIDs)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, tx.Rebind(query), args...)
	return err
}

func (r *repositoryImpl) InsertTrades(ctx context.Context, tx *sqlx.Tx, trades []model.TradeRow) error {
	for _, trade := range trades {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO trades (trade_id, market, price, quantity, quote_quantity, traded_at)
             VALUES ($1,$2,$3,$4,$5,$6)
             ON CONFLICT (trade_id, market) DO NOTHING`,
			trade.TradeID, trade.Market, trade.Price, trade.Quantity, trade.QuoteQuantity,
			time.Unix(trade.Timestamp, 0).UTC())
		if err != nil {
			return err
		}
	}
	return nil
}
