package dbfiller

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/Yusufzhafir/go-exchange/pkg/model"
)

// Source pops raw persistence messages; the Redis bus satisfies it.
type Source interface {
	PopDB(ctx context.Context) ([]byte, error)
}

type Worker struct {
	source Source
	db     *sqlx.DB
	repo   Repository
	log    *zap.Logger
}

func NewWorker(source Source, db *sqlx.DB, repo Repository, log *zap.Logger) *Worker {
	return &Worker{
		source: source,
		db:     db,
		repo:   repo,
		log:    log.Named("dbfiller"),
	}
}

// Run drains the queue until ctx is cancelled. A message that fails to apply
// is logged and skipped; the queue must keep moving.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("dbfiller started")
	for {
		raw, err := w.source.PopDB(ctx)
		if ctx.Err() != nil {
			w.log.Info("dbfiller stopped")
			return ctx.Err()
		}
		if err != nil {
			w.log.Error("pop db message failed", zap.Error(err))
			continue
		}
		if raw == nil {
			continue
		}

		var msg model.DBMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			w.log.Warn("dropping malformed db message", zap.Error(err))
			continue
		}
		if err := w.apply(ctx, msg); err != nil {
			w.log.Error("apply db message failed",
				zap.String("kind", string(msg.Kind)),
				zap.Error(err),
			)
		}
	}
}

func (w *Worker) apply(ctx context.Context, msg model.DBMessage) error {
	tx, err := w.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	switch msg.Kind {
	case model.DBAddTrade:
		if err := w.repo.InsertTrades(ctx, tx, msg.Trades); err != nil {
			return err
		}

	case model.DBAddAndUpdateOrders:
		if msg.AddOrder != nil {
			if err := w.repo.InsertOrder(ctx, tx, *msg.AddOrder); err != nil {
				return err
			}
		}
		if err := w.repo.UpdateOrderFills(ctx, tx, msg.UpdateOrders); err != nil {
			return err
		}

	case model.DBUpdateCancelOrders:
		if len(msg.CancelOrderIDs) > 0 {
			if err := w.repo.CancelOrders(ctx, tx, msg.CancelOrderIDs); err != nil {
				return err
			}
		}

	default:
		w.log.Warn("unknown db message kind", zap.String("kind", string(msg.Kind)))
		return nil
	}

	return tx.Commit()
}
