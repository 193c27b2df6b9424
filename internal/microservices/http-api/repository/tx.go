package repository

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

type txKey struct{}

// Transactor groups repository calls into one read snapshot. Repositories pick the
// transaction up from the context, so services never handle *gorm.DB directly.
type Transactor interface {
	ReadSnapshot(ctx context.Context, fn func(ctx context.Context) error) error
}

type transactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) Transactor {
	return &transactor{db: db}
}

// ReadSnapshot runs fn in a read-only transaction. Postgres gets REPEATABLE READ so every
// statement sees the same snapshot; sqlite ignores isolation options and serializes anyway.
func (t *transactor) ReadSnapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, nested := ctx.Value(txKey{}).(*gorm.DB); nested {
		return fn(ctx)
	}

	run := func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	}
	if t.db.Dialector.Name() == "postgres" {
		return t.db.WithContext(ctx).Transaction(run, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	}
	return t.db.WithContext(ctx).Transaction(run)
}

// conn returns the transaction carried by ctx, or db bound to ctx.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
