package sqlite

import (
	"context"
	"database/sql"

	dbpkg "github.com/evanmarcey/passage/internal/db"
	"github.com/evanmarcey/passage/internal/passage/store"
)

// Runner executes atomic units on the write worker.  Each unit is one
// transaction: any error from fn rolls back every mutation made through
// the Stores it received.
type Runner struct {
	writer *dbpkg.Worker
}

func NewRunner(writer *dbpkg.Worker) *Runner {
	return &Runner{writer: writer}
}

func (r *Runner) Atomic(ctx context.Context, fn func(ctx context.Context, s store.Stores) error) error {
	return r.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, &txStores{tx: tx})
	})
}

type txStores struct {
	tx *sql.Tx
}

func (s *txStores) ActiveSessions() store.ActiveSessionStore {
	return &ActiveSessionStore{q: s.tx}
}

func (s *txStores) Sessions() store.SessionStore {
	return &SessionStore{q: s.tx}
}

func (s *txStores) Interactions() store.InteractionStore {
	return &InteractionStore{q: s.tx}
}
