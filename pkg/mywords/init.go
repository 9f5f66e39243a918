package mywords

import (
	"context"

	"go.uber.org/zap"

	"github.com/japaniel/mywords/pkg/db"
)

// Init migrates the schema and seeds the default list into an empty store.
// It does its work once per Service; after a failure the next call retries.
func (s *Service) Init(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.ready {
		return nil
	}

	if err := s.store.Migrate(ctx); err != nil {
		s.logUnexpected("init", err)
		return err
	}

	seeded := false
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		n, err := s.store.CountLists(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		seeded = true
		return s.store.AddList(ctx, db.List{
			ID:        db.DefaultListID,
			Name:      db.DefaultListName,
			CreatedAt: s.nowMillis(),
		})
	})
	if err != nil {
		s.logUnexpected("init", err)
		return err
	}

	if seeded {
		s.log.Info("seeded default list", zap.String("list_id", db.DefaultListID))
	}
	s.ready = true
	return nil
}
