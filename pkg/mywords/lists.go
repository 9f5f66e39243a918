package mywords

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/japaniel/mywords/pkg/db"
	"github.com/japaniel/mywords/pkg/errs"
)

// maxIDAttempts bounds how often CreateList asks the generator for a fresh id.
const maxIDAttempts = 8

// GetLists returns every list with its words, both in store order.
func (s *Service) GetLists(ctx context.Context) ([]ListView, error) {
	if err := s.Init(ctx); err != nil {
		return nil, err
	}

	var views []ListView
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		lists, err := s.store.GetAllLists(ctx)
		if err != nil {
			return err
		}
		views = make([]ListView, 0, len(lists))
		for _, l := range lists {
			words, err := s.store.GetWordsByListID(ctx, l.ID)
			if err != nil {
				return err
			}
			views = append(views, newListView(l, words))
		}
		return nil
	})
	if err != nil {
		s.logUnexpected("get lists", err)
		return nil, err
	}
	return views, nil
}

// CreateList creates an empty list named name (trimmed). Names need not be unique.
func (s *Service) CreateList(ctx context.Context, name string) (*ListView, error) {
	name, err := normalizeListName(name)
	if err != nil {
		return nil, err
	}
	if err := s.Init(ctx); err != nil {
		return nil, err
	}

	var created db.List
	err = s.store.RunInTx(ctx, func(ctx context.Context) error {
		id, err := s.freshListID(ctx)
		if err != nil {
			return err
		}
		created = db.List{ID: id, Name: name, CreatedAt: s.nowMillis()}
		return s.store.AddList(ctx, created)
	})
	if err != nil {
		s.logUnexpected("create list", err)
		return nil, err
	}

	s.log.Info("list created", zap.String("list_id", created.ID), zap.String("name", created.Name))
	view := newListView(created, nil)
	return &view, nil
}

// freshListID draws ids until one is neither reserved nor taken.
func (s *Service) freshListID(ctx context.Context) (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := strings.TrimSpace(s.newID())
		if id == "" || id == db.DefaultListID {
			continue
		}
		_, err := s.store.GetList(ctx, id)
		if errors.Is(err, errs.ErrMissingList) {
			return id, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", &errs.StoreError{Op: "generate list id", Err: fmt.Errorf("no free id after %d attempts", maxIDAttempts)}
}

// DeleteList removes a list and all of its words. The default list is reserved.
func (s *Service) DeleteList(ctx context.Context, listID string) error {
	if listID == db.DefaultListID {
		return fmt.Errorf("list %q: %w", listID, errs.ErrReservedList)
	}
	if err := s.Init(ctx); err != nil {
		return err
	}

	if err := s.store.DeleteList(ctx, listID); err != nil {
		s.logUnexpected("delete list", err)
		return err
	}
	s.log.Info("list deleted", zap.String("list_id", listID))
	return nil
}

func newListView(l db.List, words []db.Word) ListView {
	view := ListView{
		ID:        l.ID,
		Name:      l.Name,
		CreatedAt: l.CreatedAt,
		Words:     make([]WordView, 0, len(words)),
	}
	for _, w := range words {
		view.Words = append(view.Words, WordView{
			Word:     w.Word,
			Phonetic: w.Phonetic,
			Meanings: w.Meanings,
		})
	}
	return view
}
