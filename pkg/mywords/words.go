package mywords

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/japaniel/mywords/pkg/db"
	"github.com/japaniel/mywords/pkg/dictionary"
	"github.com/japaniel/mywords/pkg/errs"
)

// AddWordToList saves def into the list. A word already in the list yields
// errs.ErrDuplicate and nothing is written; nil means the word was added.
func (s *Service) AddWordToList(ctx context.Context, listID string, def dictionary.Definition) error {
	def, err := normalizeDefinition(def)
	if err != nil {
		return err
	}
	if err := s.Init(ctx); err != nil {
		return err
	}

	err = s.store.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.GetList(ctx, listID); err != nil {
			return err
		}

		_, err := s.store.FindWordInList(ctx, listID, def.Word)
		if err == nil {
			return fmt.Errorf("word %q in list %q: %w", def.Word, listID, errs.ErrDuplicate)
		}
		if !errors.Is(err, errs.ErrNotFound) {
			return err
		}

		err = s.store.AddWord(ctx, db.Word{
			ID:        s.newID(),
			ListID:    listID,
			Word:      def.Word,
			Meanings:  def.Meanings,
			Phonetic:  def.Phonetic,
			CreatedAt: s.nowMillis(),
		})
		if errors.Is(err, errs.ErrAlreadyExists) {
			// A word id collision is a store fault, not a duplicate word.
			return &errs.StoreError{Op: "add word", Err: err}
		}
		return err
	})
	if err != nil {
		s.logUnexpected("add word", err)
		return err
	}

	s.log.Info("word added", zap.String("list_id", listID), zap.String("word", def.Word))
	return nil
}

// DeleteWordFromList removes the word with the given text from the list.
// nil means it was removed; an absent word yields errs.ErrNotFound.
func (s *Service) DeleteWordFromList(ctx context.Context, listID, word string) error {
	if err := s.Init(ctx); err != nil {
		return err
	}

	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.GetList(ctx, listID); err != nil {
			return err
		}
		w, err := s.store.FindWordInList(ctx, listID, word)
		if err != nil {
			return err
		}
		return s.store.DeleteWord(ctx, w.ID)
	})
	if err != nil {
		s.logUnexpected("delete word", err)
		return err
	}

	s.log.Info("word removed", zap.String("list_id", listID), zap.String("word", word))
	return nil
}
