package mywords

import (
	"context"
	"fmt"

	"github.com/japaniel/mywords/pkg/dictionary"
	"github.com/japaniel/mywords/pkg/errs"
)

// Lookup resolves word with the configured dictionary. It does not touch the
// store. Errors match errs.ErrNotFound or errs.ErrNetwork.
func (s *Service) Lookup(ctx context.Context, word string) (*dictionary.Definition, error) {
	if s.lookup == nil {
		return nil, fmt.Errorf("no dictionary configured: %w", errs.ErrNetwork)
	}
	return s.lookup.Lookup(ctx, word)
}
