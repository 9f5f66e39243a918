// Package mywords is the vocabulary domain: word lists seeded with a reserved
// default list, dictionary lookups, and per-list unique words.
package mywords

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/japaniel/mywords/pkg/db"
	"github.com/japaniel/mywords/pkg/dictionary"
	"github.com/japaniel/mywords/pkg/errs"
)

// Store is the persistence the service needs; *db.Store implements it.
type Store interface {
	Migrate(ctx context.Context) error
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error

	GetAllLists(ctx context.Context) ([]db.List, error)
	GetList(ctx context.Context, listID string) (*db.List, error)
	CountLists(ctx context.Context) (int, error)
	GetWordsByListID(ctx context.Context, listID string) ([]db.Word, error)
	FindWordInList(ctx context.Context, listID, text string) (*db.Word, error)
	AddList(ctx context.Context, l db.List) error
	AddWord(ctx context.Context, w db.Word) error
	DeleteList(ctx context.Context, listID string) error
	DeleteWord(ctx context.Context, wordID string) error
}

// Lookuper resolves a word against the upstream dictionary.
type Lookuper interface {
	Lookup(ctx context.Context, word string) (*dictionary.Definition, error)
}

// ListView is a list with its words embedded, as returned by GetLists.
type ListView struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CreatedAt int64      `json:"createdAt"`
	Words     []WordView `json:"words"`
}

// WordView is the projection of a saved word.
type WordView struct {
	Word     string               `json:"word"`
	Phonetic string               `json:"phonetic"`
	Meanings []dictionary.Meaning `json:"meanings"`
}

// Service exposes the user-facing verbs. Every store-backed verb bootstraps
// the store on first use.
type Service struct {
	store  Store
	lookup Lookuper
	log    *zap.Logger
	now    func() time.Time
	newID  func() string

	initMu sync.Mutex
	ready  bool
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces uuid.NewString as the source of list and word ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithLookup sets the dictionary used by Lookup.
func WithLookup(l Lookuper) Option {
	return func(s *Service) { s.lookup = l }
}

// NewService creates a Service over store.
func NewService(store Store, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		store: store,
		log:   log.With(zap.String("component", "service")),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) nowMillis() int64 {
	return s.now().UnixMilli()
}

// logUnexpected records backing-store failures; domain outcomes are not logged.
func (s *Service) logUnexpected(op string, err error) {
	if errors.Is(err, errs.ErrStore) {
		s.log.Error("store failure", zap.String("op", op), zap.Error(err))
	}
}
