package mywords

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/japaniel/mywords/pkg/db"
	"github.com/japaniel/mywords/pkg/dictionary"
	"github.com/japaniel/mywords/pkg/errs"
)

var testNow = time.UnixMilli(1700000000000)

func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func openStore(t *testing.T) *db.Store {
	t.Helper()
	conn, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return db.NewStore(conn, zap.NewNop())
}

func newTestService(t *testing.T, store Store, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(sequentialIDs("id")),
	}, opts...)
	return NewService(store, zaptest.NewLogger(t), opts...)
}

func bookDefinition() dictionary.Definition {
	return dictionary.Definition{
		Word:     "book",
		Meanings: []dictionary.Meaning{{Category: "noun", Source: "book", Target: "kitap"}},
	}
}

func listByID(t *testing.T, lists []ListView, id string) ListView {
	t.Helper()
	for _, l := range lists {
		if l.ID == id {
			return l
		}
	}
	t.Fatalf("list %q not found", id)
	return ListView{}
}

func TestFreshInstall(t *testing.T) {
	svc := newTestService(t, openStore(t))
	ctx := context.Background()

	require.NoError(t, svc.Init(ctx))
	lists, err := svc.GetLists(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ListView{{
		ID:        db.DefaultListID,
		Name:      db.DefaultListName,
		CreatedAt: testNow.UnixMilli(),
		Words:     []WordView{},
	}}, lists)
}

func TestInitIsIdempotentAcrossServices(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, newTestService(t, store).Init(ctx))
	svc := newTestService(t, store)
	require.NoError(t, svc.Init(ctx))
	require.NoError(t, svc.Init(ctx))

	lists, err := svc.GetLists(ctx)
	require.NoError(t, err)
	assert.Len(t, lists, 1)
}

func TestVerbsBootstrapLazily(t *testing.T) {
	svc := newTestService(t, openStore(t))

	created, err := svc.CreateList(context.Background(), "Travel")
	require.NoError(t, err)

	lists, err := svc.GetLists(context.Background())
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, db.DefaultListID, lists[0].ID)
	assert.Equal(t, created.ID, lists[1].ID)
}

func TestCreateList(t *testing.T) {
	svc := newTestService(t, openStore(t))
	ctx := context.Background()

	created, err := svc.CreateList(ctx, "  Travel  ")
	require.NoError(t, err)
	assert.Equal(t, &ListView{ID: "id-1", Name: "Travel", CreatedAt: testNow.UnixMilli(), Words: []WordView{}}, created)

	lists, err := svc.GetLists(ctx)
	require.NoError(t, err)
	assert.Len(t, lists, 2)
	assert.Equal(t, "Travel", listByID(t, lists, created.ID).Name)

	again, err := svc.CreateList(ctx, "Travel")
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, again.ID, "names are not unique, ids are")
}

func TestCreateListRejectsInvalidNames(t *testing.T) {
	svc := newTestService(t, openStore(t))

	for _, name := range []string{"", "   ", strings.Repeat("ş", MaxListNameLength+1)} {
		_, err := svc.CreateList(context.Background(), name)
		assert.ErrorIs(t, err, errs.ErrValidation, "name %q", name)
	}

	_, err := svc.CreateList(context.Background(), strings.Repeat("ş", MaxListNameLength))
	assert.NoError(t, err)
}

func TestCreateListSkipsReservedAndTakenIDs(t *testing.T) {
	ids := []string{"default", "taken", "", "fresh"}
	var mu sync.Mutex
	next := func() string {
		mu.Lock()
		defer mu.Unlock()
		id := ids[0]
		ids = ids[1:]
		return id
	}

	store := openStore(t)
	ctx := context.Background()
	svc := newTestService(t, store, WithIDGenerator(next))
	require.NoError(t, svc.Init(ctx))
	require.NoError(t, store.AddList(ctx, db.List{ID: "taken", Name: "Taken", CreatedAt: 1}))

	created, err := svc.CreateList(ctx, "New")
	require.NoError(t, err)
	assert.Equal(t, "fresh", created.ID)
}

func TestCreateListGivesUpOnExhaustedGenerator(t *testing.T) {
	svc := newTestService(t, openStore(t), WithIDGenerator(func() string { return db.DefaultListID }))

	_, err := svc.CreateList(context.Background(), "Never")
	assert.ErrorIs(t, err, errs.ErrStore)
}

func TestAddWordToListThenDuplicate(t *testing.T) {
	svc := newTestService(t, openStore(t))
	ctx := context.Background()

	require.NoError(t, svc.AddWordToList(ctx, db.DefaultListID, bookDefinition()))
	err := svc.AddWordToList(ctx, db.DefaultListID, bookDefinition())
	assert.ErrorIs(t, err, errs.ErrDuplicate)

	lists, err := svc.GetLists(ctx)
	require.NoError(t, err)
	require.Len(t, lists[0].Words, 1)
	assert.Equal(t, WordView{Word: "book", Meanings: bookDefinition().Meanings}, lists[0].Words[0])
}

func TestAddWordToListIDCollisionIsStoreError(t *testing.T) {
	svc := newTestService(t, openStore(t), WithIDGenerator(func() string { return "same" }))
	ctx := context.Background()

	require.NoError(t, svc.AddWordToList(ctx, db.DefaultListID, bookDefinition()))
	cat := dictionary.Definition{Word: "cat", Meanings: []dictionary.Meaning{{Category: "noun", Source: "cat", Target: "kedi"}}}
	err := svc.AddWordToList(ctx, db.DefaultListID, cat)
	assert.ErrorIs(t, err, errs.ErrStore)
	assert.NotErrorIs(t, err, errs.ErrDuplicate)
}

// blindStore never finds a word, so duplicates reach the unique index.
type blindStore struct {
	*db.Store
}

func (blindStore) FindWordInList(ctx context.Context, listID, text string) (*db.Word, error) {
	return nil, fmt.Errorf("word %q: %w", text, errs.ErrNotFound)
}

func TestAddWordToListUniqueIndexIsDuplicate(t *testing.T) {
	svc := newTestService(t, blindStore{openStore(t)})
	ctx := context.Background()

	require.NoError(t, svc.AddWordToList(ctx, db.DefaultListID, bookDefinition()))
	err := svc.AddWordToList(ctx, db.DefaultListID, bookDefinition())
	assert.ErrorIs(t, err, errs.ErrDuplicate)
	assert.NotErrorIs(t, err, errs.ErrStore)
}

func TestNewServiceNilLogger(t *testing.T) {
	svc := NewService(openStore(t), nil)
	ctx := context.Background()

	require.NoError(t, svc.AddWordToList(ctx, db.DefaultListID, bookDefinition()))
	lists, err := svc.GetLists(ctx)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Len(t, lists[0].Words, 1)
}

func TestAddWordToListKeepsMeaningOrderAndPhonetic(t *testing.T) {
	svc := newTestService(t, openStore(t))
	ctx := context.Background()

	def := dictionary.Definition{
		Word:     " book ",
		Phonetic: "bʊk",
		Meanings: []dictionary.Meaning{
			{Category: "verb", Source: "book", Target: "rezerve etmek"},
			{Category: "noun", Source: "book", Target: "kitap"},
		},
	}
	require.NoError(t, svc.AddWordToList(ctx, db.DefaultListID, def))

	lists, err := svc.GetLists(ctx)
	require.NoError(t, err)
	got := lists[0].Words[0]
	assert.Equal(t, "book", got.Word)
	assert.Equal(t, "bʊk", got.Phonetic)
	assert.Equal(t, def.Meanings, got.Meanings)
}

func TestAddWordToListErrors(t *testing.T) {
	svc := newTestService(t, openStore(t))
	ctx := context.Background()

	err := svc.AddWordToList(ctx, "ghost", bookDefinition())
	assert.ErrorIs(t, err, errs.ErrMissingList)

	err = svc.AddWordToList(ctx, db.DefaultListID, dictionary.Definition{Word: "book"})
	assert.ErrorIs(t, err, errs.ErrValidation)

	err = svc.AddWordToList(ctx, db.DefaultListID, dictionary.Definition{
		Word:     "  ",
		Meanings: bookDefinition().Meanings,
	})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestSameWordInTwoLists(t *testing.T) {
	svc := newTestService(t, openStore(t))
	ctx := context.Background()

	travel, err := svc.CreateList(ctx, "Travel")
	require.NoError(t, err)
	require.NoError(t, svc.AddWordToList(ctx, db.DefaultListID, bookDefinition()))
	require.NoError(t, svc.AddWordToList(ctx, travel.ID, bookDefinition()))

	lists, err := svc.GetLists(ctx)
	require.NoError(t, err)
	for _, l := range lists {
		assert.Len(t, l.Words, 1, l.ID)
	}
}

func TestWordsKeepInsertionOrder(t *testing.T) {
	svc := newTestService(t, openStore(t))
	ctx := context.Background()

	for _, w := range []string{"zebra", "apple", "mango"} {
		def := bookDefinition()
		def.Word = w
		require.NoError(t, svc.AddWordToList(ctx, db.DefaultListID, def))
	}

	lists, err := svc.GetLists(ctx)
	require.NoError(t, err)
	var got []string
	for _, w := range lists[0].Words {
		got = append(got, w.Word)
	}
	assert.Equal(t, []string{"zebra", "apple", "mango"}, got)
}

func TestDeleteListCascades(t *testing.T) {
	store := openStore(t)
	svc := newTestService(t, store)
	ctx := context.Background()

	temp, err := svc.CreateList(ctx, "Temp")
	require.NoError(t, err)
	for _, w := range []string{"book", "pen"} {
		def := bookDefinition()
		def.Word = w
		require.NoError(t, svc.AddWordToList(ctx, temp.ID, def))
	}

	require.NoError(t, svc.DeleteList(ctx, temp.ID))

	lists, err := svc.GetLists(ctx)
	require.NoError(t, err)
	assert.Len(t, lists, 1)

	words, err := store.GetWordsByListID(ctx, temp.ID)
	require.NoError(t, err)
	assert.Empty(t, words)

	assert.ErrorIs(t, svc.DeleteList(ctx, temp.ID), errs.ErrMissingList)
}

func TestDeleteDefaultListIsReserved(t *testing.T) {
	svc := newTestService(t, openStore(t))
	ctx := context.Background()
	require.NoError(t, svc.AddWordToList(ctx, db.DefaultListID, bookDefinition()))
	before, err := svc.GetLists(ctx)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteList(ctx, db.DefaultListID), errs.ErrReservedList)

	after, err := svc.GetLists(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestDeleteWordFromList(t *testing.T) {
	svc := newTestService(t, openStore(t))
	ctx := context.Background()
	require.NoError(t, svc.AddWordToList(ctx, db.DefaultListID, bookDefinition()))

	require.NoError(t, svc.DeleteWordFromList(ctx, db.DefaultListID, "book"))
	assert.ErrorIs(t, svc.DeleteWordFromList(ctx, db.DefaultListID, "book"), errs.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteWordFromList(ctx, "ghost", "book"), errs.ErrMissingList)

	lists, err := svc.GetLists(ctx)
	require.NoError(t, err)
	assert.Empty(t, lists[0].Words)

	// the word can be saved again once removed
	assert.NoError(t, svc.AddWordToList(ctx, db.DefaultListID, bookDefinition()))
}

type stubLookup struct {
	def *dictionary.Definition
	err error
}

func (s stubLookup) Lookup(ctx context.Context, word string) (*dictionary.Definition, error) {
	return s.def, s.err
}

func TestLookup(t *testing.T) {
	ctx := context.Background()

	def := bookDefinition()
	svc := newTestService(t, openStore(t), WithLookup(stubLookup{def: &def}))
	got, err := svc.Lookup(ctx, "book")
	require.NoError(t, err)
	assert.Equal(t, &def, got)

	svc = newTestService(t, openStore(t), WithLookup(stubLookup{err: errs.ErrNotFound}))
	_, err = svc.Lookup(ctx, "zzz")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	svc = newTestService(t, openStore(t))
	_, err = svc.Lookup(ctx, "book")
	assert.ErrorIs(t, err, errs.ErrNetwork)
}

// flakyStore fails the named operation with a store error.
type flakyStore struct {
	*db.Store
	failOn string
	calls  int
}

var errDisk = errors.New("disk I/O error")

func (f *flakyStore) fail(op string) error {
	if f.failOn == op {
		f.calls++
		return &errs.StoreError{Op: op, Err: errDisk}
	}
	return nil
}

func (f *flakyStore) Migrate(ctx context.Context) error {
	if err := f.fail("migrate"); err != nil {
		return err
	}
	return f.Store.Migrate(ctx)
}

func (f *flakyStore) AddWord(ctx context.Context, w db.Word) error {
	if err := f.fail("add word"); err != nil {
		return err
	}
	return f.Store.AddWord(ctx, w)
}

func (f *flakyStore) GetAllLists(ctx context.Context) ([]db.List, error) {
	if err := f.fail("get all lists"); err != nil {
		return nil, err
	}
	return f.Store.GetAllLists(ctx)
}

func TestStoreErrorsSurface(t *testing.T) {
	ctx := context.Background()

	t.Run("add word", func(t *testing.T) {
		svc := newTestService(t, &flakyStore{Store: openStore(t), failOn: "add word"})
		err := svc.AddWordToList(ctx, db.DefaultListID, bookDefinition())
		assert.ErrorIs(t, err, errs.ErrStore)
		assert.ErrorIs(t, err, errDisk)
	})

	t.Run("get lists", func(t *testing.T) {
		svc := newTestService(t, &flakyStore{Store: openStore(t), failOn: "get all lists"})
		_, err := svc.GetLists(ctx)
		assert.ErrorIs(t, err, errs.ErrStore)
	})
}

func TestFailedInitIsRetried(t *testing.T) {
	store := &flakyStore{Store: openStore(t), failOn: "migrate"}
	svc := newTestService(t, store)
	ctx := context.Background()

	_, err := svc.GetLists(ctx)
	require.ErrorIs(t, err, errs.ErrStore)

	store.failOn = ""
	lists, err := svc.GetLists(ctx)
	require.NoError(t, err)
	assert.Len(t, lists, 1)
	assert.Equal(t, 1, store.calls)
}
