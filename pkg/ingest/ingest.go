package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/japaniel/mywords/pkg/db"
	"github.com/japaniel/mywords/pkg/dictionary"
	"github.com/japaniel/mywords/pkg/errs"
)

// Store is the part of *db.Store the importer writes through.
type Store interface {
	TxRunner
	GetList(ctx context.Context, listID string) (*db.List, error)
	AddList(ctx context.Context, l db.List) error
	FindWordInList(ctx context.Context, listID, text string) (*db.Word, error)
	AddWord(ctx context.Context, w db.Word) error
}

// Lookuper resolves a word against the upstream dictionary.
type Lookuper interface {
	Lookup(ctx context.Context, word string) (*dictionary.Definition, error)
}

// WordAdder saves a definition into a list, enforcing per-list uniqueness.
type WordAdder interface {
	AddWordToList(ctx context.Context, listID string, def dictionary.Definition) error
}

// Importer bulk-loads words: from a legacy export, or by looking a batch of
// words up concurrently and saving what was found.
type Importer struct {
	store  Store
	words  WordAdder
	lookup Lookuper
	log    *zap.Logger

	// Workers is the number of concurrent lookups.
	Workers int
	// BatchSize is the number of legacy words written per transaction.
	BatchSize int
	// FlushInterval also commits a partial batch after this long; 0 disables it.
	FlushInterval time.Duration
	// Now and NewID stamp imported rows.
	Now   func() time.Time
	NewID func() string
}

// NewImporter creates an Importer with 4 workers and batches of 50.
// A nil log discards output.
func NewImporter(store Store, words WordAdder, lookup Lookuper, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{
		store:     store,
		words:     words,
		lookup:    lookup,
		log:       log.With(zap.String("component", "importer")),
		Workers:   4,
		BatchSize: 50,
		Now:       time.Now,
		NewID:     uuid.NewString,
	}
}

// ImportReport summarises a legacy import.
type ImportReport struct {
	Lists   int // lists created
	Words   int // words added
	Skipped int // words already present or without a usable meaning
}

// ImportLegacy copies a legacy export into the store. List ids are kept, so the
// legacy seed list merges into the current one; lists that already exist keep
// their name. Words already present in their list are skipped. Each batch of
// words commits as one transaction; on error the lists created so far remain.
func (im *Importer) ImportLegacy(ctx context.Context, export *LegacyExport) (ImportReport, error) {
	var report ImportReport
	now := im.Now().UnixMilli()

	listIDs := make([]string, len(export.Lists))
	for i, ll := range export.Lists {
		id, created, err := im.ensureList(ctx, ll, now)
		if err != nil {
			return report, err
		}
		if created {
			report.Lists++
		}
		listIDs[i] = id
	}

	var added, skipped atomic.Int64
	bw := NewBatchWriter(im.store, im.BatchSize, im.FlushInterval)
	bw.OnError = func(err error) {
		im.log.Warn("legacy batch failed", zap.Error(err))
	}

	var submitErr error
Loop:
	for i, ll := range export.Lists {
		listID := listIDs[i]
		for _, lw := range ll.Words {
			if err := ctx.Err(); err != nil {
				submitErr = err
				break Loop
			}

			def, ok := lw.Definition()
			if !ok {
				im.log.Debug("skipping unusable legacy word", zap.String("list_id", listID), zap.String("word", lw.Word))
				skipped.Add(1)
				continue
			}

			err := bw.Submit(func(ctx context.Context) error {
				_, err := im.store.FindWordInList(ctx, listID, def.Word)
				if err == nil {
					skipped.Add(1)
					return nil
				}
				if !errors.Is(err, errs.ErrNotFound) {
					return err
				}
				if err := im.store.AddWord(ctx, db.Word{
					ID:        im.NewID(),
					ListID:    listID,
					Word:      def.Word,
					Meanings:  def.Meanings,
					Phonetic:  def.Phonetic,
					CreatedAt: now,
				}); err != nil {
					return err
				}
				added.Add(1)
				return nil
			})
			if err != nil {
				submitErr = err
				break Loop
			}
		}
	}

	if err := bw.Close(); err != nil && submitErr == nil {
		submitErr = fmt.Errorf("import words: %w", err)
	}
	if submitErr != nil {
		return report, submitErr
	}

	report.Words = int(added.Load())
	report.Skipped = int(skipped.Load())
	im.log.Info("legacy import finished",
		zap.Int("lists_created", report.Lists),
		zap.Int("words_added", report.Words),
		zap.Int("words_skipped", report.Skipped))
	return report, nil
}

func (im *Importer) ensureList(ctx context.Context, ll LegacyList, now int64) (id string, created bool, err error) {
	id = strings.TrimSpace(ll.ID)
	if id == "" {
		id = im.NewID()
	}

	_, err = im.store.GetList(ctx, id)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, errs.ErrMissingList) {
		return "", false, err
	}

	name := strings.TrimSpace(ll.Name)
	switch {
	case id == db.DefaultListID:
		name = db.DefaultListName
	case name == "":
		name = id
	}
	if err := im.store.AddList(ctx, db.List{ID: id, Name: name, CreatedAt: now}); err != nil {
		return "", false, err
	}
	return id, true, nil
}

// LookupResult is the outcome of one lookup in LookupMany.
type LookupResult struct {
	Word       string
	Definition *dictionary.Definition
	Err        error
}

// LookupMany looks words up concurrently on Workers goroutines. Results are in
// input order; lookups not run because ctx ended carry ctx.Err().
func (im *Importer) LookupMany(ctx context.Context, words []string) []LookupResult {
	results := make([]LookupResult, len(words))
	if len(words) == 0 {
		return results
	}
	for i, w := range words {
		results[i].Word = w
	}

	wp := NewWorkerPool(im.Workers, im.Workers*2)
	wp.Start(ctx)

	for i := range results {
		res := &results[i]
		err := wp.SubmitCtx(ctx, func(ctx context.Context) error {
			res.Definition, res.Err = im.lookup.Lookup(ctx, res.Word)
			return res.Err
		})
		if err != nil {
			res.Err = err
			break
		}
	}
	wp.Close()

	for i := range results {
		if results[i].Definition == nil && results[i].Err == nil {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
			} else {
				results[i].Err = ErrPoolClosed
			}
		}
	}
	return results
}

// WordError pairs a word with the reason it could not be added.
type WordError struct {
	Word string
	Err  error
}

// BulkReport classifies each distinct input word of AddWords.
type BulkReport struct {
	Added      []string
	Duplicates []string
	NotFound   []string
	Failed     []WordError
}

// AddWords looks words up and adds every definition found to the list, in
// input order. Blank entries are ignored and repeats count as duplicates.
// A missing list fails before any lookup.
func (im *Importer) AddWords(ctx context.Context, listID string, words []string) (BulkReport, error) {
	var report BulkReport
	if _, err := im.store.GetList(ctx, listID); err != nil {
		return report, err
	}

	seen := make(map[string]bool, len(words))
	queries := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if seen[w] {
			report.Duplicates = append(report.Duplicates, w)
			continue
		}
		seen[w] = true
		queries = append(queries, w)
	}

	for _, res := range im.LookupMany(ctx, queries) {
		switch {
		case res.Err == nil:
			err := im.words.AddWordToList(ctx, listID, *res.Definition)
			switch {
			case err == nil:
				report.Added = append(report.Added, res.Word)
			case errors.Is(err, errs.ErrDuplicate):
				report.Duplicates = append(report.Duplicates, res.Word)
			case errors.Is(err, errs.ErrMissingList):
				return report, err
			default:
				report.Failed = append(report.Failed, WordError{Word: res.Word, Err: err})
			}
		case errors.Is(res.Err, errs.ErrNotFound):
			report.NotFound = append(report.NotFound, res.Word)
		default:
			report.Failed = append(report.Failed, WordError{Word: res.Word, Err: res.Err})
		}
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}

	im.log.Info("bulk add finished",
		zap.String("list_id", listID),
		zap.Int("added", len(report.Added)),
		zap.Int("duplicates", len(report.Duplicates)),
		zap.Int("not_found", len(report.NotFound)),
		zap.Int("failed", len(report.Failed)))
	return report, nil
}
