package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/japaniel/mywords/pkg/dictionary"
	"github.com/japaniel/mywords/pkg/errs"
)

// DBExecutor is satisfied by both *sql.DB and *sql.Tx.
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type txCtxKey struct{}

var (
	listColumns = []string{"id", "name", "created_at"}
	wordColumns = []string{"id", "list_id", "word", "meanings", "phonetic", "created_at"}

	// rowid breaks created_at ties so reads follow insertion order.
	insertionOrder = []string{"created_at ASC", "rowid ASC"}
)

// Store persists lists and their words in SQLite.
type Store struct {
	conn *sql.DB
	log  *zap.Logger
}

// NewStore wraps an open handle. Call InitDB before the first operation.
func NewStore(conn *sql.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{conn: conn, log: log.With(zap.String("component", "store"))}
}

// Migrate applies the schema to the underlying handle.
func (s *Store) Migrate(ctx context.Context) error {
	if err := InitDB(ctx, s.conn, s.log); err != nil {
		return &errs.StoreError{Op: "migrate", Err: err}
	}
	return nil
}

// RunInTx runs fn inside one transaction. Store methods called with the context
// handed to fn take part in it; a RunInTx nested in fn joins the outer transaction.
// Once begun, the transaction is not cut short by cancellation of ctx.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txCtxKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	ctx = context.WithoutCancel(ctx)
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return &errs.StoreError{Op: "begin transaction", Err: err}
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(context.WithValue(ctx, txCtxKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Error("rollback failed", zap.Error(rbErr), zap.NamedError("cause", err))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return &errs.StoreError{Op: "commit transaction", Err: err}
	}
	return nil
}

func (s *Store) executor(ctx context.Context) DBExecutor {
	if tx, ok := ctx.Value(txCtxKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.conn
}

// GetAllLists returns every list in insertion order.
func (s *Store) GetAllLists(ctx context.Context) ([]List, error) {
	query, args, err := sq.Select(listColumns...).From("lists").OrderBy(insertionOrder...).ToSql()
	if err != nil {
		return nil, &errs.StoreError{Op: "get all lists", Err: err}
	}

	rows, err := s.executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError("get all lists", err)
	}
	defer rows.Close()

	lists := []List{}
	for rows.Next() {
		var l List
		if err := rows.Scan(&l.ID, &l.Name, &l.CreatedAt); err != nil {
			return nil, mapError("get all lists", err)
		}
		lists = append(lists, l)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("get all lists", err)
	}
	return lists, nil
}

// GetList returns the list with the given id, or errs.ErrMissingList.
func (s *Store) GetList(ctx context.Context, listID string) (*List, error) {
	query, args, err := sq.Select(listColumns...).From("lists").Where(sq.Eq{"id": listID}).ToSql()
	if err != nil {
		return nil, &errs.StoreError{Op: "get list", Err: err}
	}

	var l List
	err = s.executor(ctx).QueryRowContext(ctx, query, args...).Scan(&l.ID, &l.Name, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("list %q: %w", listID, errs.ErrMissingList)
	}
	if err != nil {
		return nil, mapError("get list", err)
	}
	return &l, nil
}

// CountLists returns the number of lists.
func (s *Store) CountLists(ctx context.Context) (int, error) {
	query, args, err := sq.Select("COUNT(*)").From("lists").ToSql()
	if err != nil {
		return 0, &errs.StoreError{Op: "count lists", Err: err}
	}

	var n int
	if err := s.executor(ctx).QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, mapError("count lists", err)
	}
	return n, nil
}

// GetWordsByListID returns the words of a list in insertion order.
// An unknown list yields an empty slice.
func (s *Store) GetWordsByListID(ctx context.Context, listID string) ([]Word, error) {
	query, args, err := sq.Select(wordColumns...).From("words").
		Where(sq.Eq{"list_id": listID}).
		OrderBy(insertionOrder...).
		ToSql()
	if err != nil {
		return nil, &errs.StoreError{Op: "get words", Err: err}
	}

	rows, err := s.executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError("get words", err)
	}
	defer rows.Close()

	words := []Word{}
	for rows.Next() {
		w, err := scanWord(rows)
		if err != nil {
			return nil, mapError("get words", err)
		}
		words = append(words, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("get words", err)
	}
	return words, nil
}

// FindWordInList returns the word with the given text in a list, or errs.ErrNotFound.
func (s *Store) FindWordInList(ctx context.Context, listID, text string) (*Word, error) {
	query, args, err := sq.Select(wordColumns...).From("words").
		Where(sq.Eq{"list_id": listID, "word": text}).
		ToSql()
	if err != nil {
		return nil, &errs.StoreError{Op: "find word", Err: err}
	}

	w, err := scanWord(s.executor(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapError(fmt.Sprintf("find word %q in list %q", text, listID), err)
	}
	return w, nil
}

// AddList inserts a list. A taken id yields errs.ErrAlreadyExists.
func (s *Store) AddList(ctx context.Context, l List) error {
	query, args, err := sq.Insert("lists").Columns(listColumns...).
		Values(l.ID, l.Name, l.CreatedAt).
		ToSql()
	if err != nil {
		return &errs.StoreError{Op: "add list", Err: err}
	}

	if _, err := s.executor(ctx).ExecContext(ctx, query, args...); err != nil {
		return mapError(fmt.Sprintf("add list %q", l.ID), err)
	}
	return nil
}

// AddWord inserts a word. A taken id yields errs.ErrAlreadyExists, a word text
// already present in the list errs.ErrDuplicate, an unknown list errs.ErrMissingList.
func (s *Store) AddWord(ctx context.Context, w Word) error {
	meanings := w.Meanings
	if meanings == nil {
		meanings = []dictionary.Meaning{}
	}
	encoded, err := json.Marshal(meanings)
	if err != nil {
		return &errs.StoreError{Op: "encode meanings", Err: err}
	}

	query, args, err := sq.Insert("words").Columns(wordColumns...).
		Values(w.ID, w.ListID, w.Word, string(encoded), w.Phonetic, w.CreatedAt).
		ToSql()
	if err != nil {
		return &errs.StoreError{Op: "add word", Err: err}
	}

	if _, err := s.executor(ctx).ExecContext(ctx, query, args...); err != nil {
		return mapError(fmt.Sprintf("add word %q to list %q", w.Word, w.ListID), err)
	}
	return nil
}

// DeleteList removes a list and every word in it as one transaction.
// An unknown list yields errs.ErrMissingList and changes nothing.
func (s *Store) DeleteList(ctx context.Context, listID string) error {
	return s.RunInTx(ctx, func(ctx context.Context) error {
		ex := s.executor(ctx)

		query, args, err := sq.Delete("words").Where(sq.Eq{"list_id": listID}).ToSql()
		if err != nil {
			return &errs.StoreError{Op: "delete list words", Err: err}
		}
		res, err := ex.ExecContext(ctx, query, args...)
		if err != nil {
			return mapError("delete list words", err)
		}
		removed, _ := res.RowsAffected()

		query, args, err = sq.Delete("lists").Where(sq.Eq{"id": listID}).ToSql()
		if err != nil {
			return &errs.StoreError{Op: "delete list", Err: err}
		}
		res, err = ex.ExecContext(ctx, query, args...)
		if err != nil {
			return mapError("delete list", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return mapError("delete list", err)
		}
		if n == 0 {
			return fmt.Errorf("list %q: %w", listID, errs.ErrMissingList)
		}

		s.log.Debug("list deleted", zap.String("list_id", listID), zap.Int64("words_removed", removed))
		return nil
	})
}

// DeleteWord removes a word by id, or returns errs.ErrNotFound.
func (s *Store) DeleteWord(ctx context.Context, wordID string) error {
	query, args, err := sq.Delete("words").Where(sq.Eq{"id": wordID}).ToSql()
	if err != nil {
		return &errs.StoreError{Op: "delete word", Err: err}
	}

	res, err := s.executor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return mapError("delete word", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapError("delete word", err)
	}
	if n == 0 {
		return fmt.Errorf("word %q: %w", wordID, errs.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanWord(row scanner) (*Word, error) {
	var (
		w        Word
		meanings string
	)
	if err := row.Scan(&w.ID, &w.ListID, &w.Word, &meanings, &w.Phonetic, &w.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(meanings), &w.Meanings); err != nil {
		return nil, fmt.Errorf("decode meanings of word %q: %w", w.ID, err)
	}
	return &w, nil
}

// mapError converts driver errors into the error kinds of package errs.
func mapError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, errs.ErrNotFound)
	}

	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
		switch se.ExtendedCode {
		case sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%s: %w", op, errs.ErrAlreadyExists)
		case sqlite3.ErrConstraintUnique:
			// Only ux_words_list_word is a unique index.
			return fmt.Errorf("%s: %w", op, errs.ErrDuplicate)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%s: %w", op, errs.ErrMissingList)
		}
	}

	return &errs.StoreError{Op: op, Err: err}
}
