package db

import "github.com/japaniel/mywords/pkg/dictionary"

const (
	// DefaultListID is reserved for the seed list.
	DefaultListID = "default"
	// DefaultListName is the display name of the seed list.
	DefaultListName = "My Words"
)

// List is a user-defined collection of saved words.
type List struct {
	ID        string
	Name      string
	CreatedAt int64 // milliseconds since epoch
}

// Word is a saved word owned by exactly one list.
type Word struct {
	ID        string
	ListID    string
	Word      string
	Meanings  []dictionary.Meaning
	Phonetic  string
	CreatedAt int64 // milliseconds since epoch
}
