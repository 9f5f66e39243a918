// Package dictionary turns the upstream bilingual dictionary page into
// structured meanings and fetches that page for a query word.
package dictionary

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	// ResultsTableID is the identifier of the upstream element holding result rows.
	ResultsTableID = "englishResultsTable"

	// MaxMeanings caps how many result rows are kept per lookup.
	MaxMeanings = 5

	// minCells is the number of cells a result row must have:
	// index, category, source term, target term.
	minCells = 4
)

// Meaning is one (category, source term, target term) triple taken from one result row.
type Meaning struct {
	Category string `json:"category"`
	Source   string `json:"source"`
	Target   string `json:"target"`
}

// Definition is the transient lookup result. Phonetic is reserved and always
// empty when produced by Extract.
type Definition struct {
	Word     string    `json:"word"`
	Phonetic string    `json:"phonetic"`
	Meanings []Meaning `json:"meanings"`
}

var notBlank = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
})

// Validate checks that both terms are present.
func (m Meaning) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Source, notBlank),
		validation.Field(&m.Target, notBlank),
	)
}

// Validate checks the word and the 1..MaxMeanings meanings.
func (d Definition) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Word, notBlank),
		validation.Field(&d.Meanings, validation.Required, validation.Length(1, MaxMeanings)),
	)
}
