package dictionary

import (
	"fmt"
	"io"
	"strings"

	"github.com/japaniel/mywords/pkg/errs"
)

// Extract reads up to MaxMeanings result rows from the results table of doc.
// It returns errs.ErrNotFound when the table is missing or no row qualifies.
func Extract(doc Document, word string) (*Definition, error) {
	table, ok := doc.ElementByID(ResultsTableID)
	if !ok {
		return nil, fmt.Errorf("%s: results table absent: %w", word, errs.ErrNotFound)
	}

	var meanings []Meaning
	for _, row := range table.FindAll("tr") {
		cells := row.FindAll("td")
		// Header rows, separators and ads carry fewer cells.
		if len(cells) < minCells {
			continue
		}

		m := Meaning{
			Category: strings.TrimSpace(cells[1].Text()),
			Source:   termText(cells[2]),
			Target:   termText(cells[3]),
		}
		if m.Source == "" || m.Target == "" {
			continue
		}

		meanings = append(meanings, m)
		if len(meanings) == MaxMeanings {
			break
		}
	}

	if len(meanings) == 0 {
		return nil, fmt.Errorf("%s: no result rows: %w", word, errs.ErrNotFound)
	}

	return &Definition{
		Word:     word,
		Phonetic: "",
		Meanings: meanings,
	}, nil
}

// ExtractHTML parses r and runs Extract on the result.
func ExtractHTML(r io.Reader, word string) (*Definition, error) {
	doc, err := ParseHTML(r)
	if err != nil {
		return nil, fmt.Errorf("%s: parse html: %v: %w", word, err, errs.ErrNotFound)
	}
	return Extract(doc, word)
}

// termText prefers the text of the first link in the cell and falls back
// to the cell text when there is no link or the link is empty.
func termText(cell Node) string {
	if link, ok := cell.FirstLink(); ok {
		if s := strings.TrimSpace(link.Text()); s != "" {
			return s
		}
	}
	return strings.TrimSpace(cell.Text())
}
