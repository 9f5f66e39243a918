package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/japaniel/mywords/pkg/dictionary"
)

// LegacyExport is the whole-array layout the browser extension kept in its
// key-value storage before lists and words were split into tables. The export
// command writes the same envelope.
type LegacyExport struct {
	Lists []LegacyList `json:"lists"`
}

// LegacyList is one list of a legacy export. A blank ID gets a fresh one on import.
type LegacyList struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Words []LegacyWord `json:"words"`
}

// LegacyWord is one saved word of a legacy export.
type LegacyWord struct {
	Word     string          `json:"word"`
	Meanings []LegacyMeaning `json:"meanings"`
	Phonetic string          `json:"phonetic"`
}

// LegacyMeaning names its terms by language: english is the looked-up side.
// Files written by the export command use source and target instead; those win
// when set.
type LegacyMeaning struct {
	Category string `json:"category"`
	Turkish  string `json:"turkish"`
	English  string `json:"english"`
	Source   string `json:"source"`
	Target   string `json:"target"`
}

func (m LegacyMeaning) terms() (source, target string) {
	source = strings.TrimSpace(m.Source)
	if source == "" {
		source = strings.TrimSpace(m.English)
	}
	target = strings.TrimSpace(m.Target)
	if target == "" {
		target = strings.TrimSpace(m.Turkish)
	}
	return source, target
}

// LoadLegacyExport reads a legacy export file.
func LoadLegacyExport(path string) (*LegacyExport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open legacy export: %w", err)
	}
	defer f.Close()
	return DecodeLegacyExport(f)
}

// DecodeLegacyExport parses a legacy export from r.
func DecodeLegacyExport(r io.Reader) (*LegacyExport, error) {
	var export LegacyExport
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("failed to decode legacy export: %w", err)
	}
	return &export, nil
}

// Definition converts a legacy word. Meanings missing either term are dropped
// and at most dictionary.MaxMeanings are kept. ok is false when nothing usable remains.
func (w LegacyWord) Definition() (def dictionary.Definition, ok bool) {
	def = dictionary.Definition{
		Word:     strings.TrimSpace(w.Word),
		Phonetic: strings.TrimSpace(w.Phonetic),
	}
	for _, m := range w.Meanings {
		if len(def.Meanings) == dictionary.MaxMeanings {
			break
		}
		source, target := m.terms()
		meaning := dictionary.Meaning{
			Category: strings.TrimSpace(m.Category),
			Source:   source,
			Target:   target,
		}
		if meaning.Source == "" || meaning.Target == "" {
			continue
		}
		def.Meanings = append(def.Meanings, meaning)
	}
	return def, def.Validate() == nil
}
