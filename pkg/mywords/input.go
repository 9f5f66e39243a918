package mywords

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/japaniel/mywords/pkg/dictionary"
	"github.com/japaniel/mywords/pkg/errs"
)

// MaxListNameLength is the longest list name accepted, in characters.
const MaxListNameLength = 100

func normalizeListName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if err := validation.Validate(name,
		validation.Required,
		validation.RuneLength(1, MaxListNameLength),
	); err != nil {
		return "", fmt.Errorf("list name: %v: %w", err, errs.ErrValidation)
	}
	return name, nil
}

func normalizeDefinition(def dictionary.Definition) (dictionary.Definition, error) {
	def.Word = strings.TrimSpace(def.Word)
	if err := def.Validate(); err != nil {
		return def, fmt.Errorf("definition: %v: %w", err, errs.ErrValidation)
	}
	return def, nil
}
