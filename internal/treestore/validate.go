package treestore

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MaxTitleLength is the longest title accepted by ValidateTitle, in runes.
const MaxTitleLength = 50

// ValidateTitle checks a user-supplied title and returns it trimmed.
// The store accepts any title; callers run this first.
func ValidateTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	err := validation.Validate(trimmed,
		validation.Required.Error("title must not be empty"),
		validation.RuneLength(1, MaxTitleLength).Error("title must be at most 50 characters"),
	)
	if err != nil {
		return "", err
	}
	return trimmed, nil
}
