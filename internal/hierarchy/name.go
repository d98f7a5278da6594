package hierarchy

import (
	"errors"
	"fmt"
	"strings"

	apperrors "spendtree/internal/errors"
)

// Reasons a name is rejected. They are reachable through errors.Is on the
// INVALID_CATEGORY_NAME error returned by ValidateName.
var (
	ErrNameEmpty          = errors.New("name is empty")
	ErrNameTooLong        = errors.New("name is too long")
	ErrNameForbiddenChars = errors.New("name contains forbidden characters")
)

// ValidateName trims raw and checks it against the length and charset rules.
// It returns the trimmed name on success.
func (r Rules) ValidateName(raw string) (string, error) {
	r = r.Normalize()
	name := strings.TrimSpace(raw)

	if name == "" {
		return "", apperrors.WrapWithMessage(apperrors.ErrInvalidCategoryName,
			"invalid category name: name is required", ErrNameEmpty)
	}
	if RuneLen(name) > r.MaxNameLength {
		return "", apperrors.WrapWithMessage(apperrors.ErrInvalidCategoryName,
			fmt.Sprintf("invalid category name: maximum length is %d", r.MaxNameLength), ErrNameTooLong)
	}
	if !r.NamePattern.MatchString(name) {
		return "", apperrors.WrapWithMessage(apperrors.ErrInvalidCategoryName,
			"invalid category name: only letters, digits, spaces, '_' and '-' are allowed", ErrNameForbiddenChars)
	}
	return name, nil
}

// NormalizeName is the sibling-uniqueness key: trimmed and lower-cased.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
