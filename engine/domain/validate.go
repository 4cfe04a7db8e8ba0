package domain

import "regexp"

// Variant IDs follow `{base}_{stage}[_iter_{n}]`; the store treats them as
// opaque keys, so the charset stays conservative.
var idRegex = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidateVariant checks a TextVariant before it is written to the store.
// Empty content is allowed: an operator edit session closed immediately
// produces a legitimate empty human_edited variant.
func ValidateVariant(v TextVariant) error {
	if v.ID == "" {
		return NewValidationError("id", v.ID, ErrEmptyID)
	}
	if !idRegex.MatchString(v.ID) {
		return NewValidationError("id", v.ID, ErrBadID)
	}
	if v.Tag == "" {
		return NewValidationError("version_type", string(v.Tag), ErrEmptyTag)
	}
	return nil
}
