package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"depremkit/internal/expiry"
	"depremkit/internal/models"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("item not found")
)

// FieldError names the offending input field. It unwraps to ErrValidation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return ErrValidation
}

func fieldError(field, message string) error {
	return &FieldError{Field: field, Message: message}
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fieldError("name", "must not be empty")
	}
	return name, nil
}

func checkQuantity(q int64) error {
	if q < 1 {
		return fieldError("quantity", "must be at least 1")
	}
	return nil
}

func checkCategory(id string) error {
	if !models.IsKnownCategory(id) {
		return fieldError("category", fmt.Sprintf("unknown category %q", id))
	}
	return nil
}

func normalizeUnit(unit string) string {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return models.DefaultUnit
	}
	return unit
}

// normalizeDate accepts "" (no expiration) or a YYYY-MM-DD calendar date.
func normalizeDate(date string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return "", nil
	}
	if _, err := time.Parse(expiry.DateLayout, date); err != nil {
		return "", fieldError("expiration_date", "must be YYYY-MM-DD")
	}
	return date, nil
}

// ValidateNewItem checks and normalizes item in place.
func ValidateNewItem(item *models.NewItem) error {
	name, err := normalizeName(item.Name)
	if err != nil {
		return err
	}
	if err := checkCategory(item.Category); err != nil {
		return err
	}
	if err := checkQuantity(item.Quantity); err != nil {
		return err
	}
	date, err := normalizeDate(item.ExpirationDate)
	if err != nil {
		return err
	}

	item.Name = name
	item.Unit = normalizeUnit(item.Unit)
	item.ExpirationDate = date
	item.Notes = strings.TrimSpace(item.Notes)
	return nil
}

// ValidatePatch checks and normalizes the fields present in patch.
func ValidatePatch(patch *models.ItemPatch) error {
	if patch.Name != nil {
		name, err := normalizeName(*patch.Name)
		if err != nil {
			return err
		}
		patch.Name = &name
	}
	if patch.Category != nil {
		if err := checkCategory(*patch.Category); err != nil {
			return err
		}
	}
	if patch.Quantity != nil {
		if err := checkQuantity(*patch.Quantity); err != nil {
			return err
		}
	}
	if patch.Unit != nil {
		unit := normalizeUnit(*patch.Unit)
		patch.Unit = &unit
	}
	if patch.ExpirationDate != nil {
		date, err := normalizeDate(*patch.ExpirationDate)
		if err != nil {
			return err
		}
		patch.ExpirationDate = &date
	}
	if patch.Notes != nil {
		notes := strings.TrimSpace(*patch.Notes)
		patch.Notes = &notes
	}
	return nil
}
