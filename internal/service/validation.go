package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// todoRules are the per-field constraints shared by create and update.
type todoRules struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"max=1000"`
	Priority    string `json:"priority" validate:"required,oneof=low medium high"`
}

type bulkRules struct {
	Action string  `json:"action" validate:"required,oneof=complete incomplete delete"`
	IDs    []int64 `json:"ids" validate:"required,min=1"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check runs the struct rules of s and records failures in verr.
func check(v *validator.Validate, s any, verr *ValidationError) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	for _, fe := range fieldErrs {
		verr.add(fe.Field(), message(fe))
	}
	return nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", fe.Field())
	case "max":
		return fmt.Sprintf("The %s field must not be greater than %s characters.", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("The %s field must have at least %s items.", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", fe.Field())
	default:
		return fmt.Sprintf("The %s field is invalid.", fe.Field())
	}
}

// dueDateLayouts are tried in order. Layouts without a zone are read in the
// app's location; a bare date means the start of that day.
var dueDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDueDate(raw string, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range dueDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("due_date: use a date (YYYY-MM-DD) or RFC3339 datetime")
}

// resolveDueDate parses raw and records a field error when it is not a date.
// A nil or blank raw value means no due date.
func resolveDueDate(raw *string, loc *time.Location, verr *ValidationError) *time.Time {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	t, err := parseDueDate(*raw, loc)
	if err != nil {
		verr.add("due_date", "The due_date field must be a valid date.")
		return nil
	}
	return &t
}

// blankToNil trims s and maps an empty result to nil.
func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
