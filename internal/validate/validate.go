package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"shopapi/internal/domain"
)

var reQ = regexp.MustCompile(`^[A-Za-z0-9 _'.&-]{1,50}$`)

var v = validator.New(validator.WithRequiredStructEnabled())

// Struct validates request bodies by their `validate` tags. Failures come
// back wrapped in domain.ErrValidation with one message per field.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return fmt.Errorf("%v: %w", err, domain.ErrValidation)
	}
	msgs := make([]string, 0, len(ves))
	for _, fe := range ves {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("%s: %w", strings.Join(msgs, "; "), domain.ErrValidation)
}

func fieldMessage(fe validator.FieldError) string {
	name := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", name, fe.Param())
	case "eqfield":
		return name + " does not match"
	case "email":
		return name + " must be a valid email"
	case "alphanum":
		return name + " must contain only letters or numbers"
	}
	return fmt.Sprintf("%s is invalid (%s)", name, fe.Tag())
}

// Q validates a search query: trims, enforces allowed characters and max length.
// An empty query is valid and means "no filter".
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	if len(s) > 50 {
		return "", false
	}
	return s, reQ.MatchString(s)
}

// ID parses a positive integer resource identifier.
func ID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Page parses skip/limit query values. Empty values take the defaults;
// anything unparsable or out of range is rejected.
func Page(skipStr, limitStr string, defLimit, maxLimit int) (skip, limit int, ok bool) {
	skip, limit = 0, defLimit
	if s := strings.TrimSpace(skipStr); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return 0, 0, false
		}
		skip = n
	}
	if s := strings.TrimSpace(limitStr); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxLimit {
			return 0, 0, false
		}
		limit = n
	}
	return skip, limit, true
}
