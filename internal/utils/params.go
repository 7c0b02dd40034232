package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"ms-eventreg/internal/models"
)

var dateParamPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParsePageRequest reads page/limit query values, falling back to the
// listing defaults for missing or malformed input.
func ParsePageRequest(pageStr, limitStr string) models.PageRequest {
	page := models.PageRequest{}
	if n, err := strconv.Atoi(pageStr); err == nil {
		page.Page = n
	}
	if n, err := strconv.Atoi(limitStr); err == nil {
		page.Limit = n
	}
	return page.Normalize()
}

// ParseDateParam validates an optional YYYY-MM-DD query value. An
// empty value yields a nil date.
func ParseDateParam(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if !dateParamPattern.MatchString(value) {
		return nil, fmt.Errorf("invalid date format %q, expected YYYY-MM-DD", value)
	}
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return &date, nil
}
