package utils_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-eventreg/internal/utils"
)

func TestParsePageRequest(t *testing.T) {
	page := utils.ParsePageRequest("", "")
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 50, page.Limit)

	page = utils.ParsePageRequest("3", "10")
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 10, page.Limit)
	assert.Equal(t, 20, page.Offset())

	// Malformed and out-of-range values fall back to defaults.
	page = utils.ParsePageRequest("abc", "-5")
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 50, page.Limit)
}

func TestParseDateParam(t *testing.T) {
	date, err := utils.ParseDateParam("")
	require.NoError(t, err)
	assert.Nil(t, date)

	date, err = utils.ParseDateParam("2026-09-15")
	require.NoError(t, err)
	require.NotNil(t, date)
	assert.Equal(t, time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC), *date)

	for _, bad := range []string{"15-09-2026", "2026/09/15", "tomorrow", "2026-13-40"} {
		_, err := utils.ParseDateParam(bad)
		assert.Error(t, err, "expected %q to be rejected", bad)
	}
}
