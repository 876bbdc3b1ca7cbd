package timex

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/hydrotrack/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, Date{2024, time.January, 2}, d)
	assert.Equal(t, "2024-01-02", d.String())

	zero, err := ParseDate("")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())
	assert.Equal(t, "", zero.String())

	_, err = ParseDate("02/01/2024")
	require.ErrorIs(t, err, common.ErrorInvalidInput)
}

func TestDateOf_UsesLocation(t *testing.T) {
	sp := time.FixedZone("BRT", -3*3600)
	instant := time.Date(2024, 1, 2, 1, 30, 0, 0, time.UTC)

	assert.Equal(t, "2024-01-02", DateOf(instant).String())
	assert.Equal(t, "2024-01-01", DateOf(instant.In(sp)).String())
}

func TestAddDays(t *testing.T) {
	d := Date{2024, time.February, 28}
	assert.Equal(t, "2024-02-29", d.AddDays(1).String())
	assert.Equal(t, "2024-03-01", d.AddDays(2).String())
	assert.Equal(t, "2024-02-27", d.AddDays(-1).String())
}
