package validate_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/gmail-reader/internal/validate"
)

func TestQueryLength(t *testing.T) {
	const maxLen = 64

	assert.NoError(t, validate.QueryLength(strings.Repeat("a", maxLen), maxLen))
	assert.NoError(t, validate.QueryLength("", maxLen))

	err := validate.QueryLength(strings.Repeat("a", maxLen+1), maxLen)
	var verr *validate.Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "query", verr.Field)
}

func TestQueryLengthCountsCharacters(t *testing.T) {
	assert.NoError(t, validate.QueryLength(strings.Repeat("ü", 10), 10))
	assert.Error(t, validate.QueryLength(strings.Repeat("ü", 11), 10))
}

func TestQuery(t *testing.T) {
	assert.Error(t, validate.Query("   ", 10))
	assert.NoError(t, validate.Query("from:me", 10))
	assert.Error(t, validate.Query("from:someone@example.com", 10))
}

func TestResourceID(t *testing.T) {
	cases := []struct {
		id    string
		valid bool
	}{
		{id: "18c2f0a9b3d4e5f6", valid: true},
		{id: "thread_ID-01", valid: true},
		{id: strings.Repeat("a", validate.MaxIDLength), valid: true},
		{id: "", valid: false},
		{id: "../etc/passwd", valid: false},
		{id: "abc/def", valid: false},
		{id: `abc\def`, valid: false},
		{id: "abc def", valid: false},
		{id: "abc\tdef", valid: false},
		{id: "abc\n", valid: false},
		{id: strings.Repeat("a", validate.MaxIDLength+1), valid: false},
	}

	for _, tc := range cases {
		t.Run(tc.id, func(t *testing.T) {
			err := validate.ResourceID(tc.id, "message ID")
			if tc.valid {
				assert.NoError(t, err)
				return
			}
			var verr *validate.Error
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "message ID", verr.Field)
		})
	}
}

func TestDateQuery(t *testing.T) {
	q, err := validate.DateQuery("2025-01-01", "2025-02-01")
	require.NoError(t, err)
	assert.Equal(t, "after:2025/01/01 before:2025/02/01", q)

	_, err = validate.DateQuery("2025-1-1", "2025-02-01")
	assert.ErrorContains(t, err, "start date")

	_, err = validate.DateQuery("2025-01-01", "01/02/2025")
	assert.ErrorContains(t, err, "end date")

	_, err = validate.DateQuery("2025-02-01", "2025-02-01")
	assert.ErrorContains(t, err, "must be after")
}
