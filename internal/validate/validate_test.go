package validate_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"shopapi/internal/domain"
	"shopapi/internal/validate"
)

func TestQ(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"", "", true},
		{"   ", "", true},
		{" shoe ", "shoe", true},
		{"rock & roll's", "rock & roll's", true},
		{"<script>", "", false},
		{strings.Repeat("a", 51), "", false},
	}
	for _, tc := range cases {
		got, ok := validate.Q(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got)
		}
	}
}

func TestID(t *testing.T) {
	id, ok := validate.ID("17")
	assert.True(t, ok)
	assert.EqualValues(t, 17, id)
	for _, bad := range []string{"", "0", "-1", "abc", "1.5"} {
		_, ok := validate.ID(bad)
		assert.False(t, ok, bad)
	}
}

func TestPage(t *testing.T) {
	skip, limit, ok := validate.Page("", "", 10, 100)
	assert.True(t, ok)
	assert.Equal(t, 0, skip)
	assert.Equal(t, 10, limit)

	skip, limit, ok = validate.Page("20", "100", 10, 100)
	assert.True(t, ok)
	assert.Equal(t, 20, skip)
	assert.Equal(t, 100, limit)

	for _, p := range [][2]string{{"-1", ""}, {"", "0"}, {"", "101"}, {"x", ""}} {
		_, _, ok := validate.Page(p[0], p[1], 10, 100)
		assert.False(t, ok, p)
	}
}

func TestStruct(t *testing.T) {
	type req struct {
		Name     string `validate:"required"`
		Quantity int    `validate:"min=1,max=100"`
	}
	assert.NoError(t, validate.Struct(req{Name: "x", Quantity: 1}))

	err := validate.Struct(req{Quantity: 101})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "quantity must be at most 100")
}
