package scenario

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestExpand(t *testing.T) {
	t.Setenv("SCENARIO_TEST_HOST", "from-process")

	vars := map[string]string{"name": "saved"}
	suite := map[string]string{"name": "suite", "APP_DESC": "desc"}
	runner := map[string]string{"APP_DESC": "runner", "CONFIGURATOR_URL": "http://c"}

	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"${name}", "saved"},
		{"$name-x", "saved-x"},
		{"${APP_DESC}", "desc"},
		{"${CONFIGURATOR_URL}/login", "http://c/login"},
		{"${SCENARIO_TEST_HOST}", "from-process"},
		{"${NOT_SET_ANYWHERE_42}", ""},
		{"cost $5", "cost $5"},
		{"price $5 and $-x", "price $5 and $-x"},
		{"p@ss$word", "p@ss"},
		{"p@ss$$word", "p@ss$word"},
		{"$$name", "$name"},
		{"a $* b $# c $? d $@ e $! f $0", "a $* b $# c $? d $@ e $! f $0"},
		{"trailing $", "trailing $"},
		{"${unclosed", "${unclosed"},
		{"${not-a-name}", "${not-a-name}"},
		{"${}", "${}"},
		{"${name}${name}", "savedsaved"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Expand(tt.in, vars, suite, runner))
		})
	}
}

func TestExpandRandom(t *testing.T) {
	for i := 0; i < 200; i++ {
		n, err := strconv.Atoi(Expand("${RANDOM}"))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100)
		assert.Less(t, n, 1099)
	}
}

func TestExpandEscapedDollarsRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.StringMatching(`[a-z$_{}0-9 -]{0,24}`).Draw(t, "raw")
		assert.Equal(t, raw, Expand(strings.ReplaceAll(raw, "$", "$$")))
	})
}

func TestExpandDoesNotReexpand(t *testing.T) {
	vars := map[string]string{"password": "p@ss$word", "word": "boom"}
	assert.Equal(t, "p@ss$word", Expand("${password}", vars))
}
