package suites

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotrs-io/configurator-e2e/internal/scenario"
)

func TestNames(t *testing.T) {
	assert.Contains(t, Names(), "application")
}

func TestApplication(t *testing.T) {
	s, err := Application()
	require.NoError(t, err)
	assert.Equal(t, "application", s.Name)
	assert.True(t, s.Login)
	require.Len(t, s.Scenarios, 8)

	groups := map[string]int{}
	for _, sc := range s.Scenarios {
		prefix, _, ok := strings.Cut(sc.Name, " - ")
		require.True(t, ok, sc.Name)
		groups[prefix]++
	}
	assert.Equal(t, map[string]int{"app:create": 3, "app:edit": 2, "app:delete": 2, "app:variables": 1}, groups)

	smoke := s.Filter(func(sc *scenario.Scenario) bool { return sc.HasTag("smoke") })
	assert.Len(t, smoke.Scenarios, 3)
}

func TestLoadUnknown(t *testing.T) {
	_, err := Load("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "application")
}
