package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDependenciesTopologicalOrder(t *testing.T) {
	order, err := ValidateDependencies([]SectionDeps{
		{ID: "load"},
		{ID: "clean", DependsOn: []string{"load"}},
		{ID: "plot", DependsOn: []string{"clean", "load"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"load", "clean", "plot"}, order)
}

func TestValidateDependenciesTieBreakByPosition(t *testing.T) {
	order, err := ValidateDependencies([]SectionDeps{
		{ID: "b"},
		{ID: "a"},
		{ID: "c", DependsOn: []string{"a", "b"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, order)
}

func TestValidateDependenciesRejectsCycle(t *testing.T) {
	_, err := ValidateDependencies([]SectionDeps{
		{ID: "a", DependsOn: []string{"c"}},
		{ID: "b", DependsOn: []string{"a"}},
		{ID: "c", DependsOn: []string{"b"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestValidateDependenciesRejectsUnknownAndSelf(t *testing.T) {
	_, err := ValidateDependencies([]SectionDeps{{ID: "a", DependsOn: []string{"ghost"}}})
	assert.Error(t, err)

	_, err = ValidateDependencies([]SectionDeps{{ID: "a", DependsOn: []string{"a"}}})
	assert.Error(t, err)

	_, err = ValidateDependencies([]SectionDeps{{ID: "a"}, {ID: "a"}})
	assert.Error(t, err, "duplicate ids")
}
