package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackageSetIdempotentAdd(t *testing.T) {
	ps := NewPackageSet()
	assert.True(t, ps.Add("pandas"))
	assert.False(t, ps.Add("pandas"))
	assert.False(t, ps.Add("  Pandas "), "normalization makes re-adds no-ops")
	assert.Equal(t, 1, ps.Len())
}

func TestPackageSetNormalization(t *testing.T) {
	ps := NewPackageSet("Scikit_Learn", "scikit-learn", "scikit.learn")
	assert.Equal(t, []string{"scikit-learn"}, ps.Sorted())
	assert.True(t, ps.Contains("SCIKIT__LEARN"))
}

func TestPackageSetEmptyNameRejected(t *testing.T) {
	ps := NewPackageSet()
	assert.False(t, ps.Add("   "))
	assert.Equal(t, 0, ps.Len())
}

func TestPackageSetRemove(t *testing.T) {
	ps := NewPackageSet("numpy", "pandas")
	assert.True(t, ps.Remove("NumPy"))
	assert.False(t, ps.Remove("numpy"))
	assert.Equal(t, []string{"pandas"}, ps.Sorted())
}
