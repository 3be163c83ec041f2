package normalize

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	cases := map[string]string{
		"Morning Run": "morning run",
		"Café":        "cafe",
		"ÉCOLE":       "ecole",
		"Ёлка":        "елка",
		"":            "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Fold(in), in)
	}
}

func TestContains(t *testing.T) {
	assert.True(t, Contains("Morning Run", "run"))
	assert.True(t, Contains("Morning Run", "RUN"))
	assert.True(t, Contains("Crème brûlée", "creme"))
	assert.True(t, Contains("cafe", "Café"))
	assert.True(t, Contains("Yoga", ""))
	assert.False(t, Contains("Yoga", "   "))
	assert.False(t, Contains("Run", " "))
	assert.True(t, Contains("Morning Run", "g r"))
	assert.False(t, Contains("Yoga", "run"))
}

func TestCollator_Less(t *testing.T) {
	labels := []string{"work", "Health", "apple", "Éclair", "health"}
	c := NewCollator()

	sort.SliceStable(labels, func(i, j int) bool { return c.Less(labels[i], labels[j]) })

	assert.Equal(t, "apple", labels[0])
	assert.Equal(t, "work", labels[len(labels)-1])
	assert.Less(t, indexOf(labels, "Éclair"), indexOf(labels, "Health"))

	assert.False(t, c.Less("same", "same"))
	assert.NotEqual(t, c.Less("Health", "health"), c.Less("health", "Health"), "order must be total")
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
