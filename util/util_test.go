package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetKeysSorted(t *testing.T) {
	m := map[string]int{"piano": 1, "bass": 2, "guitar": 3}
	assert.Equal(t, []string{"bass", "guitar", "piano"}, GetKeys(m))
}

func TestMinMaxClamp(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(3, Min(3, 5))
	assert.Equal(5, Max(3, 5))
	assert.Equal(2.5, Max(2.5, -1.0))
	assert.Equal(10, Clamp(42, 0, 10))
	assert.Equal(0, Clamp(-3, 0, 10))
	assert.Equal(7, Clamp(7, 0, 10))
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"piano", "bass"}, Dedupe([]string{"piano", "bass", "piano"}))
	assert.Nil(t, Dedupe([]string{}))
}
