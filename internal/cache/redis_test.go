package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryKeyDeterministic(t *testing.T) {
	a := QueryKey("NullPointerException at createOrder", 5, 3)
	b := QueryKey("NullPointerException at createOrder", 5, 3)
	assert.Equal(t, a, b)
}

func TestQueryKeyVariesWithInputs(t *testing.T) {
	base := QueryKey("timeout", 5, 1)

	assert.NotEqual(t, base, QueryKey("timeout charging", 5, 1))
	assert.NotEqual(t, base, QueryKey("timeout", 10, 1))
	// Bumping the index version invalidates every cached query.
	assert.NotEqual(t, base, QueryKey("timeout", 5, 2))
}

func TestNewRedisCacheRejectsBadURL(t *testing.T) {
	_, err := NewRedisCache("not a url")
	assert.Error(t, err)
}
