package models

import (
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReferenceFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD-[0-9A-F]{8}$`)
	seen := map[string]struct{}{}
	for i := 0; i < 50; i++ {
		ref, err := NewReference(OrderNumberPrefix)
		require.NoError(t, err)
		assert.Regexp(t, pattern, ref)
		seen[ref] = struct{}{}
	}
	assert.Greater(t, len(seen), 45)
}

func TestBeforeCreateKeepsExplicitID(t *testing.T) {
	explicit := uuid.New()
	order := &Order{ID: explicit}
	require.NoError(t, order.BeforeCreate(nil))
	assert.Equal(t, explicit, order.ID)

	generated := &Order{}
	require.NoError(t, generated.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, generated.ID)
}
