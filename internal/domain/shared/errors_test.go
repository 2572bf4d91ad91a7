package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	err := NewDomainError("NOT_FOUND", "Order not found")
	wrapped := fmt.Errorf("load order: %w", err)

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrInvalidInput))
	assert.Equal(t, "Order not found", err.Error())
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "INVARIANT_VIOLATION", ErrorCode(fmt.Errorf("save: %w", ErrInvariantViolation)))
	assert.Equal(t, "", ErrorCode(errors.New("boom")))
	assert.Equal(t, "", ErrorCode(nil))
}

func TestBaseAggregateRoot(t *testing.T) {
	root := NewBaseAggregateRoot()
	assert.Equal(t, 1, root.GetVersion())
	root.IncrementVersion()
	assert.Equal(t, 2, root.GetVersion())

	ev := NewBaseDomainEvent("Test", "Thing", root.ID, root.CreatedAt)
	root.AddDomainEvent(&ev)
	clone := root.CloneBase()
	clone.ClearDomainEvents()

	assert.Len(t, root.GetDomainEvents(), 1)
	assert.Empty(t, clone.GetDomainEvents())
	assert.Equal(t, root.ID, clone.ID)
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]int{1, 2}, 41, 1, 20)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 20, DefaultFilter().Offset()+20)
	f := Filter{Page: 3, PageSize: 10}
	assert.Equal(t, 20, f.Offset())
}
