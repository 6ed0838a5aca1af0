package order

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPendingOrder(t *testing.T) *Order {
	t.Helper()
	o, err := NewOrder(GenerateOrderNo(), 1, []Item{
		{ProductID: 1, Quantity: 2, Price: 1500},
		{ProductID: 2, Quantity: 1, Price: 990},
	})
	require.NoError(t, err)
	return o
}

func TestNewOrder(t *testing.T) {
	o := newPendingOrder(t)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, int64(3990), o.Total)
	assert.True(t, o.IsOwnedBy(1))
	assert.False(t, o.IsOwnedBy(2))

	_, err := NewOrder("x", 1, nil)
	assert.ErrorIs(t, err, ErrEmptyOrder)

	_, err = NewOrder("x", 1, []Item{{ProductID: 1, Quantity: 0, Price: 1}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestTransitionsFromPending(t *testing.T) {
	for _, target := range []Status{StatusCompleted, StatusCanceled, StatusFailed} {
		o := newPendingOrder(t)
		require.NoError(t, o.TransitionTo(target))
		assert.Equal(t, target, o.Status)
		assert.True(t, o.Status.IsTerminal())
	}
}

func TestTerminalStatesRejectEverything(t *testing.T) {
	all := []Status{StatusPending, StatusCompleted, StatusCanceled, StatusFailed}
	for _, terminal := range []Status{StatusCompleted, StatusCanceled, StatusFailed} {
		for _, target := range all {
			o := &Order{Status: terminal}
			err := o.TransitionTo(target)
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", terminal, target)
			assert.Equal(t, terminal, o.Status)
		}
	}
}

func TestPendingToPendingIsInvalid(t *testing.T) {
	o := newPendingOrder(t)
	assert.ErrorIs(t, o.TransitionTo(StatusPending), ErrInvalidTransition)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("CANCELED")
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, s)

	_, err = ParseStatus("SHIPPED")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestGenerateOrderNo(t *testing.T) {
	no := GenerateOrderNo()
	assert.True(t, strings.HasPrefix(no, "SF"))
	assert.Len(t, no, 2+14+6)
}
