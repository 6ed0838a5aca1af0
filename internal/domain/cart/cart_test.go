package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampQuantity(t *testing.T) {
	assert.Equal(t, 5, ClampQuantity(2, 3, 10))
	assert.Equal(t, 4, ClampQuantity(3, 3, 4))
	assert.Equal(t, 0, ClampQuantity(0, 2, 0))
}

func TestLines(t *testing.T) {
	lines := Lines([]*Item{
		{ProductID: 1, Quantity: 2},
		{ProductID: 9, Quantity: 1},
	})
	assert.Equal(t, []Line{{ProductID: 1, Quantity: 2}, {ProductID: 9, Quantity: 1}}, lines)
}
