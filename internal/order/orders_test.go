package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShipOrdersClearPreservesRepeatTemplate(t *testing.T) {
	so := &ShipOrders{
		Queue:          []Order{WaitDays{DaysRemaining: 1}},
		RepeatTemplate: []Order{WaitDays{DaysRemaining: 2}},
		RepeatCount:    3,
	}

	so.Clear()
	assert.Empty(t, so.Queue)
	assert.Len(t, so.RepeatTemplate, 1)
	assert.Equal(t, 3, so.RepeatCount)

	// Clearing an already-empty queue is idempotent.
	so.Clear()
	assert.Empty(t, so.Queue)
}

func TestShipOrdersAppendAndPrepend(t *testing.T) {
	so := &ShipOrders{}
	so.Append(WaitDays{DaysRemaining: 1}, WaitDays{DaysRemaining: 2})
	so.Prepend(MoveToPoint{Target: Vec2{X: 1, Y: 1}})

	require.Len(t, so.Queue, 3)
	assert.Equal(t, KindMoveToPoint, so.Queue[0].OrderKind())
	assert.Equal(t, KindWaitDays, so.Queue[1].OrderKind())
	assert.Equal(t, KindWaitDays, so.Queue[2].OrderKind())
}

func TestRefillFromRepeatDecrementsFiniteCount(t *testing.T) {
	so := &ShipOrders{
		RepeatTemplate: []Order{WaitDays{DaysRemaining: 1}},
		RepeatCount:    2,
	}

	refilled := so.RefillFromRepeat()
	require.True(t, refilled)
	assert.Len(t, so.Queue, 1)
	assert.Equal(t, 1, so.RepeatCount)

	// Queue is non-empty now, so a second call is a no-op.
	again := so.RefillFromRepeat()
	assert.False(t, again)
	assert.Equal(t, 1, so.RepeatCount)
}

func TestRefillFromRepeatForeverNeverDecrements(t *testing.T) {
	so := &ShipOrders{
		RepeatTemplate: []Order{WaitDays{DaysRemaining: 1}},
		RepeatCount:    -1,
	}

	for i := 0; i < 5; i++ {
		so.Queue = nil
		refilled := so.RefillFromRepeat()
		require.True(t, refilled)
		assert.Equal(t, -1, so.RepeatCount)
	}
}

func TestRefillFromRepeatExhaustedTemplateStaysEmpty(t *testing.T) {
	so := &ShipOrders{
		RepeatTemplate: []Order{WaitDays{DaysRemaining: 1}},
		RepeatCount:    0,
	}

	refilled := so.RefillFromRepeat()
	assert.False(t, refilled)
	assert.Empty(t, so.Queue)
}
