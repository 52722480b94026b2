package queue

import (
	"testing"

	"github.com/procsim/procsim/internal/pcb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFOOrder(t *testing.T) {
	q := New[int]()
	for i := 1; i <= 5; i++ {
		q.Enqueue(i)
	}
	require.Equal(t, 5, q.Size())
	for i := 1; i <= 5; i++ {
		v, ok := q.Dequeue()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	assert.True(t, q.IsEmpty())
	_, ok := q.Dequeue()
	assert.False(t, ok)
}

func TestQueueGrowsPastInitialCapacity(t *testing.T) {
	q := New[int]()
	for i := 0; i < 100; i++ {
		q.Enqueue(i)
	}
	for i := 0; i < 100; i++ {
		v, ok := q.Dequeue()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
}

func TestQueueWrapAroundAfterPartialDrain(t *testing.T) {
	q := New[int]()
	for i := 0; i < 6; i++ {
		q.Enqueue(i)
	}
	for i := 0; i < 4; i++ {
		q.Dequeue()
	}
	for i := 6; i < 12; i++ {
		q.Enqueue(i)
	}
	var got []int
	for {
		v, ok := q.Dequeue()
		if !ok {
			break
		}
		got = append(got, v)
	}
	assert.Equal(t, []int{4, 5, 6, 7, 8, 9, 10, 11}, got)
}

func TestQueueRemoveByIdentity(t *testing.T) {
	q := NewPCBQueue()
	a := pcb.New(1, 1, 10)
	b := pcb.New(2, 1, 10)
	c := pcb.New(3, 1, 10)
	q.Enqueue(a)
	q.Enqueue(b)
	q.Enqueue(c)

	require.True(t, q.Remove(b))
	assert.False(t, q.Remove(b), "second removal of the same element must fail")

	var got []pcb.PID
	for {
		v, ok := q.Dequeue()
		if !ok {
			break
		}
		got = append(got, v.PID)
	}
	assert.Equal(t, []pcb.PID{1, 3}, got)
}

func TestFindByPID(t *testing.T) {
	q := NewPCBQueue()
	a := pcb.New(1, 1, 10)
	b := pcb.New(2, 1, 10)
	q.Enqueue(a)
	q.Enqueue(b)

	found, ok := FindByPID(q, 2)
	require.True(t, ok)
	assert.Same(t, b, found)
	assert.Equal(t, 2, q.Size(), "FindByPID must not remove the match")

	_, ok = FindByPID(q, 99)
	assert.False(t, ok)
}

func TestQueuePeekDoesNotRemove(t *testing.T) {
	q := New[int]()
	q.Enqueue(42)
	v, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, q.Size())
}
