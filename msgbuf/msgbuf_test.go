package msgbuf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCapacity = 1024

func TestNewRejectsTooSmallCapacity(t *testing.T) {
	assert.Panics(t, func() { New(HeaderSize) })
	assert.Panics(t, func() { New(0) })
	assert.NotPanics(t, func() { New(HeaderSize + 1) })
}

func TestAppendConsumeRoundTrip(t *testing.T) {
	b := New(testCapacity)
	payload := []byte("driver says hello")

	require.True(t, b.Append(payload))
	got := b.ConsumeNextMessage()
	assert.Equal(t, payload, got)
	assert.Nil(t, b.ConsumeNextMessage())
}

func TestRoundTripAtBoundarySizes(t *testing.T) {
	for _, n := range []int{1, 2, HeaderSize + 1, testCapacity - HeaderSize} {
		b := New(testCapacity)
		payload := bytes.Repeat([]byte{0xA5}, n)
		require.True(t, b.Append(payload), "payload of %d bytes should fit", n)
		assert.Equal(t, payload, b.ConsumeNextMessage())
	}
}

func TestFitAccounting(t *testing.T) {
	b := New(testCapacity)
	assert.True(t, b.CanFitNow(testCapacity-HeaderSize))
	assert.False(t, b.CanFitNow(testCapacity-HeaderSize+1))

	// CanFitEver ignores current state.
	require.True(t, b.Append(bytes.Repeat([]byte{1}, testCapacity-HeaderSize)))
	assert.False(t, b.CanFitNow(1))
	assert.True(t, b.CanFitEver(testCapacity-HeaderSize))
	assert.False(t, b.CanFitEver(testCapacity-HeaderSize+1))
}

func TestCanFitNowNearCapacityDoesNotUnderflow(t *testing.T) {
	b := New(HeaderSize + 4)
	require.True(t, b.Append([]byte{1, 2, 3, 4}))
	// Free space is now below the header size; the check must come out
	// false rather than wrapping around.
	assert.False(t, b.CanFitNow(0))
	assert.False(t, b.CanFitNow(1))
}

func TestFIFOOrdering(t *testing.T) {
	b := New(testCapacity)
	msgs := [][]byte{[]byte("one"), []byte("two"), []byte("three")}
	for _, m := range msgs {
		require.True(t, b.Append(m))
	}
	for _, want := range msgs {
		assert.Equal(t, want, b.ConsumeNextMessage())
	}
	assert.Nil(t, b.ConsumeNextMessage())
}

func TestAppendFailsWhenFull(t *testing.T) {
	b := New(HeaderSize + 8)
	require.True(t, b.Append(bytes.Repeat([]byte{1}, 8)))
	assert.False(t, b.Append([]byte{1}))

	// Clearing recovers the whole region.
	b.Clear()
	assert.True(t, b.Append(bytes.Repeat([]byte{2}, 8)))
}

func TestAppendEmptyPanics(t *testing.T) {
	b := New(testCapacity)
	assert.Panics(t, func() { b.Append(nil) })
	assert.Panics(t, func() { b.Append([]byte{}) })
}

func TestRewindAllowsRereading(t *testing.T) {
	b := New(testCapacity)
	require.True(t, b.Append([]byte("again")))

	first := append([]byte(nil), b.ConsumeNextMessage()...)
	require.Nil(t, b.ConsumeNextMessage())

	b.Rewind()
	second := b.ConsumeNextMessage()
	assert.Equal(t, first, second)
}

func TestRewindGuardRestoresOnEveryPath(t *testing.T) {
	b := New(testCapacity)
	require.True(t, b.Append([]byte("one")))
	require.True(t, b.Append([]byte("two")))

	func() {
		defer b.RewindGuard()()
		assert.Equal(t, []byte("one"), b.ConsumeNextMessage())
		// Abandon the walk partway; the guard must still restore.
	}()

	assert.Equal(t, []byte("one"), b.ConsumeNextMessage())
	assert.Equal(t, []byte("two"), b.ConsumeNextMessage())
}

func TestClearDiscardsEverything(t *testing.T) {
	b := New(testCapacity)
	require.True(t, b.Append([]byte("gone")))
	b.Clear()
	assert.Nil(t, b.ConsumeNextMessage())
	assert.Equal(t, 0, b.UsedBytes())
}

func TestUsedBytes(t *testing.T) {
	b := New(testCapacity)
	assert.Equal(t, 0, b.UsedBytes())
	require.True(t, b.Append([]byte("abcd")))
	assert.Equal(t, HeaderSize+4, b.UsedBytes())
}
