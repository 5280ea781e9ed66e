package clamp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaxVal(t *testing.T) {
	assert.Equal(t, uint8(math.MaxUint8), MaxVal[uint8]())
	assert.Equal(t, uint16(math.MaxUint16), MaxVal[uint16]())
	assert.Equal(t, uint32(math.MaxUint32), MaxVal[uint32]())
	assert.Equal(t, uint64(math.MaxUint64), MaxVal[uint64]())
	assert.Equal(t, int8(math.MaxInt8), MaxVal[int8]())
	assert.Equal(t, int16(math.MaxInt16), MaxVal[int16]())
	assert.Equal(t, int32(math.MaxInt32), MaxVal[int32]())
	assert.Equal(t, int64(math.MaxInt64), MaxVal[int64]())
}

func TestClampInRangeConvertsExactly(t *testing.T) {
	assert.Equal(t, uint16(4096), Clamp(4096, uint16(0), uint16(65535)))
	assert.Equal(t, uint16(0), Clamp(0, uint16(0), uint16(65535)))
}

func TestClampBelowRange(t *testing.T) {
	assert.Equal(t, uint16(0), Clamp(-1, uint16(0), MaxVal[uint16]()))
	assert.Equal(t, int8(-5), Clamp(int64(math.MinInt64), int8(-5), int8(5)))
}

func TestClampAboveRange(t *testing.T) {
	assert.Equal(t, uint16(4096), Clamp(100000, uint16(0), uint16(4096)))
	assert.Equal(t, MaxVal[uint16](), Clamp(uint64(math.MaxUint64), uint16(0), MaxVal[uint16]()))
}

func TestClampMixedSignedness(t *testing.T) {
	// A large unsigned value must not be mistaken for a negative one.
	assert.Equal(t, int32(100), Clamp(uint64(math.MaxUint64), int32(-100), int32(100)))
	// A negative value must clamp to lo even when the destination is unsigned.
	assert.Equal(t, uint32(1), Clamp(int8(-8), uint32(1), uint32(9)))
}

func TestClampInvalidRangePanics(t *testing.T) {
	assert.Panics(t, func() { Clamp(1, uint16(10), uint16(10)) })
	assert.Panics(t, func() { Clamp(1, uint16(10), uint16(9)) })
}
