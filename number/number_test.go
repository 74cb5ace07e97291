package number

import (
	"math"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func TestFloatTruncateF32ToI32(t *testing.T) {
	bits := math32.Float32bits(3.75)
	v, trap := FloatTruncate(F32, I32, uint64(bits))
	assert.Equal(t, NoTrap, trap)
	assert.Equal(t, uint64(3), v)
}

func TestFloatTruncateNaN(t *testing.T) {
	bits := math.Float64bits(math.NaN())
	_, trap := FloatTruncate(F64, I32, bits)
	assert.Equal(t, NanTrap, trap)
}

func TestFloatTruncateOutOfRangeSaturatesHigh(t *testing.T) {
	bits := math32.Float32bits(1e20)
	v, trap := FloatTruncate(F32, I32, uint64(bits))
	assert.Equal(t, ConvertTrap, trap)
	assert.Equal(t, Max(I32), v)
}

func TestFloatTruncateOutOfRangeSaturatesLow(t *testing.T) {
	bits := math32.Float32bits(-1e20)
	v, trap := FloatTruncate(F32, I32, uint64(bits))
	assert.Equal(t, ConvertTrap, trap)
	assert.Equal(t, Min(I32), v)
}

func TestCanTruncate64Bounds(t *testing.T) {
	assert.True(t, CanTruncate64(I32, 2147483647.9))
	assert.False(t, CanTruncate64(I32, 2147483648))
	assert.False(t, CanTruncate64(U32, -1))
}
