package int64x

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	cases := []int64{0, 1, -1, 1<<62 - 1, -(1 << 62), 1234567890123}
	for _, v := range cases {
		packed := Pack(nil, v)
		assert.Len(t, packed, Size)
		assert.Equal(t, v, Unpack(packed))
	}
}

func TestPackAppends(t *testing.T) {
	prefix := []byte{0xAA, 0xBB}
	out := Pack(prefix, 42)
	assert.Equal(t, []byte{0xAA, 0xBB}, out[:2])
	assert.Equal(t, int64(42), Unpack(out[2:]))
}

func TestAdd(t *testing.T) {
	assert.Equal(t, int64(3), Add(1, 2))
	assert.Equal(t, int64(-1), Add(1, -2))
}
