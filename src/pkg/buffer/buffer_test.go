package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_ZeroValue(t *testing.T) {
	var b Buffer
	assert.Equal(t, 0, b.Len())
	_, err := b.Consume(1)
	assert.ErrorIs(t, err, ErrShortBuffer)

	b.Append([]byte{1, 2, 3})
	assert.Equal(t, 3, b.Len())
}

func TestBuffer_PeekUint(t *testing.T) {
	b := New()
	b.Append([]byte{0x46, 0x4c, 0x56, 0x01, 0xff})

	tests := []struct {
		name   string
		offset int
		width  int
		want   uint32
	}{
		{"single byte", 0, 1, 0x46},
		{"three bytes", 0, 3, 0x464c56},
		{"four bytes", 1, 4, 0x4c5601ff},
		{"last byte", 4, 1, 0xff},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := b.PeekUint(tt.offset, tt.width)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
	assert.Equal(t, 5, b.Len(), "peek must not consume")

	_, err := b.PeekUint(3, 4)
	assert.ErrorIs(t, err, ErrShortBuffer)
	_, err = b.PeekUint(0, 5)
	assert.ErrorIs(t, err, ErrInvalidWidth)
	_, err = b.PeekUint(-1, 1)
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestBuffer_ConsumeAndSkip(t *testing.T) {
	b := New()
	b.Append([]byte{1, 2, 3, 4, 5})

	p, err := b.Consume(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, p)
	assert.Equal(t, int64(2), b.Offset())

	require.NoError(t, b.Skip(1))
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, int64(3), b.Offset())

	assert.ErrorIs(t, b.Skip(3), ErrShortBuffer)
	assert.Equal(t, 2, b.Len(), "failed skip must not move the cursor")

	p, err = b.Consume(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{4, 5}, p)
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, int64(5), b.Offset())
}

func TestBuffer_ConsumeReturnsCopy(t *testing.T) {
	b := New()
	b.Append([]byte{9, 9})
	p, err := b.Consume(1)
	require.NoError(t, err)
	p[0] = 0
	v, err := b.PeekUint(0, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(9), v)
}

func TestBuffer_CompactKeepsUnreadBytes(t *testing.T) {
	b := New()
	big := make([]byte, compactThreshold*2)
	for i := range big {
		big[i] = byte(i)
	}
	b.Append(big)
	require.NoError(t, b.Skip(compactThreshold+10))
	b.Append([]byte{0xAA})

	assert.Equal(t, compactThreshold-10+1, b.Len())
	v, err := b.PeekUint(0, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(big[compactThreshold+10]), v)
	last, err := b.PeekUint(b.Len()-1, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xAA), last)
}

func TestBuffer_Reset(t *testing.T) {
	b := New()
	b.Append([]byte{1, 2, 3})
	require.NoError(t, b.Skip(1))
	b.Reset()
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, int64(3), b.Offset())
}
