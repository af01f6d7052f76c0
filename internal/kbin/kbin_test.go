package kbin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	var w Writer
	w.Int8(-5)
	w.Int16(1234)
	w.Int32(-987654)
	w.Int64(9223372036854775807)
	w.ArrayLen(2)
	w.String("hello")
	s := "nullable"
	w.NullableString(&s)
	w.NullableString(nil)
	w.Bytes([]byte("payload"))
	w.Bytes(nil)

	r := NewReader(w.Bytes())
	assert.Equal(t, int8(-5), r.Int8())
	assert.Equal(t, int16(1234), r.Int16())
	assert.Equal(t, int32(-987654), r.Int32())
	assert.Equal(t, int64(9223372036854775807), r.Int64())
	assert.Equal(t, 2, r.ArrayLen())
	assert.Equal(t, "hello", r.String())
	assert.Equal(t, "nullable", *r.NullableString())
	assert.Nil(t, r.NullableString())
	assert.Equal(t, []byte("payload"), r.Bytes())
	assert.Nil(t, r.Bytes())
	require.NoError(t, r.Complete())
}

func TestReaderTruncatedBuffer(t *testing.T) {
	r := NewReader([]byte{0, 1})
	r.Int32()
	assert.ErrorIs(t, r.Err(), ErrNotEnoughData)
	assert.Equal(t, int16(0), r.Int16())
	assert.ErrorIs(t, r.Complete(), ErrNotEnoughData)
}

func TestReaderTrailingBytes(t *testing.T) {
	r := NewReader([]byte{0, 1, 2})
	r.Int16()
	err := r.Complete()
	assert.Error(t, err)
}

func TestNullableStringNegativeLength(t *testing.T) {
	var w Writer
	w.Int16(-1)
	r := NewReader(w.Bytes())
	assert.Nil(t, r.NullableString())
	assert.NoError(t, r.Err())
}

func TestBytesNegativeLength(t *testing.T) {
	var w Writer
	w.Bytes(nil)
	r := NewReader(w.Bytes())
	assert.Nil(t, r.Bytes())
	assert.NoError(t, r.Err())
}

func TestSpan(t *testing.T) {
	r := NewReader([]byte("abcdef"))
	assert.Equal(t, []byte("abc"), r.Span(3))
	assert.Equal(t, 3, r.Remaining())
	assert.Equal(t, []byte("def"), r.Span(3))
	assert.Equal(t, 0, r.Remaining())
}
