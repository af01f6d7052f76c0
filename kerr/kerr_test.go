package kerr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorForCode(t *testing.T) {
	assert.Nil(t, ErrorForCode(0))
	assert.Equal(t, UnknownServerError, ErrorForCode(-1))
	assert.Equal(t, UnknownTopicOrPartition, ErrorForCode(3))
	assert.Equal(t, NotLeaderForPartition, ErrorForCode(6))

	// An unrecognized code degrades to UnknownServerError rather than panicking.
	assert.Equal(t, UnknownServerError, ErrorForCode(9999))
}

func TestIsRetriable(t *testing.T) {
	assert.False(t, IsRetriable(nil))
	assert.True(t, IsRetriable(RequestTimedOut))
	assert.True(t, IsRetriable(UnknownTopicOrPartition))
	assert.False(t, IsRetriable(MessageTooLarge))
	assert.False(t, IsRetriable(assertErr{}))
}

func TestClassificationOf(t *testing.T) {
	assert.Equal(t, Fatal, ClassificationOf(nil))
	assert.Equal(t, Fatal, ClassificationOf(MessageTooLarge))
	assert.Equal(t, Retryable, ClassificationOf(RequestTimedOut))
	assert.Equal(t, MetadataInvalidating, ClassificationOf(LeaderNotAvailable))
	assert.Equal(t, MetadataInvalidating, ClassificationOf(NotLeaderForPartition))
	assert.Equal(t, MetadataInvalidating, ClassificationOf(UnknownTopicOrPartition))
}

func TestErrorForCodeTyped(t *testing.T) {
	assert.Nil(t, ErrorForCodeTyped(0))
	assert.Equal(t, LeaderNotAvailable, ErrorForCodeTyped(5))
	assert.Equal(t, UnknownServerError, ErrorForCodeTyped(9999))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "CORRUPT_MESSAGE", CorruptMessage.Error())
}

// assertErr is a non-*Error error, used to confirm IsRetriable and
// ClassificationOf don't panic on foreign error types.
type assertErr struct{}

func (assertErr) Error() string { return "not a kerr.Error" }
