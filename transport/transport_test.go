package transport

import (
	"testing"
	"time"

	"github.com/grafana/zkless-kafka/clienterr"
	"github.com/grafana/zkless-kafka/transport/faketransport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendReceiveRoundTrip(t *testing.T) {
	dialer := faketransport.NewDialer(func(req []byte) ([]byte, bool) {
		return append([]byte{}, req...), true // echo
	})

	b, err := Dial("broker-1", 9092, Config{Dialer: dialer, Timeout: time.Second})
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Send([]byte("hello")))
	resp, err := b.Receive()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), resp)
}

func TestSendExceedsMaxRequestSize(t *testing.T) {
	dialer := faketransport.NewDialer(func(req []byte) ([]byte, bool) { return nil, false })
	b, err := Dial("broker-1", 9092, Config{Dialer: dialer, MaxRequestSize: 4})
	require.NoError(t, err)
	defer b.Close()

	err = b.Send([]byte("way too long"))
	assert.True(t, clienterr.Is(err, clienterr.MismatchArgument))
}

func TestCloseIsIdempotent(t *testing.T) {
	dialer := faketransport.NewDialer(func(req []byte) ([]byte, bool) { return nil, false })
	b, err := Dial("broker-1", 9092, Config{Dialer: dialer})
	require.NoError(t, err)

	assert.NoError(t, b.Close())
	assert.NoError(t, b.Close())
	assert.False(t, b.IsAlive())
}

func TestSendAfterCloseFails(t *testing.T) {
	dialer := faketransport.NewDialer(func(req []byte) ([]byte, bool) { return nil, false })
	b, err := Dial("broker-1", 9092, Config{Dialer: dialer})
	require.NoError(t, err)
	require.NoError(t, b.Close())

	err = b.Send([]byte("x"))
	assert.True(t, clienterr.Is(err, clienterr.NoConnection))

	_, err = b.Receive()
	assert.True(t, clienterr.Is(err, clienterr.NoConnection))
}

func TestDialRejectsMismatchedIPVersion(t *testing.T) {
	dialer := faketransport.NewDialer(func(req []byte) ([]byte, bool) { return nil, false })
	_, err := Dial("127.0.0.1", 9092, Config{Dialer: dialer, IPVersion: V6})
	assert.True(t, clienterr.Is(err, clienterr.IncompatibleHostIpVersion))
}

func TestDialFailure(t *testing.T) {
	dialer := faketransport.NewDialer(func(req []byte) ([]byte, bool) { return nil, false })
	dialer.FailNextDials(1, assert.AnError)

	_, err := Dial("broker-1", 9092, Config{Dialer: dialer})
	assert.True(t, clienterr.Is(err, clienterr.CannotBind))
}
