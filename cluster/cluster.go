// Package cluster is the central routing state machine: it owns the
// broker pool, the cached cluster Snapshot, and the retry/backoff loop
// that the producer and consumer façades call through for every request.
package cluster

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/grafana/dskit/backoff"
	"github.com/grafana/zkless-kafka/clienterr"
	"github.com/grafana/zkless-kafka/internal/kproto"
	"github.com/grafana/zkless-kafka/kerr"
	zklog "github.com/grafana/zkless-kafka/pkg/util/log"
	"github.com/grafana/zkless-kafka/transport"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
)

// retryLogLinesPerSecond bounds how fast "retrying request" lines can be
// emitted: a broker stuck in a fast connect/fail loop would otherwise flood
// the log at one line per retry attempt.
const retryLogLinesPerSecond = 5

// Cluster is the routing layer producer.Producer and consumer.Consumer are
// built on. The broker pool map is guarded by a mutex and the cluster
// Snapshot is swapped atomically, but a pooled BrokerIO is not locked while
// a request is in flight on it, so concurrent calls that route to the same
// broker are not supported.
type Cluster struct {
	cfg      Config
	logger   log.Logger
	retryLog log.Logger
	dialer   transport.Dialer
	m        *metrics

	mu   sync.Mutex
	pool map[int32]*transport.BrokerIO

	snapshot      atomic.Pointer[Snapshot]
	snapshotAt    atomic.Int64 // unix nanos of the last successful refresh
	invalidated   atomic.Bool  // forces the next needsRefresh regardless of MetadataTTL
	correlationID atomic.Int32
}

// New constructs a Cluster from cfg. logger may be nil (log lines are then
// discarded); reg may be nil to skip metrics registration (useful in
// tests).
func New(cfg Config, logger log.Logger, reg prometheus.Registerer) *Cluster {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	c := &Cluster{
		cfg:      cfg,
		logger:   logger,
		retryLog: zklog.NewRateLimitedLogger(retryLogLinesPerSecond, logger),
		dialer:   transport.NetDialer{},
		m:        newMetrics(reg),
		pool:     map[int32]*transport.BrokerIO{},
	}
	c.snapshot.Store(newSnapshot())

	seed := cfg.CorrelationIDSeed
	if seed == 0 {
		seed = rand.Int31()
	}
	c.correlationID.Store(seed)
	return c
}

// WithDialer overrides the transport.Dialer used for new broker
// connections; intended for tests (see transport/faketransport).
func (c *Cluster) WithDialer(d transport.Dialer) *Cluster {
	c.dialer = d
	return c
}

// Close closes every pooled connection.
func (c *Cluster) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var firstErr error
	for id, b := range c.pool {
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(c.pool, id)
	}
	return firstErr
}

// nextCorrelationID returns the next negative 31-bit-range correlation id.
// Negative so it's visually distinguishable from a broker-assigned id in
// logs; uniqueness within one connection is guaranteed by this client
// never having more than one request in flight per BrokerIO.
func (c *Cluster) nextCorrelationID() int32 {
	n := c.correlationID.Inc()
	if n > 0 {
		n = -n
	}
	return n
}

// Produce sends messages for one topic-partition and returns the decoded
// ProduceResponse (or a synthetic empty one when requiredAcks == 0).
func (c *Cluster) Produce(topic string, partition int32, messageSet []byte, requiredAcks int16, timeoutMs int32) (kproto.ProduceResponse, error) {
	var resp kproto.ProduceResponse
	err := c.routed("produce", topic, partition, func(broker *transport.BrokerIO, corrID int32) (bool, error) {
		req := kproto.ProduceRequest{
			RequiredAcks: requiredAcks,
			TimeoutMs:    timeoutMs,
			Topic:        topic,
			Partition:    partition,
			MessageSet:   messageSet,
		}
		frame := c.header(kproto.APIKeyProduce, corrID).AppendTo(nil, req.AppendBody(nil))
		if err := broker.Send(frame); err != nil {
			return false, err
		}
		if requiredAcks == 0 {
			return true, nil // no response to wait for
		}

		body, err := broker.Receive()
		if err != nil {
			return false, err
		}
		hdr, r := kproto.ReadResponseHeader(body)
		if hdr.CorrelationID != corrID {
			return false, clienterr.New(clienterr.MismatchCorrelationId, fmt.Sprintf("want=%d got=%d", corrID, hdr.CorrelationID))
		}
		decoded, err := kproto.DecodeProduceResponse(r)
		if err != nil {
			return false, clienterr.Wrap(clienterr.RequestOrResponse, err)
		}
		resp = decoded

		part, ok := decoded.Partition(topic, partition)
		if !ok {
			return false, clienterr.New(clienterr.PartitionDoesNotMatch, fmt.Sprintf("topic=%s partition=%d not in response", topic, partition))
		}
		return c.classifyPartitionError(part.ErrorCode, topic, partition)
	})
	if requiredAcks == 0 && err == nil {
		return kproto.ProduceResponse{}, nil
	}
	return resp, err
}

// Fetch fetches one topic-partition starting at offset.
func (c *Cluster) Fetch(topic string, partition int32, offset int64, maxBytes int32, maxWaitMs, minBytes int32) (kproto.FetchResponse, error) {
	var resp kproto.FetchResponse
	err := c.routed("fetch", topic, partition, func(broker *transport.BrokerIO, corrID int32) (bool, error) {
		req := kproto.FetchRequest{
			ReplicaID:   -1,
			MaxWaitMs:   maxWaitMs,
			MinBytes:    minBytes,
			Topic:       topic,
			Partition:   partition,
			FetchOffset: offset,
			MaxBytes:    maxBytes,
		}
		frame := c.header(kproto.APIKeyFetch, corrID).AppendTo(nil, req.AppendBody(nil))
		if err := broker.Send(frame); err != nil {
			return false, err
		}
		body, err := broker.Receive()
		if err != nil {
			return false, err
		}
		hdr, r := kproto.ReadResponseHeader(body)
		if hdr.CorrelationID != corrID {
			return false, clienterr.New(clienterr.MismatchCorrelationId, fmt.Sprintf("want=%d got=%d", corrID, hdr.CorrelationID))
		}
		decoded, err := kproto.DecodeFetchResponse(r)
		if err != nil {
			return false, clienterr.Wrap(clienterr.RequestOrResponse, err)
		}
		resp = decoded

		part, ok := decoded.Partition(topic, partition)
		if !ok {
			return false, clienterr.New(clienterr.PartitionDoesNotMatch, fmt.Sprintf("topic=%s partition=%d not in response", topic, partition))
		}
		return c.classifyPartitionError(part.ErrorCode, topic, partition)
	})
	return resp, err
}

// Offsets fetches the offset list for one topic-partition at timePoint.
func (c *Cluster) Offsets(topic string, partition int32, timePoint int64, maxOffsets int32) (kproto.OffsetResponse, error) {
	var resp kproto.OffsetResponse
	err := c.routed("offsets", topic, partition, func(broker *transport.BrokerIO, corrID int32) (bool, error) {
		req := kproto.OffsetRequest{
			ReplicaID:          -1,
			Topic:              topic,
			Partition:          partition,
			Time:               timePoint,
			MaxNumberOfOffsets: maxOffsets,
		}
		frame := c.header(kproto.APIKeyOffsets, corrID).AppendTo(nil, req.AppendBody(nil))
		if err := broker.Send(frame); err != nil {
			return false, err
		}
		body, err := broker.Receive()
		if err != nil {
			return false, err
		}
		hdr, r := kproto.ReadResponseHeader(body)
		if hdr.CorrelationID != corrID {
			return false, clienterr.New(clienterr.MismatchCorrelationId, fmt.Sprintf("want=%d got=%d", corrID, hdr.CorrelationID))
		}
		decoded, err := kproto.DecodeOffsetResponse(r)
		if err != nil {
			return false, clienterr.Wrap(clienterr.RequestOrResponse, err)
		}
		resp = decoded

		part, ok := decoded.Partition(topic, partition)
		if !ok {
			return false, clienterr.New(clienterr.PartitionDoesNotMatch, fmt.Sprintf("topic=%s partition=%d not in response", topic, partition))
		}
		return c.classifyPartitionError(part.ErrorCode, topic, partition)
	})
	return resp, err
}

func (c *Cluster) header(apiKey int16, corrID int32) kproto.RequestHeader {
	return kproto.RequestHeader{APIKey: apiKey, APIVersion: 0, CorrelationID: corrID, ClientID: c.cfg.ClientID}
}

// attempt runs one try of a routed request against the current leader of
// topic/partition. It returns (done, err): done with a nil err is success;
// any non-nil err is classified by routed to decide whether to retry,
// refresh-and-retry, or fail.
type attempt func(broker *transport.BrokerIO, corrID int32) (done bool, err error)

// routed implements the §4.7 routed-request algorithm: refresh metadata on
// a stale/missing leader, dial the leader, run fn, and classify the
// outcome to decide whether to retry, refresh-and-retry, or fail.
func (c *Cluster) routed(api, topic string, partition int32, fn attempt) error {
	maxAttempts := c.cfg.sendMaxAttempts()
	attemptsLeft := maxAttempts
	bo := backoff.New(context.Background(), backoff.Config{
		MinBackoff: c.cfg.RetryBackoffMin,
		MaxBackoff: c.cfg.RetryBackoffMax,
		MaxRetries: maxAttempts,
	})

	var lastErr error
	for {
		snap := c.currentSnapshot()
		if c.needsRefresh(snap, topic, partition) {
			if err := c.refreshMetadata(topic); err != nil {
				c.m.metadataErrors.Inc()
				lastErr = clienterr.Wrap(clienterr.CannotGetMetadata, err)
				if !c.retryOrFail(&attemptsLeft, bo, "metadata") {
					break
				}
				continue
			}
			newSnap := c.currentSnapshot()
			if leaderID, known := newSnap.LeaderOf(topic, partition); !known || leaderID < 0 {
				// Refresh succeeded but the leader is still unknown (e.g.
				// auto-create hasn't landed yet): this counts against the
				// attempt budget so the loop stays bounded. If the broker
				// actually reported a per-topic error (UnknownTopicOrPartition
				// and friends), surface that instead of a generic message.
				lastErr = clienterr.New(clienterr.LeaderNotFound, fmt.Sprintf("topic=%s partition=%d still unknown after metadata refresh", topic, partition))
				if code := newSnap.ErrorFor(topic, partition); code != 0 {
					lastErr = kerr.ErrorForCode(code)
				}
				if !c.retryOrFail(&attemptsLeft, bo, "metadata_unknown_topic") {
					break
				}
			}
			continue
		}

		leaderID, known := snap.LeaderOf(topic, partition)
		if !known || leaderID < 0 {
			// needsRefresh already treats leaderID<0 as refresh-worthy, so this
			// is normally unreachable; invalidate defensively in case snap was
			// swapped out from under us between the two checks.
			c.invalidateSnapshot()
			lastErr = clienterr.New(clienterr.LeaderNotFound, fmt.Sprintf("topic=%s partition=%d", topic, partition))
			if !c.retryOrFail(&attemptsLeft, bo, "no_leader") {
				break
			}
			continue
		}

		broker, err := c.brokerFor(snap, leaderID)
		if err != nil {
			lastErr = err
			if !c.retryOrFail(&attemptsLeft, bo, "dial") {
				break
			}
			continue
		}

		corrID := c.nextCorrelationID()
		done, err := fn(broker, corrID)
		if err == nil && done {
			c.m.requestsTotal.WithLabelValues(api, "ok").Inc()
			return nil
		}
		if err == nil {
			// fn signaled "keep going" without an error (shouldn't normally
			// happen, but treat it as a transient miss rather than a panic).
			lastErr = nil
			if !c.retryOrFail(&attemptsLeft, bo, "incomplete") {
				break
			}
			continue
		}

		lastErr = err
		switch c.classifyErr(err) {
		case kerr.MetadataInvalidating:
			c.invalidateSnapshot()
			if !c.retryOrFail(&attemptsLeft, bo, "metadata_invalidating") {
				break
			}
			continue
		case kerr.Retryable:
			if !c.retryOrFail(&attemptsLeft, bo, "retryable") {
				break
			}
			continue
		default:
			if isTransportErr(err) {
				c.closeBroker(leaderID)
				if !c.retryOrFail(&attemptsLeft, bo, "transport") {
					break
				}
				continue
			}
			c.m.requestsTotal.WithLabelValues(api, "fatal").Inc()
			return err
		}
		break
	}

	c.m.requestsTotal.WithLabelValues(api, "exhausted").Inc()
	if lastErr == nil {
		lastErr = clienterr.New(clienterr.SendNoAck, fmt.Sprintf("%s: retries exhausted with no classified error", api))
	}
	return lastErr
}

// retryOrFail sleeps retry_backoff and decrements the attempt budget,
// returning false once attempts are exhausted (caller should stop). The
// attempt budget, not the backoff's own retry counter, is authoritative:
// bo exists to carry the min/max backoff duration, sized identically to
// send_max_attempts.
func (c *Cluster) retryOrFail(attemptsLeft *int, bo *backoff.Backoff, reason string) bool {
	c.m.retriesTotal.WithLabelValues(reason).Inc()
	if *attemptsLeft <= 0 {
		return false
	}
	*attemptsLeft--
	level.Debug(c.retryLog).Log("msg", "retrying request", "reason", reason, "attempts_left", *attemptsLeft)
	bo.Wait()
	return true
}

// classifyErr returns the retry classification for err, with one
// exception carried from §4.5: UnknownTopicOrPartition is only
// metadata-invalidating when auto-create is expected to eventually land
// the topic; with auto-create disabled it is fatal instead.
func (c *Cluster) classifyErr(err error) kerr.Classification {
	ke, ok := err.(*kerr.Error)
	if !ok {
		return kerr.Fatal
	}
	if ke.Code == 3 && !c.cfg.AutoCreateTopicsEnable {
		return kerr.Fatal
	}
	return ke.Classification
}

func isTransportErr(err error) bool {
	switch {
	case clienterr.Is(err, clienterr.CannotSend),
		clienterr.Is(err, clienterr.CannotRecv),
		clienterr.Is(err, clienterr.NoConnection),
		clienterr.Is(err, clienterr.CannotBind):
		return true
	default:
		return false
	}
}

// classifyPartitionError turns a per-partition wire error code into the
// (done, err) shape attempt expects: NoError is success, everything else
// is an error for routed to classify via classifyErr.
func (c *Cluster) classifyPartitionError(code int16, topic string, partition int32) (bool, error) {
	err := kerr.ErrorForCode(code)
	if err == nil {
		return true, nil
	}
	return false, err
}
