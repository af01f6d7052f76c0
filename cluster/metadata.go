package cluster

import (
	"fmt"
	"time"

	"github.com/go-kit/log/level"
	"github.com/grafana/zkless-kafka/clienterr"
	"github.com/grafana/zkless-kafka/internal/kproto"
	"github.com/grafana/zkless-kafka/transport"
)

func (c *Cluster) currentSnapshot() *Snapshot {
	return c.snapshot.Load()
}

// needsRefresh reports whether topic/partition's leader must be
// (re)discovered before a request can be routed: either it's altogether
// absent from snap, its last-known leader is the sentinel "no leader"
// (-1), or snap has aged past the configured soft TTL.
func (c *Cluster) needsRefresh(snap *Snapshot, topic string, partition int32) bool {
	leaderID, known := snap.LeaderOf(topic, partition)
	if !known || leaderID < 0 {
		return true
	}
	if c.invalidated.Load() {
		return true
	}
	if c.cfg.MetadataTTL <= 0 {
		return false
	}
	age := time.Duration(time.Now().UnixNano() - c.snapshotAt.Load())
	return age > c.cfg.MetadataTTL
}

// invalidateSnapshot forces the next needsRefresh check to refresh,
// without discarding the snapshot's other (possibly still-valid) entries.
// It's used when a MetadataInvalidating error implies topic/partition's
// cached leader is wrong, but we don't want to blow away metadata for
// every other topic this Cluster is routing. The flag is independent of
// MetadataTTL so it forces a refresh even in the default lazy (TTL=0) mode.
func (c *Cluster) invalidateSnapshot() {
	c.invalidated.Store(true)
}

// refreshMetadata issues a MetadataRequest for topic against a known-live
// broker (seed brokers first, then the first live pooled broker; pooled
// brokers are not rotated between calls) and atomically swaps in the
// resulting Snapshot.
func (c *Cluster) refreshMetadata(topic string) error {
	broker, pooled, err := c.dialAnyKnownBroker()
	if err != nil {
		return err
	}
	if !pooled {
		defer broker.Close()
	}

	req := kproto.MetadataRequest{Topics: []string{topic}}
	corrID := c.nextCorrelationID()
	frame := c.header(kproto.APIKeyMetadata, corrID).AppendTo(nil, req.AppendBody(nil))

	if err := broker.Send(frame); err != nil {
		return err
	}
	body, err := broker.Receive()
	if err != nil {
		return err
	}
	hdr, r := kproto.ReadResponseHeader(body)
	if hdr.CorrelationID != corrID {
		return clienterr.New(clienterr.MismatchCorrelationId, fmt.Sprintf("want=%d got=%d", corrID, hdr.CorrelationID))
	}
	md, err := kproto.DecodeMetadataResponse(r)
	if err != nil {
		return clienterr.Wrap(clienterr.RequestOrResponse, err)
	}

	snap := snapshotFromMetadata(md)
	c.snapshot.Store(snap)
	c.snapshotAt.Store(time.Now().UnixNano())
	c.invalidated.Store(false)
	c.m.metadataRefreshes.Inc()

	level.Debug(c.logger).Log("msg", "refreshed cluster metadata", "topic", topic, "brokers", len(snap.Brokers()))
	return nil
}

// dialAnyKnownBroker picks a broker to ask for metadata: seed brokers in
// caller-supplied order first, then any broker already in the pool, then
// any broker known from the last Snapshot. The returned bool reports
// whether the connection came from the pool: pooled connections are
// shared and must not be closed by the caller, but a connection freshly
// dialed here (seed or snapshot) is scoped to this one round-trip and is
// the caller's responsibility to close.
func (c *Cluster) dialAnyKnownBroker() (broker *transport.BrokerIO, pooled bool, err error) {
	var lastErr error
	for _, seed := range c.cfg.SeedBrokers {
		b, err := c.dial(seed.Host, seed.Port)
		if err == nil {
			return b, false, nil
		}
		lastErr = err
	}

	c.mu.Lock()
	pool := make([]*transport.BrokerIO, 0, len(c.pool))
	for _, b := range c.pool {
		pool = append(pool, b)
	}
	c.mu.Unlock()
	for _, b := range pool {
		if b.IsAlive() {
			return b, true, nil
		}
	}

	for _, b := range c.currentSnapshot().Brokers() {
		conn, err := c.dial(b.Host, int(b.Port))
		if err == nil {
			return conn, false, nil
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = clienterr.New(clienterr.NoKnownBrokers, "no known brokers could be reached")
	}
	return nil, false, lastErr
}

// brokerFor returns a pooled (or newly dialed) BrokerIO for nodeID, using
// snap to resolve its address.
func (c *Cluster) brokerFor(snap *Snapshot, nodeID int32) (*transport.BrokerIO, error) {
	c.mu.Lock()
	if b, ok := c.pool[nodeID]; ok && b.IsAlive() {
		c.mu.Unlock()
		return b, nil
	}
	c.mu.Unlock()

	b, ok := snap.Broker(nodeID)
	if !ok {
		return nil, clienterr.New(clienterr.CannotGetMetadata, fmt.Sprintf("no broker address known for node %d", nodeID))
	}

	conn, err := c.dial(b.Host, int(b.Port))
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.pool[nodeID] = conn
	c.mu.Unlock()
	return conn, nil
}

func (c *Cluster) dial(host string, port int) (*transport.BrokerIO, error) {
	cfg := transport.Config{
		Timeout:        c.cfg.Timeout,
		IPVersion:      c.cfg.IPVersion,
		MaxRequestSize: c.cfg.MaxRequestSize,
		Dialer:         c.dialer,
	}
	return transport.Dial(host, port, cfg)
}

// closeBroker closes and evicts nodeID's pooled connection after an IO
// error, per §4.7's "close broker_io; remove from pool" failure handling.
func (c *Cluster) closeBroker(nodeID int32) {
	c.mu.Lock()
	b, ok := c.pool[nodeID]
	if ok {
		delete(c.pool, nodeID)
	}
	c.mu.Unlock()
	if ok {
		_ = b.Close()
	}
}
