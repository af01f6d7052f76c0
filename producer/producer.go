// Package producer is the thin façade §4.8 specifies on top of package
// cluster: build a MessageSet, optionally compress it into a single outer
// message, send it, and hand back the offset the broker assigned.
package producer

import (
	"github.com/grafana/zkless-kafka/clienterr"
	"github.com/grafana/zkless-kafka/cluster"
	"github.com/grafana/zkless-kafka/internal/kcompress"
	"github.com/grafana/zkless-kafka/internal/kproto"
)

// DefaultMaxMessageSize bounds a single message's value before compression,
// matching the common broker-side message.max.bytes default.
const DefaultMaxMessageSize = 1 << 20

// Config controls a Producer's input validation and default wire
// parameters; it carries no connection state of its own (that's cluster's
// job).
type Config struct {
	RequiredAcks   int16 `yaml:"required_acks"`
	TimeoutMs      int32 `yaml:"timeout_ms"`
	MaxMessageSize int32 `yaml:"max_message_size"`
}

// DefaultConfig returns the §6.8 producer defaults: ack from the full ISR,
// a 10s broker-side timeout, and DefaultMaxMessageSize.
func DefaultConfig() Config {
	return Config{RequiredAcks: -1, TimeoutMs: 10000, MaxMessageSize: DefaultMaxMessageSize}
}

// Producer sends record batches to one Cluster.
type Producer struct {
	cfg Config
	c   *cluster.Cluster
}

// New builds a Producer bound to c.
func New(c *cluster.Cluster, cfg Config) *Producer {
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = DefaultMaxMessageSize
	}
	if cfg.TimeoutMs <= 0 {
		cfg.TimeoutMs = 10000
	}
	return &Producer{cfg: cfg, c: c}
}

// Result is what Send returns: the offset the broker assigned to the first
// message of the batch, plus the full decoded response for callers that
// want more (e.g. a future-proofing caller inspecting partition metadata).
type Result struct {
	Offset   int64
	Response kproto.ProduceResponse
}

// Send builds a MessageSet out of values (each an independent record, key
// shared across all of them — callers wanting per-message keys should call
// Send once per message), optionally compresses it into a single outer
// Message under codec, and produces it to topic/partition.
func (p *Producer) Send(topic string, partition int32, key []byte, values [][]byte, codec kcompress.Codec) (Result, error) {
	if topic == "" {
		return Result{}, clienterr.New(clienterr.MismatchArgument, "topic must be non-empty")
	}
	if partition < 0 {
		return Result{}, clienterr.New(clienterr.MismatchArgument, "partition must be >= 0")
	}
	if len(values) == 0 {
		return Result{}, clienterr.New(clienterr.MismatchArgument, "at least one message is required")
	}
	for _, v := range values {
		if int32(len(v)) > p.cfg.MaxMessageSize {
			return Result{}, clienterr.New(clienterr.MismatchArgument, "message exceeds max_message_size")
		}
	}

	var inner []byte
	for _, v := range values {
		inner = kproto.AppendMessage(inner, kproto.NewMessage(key, v))
	}

	messageSet := inner
	if codec != kcompress.None {
		compressed, err := kcompress.Compress(codec, inner)
		if err != nil {
			return Result{}, clienterr.Wrap(clienterr.Compression, err)
		}
		wrapper := kproto.Message{
			Magic:      kproto.MagicNoTimestamp,
			Attributes: int8(codec),
			Value:      compressed,
		}
		messageSet = kproto.AppendMessage(nil, wrapper)
	}

	resp, err := p.c.Produce(topic, partition, messageSet, p.cfg.RequiredAcks, p.cfg.TimeoutMs)
	if err != nil {
		return Result{}, err
	}
	if p.cfg.RequiredAcks == 0 {
		return Result{}, nil
	}

	part, ok := resp.Partition(topic, partition)
	if !ok {
		return Result{}, clienterr.New(clienterr.PartitionDoesNotMatch, "broker response missing requested partition")
	}
	return Result{Offset: part.Offset, Response: resp}, nil
}
