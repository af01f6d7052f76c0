// Package consumer is the thin façade §4.9 specifies on top of package
// cluster: fetch a MessageSet, decode and validate each record, and expose
// them as a finite, ordered sequence plus offset lookups.
package consumer

import (
	"fmt"

	"github.com/grafana/zkless-kafka/cluster"
	"github.com/grafana/zkless-kafka/internal/kproto"
)

// DefaultMaxWaitMs is the server-side fetch hold used when a Config doesn't
// set one, matching spec.md's default.
const DefaultMaxWaitMs = 100

// Config controls a Consumer's default fetch parameters.
type Config struct {
	MaxWaitMs int32 `yaml:"max_wait_ms"`
	// MinBytes is the fetch min-bytes threshold sent to the broker.
	// DefaultConfig sets it to 0; callers may raise it.
	MinBytes int32 `yaml:"min_bytes"`
}

// DefaultConfig returns the §6.8 consumer defaults.
func DefaultConfig() Config {
	return Config{MaxWaitMs: DefaultMaxWaitMs, MinBytes: 0}
}

// Consumer fetches records and offset lists from one Cluster.
type Consumer struct {
	cfg Config
	c   *cluster.Cluster
}

// New builds a Consumer bound to c.
func New(c *cluster.Cluster, cfg Config) *Consumer {
	if cfg.MaxWaitMs <= 0 {
		cfg.MaxWaitMs = DefaultMaxWaitMs
	}
	return &Consumer{cfg: cfg, c: c}
}

// Record is one decoded, validated message from a Fetch call.
type Record struct {
	Offset     int64
	NextOffset int64
	Key        []byte
	Payload    []byte
	Valid      bool
	Err        error
	Attributes int8
	Magic      int8
}

// FetchResult is what Fetch returns: the decoded records plus the
// partition's high-water mark at fetch time.
type FetchResult struct {
	Records             []Record
	HighwaterMarkOffset int64
}

// Fetch fetches topic/partition starting at offset, up to maxBytes of wire
// data, and decodes every message it receives. Per §4.9, CRC/magic/inner-set
// faults never become a returned error: they're folded into each Record's
// Valid/Err fields so a caller processing a mostly-healthy batch isn't
// forced to abort it over one bad record.
func (cons *Consumer) Fetch(topic string, partition int32, offset int64, maxBytes int32) (FetchResult, error) {
	resp, err := cons.c.Fetch(topic, partition, offset, maxBytes, cons.cfg.MaxWaitMs, cons.cfg.MinBytes)
	if err != nil {
		return FetchResult{}, err
	}

	part, ok := resp.Partition(topic, partition)
	if !ok {
		return FetchResult{}, fmt.Errorf("consumer: broker response for %s/%d missing requested partition", topic, partition)
	}

	decoded := kproto.ReadMessageSet(part.MessageSet)
	records := make([]Record, 0, len(decoded))
	for _, m := range decoded {
		rec := Record{
			Offset:     m.Offset,
			NextOffset: m.Offset + 1,
			Key:        m.Key,
			Payload:    m.Value,
			Valid:      m.Valid,
			Err:        m.Err,
			Attributes: m.Attributes,
			Magic:      m.Magic,
		}
		records = append(records, rec)
	}

	return FetchResult{Records: records, HighwaterMarkOffset: part.HighwaterMarkOffset}, nil
}

// Offsets returns the offset list the broker reports for topic/partition at
// timePoint (kproto.TimeLatest or kproto.TimeEarliest, or a literal
// timestamp), capped at maxOffsets entries. An empty slice means "no
// matching offsets" and is not an error.
func (cons *Consumer) Offsets(topic string, partition int32, timePoint int64, maxOffsets int32) ([]int64, error) {
	resp, err := cons.c.Offsets(topic, partition, timePoint, maxOffsets)
	if err != nil {
		return nil, err
	}
	part, ok := resp.Partition(topic, partition)
	if !ok {
		return nil, fmt.Errorf("consumer: broker response for %s/%d missing requested partition", topic, partition)
	}
	return part.Offsets, nil
}
