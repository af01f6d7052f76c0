package cluster

import (
	"flag"
	"time"

	"github.com/grafana/zkless-kafka/transport"
)

// SeedBroker is one bootstrap (host, port) pair used before any metadata
// has been fetched.
type SeedBroker struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Config controls a Cluster's connection, retry, and metadata-refresh
// behavior. It follows the flag-registration convention the rest of this
// module's ambient stack uses: a Config is usually built once at startup
// via RegisterFlagsAndApplyDefaults, then passed to New.
type Config struct {
	SeedBrokers []SeedBroker `yaml:"seed_brokers"`

	ClientID string `yaml:"client_id"`

	Timeout   time.Duration       `yaml:"timeout"`
	IPVersion transport.IPVersion `yaml:"ip_version"`

	SendMaxAttempts int           `yaml:"send_max_attempts"`
	RetryBackoffMin time.Duration `yaml:"retry_backoff_min"`
	RetryBackoffMax time.Duration `yaml:"retry_backoff_max"`

	MaxRequestSize int32 `yaml:"max_request_size"`

	AutoCreateTopicsEnable bool `yaml:"auto_create_topics_enable"`

	// CorrelationIDSeed seeds the correlation id allocator; zero means
	// "pick a random seed at New time".
	CorrelationIDSeed int32 `yaml:"-"`

	// MetadataTTL is the maximum age of a cached Snapshot before it is
	// treated as stale and refreshed even without an error. Zero means
	// "refresh on error or absent entry only" (lazy), matching §6.8's
	// "lazy" default.
	MetadataTTL time.Duration `yaml:"metadata_ttl"`

	// DontLoadSupportedAPIVersions is accepted in configuration, but this
	// client sends no ApiVersions request, so the setting has no effect.
	DontLoadSupportedAPIVersions bool `yaml:"dont_load_supported_api_versions"`
}

// DefaultSendMaxAttempts is the default per-request retry cap (0 disables
// retrying entirely).
const DefaultSendMaxAttempts = 4

// DefaultRetryBackoff is the default sleep between retry attempts.
const DefaultRetryBackoff = 200 * time.Millisecond

// RegisterFlagsAndApplyDefaults registers this Config's flags under
// prefix, applying the §6.8 defaults first.
func (c *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	c.Timeout = transport.DefaultTimeout
	c.SendMaxAttempts = DefaultSendMaxAttempts
	c.RetryBackoffMin = DefaultRetryBackoff
	c.RetryBackoffMax = DefaultRetryBackoff
	c.MaxRequestSize = transport.DefaultMaxRequestSize
	c.AutoCreateTopicsEnable = true

	f.DurationVar(&c.Timeout, prefix+".timeout", c.Timeout, "per-IO deadline for broker connections")
	f.IntVar(&c.SendMaxAttempts, prefix+".send-max-attempts", c.SendMaxAttempts, "per-request retry cap (0 disables retrying)")
	f.DurationVar(&c.RetryBackoffMin, prefix+".retry-backoff", c.RetryBackoffMin, "sleep between retry attempts")
	f.BoolVar(&c.AutoCreateTopicsEnable, prefix+".auto-create-topics-enable", c.AutoCreateTopicsEnable, "retry unknown-topic responses to give broker-side auto-create a chance to land")
	f.DurationVar(&c.MetadataTTL, prefix+".metadata-ttl", c.MetadataTTL, "max age of cached cluster metadata before a proactive refresh (0 = refresh on error only)")
	f.StringVar(&c.ClientID, prefix+".client-id", "zkless-kafka", "client_id sent on every request")
	c.RetryBackoffMax = c.RetryBackoffMin
}

func (c Config) sendMaxAttempts() int {
	if c.SendMaxAttempts <= 0 {
		return 0
	}
	return c.SendMaxAttempts
}
