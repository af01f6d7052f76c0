package config

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestRegisterFlagsAndApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.RegisterFlagsAndApplyDefaults("", flag.NewFlagSet("test", flag.ContinueOnError))

	assert.Equal(t, int16(-1), cfg.Producer.RequiredAcks)
	assert.Equal(t, int32(10000), cfg.Producer.TimeoutMs)
	assert.Equal(t, int32(100), cfg.Consumer.MaxWaitMs)
	assert.Equal(t, 4, cfg.Cluster.SendMaxAttempts)
	assert.True(t, cfg.Cluster.AutoCreateTopicsEnable)
}

func TestConfigYAMLOverlay(t *testing.T) {
	var cfg Config
	cfg.RegisterFlagsAndApplyDefaults("", flag.NewFlagSet("test", flag.ContinueOnError))

	doc := []byte(`
cluster:
  seed_brokers:
    - host: broker-a
      port: 9092
    - host: broker-b
      port: 9093
  send_max_attempts: 7
producer:
  required_acks: 1
`)
	require := assert.New(t)
	require.NoError(yaml.Unmarshal(doc, &cfg))

	require.Len(cfg.Cluster.SeedBrokers, 2)
	require.Equal("broker-a", cfg.Cluster.SeedBrokers[0].Host)
	require.Equal(7, cfg.Cluster.SendMaxAttempts)
	require.Equal(int16(1), cfg.Producer.RequiredAcks)
	// fields not present in the overlay keep their RegisterFlagsAndApplyDefaults value
	require.Equal(int32(10000), cfg.Producer.TimeoutMs)
}
