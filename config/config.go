// Package config is the root configuration surface: one Config struct per
// component, wired together the way cmd/tempo/app/config.go composes its
// own module configs, so cmd/zklesskafka can load a single YAML file and
// layer flags on top of it.
package config

import (
	"flag"

	"github.com/grafana/zkless-kafka/cluster"
	"github.com/grafana/zkless-kafka/consumer"
	"github.com/grafana/zkless-kafka/pkg/util"
	"github.com/grafana/zkless-kafka/producer"
)

// Config is the root config for the zklesskafka client and CLI.
type Config struct {
	Cluster  cluster.Config  `yaml:"cluster,omitempty"`
	Producer producer.Config `yaml:"producer,omitempty"`
	Consumer consumer.Config `yaml:"consumer,omitempty"`
}

// RegisterFlagsAndApplyDefaults registers every component Config's flags
// under prefix, applying each one's defaults first.
func (c *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	c.Cluster.RegisterFlagsAndApplyDefaults(util.PrefixConfig(prefix, "cluster"), f)
	c.Producer = producer.DefaultConfig()
	c.Consumer = consumer.DefaultConfig()
}
