package main

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/grafana/zkless-kafka/cluster"
	"github.com/grafana/zkless-kafka/config"
	"github.com/grafana/zkless-kafka/consumer"
	"github.com/grafana/zkless-kafka/producer"
	zklog "github.com/grafana/zkless-kafka/pkg/util/log"
)

func newCluster(cfg *config.Config) *cluster.Cluster {
	return cluster.New(cfg.Cluster, zklog.Logger, prometheus.DefaultRegisterer)
}

func producerFor(c *cluster.Cluster, cfg *config.Config) *producer.Producer {
	return producer.New(c, cfg.Producer)
}

func consumerFor(c *cluster.Cluster, cfg *config.Config) *consumer.Consumer {
	return consumer.New(c, cfg.Consumer)
}
