// Command zklesskafka is a thin CLI over the producer/consumer façades,
// layering flags from github.com/spf13/pflag over an optional YAML config
// file the way cmd/tempo/main.go layers CLI flags over -config.file.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/grafana/zkless-kafka/config"
	zklog "github.com/grafana/zkless-kafka/pkg/util/log"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		level.Error(zklog.Logger).Log("msg", "zklesskafka failed", "err", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: zklesskafka <produce|fetch|offsets> [flags]")
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "produce":
		return runProduce(rest)
	case "fetch":
		return runFetch(rest)
	case "offsets":
		return runOffsets(rest)
	default:
		return errors.Errorf("unknown subcommand %q", sub)
	}
}

// commonFlags holds the flags every subcommand shares: the config file,
// log level, and the topic/partition being addressed.
type commonFlags struct {
	configFile string
	logLevel   string
	topic      string
	partition  int32
}

func bindCommon(fs *pflag.FlagSet) *commonFlags {
	c := &commonFlags{}
	fs.StringVar(&c.configFile, "config.file", "", "YAML config file to load before applying flags")
	fs.StringVar(&c.logLevel, "log.level", "info", "log level: debug, info, warn, error")
	fs.StringVar(&c.topic, "topic", "", "topic name")
	fs.Int32Var(&c.partition, "partition", 0, "partition number")
	return c
}

// loadConfig applies defaults, overlays the YAML file named by
// -config.file (if any), then re-parses fs so explicit CLI flags win over
// both.
func loadConfig(fs *pflag.FlagSet, args []string) (*config.Config, error) {
	cfg := &config.Config{}
	cfgFlags := flag.NewFlagSet("zklesskafka", flag.ContinueOnError)
	cfg.RegisterFlagsAndApplyDefaults("", cfgFlags)
	fs.AddGoFlagSet(cfgFlags)

	// A first, lenient pass just to discover -config.file before flags are
	// required to be fully valid.
	probe := pflag.NewFlagSet("probe", pflag.ContinueOnError)
	probe.ParseErrorsWhitelist.UnknownFlags = true
	var configFile string
	probe.StringVar(&configFile, "config.file", "", "")
	_ = probe.Parse(args)

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, errors.Wrapf(err, "reading config file %s", configFile)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, errors.Wrapf(err, "parsing config file %s", configFile)
		}
	}

	if err := fs.Parse(args); err != nil {
		return nil, errors.Wrap(err, "parsing flags")
	}
	return cfg, nil
}

func runProduce(args []string) error {
	fs := pflag.NewFlagSet("produce", pflag.ContinueOnError)
	common := bindCommon(fs)
	var key, value string
	fs.StringVar(&key, "key", "", "record key")
	fs.StringVar(&value, "value", "", "record value")

	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	zklog.InitLogger(common.logLevel)
	if common.topic == "" || value == "" {
		return errors.New("produce: --topic and --value are required")
	}

	c := newCluster(cfg)
	defer c.Close()

	p := producerFor(c, cfg)
	var keyBytes []byte
	if key != "" {
		keyBytes = []byte(key)
	}
	res, err := p.Send(common.topic, common.partition, keyBytes, [][]byte{[]byte(value)}, 0)
	if err != nil {
		return errors.Wrap(err, "produce")
	}
	fmt.Printf("offset=%d\n", res.Offset)
	return nil
}

func runFetch(args []string) error {
	fs := pflag.NewFlagSet("fetch", pflag.ContinueOnError)
	common := bindCommon(fs)
	var offset int64
	var maxBytes int32
	fs.Int64Var(&offset, "offset", 0, "fetch offset")
	fs.Int32Var(&maxBytes, "max-bytes", 1<<20, "max response bytes")

	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	zklog.InitLogger(common.logLevel)
	if common.topic == "" {
		return errors.New("fetch: --topic is required")
	}

	c := newCluster(cfg)
	defer c.Close()

	cons := consumerFor(c, cfg)
	res, err := cons.Fetch(common.topic, common.partition, offset, maxBytes)
	if err != nil {
		return errors.Wrap(err, "fetch")
	}
	for _, rec := range res.Records {
		if !rec.Valid {
			fmt.Printf("offset=%d invalid err=%v\n", rec.Offset, rec.Err)
			continue
		}
		fmt.Printf("offset=%d key=%q value=%q\n", rec.Offset, rec.Key, rec.Payload)
	}
	fmt.Printf("highwater_mark=%d\n", res.HighwaterMarkOffset)
	return nil
}

func runOffsets(args []string) error {
	fs := pflag.NewFlagSet("offsets", pflag.ContinueOnError)
	common := bindCommon(fs)
	var timePoint int64
	var maxOffsets int32
	fs.Int64Var(&timePoint, "time", -1, "time point: -1 latest, -2 earliest, or a literal timestamp")
	fs.Int32Var(&maxOffsets, "max-offsets", 1, "max offsets to return")

	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	zklog.InitLogger(common.logLevel)
	if common.topic == "" {
		return errors.New("offsets: --topic is required")
	}

	c := newCluster(cfg)
	defer c.Close()

	cons := consumerFor(c, cfg)
	offsets, err := cons.Offsets(common.topic, common.partition, timePoint, maxOffsets)
	if err != nil {
		return errors.Wrap(err, "offsets")
	}
	for _, o := range offsets {
		fmt.Println(o)
	}
	return nil
}
