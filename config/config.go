// Package config binds command-line flags and an optional YAML file
// to a Config struct describing how to run a collector.
package config

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full runtime configuration for a netflowcollector
// process: the listen address, worker pool sizing, template cache
// TTL, accepted NetFlow/IPFIX versions, sink selection and field
// catalog overrides.
type Config struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	BufferSize int `yaml:"buffer_size"`
	Workers    int `yaml:"workers"`
	QueueSize  int `yaml:"queue_size"`

	CacheTTL time.Duration `yaml:"cache_ttl"`

	Target   string `yaml:"target"`
	Versions string `yaml:"versions"` // comma-separated subset of 5,9,10

	NetflowDefinitions string `yaml:"netflow_definitions"` // path to a YAML override for the NetFlow v9 field catalog
	IPFIXDefinitions   string `yaml:"ipfix_definitions"`   // path to a YAML override for the IPFIX field catalog

	Sink       string `yaml:"sink"`
	KafkaTopic string `yaml:"kafka_topic"`

	ErrCnt int           `yaml:"err_cnt"` // dropped-datagram warnings logged per ErrInt window before muting
	ErrInt time.Duration `yaml:"err_int"`

	LogLevel string `yaml:"log_level"`
	Addr     string `yaml:"addr"` // HTTP address serving /metrics and /__health
}

// BindFlags registers flags on fs and returns a Config populated with
// their defaults. Call fs.Parse, then Load to layer a YAML file over
// the result if one was given.
func BindFlags(fs *flag.FlagSet) *Config {
	cfg := &Config{}

	fs.StringVar(&cfg.Host, "host", "", "address to listen on")
	fs.IntVar(&cfg.Port, "port", 2055, "UDP port to listen on")
	fs.IntVar(&cfg.BufferSize, "buffer-size", 9000, "per-datagram read buffer size")
	fs.IntVar(&cfg.Workers, "workers", 4, "decoder worker pool size")
	fs.IntVar(&cfg.QueueSize, "queue-size", 10000, "dispatch channel depth")
	fs.DurationVar(&cfg.CacheTTL, "cache-ttl", 4000*time.Minute, "template cache sliding TTL")
	fs.StringVar(&cfg.Target, "target", "netflow", "container field name for decoded events")
	fs.StringVar(&cfg.Versions, "versions", "5,9,10", "comma-separated accepted NetFlow/IPFIX versions")
	fs.StringVar(&cfg.NetflowDefinitions, "netflow-definitions", "", "path to a NetFlow v9 field catalog override YAML")
	fs.StringVar(&cfg.IPFIXDefinitions, "ipfix-definitions", "", "path to an IPFIX field catalog override YAML")
	fs.StringVar(&cfg.Sink, "sink", "stdout", "sink driver name (stdout, kafka)")
	fs.StringVar(&cfg.KafkaTopic, "kafka-topic", "netflow", "Kafka topic; not read by the kafka sink, which takes its topic from -sink.kafka.topic")
	fs.IntVar(&cfg.ErrCnt, "err-cnt", 10, "maximum dropped-datagram warnings per err-int window before muting")
	fs.DurationVar(&cfg.ErrInt, "err-int", 10*time.Second, "muting window for dropped-datagram warnings")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.Addr, "addr", ":8080", "HTTP address serving /metrics and /__health")

	return cfg
}

// Load layers a YAML file's fields over cfg's flag-derived defaults.
// Fields absent from the file are left untouched.
func Load(cfg *Config, r io.Reader) error {
	dec := yaml.NewDecoder(r)
	return dec.Decode(cfg)
}

// AcceptedVersions parses the comma-separated Versions flag into the
// set record.Decoder.Versions expects.
func (c *Config) AcceptedVersions() (map[uint16]bool, error) {
	versions := make(map[uint16]bool)
	for _, part := range strings.Split(c.Versions, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseUint(part, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("config: invalid version %q: %w", part, err)
		}
		versions[uint16(v)] = true
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("config: at least one accepted version is required")
	}
	return versions, nil
}
