package sink

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"github.com/adelbot/logstash-codec-netflow/record"
)

// KafkaDriver produces one JSON-encoded message per event to a Kafka
// topic, keyed by source exporter address so a partitioner can keep a
// given exporter's flows ordered.
type KafkaDriver struct {
	brokers     string
	topic       string
	tls         bool
	version     string
	compression string
	logErrors   bool
	hashing     bool

	// Logger receives asynchronous producer errors when logErrors is
	// set. Defaults to slog.Default() when nil.
	Logger *slog.Logger

	producer sarama.AsyncProducer
	done     chan struct{}
}

func (d *KafkaDriver) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// SetLogger wires in the ambient logger. Called by sink.Find before
// Init, the way collector and record wire theirs in at construction.
func (d *KafkaDriver) SetLogger(l *slog.Logger) {
	d.Logger = l
}

func (d *KafkaDriver) Prepare() error {
	flag.StringVar(&d.brokers, "sink.kafka.brokers", "127.0.0.1:9092", "Kafka brokers list separated by commas")
	flag.StringVar(&d.topic, "sink.kafka.topic", "netflow", "Kafka topic to produce flow events to")
	flag.BoolVar(&d.tls, "sink.kafka.tls", false, "Use TLS to connect to Kafka")
	flag.StringVar(&d.version, "sink.kafka.version", "2.8.0", "Kafka protocol version")
	flag.StringVar(&d.compression, "sink.kafka.compression", "", "Kafka producer compression codec")
	flag.BoolVar(&d.logErrors, "sink.kafka.log-errors", false, "Log asynchronous Kafka producer errors")
	flag.BoolVar(&d.hashing, "sink.kafka.hashing", true, "Hash-partition messages by key")
	return nil
}

var compressionCodecs = map[string]sarama.CompressionCodec{
	"none":   sarama.CompressionNone,
	"gzip":   sarama.CompressionGZIP,
	"snappy": sarama.CompressionSnappy,
	"lz4":    sarama.CompressionLZ4,
	"zstd":   sarama.CompressionZSTD,
}

func (d *KafkaDriver) Init() error {
	version, err := sarama.ParseKafkaVersion(d.version)
	if err != nil {
		return err
	}

	cfg := sarama.NewConfig()
	cfg.Version = version
	cfg.Producer.Return.Successes = false
	cfg.Producer.Return.Errors = d.logErrors

	if d.compression != "" {
		cc, ok := compressionCodecs[strings.ToLower(d.compression)]
		if !ok {
			return errors.New("sink: unknown kafka compression codec " + d.compression)
		}
		cfg.Producer.Compression = cc
	}

	if d.hashing {
		cfg.Producer.Partitioner = sarama.NewHashPartitioner
	}

	if d.tls {
		rootCAs, err := x509.SystemCertPool()
		if err != nil {
			return fmt.Errorf("sink: kafka TLS setup: %w", err)
		}
		cfg.Net.TLS.Enable = true
		cfg.Net.TLS.Config = &tls.Config{RootCAs: rootCAs}
	}

	addrs := strings.Split(d.brokers, ",")
	producer, err := sarama.NewAsyncProducer(addrs, cfg)
	if err != nil {
		return err
	}
	d.producer = producer
	d.done = make(chan struct{})

	if d.logErrors {
		go func() {
			for {
				select {
				case err := <-producer.Errors():
					d.logger().Error("sink: kafka producer error", "error", err)
				case <-d.done:
					return
				}
			}
		}()
	}
	return nil
}

func (d *KafkaDriver) Send(e *record.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	d.producer.Input() <- &sarama.ProducerMessage{
		Topic:     d.topic,
		Key:       sarama.StringEncoder(e.SourceHost),
		Value:     sarama.ByteEncoder(payload),
		Timestamp: time.Now(),
	}
	return nil
}

func (d *KafkaDriver) Close() error {
	err := d.producer.Close()
	close(d.done)
	return err
}

func init() {
	d := &KafkaDriver{}
	Register("kafka", d)
	d.Prepare()
}
