// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkadelivery

import (
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl"
	"github.com/twmb/franz-go/pkg/sasl/plain"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultQueueCapacity is the default limit on messages that are accepted
	// but not yet reported.
	DefaultQueueCapacity = 100000

	// DefaultPollInterval is the default cadence of the background poll loop.
	DefaultPollInterval = 100 * time.Millisecond

	// DefaultCleanupTimeout is the CleanupTimeout used when none is set.
	DefaultCleanupTimeout = 30 * time.Second
)

// Config is everything needed to build a producer.
type Config struct {
	// Brokers is the list of Kafka broker addresses.
	// Required. Each address must be in "host:port" format.
	Brokers []string `yaml:"brokers"`

	// ClientID is sent to the brokers with every request.
	// Optional. Default: the engine's default ("kgo").
	ClientID string `yaml:"client_id"`

	// SASLPlain configures SASL/PLAIN authentication from configuration files.
	// Optional. Ignored when SASL is set.
	SASLPlain *PlainAuth `yaml:"sasl_plain"`

	// SASL configures any other SASL mechanism.
	// Optional. If nil, SASLPlain or no authentication is used.
	SASL sasl.Mechanism `yaml:"-"`

	// TLS configures TLS encryption.
	// Optional. If nil, plaintext connections are used.
	TLS *tls.Config `yaml:"-"`

	// QueueCapacity bounds the messages accepted by Send whose delivery report
	// has not been polled yet.  Send fails with ErrQueueFull beyond it.
	// Default: DefaultQueueCapacity.
	QueueCapacity int `yaml:"queue_capacity"`

	// MaxBufferedBytes bounds the key, value and header bytes of messages
	// that are accepted but not yet reported.  Send fails with ErrQueueFull
	// beyond it.  Zero or negative values disable this limit.
	MaxBufferedBytes int `yaml:"max_buffered_bytes"`

	// MaxMessageBytes rejects messages whose key and value exceed it.
	// Zero or negative values disable the check.
	MaxMessageBytes int `yaml:"max_message_bytes"`

	// RequestTimeout sets the maximum time to wait for broker responses.
	// Zero or negative values mean the engine default.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// DeliveryTimeout fails a message that has not been delivered in time.
	// Zero or negative values mean no timeout.
	DeliveryTimeout time.Duration `yaml:"delivery_timeout"`

	// CleanupTimeout sets the maximum time to wait for buffered messages
	// to flush on Close when the caller's context has no deadline.
	// Default: DefaultCleanupTimeout.  Negative values mean no timeout, and
	// Close may then block for as long as the brokers are unreachable.
	CleanupTimeout time.Duration `yaml:"cleanup_timeout"`

	// MaxRetries controls how often the engine retries a failed produce.
	// <=0: the engine default.
	MaxRetries int `yaml:"max_retries"`

	// AllowAutoTopicCreation enables automatic topic creation when publishing
	// to non-existent topics.
	AllowAutoTopicCreation bool `yaml:"allow_auto_topic_creation"`

	// Linger sets the batching delay.
	// Zero or negative values disable lingering.
	Linger time.Duration `yaml:"linger"`

	// Acks controls broker acknowledgments.
	// Valid: "all", "leader", "none". Default: "all".
	Acks Acks `yaml:"acks"`

	// Compression specifies the compression algorithm.
	// Valid: "snappy", "gzip", "lz4", "zstd", "none".
	Compression Compression `yaml:"compression"`

	// PollInterval is how long each background poll waits for events.
	// Default: DefaultPollInterval.
	PollInterval time.Duration `yaml:"poll_interval"`

	// Logger is the logger instance (same interface as franz-go).
	// Optional. If nil, a no-op logger will be used.
	Logger kgo.Logger `yaml:"-"`

	// DeliveryListeners receive a DeliveryEvent after every delivery report.
	// Optional.
	DeliveryListeners []func(*DeliveryEvent) `yaml:"-"`
}

// PlainAuth holds SASL/PLAIN credentials.
type PlainAuth struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// ParseConfig reads a YAML document into a Config.  Code-only fields (SASL,
// TLS, Logger, DeliveryListeners) are left for the caller to fill in.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Join(ErrValidation, fmt.Errorf("parsing config: %w", err))
	}
	return cfg, nil
}

// withDefaults returns a copy with zero values replaced by defaults.
func (c Config) withDefaults() Config {
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = DefaultQueueCapacity
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.CleanupTimeout == 0 {
		c.CleanupTimeout = DefaultCleanupTimeout
	}
	if c.Logger == nil {
		c.Logger = &nopLogger{}
	}
	return c
}

// validate validates the configuration.
func (c *Config) validate() error {
	if len(c.Brokers) == 0 {
		return errors.Join(ErrValidation, fmt.Errorf("brokers list is required"))
	}

	for i, broker := range c.Brokers {
		if broker == "" {
			return errors.Join(ErrValidation, fmt.Errorf("broker %d is empty", i))
		}
	}

	if c.SASLPlain != nil && c.SASLPlain.User == "" {
		return errors.Join(ErrValidation, fmt.Errorf("sasl_plain requires a user"))
	}

	if c.QueueCapacity < 0 {
		return errors.Join(ErrValidation, fmt.Errorf("queue capacity %d is negative", c.QueueCapacity))
	}

	if err := validateCompression(c.Compression); err != nil {
		return err
	}

	if err := validateAcks(c.Acks); err != nil {
		return err
	}

	return nil
}

// toKgoOpts converts the configuration to franz-go client options.
// Must be called on a config that went through withDefaults.
func (c *Config) toKgoOpts() []kgo.Opt {
	opts := []kgo.Opt{
		kgo.SeedBrokers(c.Brokers...),
		kgo.WithLogger(c.Logger),
		kgo.RecordPartitioner(newExplicitPartitioner()),
		kgo.ProducerBatchCompression(c.Compression.codec()),

		// The engine never holds more than the producer accepted, so it
		// never reports ErrMaxBuffered to a TryProduce promise.  The byte
		// budget is enforced by Send alone for the same reason.
		kgo.MaxBufferedRecords(c.QueueCapacity),
	}
	opts = append(opts, c.Acks.opts()...)

	if c.ClientID != "" {
		opts = append(opts, kgo.ClientID(c.ClientID))
	}

	if c.AllowAutoTopicCreation {
		opts = append(opts, kgo.AllowAutoTopicCreation())
	}

	switch {
	case c.SASL != nil:
		opts = append(opts, kgo.SASL(c.SASL))
	case c.SASLPlain != nil:
		opts = append(opts, kgo.SASL(plain.Auth{
			User: c.SASLPlain.User,
			Pass: c.SASLPlain.Password,
		}.AsMechanism()))
	}

	if c.TLS != nil {
		opts = append(opts, kgo.DialTLSConfig(c.TLS))
	}

	if c.RequestTimeout > 0 {
		opts = append(opts, kgo.RequestTimeoutOverhead(c.RequestTimeout))
	}

	if c.DeliveryTimeout > 0 {
		opts = append(opts, kgo.RecordDeliveryTimeout(c.DeliveryTimeout))
	}

	if c.MaxRetries > 0 {
		opts = append(opts, kgo.RecordRetries(c.MaxRetries))
	}

	if c.Linger > 0 {
		opts = append(opts, kgo.ProducerLinger(c.Linger))
	}

	return opts
}
