package models

import "time"

// -----------------------------------------------------------------------------

// MConfig is the top-level application configuration loaded from YAML.
type MConfig struct {
	Name      string `yaml:"name"`
	GRPC_Host string `yaml:"grpc_host"`
	GRPC_Port int    `yaml:"grpc_port"`

	Feed MFeedConfig `yaml:"feed"`
	NATS MNATSConfig `yaml:"nats"`
}

// -----------------------------------------------------------------------------

// MFeedConfig describes the market-data service: credentials, endpoints and
// the initial set of stream subscriptions ("<kind>.<symbol>" entries).
type MFeedConfig struct {
	Name      string `yaml:"name"`
	APIKey    string `yaml:"api_key"`
	StreamURL string `yaml:"stream_url"`
	APIURL    string `yaml:"api_url"`

	// Serializer selects the publisher payload format: "json", "gob" or "proto".
	Serializer string `yaml:"serializer"`

	Subscriptions []string `yaml:"subscriptions"`

	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// -----------------------------------------------------------------------------

// MNATSConfig holds the connection settings for the NATS publisher.
type MNATSConfig struct {
	Servers        []string      `yaml:"servers"`
	ClientID       string        `yaml:"client_id"`
	SubjectPrefix  string        `yaml:"subject_prefix"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	ReconnectWait  time.Duration `yaml:"reconnect_wait"`
	MaxReconnects  int           `yaml:"max_reconnects"`
	FlushTimeout   time.Duration `yaml:"flush_timeout"`

	JetStream *MJetStreamConfig `yaml:"jetstream,omitempty"`
}

// -----------------------------------------------------------------------------

// MJetStreamConfig enables persistent publishing through NATS JetStream.
type MJetStreamConfig struct {
	Enabled    bool          `yaml:"enabled"`
	StreamName string        `yaml:"stream_name"`
	Subjects   []string      `yaml:"subjects"`
	Replicas   int           `yaml:"replicas"`
	MaxAge     time.Duration `yaml:"max_age"`
	MaxMsgs    int64         `yaml:"max_msgs"`
	MaxBytes   int64         `yaml:"max_bytes"`
	MaxMsgSize int64         `yaml:"max_msg_size"`
}
