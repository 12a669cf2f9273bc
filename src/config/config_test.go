package config

import (
	"os"
	"path/filepath"
	"testing"

	"polygon-ingestor/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
name: "test-ingestor"
grpc_host: "0.0.0.0"
grpc_port: 50051

feed:
  name: "polygon"
  api_key: "USER12345678"
  stream_url: "wss://socket.polygon.io/stocks"
  api_url: "https://api.polygon.io"
  serializer: "json"
  subscriptions:
    - "T.MSFT"
    - "Q.*"

nats:
  servers:
    - "nats://localhost:4222"
  client_id: "test-ingestor"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewConfig(t *testing.T) {
	config, err := NewConfig(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "test-ingestor", config.Name)
	assert.Equal(t, 50051, config.GRPC_Port)
	assert.Equal(t, "USER12345678", config.Feed.APIKey)
	assert.Equal(t, []string{"T.MSFT", "Q.*"}, config.Feed.Subscriptions)
	assert.Equal(t, []string{"nats://localhost:4222"}, config.NATS.Servers)
}

func TestNewConfigMissingFile(t *testing.T) {
	_, err := NewConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestSubscriptions(t *testing.T) {
	config, err := NewConfig(writeConfig(t, validYAML))
	require.NoError(t, err)

	subs, err := config.Subscriptions()
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, models.NewSubscription(models.KindTrade, "MSFT"), subs[0])
	assert.Equal(t, models.NewSubscriptionAll(models.KindQuote), subs[1])
}

func TestValidateFailures(t *testing.T) {
	base := func() *models.MConfig {
		return &models.MConfig{
			Name:      "test",
			GRPC_Port: 50051,
			Feed: models.MFeedConfig{
				APIKey:        "key",
				StreamURL:     "wss://example.com",
				APIURL:        "https://example.com",
				Subscriptions: []string{"T.MSFT"},
			},
			NATS: models.MNATSConfig{Servers: []string{"nats://localhost:4222"}},
		}
	}

	cases := []struct {
		name   string
		mutate func(*models.MConfig)
	}{
		{"empty name", func(c *models.MConfig) { c.Name = "" }},
		{"privileged port", func(c *models.MConfig) { c.GRPC_Port = 80 }},
		{"missing api key", func(c *models.MConfig) { c.Feed.APIKey = "" }},
		{"missing stream url", func(c *models.MConfig) { c.Feed.StreamURL = "" }},
		{"missing api url", func(c *models.MConfig) { c.Feed.APIURL = "" }},
		{"no subscriptions", func(c *models.MConfig) { c.Feed.Subscriptions = nil }},
		{"bad subscription", func(c *models.MConfig) { c.Feed.Subscriptions = []string{"bogus"} }},
		{"unknown serializer", func(c *models.MConfig) { c.Feed.Serializer = "xml" }},
		{"no nats servers", func(c *models.MConfig) { c.NATS.Servers = nil }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			model := base()
			tc.mutate(model)
			config := &Config{MConfig: model}
			assert.Error(t, config.Validate())
		})
	}

	t.Run("valid baseline", func(t *testing.T) {
		config := &Config{MConfig: base()}
		assert.NoError(t, config.Validate())
	})
}
