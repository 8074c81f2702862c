package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"VITALS_ENV_FILE", "VITALS_CONFIG_FILE",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"MQTT_BROKER", "MQTT_CLIENT_ID", "MQTT_USERNAME", "MQTT_PASSWORD", "MQTT_QOS",
	"HTTP_ADDR",
	"SENSOR_TRANSPORT", "SENSOR_ADDRESS", "SENSOR_NOTIFY_UUID", "SENSOR_SCAN_TIMEOUT",
	"SENSOR_RETRY_DELAY", "SENSOR_MQTT_TOPIC",
	"LIVE_QUEUE_CAPACITY",
	"RECORDED_SOURCE", "RECORDED_PATH", "RECORDED_SHEET", "RECORDED_DATASET",
	"STATUS_ENABLED", "STATUS_INTERVAL", "STATUS_KEY_PREFIX",
	"LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv 清空相关环境变量，并指向不存在的 .env
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
	t.Setenv("VITALS_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "owlrd", cfg.Database.Database)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, "wisefido-vitals", cfg.MQTT.ClientID)

	assert.Equal(t, ":8000", cfg.HTTP.Addr)
	assert.Equal(t, TransportBLE, cfg.Sensor.Transport)
	assert.Equal(t, "00:18:80:04:52:85", cfg.Sensor.Address)
	assert.Equal(t, "85fc567e-31d9-4185-87c6-339924d1c5be", cfg.Sensor.NotifyUUID)
	assert.Equal(t, 10*time.Second, cfg.Sensor.ScanTimeout)
	assert.Equal(t, 5*time.Second, cfg.Sensor.RetryDelay)
	assert.Equal(t, "vitals/+/notify", cfg.Sensor.MQTTTopic)
	assert.Equal(t, 5000, cfg.Live.QueueCapacity)

	assert.Equal(t, RecordedCSV, cfg.Recorded.Source)
	assert.Equal(t, "Vitals.csv", cfg.Recorded.Path)
	assert.Equal(t, "Sheet1", cfg.Recorded.Sheet)
	assert.Equal(t, "default", cfg.Recorded.Dataset)

	assert.False(t, cfg.Status.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Status.Interval)
	assert.Equal(t, "vitals:device:", cfg.Status.KeyPrefix)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_NAME", "test-db")
	t.Setenv("REDIS_ADDR", "test-redis:6380")
	t.Setenv("MQTT_QOS", "1")
	t.Setenv("SENSOR_TRANSPORT", "MQTT")
	t.Setenv("SENSOR_RETRY_DELAY", "250ms")
	t.Setenv("LIVE_QUEUE_CAPACITY", "64")
	t.Setenv("RECORDED_SOURCE", "postgres")
	t.Setenv("RECORDED_DATASET", "ward-a")
	t.Setenv("STATUS_ENABLED", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, "test-db", cfg.Database.Database)
	assert.Equal(t, "test-redis:6380", cfg.Redis.Addr)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)
	assert.Equal(t, TransportMQTT, cfg.Sensor.Transport)
	assert.Equal(t, 250*time.Millisecond, cfg.Sensor.RetryDelay)
	assert.Equal(t, 64, cfg.Live.QueueCapacity)
	assert.Equal(t, RecordedPostgres, cfg.Recorded.Source)
	assert.Equal(t, "ward-a", cfg.Recorded.Dataset)
	assert.True(t, cfg.Status.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_InvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("SENSOR_RETRY_DELAY", "soon")
	t.Setenv("LIVE_QUEUE_CAPACITY", "lots")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SENSOR_RETRY_DELAY")
	assert.Contains(t, err.Error(), "LIVE_QUEUE_CAPACITY")
}

func TestLoad_YAMLFileAndOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "vitals.yaml")
	yamlContent := `
http:
  addr: ":9000"
sensor:
  transport: mqtt
  retry_delay: 2s
  mqtt_topic: gateway/+/frames
recorded:
  source: xlsx
  path: /data/vitals.xlsx
  sheet: Recorded
redis:
  addr: redis:6379
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o644))
	t.Setenv("VITALS_CONFIG_FILE", path)
	t.Setenv("HTTP_ADDR", ":9100")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":9100", cfg.HTTP.Addr, "environment overrides yaml")
	assert.Equal(t, TransportMQTT, cfg.Sensor.Transport)
	assert.Equal(t, 2*time.Second, cfg.Sensor.RetryDelay)
	assert.Equal(t, "gateway/+/frames", cfg.Sensor.MQTTTopic)
	assert.Equal(t, RecordedXLSX, cfg.Recorded.Source)
	assert.Equal(t, "/data/vitals.xlsx", cfg.Recorded.Path)
	assert.Equal(t, "Recorded", cfg.Recorded.Sheet)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 10*time.Second, cfg.Sensor.ScanTimeout, "defaults survive a partial yaml")
}

func TestLoad_MissingYAMLFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("VITALS_CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SENSOR_ADDRESS=AA:BB:CC:DD:EE:FF\nHTTP_ADDR=:7000\n"), 0o644))
	t.Setenv("VITALS_ENV_FILE", path)
	t.Setenv("HTTP_ADDR", ":7100")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "AA:BB:CC:DD:EE:FF", cfg.Sensor.Address)
	assert.Equal(t, ":7100", cfg.HTTP.Addr, "process environment wins over .env")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"unknown transport", func(c *Config) { c.Sensor.Transport = "zigbee" }, "SENSOR_TRANSPORT"},
		{"ble without address", func(c *Config) { c.Sensor.Address = "" }, "SENSOR_ADDRESS"},
		{"zero retry delay", func(c *Config) { c.Sensor.RetryDelay = 0 }, "SENSOR_RETRY_DELAY"},
		{"zero queue capacity", func(c *Config) { c.Live.QueueCapacity = 0 }, "LIVE_QUEUE_CAPACITY"},
		{"unknown recorded source", func(c *Config) { c.Recorded.Source = "parquet" }, "RECORDED_SOURCE"},
		{"status without interval", func(c *Config) {
			c.Status.Enabled = true
			c.Status.Interval = 0
		}, "STATUS_INTERVAL"},
		{"mqtt without broker", func(c *Config) {
			c.Sensor.Transport = TransportMQTT
			c.MQTT.Broker = ""
		}, "MQTT_BROKER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
