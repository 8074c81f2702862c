package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"wisefido-vitals/common/config"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 传输方式
const (
	TransportBLE  = "ble"
	TransportMQTT = "mqtt"
)

// 录制数据来源
const (
	RecordedCSV      = "csv"
	RecordedXLSX     = "xlsx"
	RecordedPostgres = "postgres"
)

// Config 生命体征服务配置
type Config struct {
	Database config.DatabaseConfig `yaml:"database"`
	Redis    config.RedisConfig    `yaml:"redis"`
	MQTT     config.MQTTConfig     `yaml:"mqtt"`

	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`

	// 传感器链路
	Sensor struct {
		Transport   string        `yaml:"transport"`    // ble / mqtt
		Address     string        `yaml:"address"`      // MAC 地址，同时作为设备 ID
		NotifyUUID  string        `yaml:"notify_uuid"`  // 通知特征 UUID
		ScanTimeout time.Duration `yaml:"scan_timeout"` // BLE 扫描超时
		RetryDelay  time.Duration `yaml:"retry_delay"`  // 重连间隔
		MQTTTopic   string        `yaml:"mqtt_topic"`   // 网关发布原始帧的主题
	} `yaml:"sensor"`

	Live struct {
		QueueCapacity int `yaml:"queue_capacity"`
	} `yaml:"live"`

	// 录制数据集
	Recorded struct {
		Source  string `yaml:"source"`  // csv / xlsx / postgres
		Path    string `yaml:"path"`    // csv / xlsx 文件路径
		Sheet   string `yaml:"sheet"`   // xlsx 工作表
		Dataset string `yaml:"dataset"` // postgres recorded_vitals.dataset
	} `yaml:"recorded"`

	// Redis 状态快照
	Status struct {
		Enabled   bool          `yaml:"enabled"`
		Interval  time.Duration `yaml:"interval"`
		KeyPrefix string        `yaml:"key_prefix"`
	} `yaml:"status"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load 加载配置
// 优先级：环境变量 > .env（VITALS_ENV_FILE，默认 .env）> YAML（VITALS_CONFIG_FILE）> 默认值
func Load() (*Config, error) {
	env, err := loadEnv(getEnvOS("VITALS_ENV_FILE", ".env"))
	if err != nil {
		return nil, err
	}

	cfg := defaults()

	if path := env.get("VITALS_CONFIG_FILE", ""); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := env.apply(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}

	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.User = "postgres"
	cfg.Database.Password = "postgres"
	cfg.Database.Database = "owlrd"
	cfg.Database.SSLMode = "disable"

	cfg.Redis.Addr = "localhost:6379"

	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.ClientID = "wisefido-vitals"

	cfg.HTTP.Addr = ":8000"

	cfg.Sensor.Transport = TransportBLE
	cfg.Sensor.Address = "00:18:80:04:52:85"
	cfg.Sensor.NotifyUUID = "85fc567e-31d9-4185-87c6-339924d1c5be"
	cfg.Sensor.ScanTimeout = 10 * time.Second
	cfg.Sensor.RetryDelay = 5 * time.Second
	cfg.Sensor.MQTTTopic = "vitals/+/notify"

	cfg.Live.QueueCapacity = 5000

	cfg.Recorded.Source = RecordedCSV
	cfg.Recorded.Path = "Vitals.csv"
	cfg.Recorded.Sheet = "Sheet1"
	cfg.Recorded.Dataset = "default"

	cfg.Status.Enabled = false
	cfg.Status.Interval = 2 * time.Second
	cfg.Status.KeyPrefix = "vitals:device:"

	cfg.Log.Level = "info"
	cfg.Log.Format = "json"

	return cfg
}

// Validate 检查配置
func (c *Config) Validate() error {
	var errs []error

	switch c.Sensor.Transport {
	case TransportBLE:
		if c.Sensor.Address == "" {
			errs = append(errs, errors.New("SENSOR_ADDRESS is required for ble transport"))
		}
		if c.Sensor.NotifyUUID == "" {
			errs = append(errs, errors.New("SENSOR_NOTIFY_UUID is required for ble transport"))
		}
		if c.Sensor.ScanTimeout <= 0 {
			errs = append(errs, errors.New("SENSOR_SCAN_TIMEOUT must be > 0"))
		}
	case TransportMQTT:
		if c.MQTT.Broker == "" {
			errs = append(errs, errors.New("MQTT_BROKER is required for mqtt transport"))
		}
		if c.Sensor.MQTTTopic == "" {
			errs = append(errs, errors.New("SENSOR_MQTT_TOPIC is required for mqtt transport"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SENSOR_TRANSPORT %q", c.Sensor.Transport))
	}

	if c.Sensor.RetryDelay <= 0 {
		errs = append(errs, errors.New("SENSOR_RETRY_DELAY must be > 0"))
	}
	if c.Live.QueueCapacity <= 0 {
		errs = append(errs, errors.New("LIVE_QUEUE_CAPACITY must be > 0"))
	}

	switch c.Recorded.Source {
	case RecordedCSV, RecordedXLSX:
		if c.Recorded.Path == "" {
			errs = append(errs, errors.New("RECORDED_PATH is required"))
		}
	case RecordedPostgres:
		if c.Recorded.Dataset == "" {
			errs = append(errs, errors.New("RECORDED_DATASET is required for postgres source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown RECORDED_SOURCE %q", c.Recorded.Source))
	}

	if c.Status.Enabled && c.Status.Interval <= 0 {
		errs = append(errs, errors.New("STATUS_INTERVAL must be > 0"))
	}

	return errors.Join(errs...)
}

// env 环境变量，未设置时回退到 .env 文件中的值
type env struct {
	dotenv map[string]string
}

func loadEnv(path string) (*env, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &env{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return &env{dotenv: values}, nil
}

func (e *env) get(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value := e.dotenv[key]; value != "" {
		return value
	}
	return defaultValue
}

func (e *env) lookup(key string) string {
	return e.get(key, "")
}

func (e *env) apply(cfg *Config) error {
	var errs []error
	intVar := func(dst *int, key string) {
		if v := e.get(key, ""); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
				return
			}
			*dst = n
		}
	}
	durationVar := func(dst *time.Duration, key string) {
		if v := e.get(key, ""); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
				return
			}
			*dst = d
		}
	}
	boolVar := func(dst *bool, key string) {
		if v := e.get(key, ""); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
				return
			}
			*dst = b
		}
	}

	cfg.Database.LoadFromEnv("DB", e.lookup)
	cfg.Redis.LoadFromEnv("REDIS", e.lookup)
	cfg.MQTT.LoadFromEnv("MQTT", e.lookup)

	cfg.HTTP.Addr = e.get("HTTP_ADDR", cfg.HTTP.Addr)

	cfg.Sensor.Transport = strings.ToLower(e.get("SENSOR_TRANSPORT", cfg.Sensor.Transport))
	cfg.Sensor.Address = e.get("SENSOR_ADDRESS", cfg.Sensor.Address)
	cfg.Sensor.NotifyUUID = e.get("SENSOR_NOTIFY_UUID", cfg.Sensor.NotifyUUID)
	durationVar(&cfg.Sensor.ScanTimeout, "SENSOR_SCAN_TIMEOUT")
	durationVar(&cfg.Sensor.RetryDelay, "SENSOR_RETRY_DELAY")
	cfg.Sensor.MQTTTopic = e.get("SENSOR_MQTT_TOPIC", cfg.Sensor.MQTTTopic)

	intVar(&cfg.Live.QueueCapacity, "LIVE_QUEUE_CAPACITY")

	cfg.Recorded.Source = strings.ToLower(e.get("RECORDED_SOURCE", cfg.Recorded.Source))
	cfg.Recorded.Path = e.get("RECORDED_PATH", cfg.Recorded.Path)
	cfg.Recorded.Sheet = e.get("RECORDED_SHEET", cfg.Recorded.Sheet)
	cfg.Recorded.Dataset = e.get("RECORDED_DATASET", cfg.Recorded.Dataset)

	boolVar(&cfg.Status.Enabled, "STATUS_ENABLED")
	durationVar(&cfg.Status.Interval, "STATUS_INTERVAL")
	cfg.Status.KeyPrefix = e.get("STATUS_KEY_PREFIX", cfg.Status.KeyPrefix)

	cfg.Log.Level = e.get("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = e.get("LOG_FORMAT", cfg.Log.Format)

	return errors.Join(errs...)
}

func getEnvOS(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
