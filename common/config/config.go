package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
	MaxIdle  int    `yaml:"max_idle"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MQTTConfig MQTT 配置
type MQTTConfig struct {
	Broker         string        `yaml:"broker"`
	ClientID       string        `yaml:"client_id"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	QoS            byte          `yaml:"qos"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// Getenv 读取变量，空字符串视为未设置；nil 时使用 os.Getenv
type Getenv func(key string) string

// LoadFromEnv 覆盖 <prefix>_HOST、<prefix>_PORT、<prefix>_NAME ...，未设置或无法解析的保持原值
func (c *DatabaseConfig) LoadFromEnv(prefix string, getenv Getenv) {
	e := envReader(getenv)
	e.setString(&c.Host, prefix+"_HOST")
	e.setInt(&c.Port, prefix+"_PORT")
	e.setString(&c.User, prefix+"_USER")
	e.setString(&c.Password, prefix+"_PASSWORD")
	e.setString(&c.Database, prefix+"_NAME")
	e.setString(&c.SSLMode, prefix+"_SSLMODE")
	e.setInt(&c.MaxConns, prefix+"_MAX_CONNS")
	e.setInt(&c.MaxIdle, prefix+"_MAX_IDLE")
}

// LoadFromEnv 覆盖 Redis 配置
func (c *RedisConfig) LoadFromEnv(prefix string, getenv Getenv) {
	e := envReader(getenv)
	e.setString(&c.Addr, prefix+"_ADDR")
	e.setString(&c.Password, prefix+"_PASSWORD")
	e.setInt(&c.DB, prefix+"_DB")
}

// LoadFromEnv 覆盖 MQTT 配置；QoS 只接受 0-2
func (c *MQTTConfig) LoadFromEnv(prefix string, getenv Getenv) {
	e := envReader(getenv)
	e.setString(&c.Broker, prefix+"_BROKER")
	e.setString(&c.ClientID, prefix+"_CLIENT_ID")
	e.setString(&c.Username, prefix+"_USERNAME")
	e.setString(&c.Password, prefix+"_PASSWORD")
	if v := e(prefix + "_QOS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 8); err == nil && n <= 2 {
			c.QoS = byte(n)
		}
	}
	if v := e(prefix + "_CONNECT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.ConnectTimeout = d
		}
	}
}

func envReader(getenv Getenv) Getenv {
	if getenv == nil {
		return os.Getenv
	}
	return getenv
}

func (e Getenv) setString(dst *string, key string) {
	if v := e(key); v != "" {
		*dst = v
	}
}

func (e Getenv) setInt(dst *int, key string) {
	if v := e(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
