package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Game       GameConfig       `mapstructure:"game"`
	Subscriber SubscriberConfig `mapstructure:"subscriber"`
	HTTP       HTTPConfig       `mapstructure:"http"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	NodeID   int64  `mapstructure:"node_id"`
	LogLevel string `mapstructure:"log_level"`
}

type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN PostgreSQL 连接串
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// Addr host:port
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GameConfig 游戏管理相关配置
type GameConfig struct {
	MaxGames       int           `mapstructure:"max_games"`
	EvictTimeout   time.Duration `mapstructure:"evict_timeout"`
	EvictInterval  time.Duration `mapstructure:"evict_interval"`
	LockTTL        time.Duration `mapstructure:"lock_ttl"`
	LockWait       time.Duration `mapstructure:"lock_wait"`
	ViewTTL        time.Duration `mapstructure:"view_ttl"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
}

// SubscriberConfig 命令订阅的 Worker Pool 配置
type SubscriberConfig struct {
	WorkerCount int `mapstructure:"worker_count"`
	BufferSize  int `mapstructure:"buffer_size"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
	Mode string `mapstructure:"mode"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "switcher")
	v.SetDefault("app.node_id", 1)
	v.SetDefault("app.log_level", "info")

	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", 2*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 20)

	v.SetDefault("game.max_games", 10000)
	v.SetDefault("game.evict_timeout", 30*time.Minute)
	v.SetDefault("game.evict_interval", time.Minute)
	v.SetDefault("game.lock_ttl", 5*time.Second)
	v.SetDefault("game.lock_wait", 2*time.Second)
	v.SetDefault("game.view_ttl", 30*time.Minute)
	v.SetDefault("game.command_timeout", 5*time.Second)

	v.SetDefault("subscriber.worker_count", 32)
	v.SetDefault("subscriber.buffer_size", 4096)

	v.SetDefault("http.addr", ":8081")
	v.SetDefault("http.mode", "release")
}

// Load 从指定路径加载配置
// 环境变量 SWITCHER_<SECTION>_<KEY> 覆盖文件中的值
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SWITCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
