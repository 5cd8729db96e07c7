package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Friendship FriendshipConfig `mapstructure:"friendship"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name      string `mapstructure:"name"`
	Version   string `mapstructure:"version"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTP HTTPConfig `mapstructure:"http"`
}

// HTTPConfig HTTP服务配置
type HTTPConfig struct {
	Network string `mapstructure:"network"`
	Addr    string `mapstructure:"addr"`
	Timeout string `mapstructure:"timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	PostgreSQL PostgreSQLConfig `mapstructure:"postgresql"`
}

// PostgreSQLConfig PostgreSQL配置
type PostgreSQLConfig struct {
	DSN    string `mapstructure:"dsn"`
	DBName string `mapstructure:"db_name"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// KafkaConfig Kafka配置
type KafkaConfig struct {
	Brokers    []string `mapstructure:"brokers"`
	AuditTopic string   `mapstructure:"audit_topic"`
	EventTopic string   `mapstructure:"event_topic"`
}

// FriendshipConfig 好友业务配置
type FriendshipConfig struct {
	// 好友申请被拒绝后的重新申请冷却时间（小时）
	RequestCooldownHours int `mapstructure:"request_cooldown_hours"`
	// 缓存结果的过期时间（小时）
	CacheTTLHours int `mapstructure:"cache_ttl_hours"`
}

// RequestCooldown 冷却时间
func (f FriendshipConfig) RequestCooldown() time.Duration {
	return time.Duration(f.RequestCooldownHours) * time.Hour
}

// CacheTTL 缓存过期时间
func (f FriendshipConfig) CacheTTL() time.Duration {
	return time.Duration(f.CacheTTLHours) * time.Hour
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level string `mapstructure:"level"`
}

// LoadConfig 加载配置：config.yaml + 环境变量覆盖
func LoadConfig(serviceName string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.AddConfigPath("../..")

	// 环境变量覆盖，例如 SOCIAL_REDIS_ADDR => redis.addr
	v.SetEnvPrefix("SOCIAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, serviceName)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// 配置文件未找到，使用默认值
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper, serviceName string) {
	v.SetDefault("app.name", serviceName)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.jwt_secret", "social-network")

	v.SetDefault("server.http.network", "tcp")
	v.SetDefault("server.http.addr", ":21003")
	v.SetDefault("server.http.timeout", "30s")

	v.SetDefault("database.postgresql.dsn",
		"host=localhost user=postgres password=postgres dbname="+serviceName+"DB port=5432 sslmode=disable")
	v.SetDefault("database.postgresql.db_name", serviceName+"DB")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.audit_topic", "audit-log")
	v.SetDefault("kafka.event_topic", "friendship-events")

	v.SetDefault("friendship.request_cooldown_hours", 24)
	v.SetDefault("friendship.cache_ttl_hours", 24)

	v.SetDefault("logger.level", "info")
}
