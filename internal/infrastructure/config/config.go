package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 全局配置结构
// 设计说明：使用Viper管理配置，支持YAML文件、环境变量覆盖（前缀STOREFRONT）
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Events   EventsConfig   `mapstructure:"events"`
	Order    OrderConfig    `mapstructure:"order"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"` // debug | release | test
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// 数据库驱动
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // mysql | postgres
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	Charset         string        `mapstructure:"charset"`
	ParseTime       bool          `mapstructure:"parse_time"`
	Loc             string        `mapstructure:"loc"`
	SSLMode         string        `mapstructure:"sslmode"` // 仅postgres
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN 按驱动生成连接字符串
// MySQL：user:password@tcp(host:port)/dbname?charset=utf8mb4&parseTime=True&loc=Local
// 注意：loc参数需要URL编码（Asia/Shanghai → Asia%2FShanghai）
func (d DatabaseConfig) DSN() string {
	if d.Driver == DriverPostgres {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
	}
	loc := url.QueryEscape(d.Loc)
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.Charset, d.ParseTime, loc)
}

type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// RatingCacheTTL 商品评分汇总缓存时间
	RatingCacheTTL time.Duration `mapstructure:"rating_cache_ttl"`
}

// Addr 返回Redis地址
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret             string        `mapstructure:"secret"`
	AccessTokenExpire  time.Duration `mapstructure:"access_token_expire"`
	RefreshTokenExpire time.Duration `mapstructure:"refresh_token_expire"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug | info | warn | error
	Format string `mapstructure:"format"` // console | json
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"` // OTLP gRPC，如 localhost:4317
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// 事件总线驱动
const (
	EventsRabbitMQ = "rabbitmq"
	EventsKafka    = "kafka"
	EventsNone     = "none"
)

type EventsConfig struct {
	Driver   string         `mapstructure:"driver"` // rabbitmq | kafka | none
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	// Breaker 发布熔断：连续失败达到阈值后在OpenTimeout内直接跳过发布
	Breaker BreakerConfig `mapstructure:"breaker"`
	// PublishTimeout 单次发布超时
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
}

type RabbitMQConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
	Queue    string `mapstructure:"queue"` // worker消费的队列
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type BreakerConfig struct {
	ConsecutiveFailures uint32        `mapstructure:"consecutive_failures"`
	OpenTimeout         time.Duration `mapstructure:"open_timeout"`
}

type OrderConfig struct {
	// AdminCancelReleasesStock 管理员把订单改为CANCELED时是否归还库存
	AdminCancelReleasesStock bool `mapstructure:"admin_cancel_releases_stock"`
	// MaxLineQuantity 单行最大购买数量
	MaxLineQuantity int `mapstructure:"max_line_quantity"`
}

type AuthConfig struct {
	// AdminEmails 注册时获得管理员角色的邮箱
	AdminEmails []string `mapstructure:"admin_emails"`
}

// IsAdminEmail 邮箱是否在管理员名单中（忽略大小写）
func (a AuthConfig) IsAdminEmail(email string) bool {
	for _, e := range a.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(e), strings.TrimSpace(email)) {
			return true
		}
	}
	return false
}

// Load 加载配置文件
// 支持：
// 1. 默认加载config/config.yaml
// 2. 通过环境变量STOREFRONT_ENV指定环境（如config.prod.yaml）
// 3. 环境变量覆盖（如STOREFRONT_DATABASE_PASSWORD）
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	if env := os.Getenv("STOREFRONT_ENV"); env != "" {
		v.SetConfigName("config." + env)
	}
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return unmarshal(v)
}

// LoadFile 加载指定路径的配置文件
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	// 环境变量绑定（STOREFRONT_DATABASE_PASSWORD → database.password）
	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)

	v.SetDefault("database.driver", DriverMySQL)
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parse_time", true)
	v.SetDefault("database.loc", "Local")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.rating_cache_ttl", 10*time.Minute)

	v.SetDefault("jwt.access_token_expire", 2*time.Hour)
	v.SetDefault("jwt.refresh_token_expire", 7*24*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("tracing.endpoint", "localhost:4317")
	v.SetDefault("tracing.sample_ratio", 1.0)

	v.SetDefault("events.driver", EventsNone)
	v.SetDefault("events.rabbitmq.exchange", "storefront.events")
	v.SetDefault("events.rabbitmq.queue", "storefront.worker")
	v.SetDefault("events.kafka.topic", "storefront.events")
	v.SetDefault("events.kafka.group_id", "storefront-worker")
	v.SetDefault("events.breaker.consecutive_failures", 5)
	v.SetDefault("events.breaker.open_timeout", 30*time.Second)
	v.SetDefault("events.publish_timeout", 3*time.Second)

	v.SetDefault("order.admin_cancel_releases_stock", true)
	v.SetDefault("order.max_line_quantity", 999)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate 配置校验
func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("无效的服务端口: %d", cfg.Server.Port)
	}

	if cfg.Server.Mode == "release" && (cfg.JWT.Secret == "" || cfg.JWT.Secret == "your-secret-key-change-in-production") {
		return fmt.Errorf("生产环境必须修改JWT密钥")
	}

	switch cfg.Database.Driver {
	case DriverMySQL, DriverPostgres:
	default:
		return fmt.Errorf("不支持的数据库驱动: %s", cfg.Database.Driver)
	}

	switch cfg.Events.Driver {
	case EventsRabbitMQ, EventsKafka, EventsNone:
	default:
		return fmt.Errorf("不支持的事件驱动: %s", cfg.Events.Driver)
	}
	if cfg.Events.Driver == EventsKafka && len(cfg.Events.Kafka.Brokers) == 0 {
		return fmt.Errorf("events.kafka.brokers不能为空")
	}

	if cfg.Order.MaxLineQuantity <= 0 {
		return fmt.Errorf("order.max_line_quantity必须大于0")
	}

	return nil
}
