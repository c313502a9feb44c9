package config

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	App         AppConfig         `mapstructure:"app"`
	Checkout    CheckoutConfig    `mapstructure:"checkout"`
	CinetPay    CinetPayConfig    `mapstructure:"cinetpay"`
	Alipay      AlipayConfig      `mapstructure:"alipay"`
	Wechat      WechatPayConfig   `mapstructure:"wechat"`
	Push        PushConfig        `mapstructure:"push"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
}

type ServerConfig struct {
	Port         string   `mapstructure:"port"`
	Mode         string   `mapstructure:"mode"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // postgres | memory
	Host     string `mapstructure:"host"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Port     string `mapstructure:"port"`
	SSLMode  string `mapstructure:"sslmode"`
	TimeZone string `mapstructure:"timezone"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Expire int64  `mapstructure:"expire"` // 小时
}

type AppConfig struct {
	Env   string `mapstructure:"env"`
	Debug bool   `mapstructure:"debug"`
}

// CheckoutConfig 下单计价参数
type CheckoutConfig struct {
	Currency    string `mapstructure:"currency"`     // 例如 XOF
	ShippingFee int64  `mapstructure:"shipping_fee"` // 固定运费，货币最小单位
	Precision   int32  `mapstructure:"precision"`    // 金额保留的小数位，XOF 为 0
}

// CinetPayConfig CinetPay 收银台配置
type CinetPayConfig struct {
	APIKey     string `mapstructure:"api_key"`
	SiteID     string `mapstructure:"site_id"`
	Mode       string `mapstructure:"mode"` // PRODUCTION | SANDBOX
	NotifyURL  string `mapstructure:"notify_url"`
	ReturnURL  string `mapstructure:"return_url"`
	CancelURL  string `mapstructure:"cancel_url"`
	Channels   string `mapstructure:"channels"` // ALL | MOBILE_MONEY | CREDIT_CARD | WALLET
	APIBaseURL string `mapstructure:"api_base_url"`
	HostedPage bool   `mapstructure:"hosted_page"` // 额外申请托管支付页链接
}

type AlipayConfig struct {
	AppID        string `mapstructure:"app_id"`
	PrivateKey   string `mapstructure:"private_key"`   // 应用私钥
	PublicKey    string `mapstructure:"public_key"`    // 支付宝公钥 (不是应用公钥)
	NotifyURL    string `mapstructure:"notify_url"`    // 异步通知地址
	ReturnURL    string `mapstructure:"return_url"`    // 同步跳转地址
	IsProduction bool   `mapstructure:"is_production"` // 是否生产环境
}

type WechatPayConfig struct {
	AppID                string `mapstructure:"app_id"`
	MchID                string `mapstructure:"mch_id"`
	MchCertificateSerial string `mapstructure:"mch_cert_serial"`
	MchPrivateKey        string `mapstructure:"mch_private_key"`
	APIv3Key             string `mapstructure:"apiv3_key"`
	NotifyURL            string `mapstructure:"notify_url"`
}

type PushConfig struct {
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	AppKey          int64  `mapstructure:"app_key"`
	RegionID        string `mapstructure:"region_id"` // e.g., "cn-hangzhou"
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// IdempotencyConfig 回调去重标记
type IdempotencyConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

var GlobalConfig Config

// Validate 验证基础设施配置
// 支付渠道凭证在下单时校验，缺失不阻止启动
func (c *Config) Validate() error {
	// JWT 配置验证
	if c.JWT.Secret == "" || c.JWT.Secret == "your_super_secret_key" {
		return errors.New("please set a secure JWT secret in production")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT secret should be at least 32 characters")
	}

	switch c.Database.Driver {
	case "memory":
	case "postgres":
		if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
			return errors.New("database configuration is incomplete")
		}
	default:
		return errors.New("database driver must be postgres or memory")
	}

	if c.Checkout.Currency == "" {
		return errors.New("checkout currency is required")
	}
	if c.Checkout.ShippingFee < 0 {
		return errors.New("checkout shipping fee cannot be negative")
	}
	if c.Checkout.Precision < 0 || c.Checkout.Precision > 2 {
		return errors.New("checkout precision must be between 0 and 2")
	}

	return nil
}

// LoadConfig 加载配置
func LoadConfig() {
	// 获取环境变量，默认为dev
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}

	// 根据环境选择配置文件
	configName := "config"
	if env != "dev" {
		configName = "config." + env
	}

	viper.SetConfigName(configName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Config file not found, using defaults or env vars: %v", err)
	}

	// 绑定环境变量，server.port -> SERVER_PORT
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.Unmarshal(&GlobalConfig); err != nil {
		log.Fatalf("Unable to decode into struct: %v", err)
	}

	// 手动覆盖，以防 viper 无法正确解析复杂结构或环境变量
	if host := os.Getenv("DB_HOST"); host != "" {
		GlobalConfig.Database.Host = host
	}
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		GlobalConfig.Redis.Addr = redisAddr
	}
	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		GlobalConfig.JWT.Secret = jwtSecret
	}
	if apiKey := os.Getenv("CINETPAY_API_KEY"); apiKey != "" {
		GlobalConfig.CinetPay.APIKey = apiKey
	}

	// 验证配置
	if err := GlobalConfig.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	log.Printf("Configuration loaded and validated successfully. Environment: %s", GlobalConfig.App.Env)
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.driver", "postgres")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.timezone", "UTC")
	viper.SetDefault("jwt.expire", 24)
	viper.SetDefault("app.env", "dev")
	viper.SetDefault("app.debug", true)
	viper.SetDefault("checkout.currency", "XOF")
	viper.SetDefault("checkout.shipping_fee", 2000)
	viper.SetDefault("checkout.precision", 0)
	viper.SetDefault("cinetpay.mode", "PRODUCTION")
	viper.SetDefault("cinetpay.channels", "ALL")
	viper.SetDefault("cinetpay.api_base_url", "https://api-checkout.cinetpay.com")
	viper.SetDefault("kafka.topic", "order.status")
	viper.SetDefault("idempotency.ttl", "72h")
}
