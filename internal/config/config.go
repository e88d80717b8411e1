package config

import (
	"log"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	viper "github.com/spf13/viper"
)

/*
把init config跟read config分開
init : 需要設置viper watch 與 onConfigChange
read : 一般讀取 需要使用讀寫鎖
*/
var config_singleton *ConfigSingleTon
var muonce sync.Once

type ConfigSingleTon struct {
	Config *Config
	mu     sync.RWMutex
}

type Config struct {
	ModulerName string `mapstructure:"MODULER_NAME"`
	ServerPort  string `mapstructure:"SERVER_PORT"`
	Environment string `mapstructure:"ENVIRONMENT"`
	FrontendURL string `mapstructure:"FRONTEND_URL"`
	AssetDir    string `mapstructure:"ASSET_DIR"`

	DbName string `mapstructure:"POSTGRES_DB"`
	DbHost string `mapstructure:"POSTGRES_HOST"`
	DbPort string `mapstructure:"POSTGRES_PORT"`
	DbUser string `mapstructure:"POSTGRES_USER"`
	DbPas  string `mapstructure:"POSTGRES_PASSWORD"`

	RedisHost string `mapstructure:"REDIS_HOST"`
	RedisPort string `mapstructure:"REDIS_PORT"`
	RedisPas  string `mapstructure:"REDIS_PASSWORD"`

	KafkaBrokers    string `mapstructure:"KAFKA_BROKERS"`
	OrderEventTopic string `mapstructure:"ORDER_EVENT_TOPIC"`

	GoogleClientID string `mapstructure:"GOOGLE_CLIENT_ID"`
	AuthTokenKey   string `mapstructure:"AUTH_TOKEN_KEY"`

	StripeSecretKey     string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`

	SendcloudPublicKey string `mapstructure:"SENDCLOUD_PUBLIC_KEY"`
	SendcloudSecretKey string `mapstructure:"SENDCLOUD_SECRET_KEY"`
	ShippoToken        string `mapstructure:"SHIPPO_TOKEN"`
	CarrierAllowlist   string `mapstructure:"SHIPPING_CARRIER_ALLOWLIST"`
	SenderStreet       string `mapstructure:"SENDER_STREET"`
	SenderCity         string `mapstructure:"SENDER_CITY"`
	SenderPostalCode   string `mapstructure:"SENDER_POSTAL_CODE"`
	SenderCountry      string `mapstructure:"SENDER_COUNTRY"`

	SmtpHost     string `mapstructure:"SMTP_HOST"`
	SmtpPort     string `mapstructure:"SMTP_PORT"`
	SmtpAuthKey  string `mapstructure:"SMTP_AUTH_KEY"`
	EmailAccount string `mapstructure:"EMAIL_ACCOUNT"`
	EmailSender  string `mapstructure:"EMAIL_SENDER"`
}

// Carriers 解析允許的貨運商代碼清單
func (c *Config) Carriers() []string {
	if c.CarrierAllowlist == "" {
		return []string{"dhl", "dpd", "hermes", "gls", "deutsche_post"}
	}
	parts := strings.Split(c.CarrierAllowlist, ",")
	carriers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(strings.ToLower(p)); p != "" {
			carriers = append(carriers, p)
		}
	}
	return carriers
}

func GetConfig() *Config {
	initConfig()
	config_singleton.mu.RLock()
	defer config_singleton.mu.RUnlock()
	return config_singleton.Config
}

func initConfig() {
	if config_singleton == nil {
		muonce.Do(func() {
			config_singleton = &ConfigSingleTon{}
			if cf, err := loadConfig(); err == nil {
				config_singleton.Config = cf
			} else {
				log.Fatal("error read config")
			}
			viper.WatchConfig()
			viper.OnConfigChange(func(e fsnotify.Event) {
				if cf, err := loadConfig(); err == nil {
					config_singleton.Config = cf
				} else {
					log.Panic("failed to reload config file")
				}
			})
		})
	}
}

/*
單純回傳錯誤 由外部決定要不要Fatal, 畢竟有可能有替代方案
*/
func loadConfig() (cf *Config, err error) {
	config_singleton.mu.Lock()
	defer config_singleton.mu.Unlock()

	cf = &Config{}
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = ".env"
	}
	viper.SetConfigFile(path)
	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(cf)
	if err != nil {
		return
	}
	return
}
