package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const configFilePathENV = "CONFIG_FILE"

// Config ...
type Config struct {
	Kiwoom struct {
		AppKey     string `mapstructure:"app_key"`
		AppSecret  string `mapstructure:"app_secret"`
		BaseURL    string `mapstructure:"base_url"`
		WSSURL     string `mapstructure:"wss_url"`
		CandlePath string `mapstructure:"candle_path"`
	} `mapstructure:"kiwoom"`

	DB string `mapstructure:"db_dsn"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Telegram struct {
		Token  string `mapstructure:"token"`
		ChatID int64  `mapstructure:"chat_id"`
	} `mapstructure:"telegram"`

	Jaeger struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	} `mapstructure:"jaeger"`

	Service struct {
		Host       string `mapstructure:"host"`
		PublicPort int    `mapstructure:"public_port"`
		AdminPort  int    `mapstructure:"admin_port"`
	} `mapstructure:"service"`

	Scan struct {
		// Время запуска по локальным часам, "ЧЧ:ММ"
		Time string `mapstructure:"time"`
		// Сколько дневных свечей тянем на инструмент
		CandleLookback int `mapstructure:"candle_lookback"`
		// Потолок кандидатов на канал: лишние отбрасываются, не в очередь
		MaxCandidates  int           `mapstructure:"max_candidates"`
		ChannelRetries int           `mapstructure:"channel_retries"`
		SettleDelay    time.Duration `mapstructure:"settle_delay"`
		PageTimeout    time.Duration `mapstructure:"page_timeout"`
		System1Keyword string        `mapstructure:"system1_keyword"`
		System2Keyword string        `mapstructure:"system2_keyword"`
	} `mapstructure:"scan"`
}

func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// env-алиасы для секретов, имена как у брокера
	_ = v.BindEnv("kiwoom.app_key", "KIWOOM_APP_KEY")
	_ = v.BindEnv("kiwoom.app_secret", "KIWOOM_APP_SECRET")
	_ = v.BindEnv("db_dsn", "DATABASE_DSN")
	_ = v.BindEnv("telegram.token", "TELEGRAM_TOKEN")
	_ = v.BindEnv("telegram.chat_id", "TELEGRAM_CHAT_ID")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	v.SetConfigFile("configs/" + configFileName)
	if err := v.ReadInConfig(); err != nil {
		// файла может не быть: работаем на дефолтах + env
		if _, ok := err.(*os.PathError); !ok {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return nil, err
			}
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("kiwoom.base_url", "https://api.kiwoom.com")
	v.SetDefault("kiwoom.wss_url", "wss://api.kiwoom.com:10000")
	v.SetDefault("kiwoom.candle_path", "/api/dostk/chart")

	v.SetDefault("service.host", "0.0.0.0")
	v.SetDefault("service.public_port", 8000)
	v.SetDefault("service.admin_port", 8080)

	v.SetDefault("scan.time", "16:00")
	v.SetDefault("scan.candle_lookback", 60)
	v.SetDefault("scan.max_candidates", 50)
	v.SetDefault("scan.channel_retries", 2)
	v.SetDefault("scan.settle_delay", time.Second)
	v.SetDefault("scan.page_timeout", 30*time.Second)
	v.SetDefault("scan.system1_keyword", "system 1")
	v.SetDefault("scan.system2_keyword", "system 2")

	v.SetDefault("jaeger.port", 6831)
}
