package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultConfigPath = "configs/config.yaml"
	envPrefix         = "trades"
)

// LoadEnvFile 将 .env 中的凭证载入进程环境，文件不存在时静默跳过。
// 已存在的环境变量不会被覆盖。
func LoadEnvFile(path string) error {
	var err error
	if path == "" {
		err = godotenv.Load()
	} else {
		err = godotenv.Load(path)
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("加载 .env 文件失败: %w", err)
	}
	return nil
}

// Load 读取配置文件并结合环境变量返回 Config。
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		path = defaultConfigPath
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	replacer := strings.NewReplacer(".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("未找到配置文件 %q: %w", path, err)
		}
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "development")

	v.SetDefault("exchange.name", "binanceusdm")
	v.SetDefault("exchange.symbols", []string{"BTC/USDT:USDT"})
	v.SetDefault("exchange.api_key", "")
	v.SetDefault("exchange.api_secret", "")
	v.SetDefault("exchange.api_password", "")
	v.SetDefault("exchange.use_sandbox", false)
	v.SetDefault("exchange.poll_interval", "1s")
	v.SetDefault("exchange.fx_symbol_style", "slash")

	v.SetDefault("trade_exchange.name", "hyperliquid")
	v.SetDefault("trade_exchange.api_key", "")
	v.SetDefault("trade_exchange.api_secret", "")
	v.SetDefault("trade_exchange.api_password", "")
	v.SetDefault("trade_exchange.use_sandbox", true)
	v.SetDefault("trade_exchange.wallet_address", "")
	v.SetDefault("trade_exchange.private_key", "")

	v.SetDefault("account.currency", "USDT")

	v.SetDefault("strategy.magic_number", 12345)
	v.SetDefault("strategy.timeframe", "1m")
	v.SetDefault("strategy.signal.method", "ma_crossover")
	v.SetDefault("strategy.signal.ma_crossover.fast_period", 5)
	v.SetDefault("strategy.signal.ma_crossover.slow_period", 10)
	v.SetDefault("strategy.signal.ai_advisor.lookback", 60)
	v.SetDefault("strategy.sizing.method", "min_size")
	v.SetDefault("strategy.sizing.risk_pct", 0.01)
	v.SetDefault("strategy.sizing.volume", 0.01)
	v.SetDefault("strategy.risk.method", "max_leverage_factor")
	v.SetDefault("strategy.risk.max_leverage_factor", 5.0)

	v.SetDefault("director.sleep_interval", "10ms")

	v.SetDefault("execution.mode", ExecutionModeDryRun)
	v.SetDefault("execution.slippage", 0.01)

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4.1")
	v.SetDefault("openai.timeout", "15s")

	v.SetDefault("database.path", "data/trades_director.db")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 4)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.in_memory", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.encoding", "console")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.output_paths", []string{"stdout"})
	v.SetDefault("logging.error_output_paths", []string{"stderr"})

	v.SetDefault("monitor.enabled", true)
	v.SetDefault("monitor.port", 9108)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
