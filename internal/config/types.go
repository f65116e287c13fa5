package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// ErrConfiguration 标记构造阶段的配置错误，出现即终止启动。
var ErrConfiguration = errors.New("configuration error")

// Errorf 生成包装 ErrConfiguration 的错误。
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// Config 聚合了系统运行所需的全部配置项。
type Config struct {
	App       AppConfig           `mapstructure:"app"`
	Exchange  ExchangeConfig      `mapstructure:"exchange"`
	Trade     TradeExchangeConfig `mapstructure:"trade_exchange"`
	Account   AccountConfig       `mapstructure:"account"`
	Strategy  StrategyConfig      `mapstructure:"strategy"`
	Director  DirectorConfig      `mapstructure:"director"`
	Execution ExecutionConfig     `mapstructure:"execution"`
	OpenAI    OpenAIConfig        `mapstructure:"openai"`
	Database  DatabaseConfig      `mapstructure:"database"`
	Logging   LoggingConfig       `mapstructure:"logging"`
	Monitor   MonitorConfig       `mapstructure:"monitor"`
}

// AppConfig 控制应用级参数。
type AppConfig struct {
	Environment string `mapstructure:"environment"`
}

// ExchangeConfig 描述行情终端连接信息。
type ExchangeConfig struct {
	Name          string        `mapstructure:"name"`
	Symbols       []string      `mapstructure:"symbols"`
	APIKey        string        `mapstructure:"api_key"`
	APISecret     string        `mapstructure:"api_secret"`
	APIPass       string        `mapstructure:"api_password"`
	UseSandbox    bool          `mapstructure:"use_sandbox"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	FXSymbolStyle string        `mapstructure:"fx_symbol_style"` // plain: EURUSD | slash: EUR/USD
}

// TradeExchangeConfig 描述执行端交易所配置。
type TradeExchangeConfig struct {
	Name       string `mapstructure:"name"`
	APIKey     string `mapstructure:"api_key"`
	APISecret  string `mapstructure:"api_secret"`
	APIPass    string `mapstructure:"api_password"`
	UseSandbox bool   `mapstructure:"use_sandbox"`
	Wallet     string `mapstructure:"wallet_address"`
	PrivateKey string `mapstructure:"private_key"`
}

// AccountConfig 描述账户层面的约定。
type AccountConfig struct {
	Currency string `mapstructure:"currency"`
}

// StrategyConfig 描述策略身份与三个可插拔环节。
type StrategyConfig struct {
	MagicNumber int64        `mapstructure:"magic_number"`
	Timeframe   string       `mapstructure:"timeframe"`
	Signal      SignalConfig `mapstructure:"signal"`
	Sizing      SizingConfig `mapstructure:"sizing"`
	Risk        RiskConfig   `mapstructure:"risk"`
}

// SignalConfig 选择信号生成方法。
type SignalConfig struct {
	Method      string            `mapstructure:"method"`
	MACrossover MACrossoverConfig `mapstructure:"ma_crossover"`
	AIAdvisor   AIAdvisorConfig   `mapstructure:"ai_advisor"`
}

// MACrossoverConfig 为均线交叉参数。
type MACrossoverConfig struct {
	FastPeriod int `mapstructure:"fast_period"`
	SlowPeriod int `mapstructure:"slow_period"`
}

// AIAdvisorConfig 为模型建议参数。
type AIAdvisorConfig struct {
	Lookback int `mapstructure:"lookback"`
}

// SizingConfig 选择仓位计算方法。
type SizingConfig struct {
	Method  string  `mapstructure:"method"`
	RiskPct float64 `mapstructure:"risk_pct"`
	Volume  float64 `mapstructure:"volume"`
}

// RiskConfig 选择组合层面的风控方法。
type RiskConfig struct {
	Method            string  `mapstructure:"method"`
	MaxLeverageFactor float64 `mapstructure:"max_leverage_factor"`
}

// DirectorConfig 控制调度循环节奏。
type DirectorConfig struct {
	SleepInterval time.Duration `mapstructure:"sleep_interval"`
}

// ExecutionConfig 控制下单行为。
type ExecutionConfig struct {
	Mode        string  `mapstructure:"mode"` // dry_run | live
	Slippage    float64 `mapstructure:"slippage"`
	TimeInForce string  `mapstructure:"time_in_force"`
}

// OpenAIConfig 描述大模型调用参数。
type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DatabaseConfig 管理数据库连接。
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	InMemory        bool          `mapstructure:"in_memory"`
}

// LoggingConfig 控制日志输出。
type LoggingConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// MonitorConfig 控制监控日志与 HTTP 接口。
type MonitorConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

const (
	ExecutionModeDryRun = "dry_run"
	ExecutionModeLive   = "live"
)

// Validate 对配置进行基本校验。策略参数的取值由各环节在构造时校验。
func (c *Config) Validate() error {
	var err error

	if c.App.Environment == "" {
		err = multierr.Append(err, errors.New("app.environment 不能为空"))
	}
	if c.Exchange.Name == "" {
		err = multierr.Append(err, errors.New("exchange.name 不能为空"))
	}
	if len(c.Exchange.Symbols) == 0 {
		err = multierr.Append(err, errors.New("exchange.symbols 至少包含一个交易品种"))
	}
	for _, s := range c.Exchange.Symbols {
		if strings.TrimSpace(s) == "" {
			err = multierr.Append(err, errors.New("exchange.symbols 不能包含空品种"))
			break
		}
	}
	if c.Exchange.PollInterval <= 0 {
		err = multierr.Append(err, errors.New("exchange.poll_interval 必须大于0"))
	}
	switch c.Exchange.FXSymbolStyle {
	case "plain", "slash":
	default:
		err = multierr.Append(err, fmt.Errorf("exchange.fx_symbol_style 取值非法: %q", c.Exchange.FXSymbolStyle))
	}
	if c.Account.Currency == "" {
		err = multierr.Append(err, errors.New("account.currency 不能为空"))
	}
	if c.Strategy.MagicNumber <= 0 {
		err = multierr.Append(err, errors.New("strategy.magic_number 必须大于0"))
	}
	if c.Strategy.Timeframe == "" {
		err = multierr.Append(err, errors.New("strategy.timeframe 不能为空"))
	}
	if c.Strategy.Signal.Method == "" {
		err = multierr.Append(err, errors.New("strategy.signal.method 不能为空"))
	}
	if c.Strategy.Sizing.Method == "" {
		err = multierr.Append(err, errors.New("strategy.sizing.method 不能为空"))
	}
	if c.Strategy.Risk.Method == "" {
		err = multierr.Append(err, errors.New("strategy.risk.method 不能为空"))
	}
	if c.Director.SleepInterval <= 0 {
		err = multierr.Append(err, errors.New("director.sleep_interval 必须大于0"))
	}
	switch c.Execution.Mode {
	case ExecutionModeDryRun:
	case ExecutionModeLive:
		if c.Trade.Name == "" {
			err = multierr.Append(err, errors.New("live 模式下 trade_exchange.name 不能为空"))
		}
		if strings.EqualFold(c.Trade.Name, "hyperliquid") && (c.Trade.Wallet == "" || c.Trade.PrivateKey == "") {
			err = multierr.Append(err, errors.New("hyperliquid 交易需要配置 wallet_address 与 private_key"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("execution.mode 取值非法: %q", c.Execution.Mode))
	}
	if c.Execution.Slippage < 0 || c.Execution.Slippage > 0.2 {
		err = multierr.Append(err, errors.New("execution.slippage 应位于[0,0.2]"))
	}
	if strings.EqualFold(c.Strategy.Signal.Method, "ai_advisor") {
		if c.OpenAI.APIKey == "" {
			err = multierr.Append(err, errors.New("ai_advisor 需要配置 openai.api_key"))
		}
		if c.OpenAI.Model == "" {
			err = multierr.Append(err, errors.New("openai.model 不能为空"))
		}
		if c.OpenAI.Timeout <= 0 {
			err = multierr.Append(err, errors.New("openai.timeout 必须大于0"))
		}
	}
	if c.Monitor.Enabled {
		if c.Database.Path == "" && !c.Database.InMemory {
			err = multierr.Append(err, errors.New("database.path 不能为空"))
		}
		if c.Database.MaxOpenConns <= 0 {
			err = multierr.Append(err, errors.New("database.max_open_conns 必须大于0"))
		}
		if c.Database.MaxIdleConns < 0 {
			err = multierr.Append(err, errors.New("database.max_idle_conns 不能为负"))
		}
		if c.Monitor.Port < 0 || c.Monitor.Port > 65535 {
			err = multierr.Append(err, errors.New("monitor.port 必须位于[0,65535]"))
		}
	}
	if c.Logging.Level == "" {
		err = multierr.Append(err, errors.New("logging.level 不能为空"))
	}
	if c.Logging.Encoding == "" {
		err = multierr.Append(err, errors.New("logging.encoding 不能为空"))
	}
	if len(c.Logging.OutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.output_paths 至少包含一个输出目标"))
	}
	if len(c.Logging.ErrorOutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.error_output_paths 至少包含一个输出目标"))
	}

	if err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	return nil
}
