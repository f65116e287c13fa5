package exchange

import (
	"context"
	"errors"
	"fmt"
	"strings"

	ccxt "github.com/ccxt/ccxt/go/v4"
)

var (
	// ErrUnavailable 表示查询没有拿到可用数据，调用方按“不交易”处理。
	ErrUnavailable = errors.New("exchange data unavailable")
	// ErrMaintenance 表示交易所处于维护状态，需要上层跳过交易。
	ErrMaintenance = errors.New("exchange on maintenance")
)

// IsUnavailable 判断错误是否属于数据不可用。
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsRetryable 判断下单错误是否值得重试，仅网络与限频类错误返回 true。
func IsRetryable(err error) bool {
	var ccxtErr *ccxt.Error
	if !errors.As(err, &ccxtErr) {
		return false
	}
	switch ccxtErr.Type {
	case ccxt.NetworkErrorErrType,
		ccxt.RequestTimeoutErrType,
		ccxt.ExchangeNotAvailableErrType,
		ccxt.RateLimitExceededErrType,
		ccxt.DDoSProtectionErrType:
		return true
	default:
		return false
	}
}

func unavailable(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrUnavailable, fmt.Sprintf(format, args...))
}

// classifyError 将底层错误统一归入 ErrUnavailable，维护状态额外标记 ErrMaintenance。
func classifyError(operation string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, ErrUnavailable) {
		return fmt.Errorf("exchange: %s: %w", operation, err)
	}

	var ccxtErr *ccxt.Error
	if errors.As(err, &ccxtErr) && ccxtErr.Type == ccxt.OnMaintenanceErrType {
		message := strings.TrimSpace(ccxtErr.Message)
		if message == "" {
			message = "exchange under maintenance"
		}
		return fmt.Errorf("exchange: %s: %w: %w: %s", operation, ErrUnavailable, ErrMaintenance, message)
	}

	return fmt.Errorf("exchange: %s: %w: %w", operation, ErrUnavailable, err)
}

// guard 执行一次底层调用，把 SDK 内部 panic 转成错误。
func guard(operation string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during %s: %v", operation, r)
		}
	}()
	return fn()
}
