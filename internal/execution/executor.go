package execution

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ccxt "github.com/ccxt/ccxt/go/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"trades-director/internal/config"
	"trades-director/internal/events"
	"trades-director/internal/exchange"
	"trades-director/internal/monitor"
)

var (
	_ Sink = (*Executor)(nil)
	_ Sink = (*DryRun)(nil)
)

// Executor 将 ORDER 事件提交到交易所。
type Executor struct {
	client  exchange.OrderAPI
	journal Journal
	logger  *zap.Logger
	opts    Options
}

// NewExecutor 创建实盘执行器。
func NewExecutor(client exchange.OrderAPI, opts Options, journal Journal, logger *zap.Logger) (*Executor, error) {
	if client == nil {
		return nil, errors.New("execution: 下单客户端不能为空")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxRetry <= 0 {
		opts.MaxRetry = 3
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = time.Second
	}
	return &Executor{
		client:  client,
		journal: journal,
		logger:  logger,
		opts:    opts,
	}, nil
}

// Execute 构造委托并提交，失败时只重试网络类错误。
func (e *Executor) Execute(ctx context.Context, order events.OrderEvent) error {
	req, err := buildOrderRequest(order, e.opts)
	if err != nil {
		e.record(ctx, order, "", err)
		return err
	}

	err = e.submitOrder(ctx, req)
	e.record(ctx, order, req.ClientOrder, err)
	if err != nil {
		return err
	}

	e.logger.Info("订单已提交",
		zap.String("symbol", req.Symbol),
		zap.String("side", req.Side),
		zap.String("type", req.Type),
		zap.Float64("amount", req.Amount),
		zap.String("client_order_id", req.ClientOrder),
	)
	return nil
}

func (e *Executor) record(ctx context.Context, order events.OrderEvent, clientID string, err error) {
	if e.journal == nil {
		return
	}
	payload := monitor.ExecutionPayload{
		Order:    order,
		Mode:     config.ExecutionModeLive,
		ClientID: clientID,
	}
	if err != nil {
		payload.Error = err.Error()
	}
	e.journal.RecordExecution(ctx, payload)
}

func (e *Executor) submitOrder(ctx context.Context, order OrderRequest) error {
	var err error
	for attempt := 1; attempt <= e.opts.MaxRetry; attempt++ {
		switch order.Type {
		case "market":
			var opts []ccxt.CreateMarketOrderOptions
			if len(order.Params) > 0 {
				opts = append(opts, ccxt.WithCreateMarketOrderParams(order.Params))
			}
			_, err = e.client.CreateMarketOrder(order.Symbol, order.Side, order.Amount, opts...)
		case "limit":
			var opts []ccxt.CreateLimitOrderOptions
			if len(order.Params) > 0 {
				opts = append(opts, ccxt.WithCreateLimitOrderParams(order.Params))
			}
			_, err = e.client.CreateLimitOrder(order.Symbol, order.Side, order.Amount, order.Price, opts...)
		default:
			return fmt.Errorf("execution: 不支持的订单类型 %s", order.Type)
		}

		if err == nil {
			return nil
		}

		if !exchange.IsRetryable(err) {
			return fmt.Errorf("execution: 下单失败: %w", err)
		}

		if attempt == e.opts.MaxRetry {
			break
		}

		wait := time.Duration(attempt) * e.opts.RetryWait
		e.logger.Warn("下单失败，准备重试",
			zap.String("symbol", order.Symbol),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return fmt.Errorf("execution: 重试后仍下单失败: %w", err)
}

func formatSlippage(value float64) string {
	return fmt.Sprintf("%.6f", value)
}

// newClientOrderID 生成 0x 前缀的 128 位十六进制编号。
func newClientOrderID() string {
	id := uuid.New()
	return "0x" + strings.ReplaceAll(id.String(), "-", "")
}

func buildOrderRequest(order events.OrderEvent, opts Options) (OrderRequest, error) {
	if order.Volume <= 0 {
		return OrderRequest{}, fmt.Errorf("execution: 下单手数无效 volume=%f", order.Volume)
	}

	side := "buy"
	if order.Signal == events.SideSell {
		side = "sell"
	}

	req := OrderRequest{
		Type:        "market",
		Side:        side,
		Symbol:      order.Symbol,
		Amount:      order.Volume,
		ClientOrder: newClientOrderID(),
	}

	params := map[string]interface{}{
		"clientOrderId": req.ClientOrder,
	}
	if order.SL > 0 {
		params["stopLossPrice"] = order.SL
	}
	if order.TP > 0 {
		params["takeProfitPrice"] = order.TP
	}
	if opts.TimeInForce != "" {
		params["timeInForce"] = strings.ToLower(opts.TimeInForce)
	}

	switch order.TargetOrder {
	case events.OrderMarket:
		if opts.Slippage > 0 {
			params["slippage"] = formatSlippage(opts.Slippage)
		}
	case events.OrderLimit:
		req.Type = "limit"
		req.Price = order.TargetPrice
	case events.OrderStop:
		req.Price = order.TargetPrice
		params["triggerPrice"] = order.TargetPrice
		if opts.Slippage > 0 {
			params["slippage"] = formatSlippage(opts.Slippage)
		}
	default:
		return OrderRequest{}, fmt.Errorf("execution: 不支持的目标订单 %s", order.TargetOrder)
	}

	req.Params = params
	return req, nil
}
