package execution

import (
	"context"

	"go.uber.org/zap"

	"trades-director/internal/config"
	"trades-director/internal/events"
	"trades-director/internal/monitor"
)

// DryRun 只记录订单，不与交易所交互。
type DryRun struct {
	opts    Options
	journal Journal
	logger  *zap.Logger
}

// NewDryRun 创建模拟执行器。
func NewDryRun(opts Options, journal Journal, logger *zap.Logger) *DryRun {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DryRun{opts: opts, journal: journal, logger: logger}
}

// Execute 构造委托并记录，构造失败时返回错误。
func (d *DryRun) Execute(ctx context.Context, order events.OrderEvent) error {
	req, err := buildOrderRequest(order, d.opts)
	payload := monitor.ExecutionPayload{
		Order: order,
		Mode:  config.ExecutionModeDryRun,
	}
	if err != nil {
		payload.Error = err.Error()
	} else {
		payload.ClientID = req.ClientOrder
	}
	if d.journal != nil {
		d.journal.RecordExecution(ctx, payload)
	}
	if err != nil {
		return err
	}

	d.logger.Info("模拟下单",
		zap.String("symbol", req.Symbol),
		zap.String("side", req.Side),
		zap.String("type", req.Type),
		zap.Float64("amount", req.Amount),
		zap.Float64("price", req.Price),
		zap.Any("params", req.Params),
	)
	return nil
}
