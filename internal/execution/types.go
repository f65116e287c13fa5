package execution

import (
	"context"
	"time"

	"trades-director/internal/events"
	"trades-director/internal/monitor"
)

// Sink 消费流水线产出的订单。
type Sink interface {
	Execute(ctx context.Context, order events.OrderEvent) error
}

// Journal 记录执行结果。
type Journal interface {
	RecordExecution(ctx context.Context, payload monitor.ExecutionPayload)
}

// Options 控制下单参数。
type Options struct {
	Slippage    float64
	TimeInForce string
	MaxRetry    int
	RetryWait   time.Duration
}

// OrderRequest 为提交给交易所的具体委托。
type OrderRequest struct {
	Type        string // market | limit
	Side        string // buy | sell
	Symbol      string
	Amount      float64
	Price       float64
	ClientOrder string
	Params      map[string]interface{}
}
