// Package director 驱动事件流水线：从队列逐个取出事件并分发到对应环节，
// 队列为空时轮询行情。
package director

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"trades-director/internal/events"
)

// DefaultSleepInterval 为每轮循环的固定休眠。
const DefaultSleepInterval = 10 * time.Millisecond

// State 表示调度器状态。
type State string

const (
	StateRunning State = "RUNNING"
	StateStopped State = "STOPPED"
)

// Queue 为调度器消费的事件队列。
type Queue interface {
	TryDequeue() (events.Event, bool)
	Len() int
}

// DataSource 在队列空闲时被调用，负责投递新的 DATA 事件。
type DataSource interface {
	CheckForNewData(ctx context.Context) int
}

type SignalHandler interface {
	GenerateSignal(ctx context.Context, event events.DataEvent) (events.SignalEvent, bool)
}

type SizingHandler interface {
	SizeSignal(ctx context.Context, signal events.SignalEvent) events.Verdict
}

type RiskHandler interface {
	AssessOrder(ctx context.Context, sizing events.SizingEvent) events.Verdict
}

// OrderSink 接收流水线终点的订单，可为空。
type OrderSink interface {
	Execute(ctx context.Context, order events.OrderEvent) error
}

// Metrics 记录流水线计数。
type Metrics interface {
	Dispatched(e events.Event)
	Rejected(stage, symbol, reason string)
	Polled(emitted int)
	QueueDepth(n int)
}

// Journal 持久化分发过的事件与拒绝记录。
type Journal interface {
	RecordPipeline(ctx context.Context, e events.Event)
	RecordRejection(ctx context.Context, stage, symbol, reason string)
}

// Stages 为四个环节的处理方。
type Stages struct {
	Data   DataSource
	Signal SignalHandler
	Sizing SizingHandler
	Risk   RiskHandler
}

// Options 为可选协作方。
type Options struct {
	SleepInterval time.Duration
	Orders        OrderSink
	Metrics       Metrics
	Journal       Journal
}

type handler func(ctx context.Context, e events.Event)

// Director 为单线程调度循环。
type Director struct {
	queue    Queue
	stages   Stages
	opts     Options
	handlers map[events.Type]handler
	stopped  atomic.Bool
	logger   *zap.Logger
}

// New 创建调度器，四个环节缺一不可。
func New(queue Queue, stages Stages, opts Options, logger *zap.Logger) (*Director, error) {
	if queue == nil {
		return nil, errors.New("director: queue 不能为空")
	}
	if stages.Data == nil || stages.Signal == nil || stages.Sizing == nil || stages.Risk == nil {
		return nil, errors.New("director: 流水线环节未配置完整")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SleepInterval <= 0 {
		opts.SleepInterval = DefaultSleepInterval
	}

	d := &Director{
		queue:  queue,
		stages: stages,
		opts:   opts,
		logger: logger,
	}
	d.handlers = map[events.Type]handler{
		events.TypeData:   d.handleData,
		events.TypeSignal: d.handleSignal,
		events.TypeSizing: d.handleSizing,
		events.TypeOrder:  d.handleOrder,
	}
	return d, nil
}

// State 返回当前状态。
func (d *Director) State() State {
	if d.stopped.Load() {
		return StateStopped
	}
	return StateRunning
}

// Run 执行调度循环，仅在取到停机哨兵后返回。
func (d *Director) Run(ctx context.Context) error {
	if d.stopped.Load() {
		return errors.New("director: 调度器已停止")
	}

	d.logger.Info("调度器启动", zap.Duration("sleep_interval", d.opts.SleepInterval))

	for !d.stopped.Load() {
		d.Step(ctx)
		time.Sleep(d.opts.SleepInterval)
	}

	d.logger.Info("调度器已停止")
	return nil
}

// Step 执行一轮循环体，不包含休眠。
func (d *Director) Step(ctx context.Context) {
	event, ok := d.queue.TryDequeue()
	if d.opts.Metrics != nil {
		d.opts.Metrics.QueueDepth(d.queue.Len())
	}

	if !ok {
		emitted := d.stages.Data.CheckForNewData(ctx)
		if d.opts.Metrics != nil {
			d.opts.Metrics.Polled(emitted)
		}
		return
	}

	if event == nil {
		d.stopped.Store(true)
		d.logger.Info("收到停机哨兵，调度器进入 STOPPED")
		return
	}

	d.dispatch(ctx, event)
}

func (d *Director) dispatch(ctx context.Context, event events.Event) {
	h, ok := d.handlers[event.GetType()]
	if !ok {
		d.logger.Error("未知事件类型", zap.String("type", string(event.GetType())))
		return
	}

	if d.opts.Metrics != nil {
		d.opts.Metrics.Dispatched(event)
	}
	if d.opts.Journal != nil {
		d.opts.Journal.RecordPipeline(ctx, event)
	}

	h(ctx, event)
}

func (d *Director) handleData(ctx context.Context, e events.Event) {
	data, ok := e.(events.DataEvent)
	if !ok {
		d.mismatch(e)
		return
	}
	d.logger.Info(fmt.Sprintf("收到 %s 新K线", data.Symbol),
		zap.String("symbol", data.Symbol),
		zap.Time("bar_time", data.Data.Timestamp),
		zap.Float64("close", data.Data.Close),
	)
	d.stages.Signal.GenerateSignal(ctx, data)
}

func (d *Director) handleSignal(ctx context.Context, e events.Event) {
	signal, ok := e.(events.SignalEvent)
	if !ok {
		d.mismatch(e)
		return
	}
	d.logger.Info(fmt.Sprintf("收到 %s %s 信号", signal.Symbol, signal.Signal),
		zap.String("symbol", signal.Symbol),
		zap.String("signal", string(signal.Signal)),
		zap.String("target_order", string(signal.TargetOrder)),
	)
	if verdict := d.stages.Sizing.SizeSignal(ctx, signal); !verdict.Accepted() {
		d.rejected(ctx, "sizing", signal.Symbol, verdict.Reason)
	}
}

func (d *Director) handleSizing(ctx context.Context, e events.Event) {
	sizing, ok := e.(events.SizingEvent)
	if !ok {
		d.mismatch(e)
		return
	}
	d.logger.Info(fmt.Sprintf("收到 %s 仓位 %.2f 手", sizing.Symbol, sizing.Volume),
		zap.String("symbol", sizing.Symbol),
		zap.String("signal", string(sizing.Signal)),
		zap.Float64("volume", sizing.Volume),
	)
	if verdict := d.stages.Risk.AssessOrder(ctx, sizing); !verdict.Accepted() {
		d.rejected(ctx, "risk", sizing.Symbol, verdict.Reason)
	}
}

func (d *Director) handleOrder(ctx context.Context, e events.Event) {
	order, ok := e.(events.OrderEvent)
	if !ok {
		d.mismatch(e)
		return
	}
	d.logger.Info(fmt.Sprintf("收到 %s %s 订单 %.2f 手", order.Symbol, order.Signal, order.Volume),
		zap.String("symbol", order.Symbol),
		zap.String("signal", string(order.Signal)),
		zap.String("target_order", string(order.TargetOrder)),
		zap.Float64("volume", order.Volume),
	)
	if d.opts.Orders == nil {
		return
	}
	if err := d.opts.Orders.Execute(ctx, order); err != nil {
		d.logger.Error("订单执行失败", zap.String("symbol", order.Symbol), zap.Error(err))
	}
}

func (d *Director) rejected(ctx context.Context, stage, symbol, reason string) {
	if d.opts.Metrics != nil {
		d.opts.Metrics.Rejected(stage, symbol, reason)
	}
	if d.opts.Journal != nil {
		d.opts.Journal.RecordRejection(ctx, stage, symbol, reason)
	}
}

func (d *Director) mismatch(e events.Event) {
	d.logger.Error("事件类型与载荷不一致",
		zap.String("type", string(e.GetType())),
		zap.String("go_type", fmt.Sprintf("%T", e)),
	)
}
