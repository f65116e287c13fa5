// Package events 定义流水线中流转的事件与承载它们的 FIFO 队列。
package events

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Type 是事件的判别字段。
type Type string

const (
	TypeData   Type = "DATA"
	TypeSignal Type = "SIGNAL"
	TypeSizing Type = "SIZING"
	TypeOrder  Type = "ORDER"
)

// Side 表示交易方向。
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderType 表示目标订单类型。
type OrderType string

const (
	OrderMarket OrderType = "MARKET"
	OrderLimit  OrderType = "LIMIT"
	OrderStop   OrderType = "STOP"
)

// ErrInvalidEvent 表示事件字段不满足构造约束。
var ErrInvalidEvent = errors.New("invalid event")

// Event 为所有流水线事件的公共接口。
type Event interface {
	GetType() Type
	GetSymbol() string
}

// Bar 为一根已收盘的K线。
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// DataEvent 携带某品种最新收盘的K线。
type DataEvent struct {
	Symbol string `json:"symbol"`
	Data   Bar    `json:"data"`
}

func (DataEvent) GetType() Type       { return TypeData }
func (e DataEvent) GetSymbol() string { return e.Symbol }

// NewDataEvent 构造 DataEvent。
func NewDataEvent(symbol string, bar Bar) (DataEvent, error) {
	if strings.TrimSpace(symbol) == "" {
		return DataEvent{}, fmt.Errorf("%w: symbol 不能为空", ErrInvalidEvent)
	}
	return DataEvent{Symbol: symbol, Data: bar}, nil
}

// Intent 是 SIGNAL、SIZING、ORDER 三类事件共享的交易意图字段。
type Intent struct {
	Symbol      string    `json:"symbol"`
	Signal      Side      `json:"signal"`
	TargetOrder OrderType `json:"target_order"`
	TargetPrice float64   `json:"target_price"`
	MagicNumber int64     `json:"magic_number"`
	SL          float64   `json:"sl"`
	TP          float64   `json:"tp"`
}

func (i Intent) GetSymbol() string { return i.Symbol }

// IsPending 判断是否为挂单（限价或止损单）。
func (i Intent) IsPending() bool {
	return i.TargetOrder != OrderMarket
}

func (i Intent) validate() error {
	if strings.TrimSpace(i.Symbol) == "" {
		return fmt.Errorf("%w: symbol 不能为空", ErrInvalidEvent)
	}
	switch i.Signal {
	case SideBuy, SideSell:
	default:
		return fmt.Errorf("%w: signal 取值非法: %q", ErrInvalidEvent, i.Signal)
	}
	switch i.TargetOrder {
	case OrderMarket:
	case OrderLimit, OrderStop:
		if i.TargetPrice <= 0 {
			return fmt.Errorf("%w: %s 订单需要正的 target_price，当前为 %f", ErrInvalidEvent, i.TargetOrder, i.TargetPrice)
		}
	default:
		return fmt.Errorf("%w: target_order 取值非法: %q", ErrInvalidEvent, i.TargetOrder)
	}
	if i.SL < 0 || i.TP < 0 {
		return fmt.Errorf("%w: sl/tp 不能为负", ErrInvalidEvent)
	}
	return nil
}

// SignalEvent 由信号生成器产生。
type SignalEvent struct {
	Intent
}

func (SignalEvent) GetType() Type { return TypeSignal }

// NewSignalEvent 校验交易意图并构造 SignalEvent。
func NewSignalEvent(intent Intent) (SignalEvent, error) {
	if err := intent.validate(); err != nil {
		return SignalEvent{}, err
	}
	return SignalEvent{Intent: intent}, nil
}

// SizingEvent 在信号之上附加手数。
type SizingEvent struct {
	Intent
	Volume float64 `json:"volume"`
}

func (SizingEvent) GetType() Type { return TypeSizing }

// Sized 由信号派生 SizingEvent，手数必须为正。
func (e SignalEvent) Sized(volume float64) (SizingEvent, error) {
	if volume <= 0 {
		return SizingEvent{}, fmt.Errorf("%w: volume 必须大于0，当前为 %f", ErrInvalidEvent, volume)
	}
	return SizingEvent{Intent: e.Intent, Volume: volume}, nil
}

// OrderEvent 为核心流水线的终点，交给外部执行模块。
type OrderEvent struct {
	Intent
	Volume float64 `json:"volume"`
}

func (OrderEvent) GetType() Type { return TypeOrder }

// ToOrder 用风控调整后的手数派生 OrderEvent。
func (e SizingEvent) ToOrder(volume float64) (OrderEvent, error) {
	if volume <= 0 {
		return OrderEvent{}, fmt.Errorf("%w: volume 必须大于0，当前为 %f", ErrInvalidEvent, volume)
	}
	return OrderEvent{Intent: e.Intent, Volume: volume}, nil
}
