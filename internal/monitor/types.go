package monitor

import (
	"strings"
	"time"

	"trades-director/internal/events"
)

// EventType 表示监控事件类型。
type EventType string

const (
	EventData      EventType = "data"
	EventSignal    EventType = "signal"
	EventSizing    EventType = "sizing"
	EventOrder     EventType = "order"
	EventRejection EventType = "rejection"
	EventExecution EventType = "execution"
	EventError     EventType = "error"
)

// TypeOf 返回流水线事件对应的监控类型。
func TypeOf(e events.Event) EventType {
	return EventType(strings.ToLower(string(e.GetType())))
}

// Event 封装通用监控事件。
type Event struct {
	Type      EventType   `json:"type"`
	Symbol    string      `json:"symbol,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RejectionPayload 记录某环节放弃交易的原因。
type RejectionPayload struct {
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

// ExecutionPayload 记录订单执行结果。
type ExecutionPayload struct {
	Order    events.OrderEvent `json:"order"`
	Mode     string            `json:"mode"`
	ClientID string            `json:"client_order_id,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// ErrorPayload 记录异常。
type ErrorPayload struct {
	Message string                 `json:"message"`
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}
