package monitor

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"trades-director/internal/events"
	"trades-director/internal/store"
)

// Service 负责持久化流水线事件。
type Service struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewService 初始化监控服务，创建所需表结构。
func NewService(store *store.Store, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("monitor: store 不能为空")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		db:     store.DB(),
		logger: logger,
	}

	if err := s.initSchema(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Service) initSchema() error {
	stmt := `
CREATE TABLE IF NOT EXISTS monitor_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	event_type TEXT NOT NULL,
	symbol TEXT NOT NULL DEFAULT '',
	payload TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_monitor_events_type ON monitor_events(event_type);
CREATE INDEX IF NOT EXISTS idx_monitor_events_symbol ON monitor_events(symbol);
`
	if _, err := s.db.Exec(stmt); err != nil {
		return fmt.Errorf("monitor: 初始化表失败: %w", err)
	}
	return nil
}

// Record 写入单个事件。
func (s *Service) Record(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("monitor: 序列化事件失败: %w", err)
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO monitor_events (event_type, symbol, payload, created_at) VALUES (?, ?, ?, ?)`,
		string(event.Type), event.Symbol, string(payload), event.Timestamp.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("monitor: 写入事件失败: %w", err)
	}

	return nil
}

// RecordPipeline 记录一次事件分发。
func (s *Service) RecordPipeline(ctx context.Context, e events.Event) {
	if err := s.Record(ctx, Event{
		Type:    TypeOf(e),
		Symbol:  e.GetSymbol(),
		Payload: e,
	}); err != nil {
		s.logger.Warn("记录流水线事件失败", zap.String("type", string(e.GetType())), zap.Error(err))
	}
}

// RecordRejection 记录环节拒绝。
func (s *Service) RecordRejection(ctx context.Context, stage, symbol, reason string) {
	if err := s.Record(ctx, Event{
		Type:    EventRejection,
		Symbol:  symbol,
		Payload: RejectionPayload{Stage: stage, Reason: reason},
	}); err != nil {
		s.logger.Warn("记录拒绝事件失败", zap.String("stage", stage), zap.Error(err))
	}
}

// RecordExecution 记录订单执行。
func (s *Service) RecordExecution(ctx context.Context, payload ExecutionPayload) {
	if err := s.Record(ctx, Event{
		Type:    EventExecution,
		Symbol:  payload.Order.Symbol,
		Payload: payload,
	}); err != nil {
		s.logger.Warn("记录执行事件失败", zap.Error(err))
	}
}

// RecordError 记录异常。
func (s *Service) RecordError(ctx context.Context, msg string, err error, ctxMap map[string]interface{}) {
	payload := ErrorPayload{
		Message: msg,
		Context: ctxMap,
	}
	if err != nil {
		payload.Error = err.Error()
	}
	if recErr := s.Record(ctx, Event{
		Type:    EventError,
		Payload: payload,
	}); recErr != nil {
		s.logger.Warn("记录异常事件失败", zap.Error(recErr))
	}
}

// Query 为事件检索条件，空字段表示不过滤。
type Query struct {
	Type   EventType
	Symbol string
	Limit  int
}

// ListEvents 按条件检索最近事件，最新的在前。
func (s *Service) ListEvents(ctx context.Context, q Query) ([]Event, error) {
	if q.Limit <= 0 {
		q.Limit = 100
	}

	query := `SELECT event_type, symbol, payload, created_at FROM monitor_events WHERE 1=1`
	args := make([]interface{}, 0, 3)
	if q.Type != "" {
		query += ` AND event_type = ?`
		args = append(args, string(q.Type))
	}
	if q.Symbol != "" {
		query += ` AND symbol = ?`
		args = append(args, q.Symbol)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, q.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("monitor: 查询事件失败: %w", err)
	}
	defer rows.Close()

	result := make([]Event, 0, q.Limit)
	for rows.Next() {
		var (
			typ     string
			symbol  string
			payload string
			created string
		)
		if scanErr := rows.Scan(&typ, &symbol, &payload, &created); scanErr != nil {
			return nil, fmt.Errorf("monitor: 解析事件失败: %w", scanErr)
		}

		ts, parseErr := time.Parse(time.RFC3339Nano, created)
		if parseErr != nil {
			ts = time.Now().UTC()
		}

		result = append(result, Event{
			Type:      EventType(typ),
			Symbol:    symbol,
			Timestamp: ts,
			Payload:   json.RawMessage(payload),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("monitor: 读取事件失败: %w", err)
	}

	return result, nil
}
