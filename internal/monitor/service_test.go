package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trades-director/internal/config"
	"trades-director/internal/events"
	"trades-director/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := store.NewSQLite(config.DatabaseConfig{InMemory: true})
	if err != nil {
		t.Fatalf("NewSQLite returned error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	svc, err := NewService(s, nil)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return svc
}

func TestNewService_RequiresStore(t *testing.T) {
	if _, err := NewService(nil, nil); err == nil {
		t.Fatal("expected error for nil store")
	}
}

func TestService_ListMostRecentFirst(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	data, _ := events.NewDataEvent("EURUSD", events.Bar{Timestamp: time.Unix(1700000000, 0).UTC(), Close: 1.1})
	sig, _ := events.NewSignalEvent(events.Intent{Symbol: "EURUSD", Signal: events.SideBuy, TargetOrder: events.OrderMarket, MagicNumber: 7})

	svc.RecordPipeline(ctx, data)
	svc.RecordPipeline(ctx, sig)
	svc.RecordRejection(ctx, "risk", "EURUSD", "杠杆超限")

	list, err := svc.ListEvents(ctx, Query{})
	if err != nil {
		t.Fatalf("ListEvents returned error: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 events, got %d", len(list))
	}
	want := []EventType{EventRejection, EventSignal, EventData}
	for i, typ := range want {
		if list[i].Type != typ {
			t.Errorf("event %d: expected %s, got %s", i, typ, list[i].Type)
		}
		if list[i].Symbol != "EURUSD" {
			t.Errorf("event %d: expected symbol EURUSD, got %q", i, list[i].Symbol)
		}
	}

	raw, ok := list[0].Payload.(json.RawMessage)
	if !ok {
		t.Fatalf("expected raw payload, got %T", list[0].Payload)
	}
	var rej RejectionPayload
	if err := json.Unmarshal(raw, &rej); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if rej.Stage != "risk" || rej.Reason != "杠杆超限" {
		t.Errorf("unexpected rejection payload: %+v", rej)
	}
}

func TestService_FilterByTypeAndSymbol(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, sym := range []string{"EURUSD", "GBPUSD", "EURUSD"} {
		e, _ := events.NewDataEvent(sym, events.Bar{Close: 1})
		svc.RecordPipeline(ctx, e)
	}
	svc.RecordError(ctx, "获取报价失败", errors.New("timeout"), map[string]interface{}{"symbol": "EURUSD"})

	list, err := svc.ListEvents(ctx, Query{Type: EventData, Symbol: "EURUSD"})
	if err != nil {
		t.Fatalf("ListEvents returned error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 EURUSD data events, got %d", len(list))
	}

	list, err = svc.ListEvents(ctx, Query{Type: EventError, Limit: 10})
	if err != nil {
		t.Fatalf("ListEvents returned error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 error event, got %d", len(list))
	}
}

func TestService_RecordExecution(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	svc.RecordExecution(ctx, ExecutionPayload{
		Order: events.OrderEvent{Intent: events.Intent{Symbol: "BTC/USDT:USDT", Signal: events.SideSell, TargetOrder: events.OrderMarket}, Volume: 0.01},
		Mode:  config.ExecutionModeDryRun,
	})

	list, err := svc.ListEvents(ctx, Query{Type: EventExecution})
	if err != nil {
		t.Fatalf("ListEvents returned error: %v", err)
	}
	if len(list) != 1 || list[0].Symbol != "BTC/USDT:USDT" {
		t.Fatalf("unexpected execution journal: %+v", list)
	}
}

func TestHandler_EventsAndMetrics(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	svc.RecordRejection(ctx, "sizing", "USDJPY", "报价不可用")

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok_metric 1\n"))
	})
	srv := httptest.NewServer(Handler(svc, metrics, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/events?type=REJECTION&limit=5")
	if err != nil {
		t.Fatalf("GET /events: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	var list []Event
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].Type != EventRejection {
		t.Fatalf("unexpected events: %+v", list)
	}

	mresp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	mresp.Body.Close()
	if mresp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected metrics status %d", mresp.StatusCode)
	}
}
