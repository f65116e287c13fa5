package exchange

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"trades-director/internal/events"
)

const maxConcurrentPolls = 4

// DataProvider 轮询已收盘K线，发现新K线时投递 DATA 事件。
type DataProvider struct {
	bars      BarSource
	publisher events.Publisher
	symbols   []string
	timeframe string
	limiter   *rate.Limiter
	logger    *zap.Logger

	mu   sync.Mutex
	last map[string]time.Time
}

// NewDataProvider 创建行情轮询器，interval 为两次访问交易所的最小间隔。
func NewDataProvider(bars BarSource, publisher events.Publisher, symbols []string, timeframe string, interval time.Duration, logger *zap.Logger) *DataProvider {
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	return &DataProvider{
		bars:      bars,
		publisher: publisher,
		symbols:   append([]string(nil), symbols...),
		timeframe: timeframe,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger,
		last:      make(map[string]time.Time, len(symbols)),
	}
}

// Symbols 返回订阅的品种。
func (p *DataProvider) Symbols() []string {
	return append([]string(nil), p.symbols...)
}

// CheckForNewData 拉取各品种最新已收盘K线，返回本次投递的事件数。
// 首次观测只记录时间戳，不投递。
func (p *DataProvider) CheckForNewData(ctx context.Context) int {
	if !p.limiter.Allow() {
		return 0
	}

	latest := make([]*events.Bar, len(p.symbols))

	var group errgroup.Group
	group.SetLimit(maxConcurrentPolls)
	for i, symbol := range p.symbols {
		group.Go(func() error {
			bars, err := p.bars.LatestClosedBars(ctx, symbol, p.timeframe, 1)
			if err != nil {
				p.logger.Warn("获取最新K线失败",
					zap.String("symbol", symbol),
					zap.String("timeframe", p.timeframe),
					zap.Error(err),
				)
				return nil
			}
			if len(bars) == 0 {
				return nil
			}
			bar := bars[len(bars)-1]
			latest[i] = &bar
			return nil
		})
	}
	_ = group.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()

	emitted := 0
	for i, symbol := range p.symbols {
		bar := latest[i]
		if bar == nil {
			continue
		}

		seen, ok := p.last[symbol]
		if ok && !bar.Timestamp.After(seen) {
			continue
		}
		p.last[symbol] = bar.Timestamp
		if !ok {
			p.logger.Debug("记录首根已收盘K线",
				zap.String("symbol", symbol),
				zap.Time("bar_time", bar.Timestamp),
			)
			continue
		}

		event, err := events.NewDataEvent(symbol, *bar)
		if err != nil {
			p.logger.Warn("构造 DATA 事件失败", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		p.publisher.Enqueue(event)
		emitted++
	}

	return emitted
}
