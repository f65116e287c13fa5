package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"trades-director/internal/config"
	"trades-director/internal/exchange"
	"trades-director/internal/monitor"
	"trades-director/internal/store"
)

// App 聚合核心依赖并驱动系统生命周期。
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
}

// New 创建 App 实例。store 为空时不启用监控日志。
func New(cfg *config.Config, logger *zap.Logger, store *store.Store) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
	}
}

// Run 建立会话并运行调度循环，ctx 结束后投递停机哨兵并等待循环退出。
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("交易系统已初始化",
		zap.String("environment", a.cfg.App.Environment),
		zap.String("exchange", a.cfg.Exchange.Name),
		zap.Strings("symbols", a.cfg.Exchange.Symbols),
	)

	market, err := exchange.NewClient(exchangeOptions(a.cfg), a.logger.Named("exchange"))
	if err != nil {
		return fmt.Errorf("初始化行情客户端失败: %w", err)
	}

	session, err := exchange.OpenSession(ctx, market, a.cfg.Exchange.Symbols, a.logger.Named("session"))
	if err != nil {
		return err
	}
	defer session.Close()

	var journal *monitor.Service
	if a.cfg.Monitor.Enabled && a.store != nil {
		journal, err = monitor.NewService(a.store, a.logger.Named("monitor"))
		if err != nil {
			return fmt.Errorf("初始化监控服务失败: %w", err)
		}
	}

	p, err := buildPipeline(a.cfg, market, session.Symbols(), journal, a.logger)
	if err != nil {
		return err
	}

	if journal != nil {
		monitor.StartServer(ctx, monitor.Handler(journal, p.metrics.Handler(), a.logger), a.cfg.Monitor.Port, a.logger.Named("monitor"))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// 已出队的事件在停机前照常处理完毕。
		return p.director.Run(context.WithoutCancel(ctx))
	})
	g.Go(func() error {
		stopOnDone(gctx, p.queue, a.logger)
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("系统异常退出: %w", err)
	}

	a.logger.Info("调度循环已退出")
	return nil
}
