package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"

	accountapp "github.com/wyfcoding/papertrading/internal/account/application"
	accountdomain "github.com/wyfcoding/papertrading/internal/account/domain"
	accountmysql "github.com/wyfcoding/papertrading/internal/account/infrastructure/persistence/mysql"
	accounthttp "github.com/wyfcoding/papertrading/internal/account/interfaces/http"
	executionapp "github.com/wyfcoding/papertrading/internal/execution/application"
	executiondomain "github.com/wyfcoding/papertrading/internal/execution/domain"
	"github.com/wyfcoding/papertrading/internal/execution/infrastructure/messaging"
	executionmysql "github.com/wyfcoding/papertrading/internal/execution/infrastructure/persistence/mysql"
	executionhttp "github.com/wyfcoding/papertrading/internal/execution/interfaces/http"
	marketapp "github.com/wyfcoding/papertrading/internal/marketsim/application"
	marketdomain "github.com/wyfcoding/papertrading/internal/marketsim/domain"
	marketmysql "github.com/wyfcoding/papertrading/internal/marketsim/infrastructure/persistence/mysql"
	marketpublisher "github.com/wyfcoding/papertrading/internal/marketsim/infrastructure/publisher"
	markethttp "github.com/wyfcoding/papertrading/internal/marketsim/interfaces/http"
	positionapp "github.com/wyfcoding/papertrading/internal/position/application"
	positiondomain "github.com/wyfcoding/papertrading/internal/position/domain"
	positionmysql "github.com/wyfcoding/papertrading/internal/position/infrastructure/persistence/mysql"
	positionhttp "github.com/wyfcoding/papertrading/internal/position/interfaces/http"
	quantapp "github.com/wyfcoding/papertrading/internal/quant/application"
	quantredis "github.com/wyfcoding/papertrading/internal/quant/infrastructure/persistence/redis"
	quanthttp "github.com/wyfcoding/papertrading/internal/quant/interfaces/http"
	riskapp "github.com/wyfcoding/papertrading/internal/risk/application"
	riskdomain "github.com/wyfcoding/papertrading/internal/risk/domain"
	riskmysql "github.com/wyfcoding/papertrading/internal/risk/infrastructure/persistence/mysql"
	riskhttp "github.com/wyfcoding/papertrading/internal/risk/interfaces/http"
	"github.com/wyfcoding/papertrading/pkg/mq"
	"github.com/wyfcoding/papertrading/pkg/schedule"

	"github.com/wyfcoding/pkg/app"
	"github.com/wyfcoding/pkg/cache"
	"github.com/wyfcoding/pkg/config"
	"github.com/wyfcoding/pkg/database"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/messagequeue/outbox"
	"github.com/wyfcoding/pkg/metrics"
	"github.com/wyfcoding/pkg/middleware"
)

// BootstrapName 服务唯一标识
const BootstrapName = "papertrading"

// Config 服务扩展配置
type Config struct {
	config.Config `mapstructure:",squash"`
	PaperTrading  struct {
		TickIntervalMS          int      `mapstructure:"tick_interval_ms" toml:"tick_interval_ms"`
		MaxConcurrent           int      `mapstructure:"max_concurrent" toml:"max_concurrent"`
		HistoryCap              int      `mapstructure:"history_cap" toml:"history_cap"`
		Seed                    int64    `mapstructure:"seed" toml:"seed"`
		BreakerSweepIntervalMS  int      `mapstructure:"breaker_sweep_interval_ms" toml:"breaker_sweep_interval_ms"`
		StopLossSweepIntervalMS int      `mapstructure:"stoploss_sweep_interval_ms" toml:"stoploss_sweep_interval_ms"`
		IndicatorCacheTTLMS     int      `mapstructure:"indicator_cache_ttl_ms" toml:"indicator_cache_ttl_ms"`
		KafkaBrokers            []string `mapstructure:"kafka_brokers" toml:"kafka_brokers"`
	} `mapstructure:"papertrading" toml:"papertrading"`
}

// AppContext 应用上下文
type AppContext struct {
	Config           *Config
	MarketHandler    *markethttp.MarketHandler
	QuantHandler     *quanthttp.QuantHandler
	RiskHandler      *riskhttp.RiskHandler
	AccountHandler   *accounthttp.AccountHandler
	PositionHandler  *positionhttp.PositionHandler
	ExecutionHandler *executionhttp.ExecutionHandler
	Metrics          *metrics.Metrics
}

func main() {
	if err := app.NewBuilder[*Config, *AppContext](BootstrapName).
		WithConfig(&Config{}).
		WithService(initService).
		WithGRPC(registerGRPC).
		WithGin(registerGin).
		WithGinMiddleware(
			middleware.CORS(),
			middleware.TimeoutMiddleware(30*time.Second),
		).
		Build().
		Run(); err != nil {
		slog.Error("service bootstrap failed", "error", err)
	}
}

func registerGRPC(s *grpc.Server, ctx *AppContext) {
	// 暂无 gRPC 接口
}

func registerGin(e *gin.Engine, ctx *AppContext) {
	if ctx.Config.Server.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	api := e.Group("/api/v1")
	{
		ctx.MarketHandler.RegisterRoutes(api)
		ctx.QuantHandler.RegisterRoutes(api)
		ctx.RiskHandler.RegisterRoutes(api)
		ctx.AccountHandler.RegisterRoutes(api)
		ctx.PositionHandler.RegisterRoutes(api)
		ctx.ExecutionHandler.RegisterRoutes(api)
	}
}

func initService(cfg *Config, m *metrics.Metrics) (*AppContext, func(), error) {
	bootLog := slog.With("module", "bootstrap")
	logger := logging.Default()

	// 1. 数据库
	dbWrapper, err := database.NewDB(cfg.Data.Database, cfg.CircuitBreaker, logger, m)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init db: %w", err)
	}
	db := dbWrapper.RawDB()

	if err := db.AutoMigrate(
		&marketdomain.Instrument{},
		&marketdomain.PricePoint{},
		&riskdomain.RuleSet{},
		&riskdomain.CircuitBreakerState{},
		&accountdomain.Account{},
		&accountdomain.CompetitionParticipant{},
		&positiondomain.Position{},
		&executiondomain.TradeTransaction{},
		&executiondomain.TradeOrder{},
		&outbox.Message{},
	); err != nil {
		return nil, nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	// 2. 消息队列 & Outbox
	producer := mq.NewProducer(mq.Config{Brokers: cfg.PaperTrading.KafkaBrokers})
	outboxMgr := outbox.NewManager(db, logger.Logger)
	outboxProc := outbox.NewProcessor(outboxMgr, func(ctx context.Context, topic, key string, payload []byte) error {
		return producer.Publish(ctx, topic, []byte(key), payload)
	}, 100, 5*time.Second)
	outboxProc.Start()

	// 3. Redis
	redisCache, err := cache.NewRedisCache(&cfg.Data.Redis, cfg.CircuitBreaker, logger, m)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init redis: %w", err)
	}

	// 4. 仓储
	instrumentRepo := marketmysql.NewInstrumentRepository(db)
	historyRepo := marketmysql.NewPriceHistoryRepository(db)
	ruleRepo := riskmysql.NewRuleSetRepository(db)
	breakerRepo := riskmysql.NewCircuitBreakerRepository(db)
	holderRepo := accountmysql.NewHolderRepository(db)
	positionRepo := positionmysql.NewPositionRepository(db)
	recordRepo := executionmysql.NewRecordRepository(db)
	txManager := executionmysql.NewTxManager(db)

	// 5. 服务
	riskService := riskapp.NewRiskService(ruleRepo, breakerRepo)

	tickInterval := time.Duration(cfg.PaperTrading.TickIntervalMS) * time.Millisecond
	tickPublisher := marketpublisher.NewKafkaTickPublisher(producer)
	simulator := marketapp.NewSimulator(instrumentRepo, historyRepo, tickPublisher, riskService,
		marketapp.SimulatorConfig{
			TickInterval:  tickInterval,
			MaxConcurrent: cfg.PaperTrading.MaxConcurrent,
			HistoryCap:    cfg.PaperTrading.HistoryCap,
			Seed:          cfg.PaperTrading.Seed,
		})
	marketQuery := marketapp.NewMarketQueryService(instrumentRepo, historyRepo)

	indicatorCacheTTL := time.Duration(cfg.PaperTrading.IndicatorCacheTTLMS) * time.Millisecond
	indicatorCache := quantredis.NewIndicatorRedisRepository(redisCache.GetClient())
	indicatorQuery := quantapp.NewIndicatorQueryService(historyRepo, indicatorCache, indicatorCacheTTL)

	accountService := accountapp.NewAccountService(holderRepo)
	positionQuery := positionapp.NewPositionQueryService(positionRepo, instrumentRepo)

	publisher := messaging.NewOutboxPublisher(outboxMgr)
	executionService := executionapp.NewExecutionService(
		holderRepo, positionRepo, recordRepo, instrumentRepo,
		riskService, publisher, txManager)
	stopLossMonitor := executionapp.NewStopLossMonitor(
		positionRepo, instrumentRepo, riskService, executionService)

	// 6. 后台巡检
	tickSweeper := schedule.NewSweeper("market-tick", orDefault(tickInterval, time.Second),
		func(ctx context.Context) error {
			_, err := simulator.SimulateTick(ctx)
			return err
		})
	breakerSweeper := schedule.NewSweeper("circuit-breaker",
		orDefault(time.Duration(cfg.PaperTrading.BreakerSweepIntervalMS)*time.Millisecond, 30*time.Second),
		func(ctx context.Context) error {
			_, err := riskService.SweepBreakers(ctx)
			return err
		})
	stopLossSweeper := schedule.NewSweeper("stop-loss",
		orDefault(time.Duration(cfg.PaperTrading.StopLossSweepIntervalMS)*time.Millisecond, time.Minute),
		func(ctx context.Context) error {
			_, err := stopLossMonitor.SweepStopLoss(ctx)
			return err
		})
	tickSweeper.Start()
	breakerSweeper.Start()
	stopLossSweeper.Start()

	// 7. Handler
	marketHandler := markethttp.NewMarketHandler(simulator, marketQuery)
	quantHandler := quanthttp.NewQuantHandler(indicatorQuery)
	riskHandler := riskhttp.NewRiskHandler(riskService)
	accountHandler := accounthttp.NewAccountHandler(accountService)
	positionHandler := positionhttp.NewPositionHandler(positionQuery)
	executionHandler := executionhttp.NewExecutionHandler(executionService, stopLossMonitor)

	cleanup := func() {
		bootLog.Info("shutting down...")
		stopLossSweeper.Stop()
		breakerSweeper.Stop()
		tickSweeper.Stop()
		outboxProc.Stop()
		if producer != nil {
			producer.Close()
		}
		if sqlDB, err := db.DB(); err == nil && sqlDB != nil {
			sqlDB.Close()
		}
	}

	return &AppContext{
		Config:           cfg,
		MarketHandler:    marketHandler,
		QuantHandler:     quantHandler,
		RiskHandler:      riskHandler,
		AccountHandler:   accountHandler,
		PositionHandler:  positionHandler,
		ExecutionHandler: executionHandler,
		Metrics:          m,
	}, cleanup, nil
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
