package svc

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
	"github.com/zeromicro/go-zero/core/syncx"

	cachekeys "stocklens-api/internal/cache"
	"stocklens-api/internal/config"
	"stocklens-api/internal/freshness"
	"stocklens-api/internal/model"
	stockpersist "stocklens-api/internal/persistence/market"
	"stocklens-api/internal/persistence/memory"
	"stocklens-api/pkg/confkit"
	marketpkg "stocklens-api/pkg/market"
	_ "stocklens-api/pkg/market/exchanges/alpaca"
	_ "stocklens-api/pkg/market/exchanges/alphavantage"
	_ "stocklens-api/pkg/market/exchanges/marketstack"
	_ "stocklens-api/pkg/market/exchanges/polygon"
	_ "stocklens-api/pkg/market/exchanges/tiingo"
	"stocklens-api/pkg/market/mock"
	"stocklens-api/pkg/sentiment"
)

type ServiceContext struct {
	Config config.Config

	MarketConfig    *marketpkg.Config
	MarketProviders map[string]marketpkg.Provider
	MarketRouter    *marketpkg.Router

	Store     marketpkg.Store
	Resolver  *freshness.Resolver
	Sentiment *sentiment.Aggregator
	Mock      *mock.Generator

	// Only set when a Postgres DSN is configured.
	DBConn            sqlx.SqlConn
	Cache             cache.Cache
	StockQuotesModel  model.StockQuotesModel
	StockHistoryModel model.StockHistoryModel
	StockNewsModel    model.StockNewsModel
	Persistence       *stockpersist.Service
}

// NewServiceContext builds every dependency and exits the process on failure.
func NewServiceContext(c config.Config) *ServiceContext {
	svc, err := New(c)
	if err != nil {
		log.Fatalf("failed to build service context: %v", err)
	}
	return svc
}

// New builds the service context, returning configuration errors instead of exiting.
func New(c config.Config) (*ServiceContext, error) {
	svc := &ServiceContext{
		Config: c,
		Mock:   mock.NewFromTime(),
	}

	marketCfg := c.Market.Value
	if marketCfg == nil {
		if !c.Market.Configured() {
			return nil, fmt.Errorf("market config not loaded: %w", marketpkg.ErrConfiguration)
		}
		loaded, err := marketpkg.LoadConfig(confkit.ResolvePath(c.BaseDir(), c.Market.File))
		if err != nil {
			return nil, fmt.Errorf("load market config: %w", err)
		}
		marketCfg = loaded
	}
	router, providers, err := marketCfg.BuildRouter()
	if err != nil {
		return nil, fmt.Errorf("build market providers: %w", err)
	}
	svc.MarketConfig = marketCfg
	svc.MarketProviders = providers
	svc.MarketRouter = router

	if c.UsesMemoryStore() {
		logx.Infof("svc: no postgres dsn, using in-memory store (env=%s)", c.Env)
		svc.Store = memory.New()
	} else {
		if err := svc.initPostgres(c); err != nil {
			return nil, err
		}
		svc.Store = svc.Persistence
	}

	svc.Resolver = freshness.NewResolver(svc.Store, svc.MarketRouter,
		freshness.WithPolicy(c.FreshnessPolicy()),
		freshness.WithMockGenerator(svc.Mock),
	)

	agg, err := sentiment.NewAggregator(
		sentiment.WithThresholds(c.SentimentThresholds()),
		sentiment.WithMaxKeywords(c.Sentiment.MaxKeywords),
		sentiment.WithFallbackKeywords(svc.Mock.Keywords),
	)
	if err != nil {
		svc.Close()
		return nil, fmt.Errorf("build sentiment aggregator: %w", err)
	}
	svc.Sentiment = agg
	return svc, nil
}

func (svc *ServiceContext) initPostgres(c config.Config) error {
	conn := sqlx.NewSqlConn("pgx", c.Postgres.DSN)
	db, err := conn.RawDB()
	if err != nil {
		return fmt.Errorf("open postgres: %w", marketpkg.StoreError("open", err))
	}
	configurePool(db, c.Postgres)

	svc.DBConn = conn
	svc.StockQuotesModel = model.NewStockQuotesModel(conn)
	svc.StockHistoryModel = model.NewStockHistoryModel(conn)
	svc.StockNewsModel = model.NewStockNewsModel(conn)

	var rc stockpersist.Cache
	if c.UsesRedis() {
		svc.Cache = cache.New(
			cache.ClusterConf{{RedisConf: c.Redis, Weight: 100}},
			syncx.NewSingleFlight(),
			cache.NewStat(cachekeys.Namespace),
			model.ErrNotFound,
		)
		rc = svc.Cache
	}
	svc.Persistence = stockpersist.NewService(stockpersist.Config{
		QuotesModel:  svc.StockQuotesModel,
		HistoryModel: svc.StockHistoryModel,
		NewsModel:    svc.StockNewsModel,
		Cache:        rc,
		TTL:          cachekeys.NewTTLSet(c.TTL),
	})
	return nil
}

func configurePool(db *sql.DB, pc config.PostgresConf) {
	if pc.MaxOpen > 0 {
		db.SetMaxOpenConns(pc.MaxOpen)
	}
	if pc.MaxIdle > 0 {
		db.SetMaxIdleConns(pc.MaxIdle)
	}
	if pc.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pc.ConnMaxLifetime)
	}
}

// Close stops background refreshes and releases the connection pool.
func (svc *ServiceContext) Close() {
	if svc.Resolver != nil {
		svc.Resolver.Close()
	}
	if svc.DBConn == nil {
		return
	}
	db, err := svc.DBConn.RawDB()
	if err != nil {
		return
	}
	if err := db.Close(); err != nil {
		logx.Errorf("svc: close postgres: %v", err)
	}
}
