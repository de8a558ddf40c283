package app

import (
	"context"
	"fmt"
	"time"

	"todoboard/internal/config"
	"todoboard/internal/flash"
	"todoboard/internal/handlers"
	"todoboard/internal/metrics"
	"todoboard/internal/repo"
	"todoboard/internal/service"
	"todoboard/migrations"

	"github.com/benbjohnson/clock"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type App struct {
	cfg    config.Config
	log    *zap.Logger
	db     *pgxpool.Pool
	redis  *redis.Client
	router *gin.Engine
}

// New connects the configured backends and builds the router. Postgres is
// skipped for the memory driver; Redis is skipped when not configured.
func New(cfg config.Config, log *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}
	clk := clock.New()

	var todoRepo repo.TodoRepo
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		log.Warn("using in-memory storage; data is lost on restart")
		todoRepo = repo.NewMemTodoRepo(clk)
	default:
		if err := migrations.Up(cfg.PG.DSN); err != nil {
			return nil, err
		}
		db, err := newPostgres(cfg.PG.DSN)
		if err != nil {
			return nil, err
		}
		a.db = db
		todoRepo = repo.NewPGTodoRepo(db)
	}

	var flashStore *flash.Store
	if cfg.Redis.Enabled() {
		rdb, err := newRedis(cfg.Redis)
		if err != nil {
			a.closeBackends()
			return nil, err
		}
		a.redis = rdb
		flashStore = flash.NewStore(rdb, cfg.Redis.FlashTTL.Duration())
	} else {
		log.Info("redis not configured; flash messages disabled")
	}

	todoSvc := service.NewTodoService(todoRepo, clk, cfg.App.Location())
	todoHandler := handlers.NewTodoHandler(todoSvc, flashStore, log)
	a.router = newRouter(cfg, log, todoHandler)
	return a, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Close(ctx context.Context) error {
	_ = ctx
	a.closeBackends()
	return nil
}

func (a *App) closeBackends() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

func newPostgres(dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg parse config: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}

	return pool, nil
}

func newRedis(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}

func newRouter(cfg config.Config, log *zap.Logger, h *handlers.TodoHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), handlers.RequestLogger(log), metrics.Middleware())

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Cookie"},
		ExposeHeaders: []string{"Content-Length", "Content-Type", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	Setup(r, cfg, h)
	return r
}
