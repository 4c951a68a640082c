package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-stock-service/config"
	"github.com/fekuna/omnipos-stock-service/migrations"
	"github.com/fekuna/omnipos-stock-service/pkg/broker"
	"github.com/fekuna/omnipos-stock-service/pkg/cache"
	"github.com/fekuna/omnipos-stock-service/pkg/database/postgres"
	_ "github.com/fekuna/omnipos-stock-service/pkg/grpcjson"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/fekuna/omnipos-stock-service/pkg/middleware"
	"github.com/fekuna/omnipos-stock-service/pkg/search"

	invH "github.com/fekuna/omnipos-stock-service/internal/inventory/handler"
	invListenerPkg "github.com/fekuna/omnipos-stock-service/internal/inventory/listener"
	invRepoPkg "github.com/fekuna/omnipos-stock-service/internal/inventory/repository"
	invUCPkg "github.com/fekuna/omnipos-stock-service/internal/inventory/usecase"

	"github.com/fekuna/omnipos-stock-service/internal/product"
	prodH "github.com/fekuna/omnipos-stock-service/internal/product/handler"
	prodRepoPkg "github.com/fekuna/omnipos-stock-service/internal/product/repository"
	prodUCPkg "github.com/fekuna/omnipos-stock-service/internal/product/usecase"

	purchaseRepoPkg "github.com/fekuna/omnipos-stock-service/internal/purchase/repository"
	salesRepoPkg "github.com/fekuna/omnipos-stock-service/internal/sales/repository"

	"github.com/fekuna/omnipos-stock-service/internal/stock"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
	stockH "github.com/fekuna/omnipos-stock-service/internal/stock/handler"
	"github.com/fekuna/omnipos-stock-service/internal/stock/report"
	stockUCPkg "github.com/fekuna/omnipos-stock-service/internal/stock/usecase"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	_ = godotenv.Load() // Load .env file if it exists

	app := &cli.App{
		Name:  "stock",
		Usage: "stock classification service",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the gRPC server and the inventory listener",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply pending database migrations",
				Action: migrateUp,
			},
			{
				Name:  "export",
				Usage: "write the stock listing to an XLSX file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "stock.xlsx", Usage: "output file"},
					&cli.StringFlag{Name: "view", Usage: "in_stock, low_stock, out_stock or unmanaged"},
					&cli.StringFlag{Name: "type", Usage: "product type filter"},
					&cli.StringFlag{Name: "category", Usage: "category slug"},
					&cli.Int64Flag{Name: "supplier", Usage: "supplier id"},
					&cli.StringFlag{Name: "search", Usage: "search term"},
					&cli.BoolFlag{Name: "include-private", Usage: "include private products"},
				},
				Action: export,
			},
			{
				Name:   "flush-cache",
				Usage:  "delete every cached stock classification",
				Action: flushCache,
			},
			{
				Name:   "reindex",
				Usage:  "push the catalog to Elasticsearch",
				Action: reindex,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newLogger(cfg *config.Config) logger.ZapLogger {
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     cfg.Server.AppEnv == "development",
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	return logger.NewZapLogger(logConfig)
}

func openDB(cfg *config.Config, appLogger logger.ZapLogger) (*sqlx.DB, error) {
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))
	return db, nil
}

func openRedis(cfg *config.Config, appLogger logger.ZapLogger) (*cache.RedisClient, error) {
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Debug:    cfg.Stock.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	return redisClient, nil
}

// openSearch returns nil when Elasticsearch is disabled or unreachable; search then runs in SQL.
func openSearch(cfg *config.Config, appLogger logger.ZapLogger) *search.Client {
	if !cfg.Elastic.Enabled {
		return nil
	}
	esClient, err := search.NewClient(&search.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Elasticsearch (Search features might be limited)", zap.Error(err))
		return nil
	}
	appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
	return esClient
}

// services holds the use cases shared by the commands.
type services struct {
	db       *sqlx.DB
	redis    *cache.RedisClient
	index    prodUCPkg.SearchIndex
	products product.UseCase
	stock    stock.UseCase
}

func buildServices(cfg *config.Config, appLogger logger.ZapLogger) (*services, error) {
	db, err := openDB(cfg, appLogger)
	if err != nil {
		return nil, err
	}
	redisClient, err := openRedis(cfg, appLogger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	var index prodUCPkg.SearchIndex
	if es := openSearch(cfg, appLogger); es != nil {
		index = es
	}

	prodRepo := prodRepoPkg.NewPGRepository(db)
	prodUC := prodUCPkg.NewProductUseCase(prodRepo, index, cfg.Elastic.Index, appLogger)
	stockUC := stockUCPkg.NewStockUseCase(
		prodRepo,
		salesRepoPkg.NewPGRepository(db),
		purchaseRepoPkg.NewPGRepository(db),
		redisClient,
		prodUC,
		cfg.Stock,
		appLogger,
	)

	return &services{
		db:       db,
		redis:    redisClient,
		index:    index,
		products: prodUC,
		stock:    stockUC,
	}, nil
}

func (s *services) Close() {
	_ = s.redis.Close()
	_ = s.db.Close()
}

func serve(_ *cli.Context) error {
	cfg := config.LoadEnv()
	appLogger := newLogger(cfg)
	defer appLogger.Sync()

	svc, err := buildServices(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Could not start", zap.Error(err))
	}
	defer svc.Close()

	ordersConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.OrdersTopic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer ordersConsumer.Close()
	appLogger.Info("Connected to Kafka Consumer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.OrdersTopic))

	stockProducer := broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.StockTopic,
	})
	defer stockProducer.Close()

	invUC := invUCPkg.NewInventoryUseCase(invRepoPkg.NewPGRepository(svc.db), svc.redis, stockProducer, appLogger)
	invListener := invListenerPkg.NewInventoryListener(ordersConsumer, invUC, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go invListener.Start(ctx)

	port := cfg.Server.GRPCPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	lis, err := net.Listen("tcp", port)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(middleware.ContextInterceptor(appLogger)),
	)

	stockH.RegisterStockServiceServer(grpcServer, stockH.NewStockHandler(svc.stock, cfg.Stock.LostSalesDays, appLogger))
	invH.RegisterInventoryServiceServer(grpcServer, invH.NewInventoryHandler(invUC, appLogger))
	prodH.RegisterProductServiceServer(grpcServer, prodH.NewProductHandler(svc.products, appLogger))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(stockH.ServiceName, healthpb.HealthCheckResponse_SERVING)

	reflection.Register(grpcServer)

	appLogger.Info("Starting gRPC server", zap.String("port", port))

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	healthServer.Shutdown()
	cancel()
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
	return nil
}

func migrateUp(_ *cli.Context) error {
	cfg := config.LoadEnv()
	appLogger := newLogger(cfg)
	defer appLogger.Sync()

	db, err := openDB(cfg, appLogger)
	if err != nil {
		return err
	}
	defer db.Close()

	version, err := postgres.MigrateUp(db, migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	appLogger.Info("Database migrated", zap.Uint("version", version))
	return nil
}

func export(c *cli.Context) error {
	cfg := config.LoadEnv()
	appLogger := newLogger(cfg)
	defer appLogger.Sync()

	svc, err := buildServices(cfg, appLogger)
	if err != nil {
		return err
	}
	defer svc.Close()

	criteria := dto.Criteria{
		View:           dto.View(c.String("view")),
		ProductType:    c.String("type"),
		Category:       c.String("category"),
		Search:         c.String("search"),
		IncludePrivate: c.Bool("include-private"),
	}
	if c.IsSet("supplier") {
		supplier := c.Int64("supplier")
		criteria.SupplierID = &supplier
	}

	out, err := os.Create(c.String("out"))
	if err != nil {
		return err
	}
	defer out.Close()

	n, err := report.NewExporter(svc.stock).Write(c.Context, criteria, out)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	appLogger.Info("Stock exported", zap.String("file", out.Name()), zap.Int("rows", n))
	return nil
}

func flushCache(c *cli.Context) error {
	cfg := config.LoadEnv()
	appLogger := newLogger(cfg)
	defer appLogger.Sync()

	redisClient, err := openRedis(cfg, appLogger)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	n, err := redisClient.DeleteByPrefix(c.Context, cache.Namespace)
	if err != nil {
		return err
	}
	appLogger.Info("Stock cache flushed", zap.Int("deleted", n))
	return nil
}

func reindex(c *cli.Context) error {
	cfg := config.LoadEnv()
	appLogger := newLogger(cfg)
	defer appLogger.Sync()

	svc, err := buildServices(cfg, appLogger)
	if err != nil {
		return err
	}
	defer svc.Close()
	if svc.index == nil {
		return fmt.Errorf("elasticsearch is not available")
	}

	n, err := svc.products.Reindex(c.Context)
	if err != nil {
		return err
	}
	appLogger.Info("Catalog reindexed", zap.Int("documents", n))
	return nil
}
