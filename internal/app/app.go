package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sisaket-charity/go-backend/internal/auth"
	config "github.com/sisaket-charity/go-backend/internal/cfg"
	v1Http "github.com/sisaket-charity/go-backend/internal/delivery/v1/http"
	"github.com/sisaket-charity/go-backend/internal/infrastructure/kafka"
	minioInfra "github.com/sisaket-charity/go-backend/internal/infrastructure/minio"
	s3Repo "github.com/sisaket-charity/go-backend/internal/repository/minio"
	"github.com/sisaket-charity/go-backend/internal/repository/pgdb"
	pgdbConv "github.com/sisaket-charity/go-backend/internal/repository/pgdb/converter"
	"github.com/sisaket-charity/go-backend/internal/repository/redis"
	redisConv "github.com/sisaket-charity/go-backend/internal/repository/redis/converter"
	"github.com/sisaket-charity/go-backend/internal/usecase"
	"github.com/sisaket-charity/go-backend/pkg/clients"
	"github.com/sisaket-charity/go-backend/pkg/closer"
	"github.com/sisaket-charity/go-backend/pkg/e"
	"github.com/sisaket-charity/go-backend/pkg/logger"
	"github.com/sisaket-charity/go-backend/pkg/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

// App держит собранные компоненты приложения и порядок их остановки.
type App struct {
	cfg          *config.Config
	logger       logger.Logger
	httpSrv      *v1Http.Server
	outboxWorker *kafka.OutboxWorker
	closer       *closer.Closer
	appCancel    context.CancelFunc
	appCtx       context.Context
}

func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	appCtx, appCancel := context.WithCancel(context.Background())

	db, err := initPGDB(log, cfg)
	if err != nil {
		appCancel()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	productConv := pgdbConv.NewProductConverterImpl()
	orderConv := pgdbConv.NewOrderConverterImpl()
	outboxConv := pgdbConv.NewOutboxEventConverterImpl()
	userConv := pgdbConv.NewUserConverterImpl()
	listConv := redisConv.NewProductListConverterImpl()

	productRepo := pgdb.NewProductRepo(db.Pool, productConv)
	orderRepo := pgdb.NewOrderRepo(db.Pool, orderConv)
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool, outboxConv)
	userRepo := pgdb.NewUserRepo(db.Pool, userConv)

	minioClient, err := clients.NewMinIOClient(cfg)
	if err != nil {
		appCancel()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minioCtx, minioCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := clients.EnsureBucket(minioCtx, minioClient, cfg.Minio.BucketName); err != nil {
		minioCancel()
		appCancel()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	minioCancel()

	imageRepo := s3Repo.NewImageRepo(minioClient, cfg.Minio)
	imagesInfra := minioInfra.NewImagesInfrastructure(imageRepo, cfg.Minio, log, appCtx)

	redisClient := clients.NewRedisClient(cfg.Redis)
	redisCtx, redisCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer redisCancel()
	if err := redisClient.Ping(redisCtx); err != nil {
		appCancel()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cacheRepo := redis.NewCacheRepo(redisClient, listConv, cfg.Redis, log)

	producer, err := kafka.NewProducer(log, cfg.Kafka)
	if err != nil {
		appCancel()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := producer.EnsureTopic(10 * time.Second); err != nil {
		log.Warnf("kafka topic check failed, events may queue up in outbox: %v", err)
	}

	outboxWorker := kafka.NewOutboxWorker(outboxRepo, log, producer, db.Dsn)

	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	orderUC := usecase.NewOrderUC(orderRepo, productRepo, outboxRepo, cacheRepo, imagesInfra, db.Pool, log)
	productUC := usecase.NewProductUC(productRepo, cacheRepo, imagesInfra, db.Pool, log)
	authUC := usecase.NewAuthUC(userRepo, jwtService, log)

	r := chi.NewRouter()
	authMW := v1Http.NewAuthMiddleware(jwtService, log)
	router := v1Http.NewRouter(r, log, authMW)
	router.Init(orderUC, productUC, authUC)

	httpSrv := v1Http.NewServer(r, cfg.Http)

	// Остановка ресурсов в порядке, обратном запуску
	cl := closer.NewCloser(2 * time.Second)
	cl.Add(func(ctx context.Context) error {
		db.Close()
		return nil
	})
	cl.Add(func(ctx context.Context) error {
		return redisClient.Client.Close()
	})
	cl.Add(func(ctx context.Context) error {
		return producer.Close()
	})
	cl.Add(func(ctx context.Context) error {
		outboxWorker.Stop()
		return nil
	})
	cl.Add(func(ctx context.Context) error {
		return imagesInfra.WaitForCleanup(ctx)
	})
	cl.Add(func(ctx context.Context) error {
		return httpSrv.Stop(ctx)
	})

	return &App{
		cfg:          cfg,
		logger:       log,
		httpSrv:      httpSrv,
		outboxWorker: outboxWorker,
		closer:       cl,
		appCancel:    appCancel,
		appCtx:       appCtx,
	}, nil
}

// Run запускает outbox-воркер и HTTP-сервер и блокируется до сигнала завершения.
func (a *App) Run() error {
	a.outboxWorker.Start(a.appCtx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Errorf(err, "HTTP server failed")
			errCh <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	a.appCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Warnf("shutdown finished with errors: %v", err)
	} else {
		a.logger.Infof("Application shutdown complete")
	}

	return appErr
}

func initPGDB(logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(); err != nil {
		logger.Errorf(err, "failed to ping database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
