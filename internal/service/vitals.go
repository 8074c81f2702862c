package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"wisefido-vitals/common/database"
	rediscommon "wisefido-vitals/common/redis"
	"wisefido-vitals/internal/arbiter"
	"wisefido-vitals/internal/config"
	"wisefido-vitals/internal/connection"
	httpapi "wisefido-vitals/internal/http"
	"wisefido-vitals/internal/link"
	"wisefido-vitals/internal/playback"
	"wisefido-vitals/internal/publisher"
	"wisefido-vitals/internal/repository"
	"wisefido-vitals/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// VitalsService 生命体征服务
type VitalsService struct {
	config *config.Config
	logger *zap.Logger

	db    *sql.DB
	redis *redis.Client

	arbiter   *arbiter.Arbiter
	manager   *connection.Manager
	publisher *publisher.StatusPublisher
	server    *http.Server

	listener net.Listener
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewVitalsService 按配置创建服务（链路由 SENSOR_TRANSPORT 决定）
func NewVitalsService(cfg *config.Config, logger *zap.Logger) (*VitalsService, error) {
	var l link.Link
	switch cfg.Sensor.Transport {
	case config.TransportBLE:
		l = link.NewBLELink(link.BLEConfig{
			Address:     cfg.Sensor.Address,
			NotifyUUID:  cfg.Sensor.NotifyUUID,
			ScanTimeout: cfg.Sensor.ScanTimeout,
		}, logger)
	case config.TransportMQTT:
		l = link.NewMQTTLink(cfg.MQTT, cfg.Sensor.MQTTTopic, logger)
	default:
		return nil, fmt.Errorf("unknown sensor transport %q", cfg.Sensor.Transport)
	}
	return NewVitalsServiceWithLink(cfg, l, logger)
}

// NewVitalsServiceWithLink 使用指定链路创建服务
func NewVitalsServiceWithLink(cfg *config.Config, l link.Link, logger *zap.Logger) (*VitalsService, error) {
	s := &VitalsService{
		config: cfg,
		logger: logger,
	}

	// 录制数据集
	loader, err := s.newLoader()
	if err != nil {
		s.closeStores()
		return nil, err
	}

	s.arbiter = arbiter.NewArbiter(
		store.NewLiveQueue(cfg.Live.QueueCapacity),
		store.NewCache(),
		playback.NewCyclic(loader, logger),
		logger,
	)
	s.manager = connection.NewManager(l, s.arbiter.Ingest, cfg.Sensor.RetryDelay, logger)

	// Redis 状态快照（可选）
	if cfg.Status.Enabled {
		s.redis = rediscommon.NewRedisClient(&cfg.Redis)
		if err := rediscommon.Ping(context.Background(), s.redis); err != nil {
			s.closeStores()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		s.publisher = publisher.NewStatusPublisher(
			s.redis, s.arbiter, s.manager,
			cfg.Sensor.Address, cfg.Status.KeyPrefix, cfg.Status.Interval,
			logger,
		)
	}

	router := httpapi.NewRouter(logger)
	router.RegisterVitalsRoutes(httpapi.NewVitalsHandler(s.arbiter, s.manager, logger))
	s.server = &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

func (s *VitalsService) newLoader() (playback.Loader, error) {
	rec := s.config.Recorded
	switch rec.Source {
	case config.RecordedCSV:
		return playback.NewCSVLoader(rec.Path), nil
	case config.RecordedXLSX:
		return playback.NewExcelLoader(rec.Path, rec.Sheet), nil
	case config.RecordedPostgres:
		db, err := database.NewPostgresDB(context.Background(), &s.config.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		s.db = db
		return repository.NewRecordedVitalsRepository(db, s.logger, rec.Dataset), nil
	default:
		return nil, fmt.Errorf("unknown recorded source %q", rec.Source)
	}
}

// Start 启动连接管理器、HTTP 服务和状态发布
func (s *VitalsService) Start(ctx context.Context) error {
	s.logger.Info("Starting vitals service components")

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	s.listener = ln

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.manager.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("Connection manager exited", zap.Error(err))
		}
	}()

	if s.publisher != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.publisher.Run(runCtx)
		}()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server failed", zap.Error(err))
		}
	}()

	s.logger.Info("Vitals service started successfully",
		zap.String("http_addr", ln.Addr().String()),
		zap.String("transport", s.config.Sensor.Transport),
		zap.String("recorded_source", s.config.Recorded.Source),
	)
	return nil
}

// Addr HTTP 实际监听地址（Start 之后有效）
func (s *VitalsService) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop 停止服务；传感器链路在连接管理器退出时关闭
func (s *VitalsService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping vitals service")

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("Error shutting down HTTP server", zap.Error(err))
	}

	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	s.logger.Info("Live queue at shutdown", zap.Int("queue_len", s.arbiter.Stats().QueueLen))
	s.closeStores()

	s.logger.Info("Vitals service stopped")
	return nil
}

func (s *VitalsService) closeStores() {
	if s.redis != nil {
		rediscommon.Close(s.redis)
	}
	if s.db != nil {
		database.Close(s.db)
	}
}
