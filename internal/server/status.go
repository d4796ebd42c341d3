package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"tinyresponder/internal/config"
)

// HealthResponse は /health の応答
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusResponse は /api/status の応答
type StatusResponse struct {
	Status    string        `json:"status"`
	Server    ServerInfo    `json:"server"`
	Loop      StatsSnapshot `json:"loop"`
	Timestamp time.Time     `json:"timestamp"`
}

// ServerInfo は応答ループの設定情報
type ServerInfo struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	Backlog   int    `json:"backlog"`
	Policy    string `json:"policy"`
	Framing   string `json:"framing,omitempty"`
	Transport string `json:"transport"`
	IOMode    string `json:"io_mode"`
}

// StatusServer は応答ループとは別のリスナーで状態を公開する
type StatusServer struct {
	config     *config.Config
	stats      *Stats
	logger     *logrus.Logger
	engine     *gin.Engine
	httpServer *http.Server
	listener   net.Listener
	done       chan struct{}
}

// NewStatusServer は新しいStatusServerを作成する
func NewStatusServer(cfg *config.Config, stats *Stats, gatherer prometheus.Gatherer, logger *logrus.Logger) *StatusServer {
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &StatusServer{
		config: cfg,
		stats:  stats,
		logger: logger,
		engine: engine,
		done:   make(chan struct{}),
	}

	engine.GET("/health", s.HealthCheck)
	engine.GET("/api/status", s.GetStatus)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	s.httpServer = &http.Server{
		Handler:     engine,
		ReadTimeout: 5 * time.Second,
	}
	return s
}

// Handler はルーティング済みのハンドラを返す
func (s *StatusServer) Handler() http.Handler {
	return s.engine
}

// HealthCheck はヘルスチェックエンドポイントの実装
func (s *StatusServer) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
	})
}

// GetStatus は応答ループの状態取得エンドポイントの実装
func (s *StatusServer) GetStatus(c *gin.Context) {
	info := ServerInfo{
		Host:      s.config.Server.Host,
		Port:      s.config.Server.Port,
		Backlog:   s.config.Server.Backlog,
		Policy:    s.config.Response.Policy,
		Transport: s.config.Server.Transport,
		IOMode:    s.config.Server.IOMode,
	}
	if s.config.Response.Policy == config.PolicyFile {
		info.Framing = s.config.Response.Framing
	}

	c.JSON(http.StatusOK, StatusResponse{
		Status:    "running",
		Server:    info,
		Loop:      s.stats.Snapshot(),
		Timestamp: time.Now(),
	})
}

// Start はリスナーを作成し、別ゴルーチンで配信を開始する
func (s *StatusServer) Start() error {
	ln, err := net.Listen("tcp", s.config.StatusAddress())
	if err != nil {
		return fmt.Errorf("ステータスサーバーの起動に失敗: %w", err)
	}
	s.listener = ln

	s.logger.WithField("addr", ln.Addr().String()).Info("ステータスサーバーを起動しました")

	go func() {
		defer close(s.done)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("ステータスサーバーが停止しました")
		}
	}()
	return nil
}

// Addr はステータスサーバーのアドレスを返す
func (s *StatusServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown はステータスサーバーをグレースフルにシャットダウンする
func (s *StatusServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ステータスサーバーのシャットダウンに失敗: %w", err)
	}
	if s.listener != nil {
		<-s.done
	}
	return nil
}
