package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"tinyresponder/internal/config"
	"tinyresponder/internal/response"
	"tinyresponder/internal/transport"
)

// Server は接続を1つずつ処理する応答ループを管理する構造体
type Server struct {
	config    *config.Config
	logger    *logrus.Logger
	transport transport.Transport
	policy    response.Policy
	stats     *Stats
	metrics   *Metrics
	registry  *prometheus.Registry
	addr      atomic.Value
}

// New は新しいServerインスタンスを作成する
//
// candidates を省略すると transport.DefaultCandidates から選ぶ。
func New(cfg *config.Config, logger *logrus.Logger, candidates ...transport.Transport) (*Server, error) {
	if len(candidates) == 0 {
		candidates = transport.DefaultCandidates()
	}

	tr, err := transport.Negotiate(cfg.Server.Transport, candidates...)
	if err != nil {
		return nil, fmt.Errorf("トランスポートの選択に失敗: %w", err)
	}

	policy, err := response.New(cfg.Response)
	if err != nil {
		return nil, fmt.Errorf("応答ポリシーの作成に失敗: %w", err)
	}

	reg := newRegistry()

	return &Server{
		config:    cfg,
		logger:    logger,
		transport: tr,
		policy:    policy,
		stats:     NewStats(),
		metrics:   NewMetrics(reg),
		registry:  reg,
	}, nil
}

// Transport は選択されたトランスポートを返す
func (s *Server) Transport() transport.Transport {
	return s.transport
}

// Addr は待ち受け中のアドレスを返す。Listen 前は nil
func (s *Server) Addr() net.Addr {
	addr, _ := s.addr.Load().(net.Addr)
	return addr
}

// Stats は観測用の値を返す
func (s *Server) Stats() *Stats {
	return s.stats
}

// Start は待ち受けを開始し、終了するまで接続を処理する
//
// ctx のキャンセルか SIGINT / SIGTERM で nil を返す。
// それ以外の戻り値は全て致命的なエラー。
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	// 終了が始まったらシグナルの捕捉をやめ、2回目は Go のデフォルト動作（終了）に戻す
	context.AfterFunc(ctx, stop)

	ln, err := s.Listen(ctx)
	if err != nil {
		return err
	}

	if s.config.Status.Enabled {
		status := NewStatusServer(s.config, s.stats, s.registry, s.logger)
		if err := status.Start(); err != nil {
			_ = ln.Close()
			return err
		}
		defer func() {
			if err := status.Shutdown(); err != nil {
				s.logger.WithError(err).Warn("ステータスサーバーのシャットダウンに失敗しました")
			}
		}()
	}

	return s.Serve(ctx, ln)
}

// Listen はアドレスを解決し、バックログを指定して待ち受けを開始する
func (s *Server) Listen(ctx context.Context) (transport.Listener, error) {
	addr, err := s.transport.Resolve(ctx, s.config.Server.Host, s.config.Server.Port)
	if err != nil {
		return nil, fmt.Errorf("バインドアドレスの解決に失敗: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"host":      s.config.Server.Host,
		"resolved":  addr.String(),
		"transport": s.transport.Name(),
	}).Info("バインドアドレスを解決しました")

	ln, err := s.transport.Listen(ctx, addr, s.config.Server.Backlog)
	if err != nil {
		return nil, fmt.Errorf("待ち受けの開始に失敗: %w", err)
	}
	s.addr.Store(ln.Addr())

	if !s.transport.HonorsBacklog() {
		s.logger.WithFields(logrus.Fields{
			"transport": s.transport.Name(),
			"backlog":   s.config.Server.Backlog,
		}).Warn("このトランスポートはバックログを指定できません。OS のデフォルト値が使われます")
	}

	s.logger.WithFields(logrus.Fields{
		"addr":    ln.Addr().String(),
		"backlog": s.config.Server.Backlog,
		"policy":  s.policy.Name(),
	}).Infof("待ち受けを開始しました: http://%s/", ln.Addr())

	return ln, nil
}

// Serve は ln から接続を1つずつ受け付けて処理する
//
// ln は Serve が所有し、戻る前に必ずクローズする。
func (s *Server) Serve(ctx context.Context, ln transport.Listener) error {
	// キャンセルされたらリスナーと処理中の接続を閉じ、
	// ブロック中の Accept / Read / Write を net.ErrClosed で戻す
	var active activeConn
	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
		active.cancel()
	})
	defer stop()
	defer func() {
		_ = ln.Close()
	}()

	buf := make([]byte, s.config.Server.ReadChunkSize)
	var seq uint64

	for {
		s.setState(StateIdle)

		conn, err := ln.Accept()
		if err != nil {
			if isShutdown(ctx, err) {
				s.logger.Info("応答ループを終了します")
				return nil
			}
			s.metrics.Failures.WithLabelValues(stageAccept).Inc()
			return fmt.Errorf("接続の受け付けに失敗: %w", err)
		}

		if !active.set(conn) {
			_ = conn.Close()
			s.logger.Info("応答ループを終了します")
			return nil
		}

		s.setState(StateServing)
		seq++
		err = s.serveConn(conn, seq, buf)
		active.clear()
		if err != nil {
			s.setState(StateIdle)
			if isShutdown(ctx, err) {
				s.logger.WithField("seq", seq).Info("処理中の接続を閉じて応答ループを終了します")
				return nil
			}
			return err
		}
	}
}

// isShutdown はエラーがキャンセルによるクローズで生じたものかを返す
func isShutdown(ctx context.Context, err error) bool {
	return ctx.Err() != nil && errors.Is(err, net.ErrClosed)
}

// activeConn は処理中の接続をキャンセル側から閉じられるように保持する
type activeConn struct {
	mu       sync.Mutex
	conn     transport.Conn
	canceled bool
}

// set は処理中の接続を登録する。キャンセル済みなら false を返す
func (a *activeConn) set(conn transport.Conn) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.canceled {
		return false
	}
	a.conn = conn
	return true
}

func (a *activeConn) clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.conn = nil
}

func (a *activeConn) cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.canceled = true
	if a.conn != nil {
		_ = a.conn.Close()
	}
}

func (s *Server) setState(state State) {
	s.stats.setState(state)
	if state == StateServing {
		s.metrics.Serving.Set(1)
	} else {
		s.metrics.Serving.Set(0)
	}
}

// serveConn は1回読み込み、1回書き込み、接続をクローズする
func (s *Server) serveConn(conn transport.Conn, seq uint64, buf []byte) error {
	remote := conn.RemoteAddr().String()
	entry := s.logger.WithFields(logrus.Fields{
		"conn_id": uuid.New().String(),
		"seq":     seq,
		"remote":  remote,
	})
	entry.Info("クライアントを受け付けました")

	read, written, err := s.respond(conn, buf, entry)

	// 書き込みの成否に関わらずクローズする
	closeErr := conn.Close()

	s.stats.publish(seq, remote, read, written)
	s.metrics.Connections.Inc()
	s.metrics.BytesRead.Add(float64(read))
	s.metrics.BytesWritten.Add(float64(written))

	if err != nil {
		return err
	}
	if closeErr != nil {
		s.metrics.Failures.WithLabelValues(stageClose).Inc()
		return fmt.Errorf("接続のクローズに失敗 (%s): %w", remote, closeErr)
	}

	entry.WithField("bytes", written).Debug("応答を送信しました")
	return nil
}

// respond はリクエストを1回だけ読み込み、応答を1回書き込む
func (s *Server) respond(conn transport.Conn, buf []byte, entry *logrus.Entry) (int, int, error) {
	stream := s.config.Server.IOMode == config.IOModeStream

	var r io.Reader = conn
	if stream {
		r = bufio.NewReaderSize(conn, len(buf))
	}

	n, err := r.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		s.metrics.Failures.WithLabelValues(stageRead).Inc()
		return n, 0, fmt.Errorf("リクエストの読み込みに失敗: %w", err)
	}

	if s.policy.LogsRequest() {
		entry.WithField("bytes", n).Infof("リクエスト: %q", buf[:n])
	} else {
		entry.WithField("bytes", n).Debug("リクエストを読み捨てました")
	}

	payload, err := s.policy.Payload()
	if err != nil {
		s.metrics.Failures.WithLabelValues(stagePayload).Inc()
		return n, 0, fmt.Errorf("応答の作成に失敗: %w", err)
	}

	written, err := s.write(conn, payload, stream)
	if err != nil {
		s.metrics.Failures.WithLabelValues(stageWrite).Inc()
		return n, written, fmt.Errorf("応答の書き込みに失敗: %w", err)
	}
	return n, written, nil
}

// write は payload を1回で書き込む。stream の場合は bufio を経由してフラッシュする
func (s *Server) write(conn transport.Conn, payload []byte, stream bool) (int, error) {
	// 空の応答は bufio では書き込みが発生しないため直接書き込む
	if !stream || len(payload) == 0 {
		return conn.Write(payload)
	}

	w := bufio.NewWriterSize(conn, len(payload))
	n, err := w.Write(payload)
	if err != nil {
		return n, err
	}
	if err := w.Flush(); err != nil {
		return n, err
	}
	return n, nil
}
