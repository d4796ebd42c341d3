package transport

import (
	"bytes"
	"context"
	"errors"
	"net"
	"sync"
)

// MockTransport はテスト用のTransport実装
type MockTransport struct {
	NameValue  string
	Avail      bool
	Backlog    bool
	ResolveErr error
	ListenErr  error

	mu       sync.Mutex
	backlogs []int
	listener *MockListener
}

// NewMockTransport は新しいMockTransportを作成する
func NewMockTransport(name string, available bool) *MockTransport {
	return &MockTransport{NameValue: name, Avail: available, Backlog: true}
}

func (t *MockTransport) Name() string        { return t.NameValue }
func (t *MockTransport) Available() bool     { return t.Avail }
func (t *MockTransport) HonorsBacklog() bool { return t.Backlog }

// Resolve は ResolveErr が無ければループバックのアドレスを返す
func (t *MockTransport) Resolve(_ context.Context, _ string, port int) (*net.TCPAddr, error) {
	if t.ResolveErr != nil {
		return nil, t.ResolveErr
	}
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}, nil
}

// Listen はバックログを記録し、MockListener を返す
func (t *MockTransport) Listen(_ context.Context, addr *net.TCPAddr, backlog int) (Listener, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.backlogs = append(t.backlogs, backlog)
	if t.ListenErr != nil {
		return nil, t.ListenErr
	}
	t.listener = NewMockListener(addr)
	return t.listener, nil
}

// Backlogs は Listen に渡されたバックログの履歴を返す
func (t *MockTransport) Backlogs() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]int(nil), t.backlogs...)
}

// Listener は最後に作成したリスナーを返す
func (t *MockTransport) Listener() *MockListener {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.listener
}

// MockListener はチャンネルから接続を払い出すテスト用リスナー
type MockListener struct {
	addr  net.Addr
	conns chan acceptResult
	done  chan struct{}
	once  sync.Once
}

type acceptResult struct {
	conn Conn
	err  error
}

// NewMockListener は新しいMockListenerを作成する
func NewMockListener(addr net.Addr) *MockListener {
	return &MockListener{
		addr:  addr,
		conns: make(chan acceptResult, 16),
		done:  make(chan struct{}),
	}
}

// Push は次に Accept で返す接続を積む
func (l *MockListener) Push(conn Conn) {
	l.conns <- acceptResult{conn: conn}
}

// PushError は次の Accept で返すエラーを積む
func (l *MockListener) PushError(err error) {
	l.conns <- acceptResult{err: err}
}

func (l *MockListener) Accept() (Conn, error) {
	// 閉じた後は積まれた接続より終了を優先する
	select {
	case <-l.done:
		return nil, net.ErrClosed
	default:
	}

	select {
	case r := <-l.conns:
		return r.conn, r.err
	case <-l.done:
		return nil, net.ErrClosed
	}
}

func (l *MockListener) Addr() net.Addr {
	return l.addr
}

func (l *MockListener) Close() error {
	l.once.Do(func() { close(l.done) })
	return nil
}

// MockConn は読み込み内容と書き込み履歴を持つテスト用接続
type MockConn struct {
	ReadErr  error
	WriteErr error
	CloseErr error

	mu     sync.Mutex
	input  *bytes.Reader
	writes [][]byte
	reads  int
	closed bool
	closeC chan struct{}
	remote net.Addr
}

// NewMockConn は input を一度に返す MockConn を作成する
func NewMockConn(input []byte) *MockConn {
	return &MockConn{
		input:  bytes.NewReader(input),
		closeC: make(chan struct{}),
		remote: &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 40000},
	}
}

func (c *MockConn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reads++
	if c.ReadErr != nil {
		return 0, c.ReadErr
	}
	return c.input.Read(p)
}

func (c *MockConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, net.ErrClosed
	}
	c.writes = append(c.writes, append([]byte(nil), p...))
	if c.WriteErr != nil {
		return 0, c.WriteErr
	}
	return len(p), nil
}

func (c *MockConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.New("既にクローズされています")
	}
	c.closed = true
	close(c.closeC)
	return c.CloseErr
}

func (c *MockConn) RemoteAddr() net.Addr {
	return c.remote
}

// Writes は書き込まれたバイト列の履歴を返す
func (c *MockConn) Writes() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.writes...)
}

// Reads は Read が呼ばれた回数を返す
func (c *MockConn) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// Closed はクローズ済みかを返す
func (c *MockConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Done はクローズされると閉じるチャンネルを返す
func (c *MockConn) Done() <-chan struct{} {
	return c.closeC
}
