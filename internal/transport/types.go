package transport

import (
	"context"
	"net"
)

// Conn はクライアント接続が提供する操作
type Conn interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	RemoteAddr() net.Addr
}

// Listener は待ち受けソケットが提供する操作
type Listener interface {
	// Accept は次の接続が来るまでブロックする
	Accept() (Conn, error)

	// Addr はバインドされたアドレスを返す
	Addr() net.Addr

	// Close は待ち受けを終了する。ブロック中の Accept は net.ErrClosed で戻る
	Close() error
}

// Transport はソケット実装の抽象
type Transport interface {
	// Name は実装名を返す
	Name() string

	// Available はこの環境で実装が使えるかを返す
	Available() bool

	// Resolve はホストとポートをバインド用のアドレスに解決する
	Resolve(ctx context.Context, host string, port int) (*net.TCPAddr, error)

	// HonorsBacklog は Listen に渡したバックログがそのまま使われるかを返す
	HonorsBacklog() bool

	// Listen はアドレスにバインドし、指定のバックログで待ち受けを開始する
	Listen(ctx context.Context, addr *net.TCPAddr, backlog int) (Listener, error)
}

// netListener は net.Listener を Listener に合わせるアダプタ
type netListener struct {
	ln net.Listener
}

func (l *netListener) Accept() (Conn, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (l *netListener) Addr() net.Addr {
	return l.ln.Addr()
}

func (l *netListener) Close() error {
	return l.ln.Close()
}
