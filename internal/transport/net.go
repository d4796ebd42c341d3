package transport

import (
	"context"
	"fmt"
	"net"
)

// NetTransport は標準の net パッケージによる実装
//
// Unix 系では net パッケージがリッスンソケットに SO_REUSEADDR を設定する。
// バックログは指定できず、OS の somaxconn が使われる。
type NetTransport struct{}

// NewNetTransport は新しいNetTransportを作成する
func NewNetTransport() *NetTransport {
	return &NetTransport{}
}

// Name は実装名を返す
func (t *NetTransport) Name() string {
	return "net"
}

// Available は常に true を返す
func (t *NetTransport) Available() bool {
	return true
}

// HonorsBacklog は false を返す。net パッケージはバックログを受け取らない
func (t *NetTransport) HonorsBacklog() bool {
	return false
}

// Resolve はホストとポートを解決する
func (t *NetTransport) Resolve(ctx context.Context, host string, port int) (*net.TCPAddr, error) {
	return resolveTCPAddr(ctx, host, port)
}

// Listen はアドレスにバインドして待ち受けを開始する
func (t *NetTransport) Listen(ctx context.Context, addr *net.TCPAddr, _ int) (Listener, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr.String())
	if err != nil {
		return nil, fmt.Errorf("リッスンに失敗 (%s): %w", addr, err)
	}
	return &netListener{ln: ln}, nil
}
