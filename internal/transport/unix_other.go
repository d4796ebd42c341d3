//go:build !unix

package transport

import (
	"context"
	"errors"
	"net"
)

// UnixTransport は Unix 系以外では利用できない
type UnixTransport struct{}

// NewUnixTransport は新しいUnixTransportを作成する
func NewUnixTransport() *UnixTransport {
	return &UnixTransport{}
}

func (t *UnixTransport) Name() string { return "unix" }

func (t *UnixTransport) Available() bool { return false }

func (t *UnixTransport) HonorsBacklog() bool { return true }

func (t *UnixTransport) Resolve(ctx context.Context, host string, port int) (*net.TCPAddr, error) {
	return resolveTCPAddr(ctx, host, port)
}

func (t *UnixTransport) Listen(context.Context, *net.TCPAddr, int) (Listener, error) {
	return nil, errors.New("unix トランスポートはこのプラットフォームでは利用できません")
}
