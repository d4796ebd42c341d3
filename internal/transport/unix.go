//go:build unix

package transport

import (
	"context"
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// UnixTransport は golang.org/x/sys/unix による生ソケット実装
//
// socket(2)、setsockopt(SO_REUSEADDR)、bind(2)、listen(2) を直接呼ぶので、
// 設定したバックログがそのままカーネルに渡る。
type UnixTransport struct{}

// NewUnixTransport は新しいUnixTransportを作成する
func NewUnixTransport() *UnixTransport {
	return &UnixTransport{}
}

// Name は実装名を返す
func (t *UnixTransport) Name() string {
	return "unix"
}

// Available はソケットを試しに作成できるかで判定する
func (t *UnixTransport) Available() bool {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return false
	}
	_ = unix.Close(fd)
	return true
}

// HonorsBacklog は true を返す。バックログは listen(2) にそのまま渡す
func (t *UnixTransport) HonorsBacklog() bool {
	return true
}

// Resolve はホストとポートを解決する
func (t *UnixTransport) Resolve(ctx context.Context, host string, port int) (*net.TCPAddr, error) {
	return resolveTCPAddr(ctx, host, port)
}

// Listen はソケットを作成し、バインドとリッスンを行う
func (t *UnixTransport) Listen(ctx context.Context, addr *net.TCPAddr, backlog int) (Listener, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	domain, sa, err := sockaddr(addr)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(domain, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("ソケットの作成に失敗: %w", err)
	}
	unix.CloseOnExec(fd)

	// 再起動直後でも同じアドレスへ再バインドできるようにする
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("SO_REUSEADDR の設定に失敗: %w", err)
	}

	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("バインドに失敗 (%s): %w", addr, err)
	}

	if err := unix.Listen(fd, backlog); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("リッスンに失敗 (%s): %w", addr, err)
	}

	// ランタイムのポーラーに載せるため net.Listener に変換する。
	// FileListener は fd を複製するので元のファイルは閉じてよい
	f := os.NewFile(uintptr(fd), "tinyresponder-listener")
	ln, err := net.FileListener(f)
	_ = f.Close()
	if err != nil {
		return nil, fmt.Errorf("リスナーの作成に失敗: %w", err)
	}

	return &netListener{ln: ln}, nil
}

// sockaddr はアドレスをソケットアドレスに変換する
func sockaddr(addr *net.TCPAddr) (int, unix.Sockaddr, error) {
	if ip4 := addr.IP.To4(); ip4 != nil || addr.IP == nil {
		sa := &unix.SockaddrInet4{Port: addr.Port}
		if ip4 != nil {
			copy(sa.Addr[:], ip4)
		}
		return unix.AF_INET, sa, nil
	}

	ip6 := addr.IP.To16()
	if ip6 == nil {
		return 0, nil, fmt.Errorf("不明なアドレス形式: %s", addr.IP)
	}
	sa := &unix.SockaddrInet6{Port: addr.Port}
	copy(sa.Addr[:], ip6)
	if addr.Zone != "" {
		ifi, err := net.InterfaceByName(addr.Zone)
		if err != nil {
			return 0, nil, fmt.Errorf("ゾーンの解決に失敗 (%s): %w", addr.Zone, err)
		}
		sa.ZoneId = uint32(ifi.Index)
	}
	return unix.AF_INET6, sa, nil
}
