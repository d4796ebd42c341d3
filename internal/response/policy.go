// Package response は接続へ書き込む応答バイト列を作る
package response

import (
	"fmt"
	"strconv"

	"tinyresponder/internal/config"
)

// Policy は応答の作り方を表す
type Policy interface {
	// Name はポリシー名を返す
	Name() string

	// Payload は接続へ書き込むバイト列を返す。返り値を書き換えてはならない
	Payload() ([]byte, error)

	// LogsRequest は受信したバイト列をログに表示するかを返す
	LogsRequest() bool
}

// New は設定から応答ポリシーを作成する
func New(cfg config.ResponseConfig) (Policy, error) {
	switch cfg.Policy {
	case config.PolicyStatic:
		return NewStaticPolicy([]byte(cfg.Body)), nil
	case config.PolicyFile:
		return NewFilePolicy(cfg.FilePath, cfg.Framing == config.FramingHTTP), nil
	default:
		return nil, fmt.Errorf("不明な応答ポリシー: %q", cfg.Policy)
	}
}

// BuildHTTP は 200 OK のステータス行とヘッダーを本文の前に付ける
//
// contentType が空なら Content-Type ヘッダーは付けない。
func BuildHTTP(body []byte, contentType string) []byte {
	head := "HTTP/1.1 200 OK\r\n"
	head += "Content-Length: " + strconv.Itoa(len(body)) + "\r\n"
	if contentType != "" {
		head += "Content-Type: " + contentType + "\r\n"
	}
	head += "\r\n"

	out := make([]byte, 0, len(head)+len(body))
	out = append(out, head...)
	return append(out, body...)
}
