package response

import "tinyresponder/internal/config"

// StaticPolicy は起動時に組み立てた固定の応答を返す
type StaticPolicy struct {
	payload []byte
}

// NewStaticPolicy は本文から HTTP 応答を組み立てる
func NewStaticPolicy(body []byte) *StaticPolicy {
	return &StaticPolicy{payload: BuildHTTP(body, "")}
}

func (p *StaticPolicy) Name() string {
	return config.PolicyStatic
}

// Payload はリクエスト内容に関係なく常に同じバイト列を返す
func (p *StaticPolicy) Payload() ([]byte, error) {
	return p.payload, nil
}

func (p *StaticPolicy) LogsRequest() bool {
	return true
}
