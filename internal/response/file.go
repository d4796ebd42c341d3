package response

import (
	"fmt"
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"

	"tinyresponder/internal/config"
)

// FilePolicy はリクエストの度にファイルを読み直して返す
//
// キャッシュはしない。ファイルを編集すると次のリクエストから反映される。
// withHeaders が false の場合はファイルの中身だけを書き込み、
// ステータス行やヘッダーは付けない。
type FilePolicy struct {
	path        string
	withHeaders bool
}

// NewFilePolicy は新しいFilePolicyを作成する
func NewFilePolicy(path string, withHeaders bool) *FilePolicy {
	return &FilePolicy{path: path, withHeaders: withHeaders}
}

func (p *FilePolicy) Name() string {
	return config.PolicyFile
}

// Path は読み込むファイルのパスを返す
func (p *FilePolicy) Path() string {
	return p.path
}

// Payload はファイルを開いて全て読み込み、閉じてから内容を返す
func (p *FilePolicy) Payload() ([]byte, error) {
	data, err := p.readAll()
	if err != nil {
		return nil, err
	}

	if !p.withHeaders {
		return data, nil
	}
	return BuildHTTP(data, mimetype.Detect(data).String()), nil
}

func (p *FilePolicy) readAll() ([]byte, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("応答ファイルのオープンに失敗: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("応答ファイルの読み込みに失敗 (%s): %w", p.path, err)
	}
	return data, nil
}

// LogsRequest は false を返す。受信したバイト列は読み捨てる
func (p *FilePolicy) LogsRequest() bool {
	return false
}
