package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// 応答ポリシー
const (
	PolicyStatic = "static" // 固定バッファを返す
	PolicyFile   = "file"   // リクエスト毎にファイルを読み直して返す
)

// ファイル応答のフレーミング
const (
	FramingRaw  = "raw"  // ファイルの中身をそのまま書き込む（ヘッダーなし）
	FramingHTTP = "http" // ステータス行とヘッダーを付与する
)

// トランスポートの選択
const (
	TransportAuto = "auto" // 利用可能な候補から順に選ぶ
	TransportUnix = "unix" // golang.org/x/sys/unix による生ソケット
	TransportNet  = "net"  // 標準の net パッケージ
)

// 接続の読み書き方式
const (
	IOModeRecv   = "recv"   // 接続へ直接 Read/Write する
	IOModeStream = "stream" // bufio のストリームを経由する
)

// ログの出力形式
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// DefaultBody は静的応答のデフォルト本文
const DefaultBody = "Hello from MicroPython!\n"

// Config はアプリケーション全体の設定を保持する構造体
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Response ResponseConfig `yaml:"response"`
	Status   StatusConfig   `yaml:"status"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig は待ち受けソケットの設定
type ServerConfig struct {
	Host string `yaml:"host"` // バインドするホスト
	Port int    `yaml:"port"` // バインドするポート番号（0 はエフェメラル）

	Backlog       int    `yaml:"backlog"`         // accept 待ちキューの深さ
	ReadChunkSize int    `yaml:"read_chunk_size"` // 1回の読み込みの最大バイト数
	Transport     string `yaml:"transport"`       // auto / unix / net
	IOMode        string `yaml:"io_mode"`         // recv / stream
}

// ResponseConfig は応答ポリシーの設定
type ResponseConfig struct {
	Policy   string `yaml:"policy"`    // static / file
	Body     string `yaml:"body"`      // static 時の本文
	FilePath string `yaml:"file_path"` // file 時に読むファイル
	Framing  string `yaml:"framing"`   // file 時のフレーミング (raw / http)
}

// StatusConfig はステータスエンドポイントの設定
type StatusConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// LogConfig はログ出力の設定
type LogConfig struct {
	Level  string `yaml:"level"`  // logrus のレベル名
	Format string `yaml:"format"` // text / json
}

// Load は環境変数とデフォルト値から設定を読み込む
func Load() (*Config, error) {
	cfg := defaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}

	return cfg, nil
}

// LoadFile はデフォルト値の上にYAMLファイルの内容を重ねて読み込む
func LoadFile(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("設定ファイルの解析に失敗: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}

	return cfg, nil
}

// defaults は環境変数を反映したデフォルト設定を作成する
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:          getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			Port:          getEnvAsIntOrDefault("PORT", 8080),
			Backlog:       getEnvAsIntOrDefault("BACKLOG", 5),
			ReadChunkSize: getEnvAsIntOrDefault("READ_CHUNK_SIZE", 4096),
			Transport:     getEnvOrDefault("TRANSPORT", TransportAuto),
			IOMode:        getEnvOrDefault("IO_MODE", IOModeRecv),
		},
		Response: ResponseConfig{
			Policy:   getEnvOrDefault("RESPONSE_POLICY", PolicyStatic),
			Body:     DefaultBody,
			FilePath: getEnvOrDefault("RESPONSE_FILE", "index.html"),
			Framing:  getEnvOrDefault("RESPONSE_FRAMING", FramingRaw),
		},
		Status: StatusConfig{
			Enabled: getEnvAsBoolOrDefault("STATUS_ENABLED", false),
			Host:    getEnvOrDefault("STATUS_HOST", "127.0.0.1"),
			Port:    getEnvAsIntOrDefault("STATUS_PORT", 9090),
		},
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", LogFormatText),
		},
	}
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	// サーバー設定の検証
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("無効なポート番号: %d", c.Server.Port)
	}
	if c.Server.Backlog < 1 {
		return fmt.Errorf("無効なバックログ: %d", c.Server.Backlog)
	}
	if c.Server.ReadChunkSize < 1 {
		return fmt.Errorf("無効な読み込みサイズ: %d", c.Server.ReadChunkSize)
	}
	if !oneOf(c.Server.Transport, TransportAuto, TransportUnix, TransportNet) {
		return fmt.Errorf("不明なトランスポート: %q", c.Server.Transport)
	}
	if !oneOf(c.Server.IOMode, IOModeRecv, IOModeStream) {
		return fmt.Errorf("不明なI/Oモード: %q", c.Server.IOMode)
	}

	// 応答設定の検証
	switch c.Response.Policy {
	case PolicyStatic:
	case PolicyFile:
		if c.Response.FilePath == "" {
			return fmt.Errorf("file ポリシーにはファイルパスが必要です")
		}
	default:
		return fmt.Errorf("不明な応答ポリシー: %q", c.Response.Policy)
	}
	if !oneOf(c.Response.Framing, FramingRaw, FramingHTTP) {
		return fmt.Errorf("不明なフレーミング: %q", c.Response.Framing)
	}

	// ステータスエンドポイントの検証
	if c.Status.Enabled {
		if c.Status.Port < 0 || c.Status.Port > 65535 {
			return fmt.Errorf("無効なステータスポート番号: %d", c.Status.Port)
		}
		if c.Status.Port != 0 && c.Status.Port == c.Server.Port {
			return fmt.Errorf("ステータスポートがサーバーポートと重複しています: %d", c.Status.Port)
		}
	}

	if !oneOf(c.Log.Format, LogFormatText, LogFormatJSON) {
		return fmt.Errorf("不明なログ形式: %q", c.Log.Format)
	}

	return nil
}

// ServerAddress はサーバーのリッスンアドレスを返す
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// StatusAddress はステータスエンドポイントのリッスンアドレスを返す
func (c *Config) StatusAddress() string {
	return fmt.Sprintf("%s:%d", c.Status.Host, c.Status.Port)
}

func oneOf(v string, candidates ...string) bool {
	for _, c := range candidates {
		if v == c {
			return true
		}
	}
	return false
}

// getEnvOrDefault は環境変数を取得し、設定されていない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は環境変数を整数として取得し、設定されていない場合はデフォルト値を返す
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvAsBoolOrDefault は環境変数を真偽値として取得する
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultValue
}
