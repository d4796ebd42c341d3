// Package logging は logrus のロガーを設定から組み立てる
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"tinyresponder/internal/config"
)

// New は設定に従ったロガーを標準出力向けに作成する
func New(cfg config.LogConfig) (*logrus.Logger, error) {
	return NewWithOutput(cfg, os.Stdout)
}

// NewWithOutput は出力先を指定してロガーを作成する
func NewWithOutput(cfg config.LogConfig, out io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(out)

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("ログレベルの解析に失敗: %w", err)
	}
	logger.SetLevel(lvl)

	switch cfg.Format {
	case config.LogFormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger, nil
}
