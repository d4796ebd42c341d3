package main

import (
	"context"
	"log"

	"tinyresponder/internal/config"
	"tinyresponder/internal/logging"
	"tinyresponder/internal/server"
)

func main() {
	// 設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("ロガーの作成に失敗しました: %v", err)
	}

	// サーバーを作成
	srv, err := server.New(cfg, logger)
	if err != nil {
		log.Fatalf("サーバーの作成に失敗しました: %v", err)
	}

	// 失敗はリトライせずプロセスを終了する
	if err := srv.Start(context.Background()); err != nil {
		log.Fatalf("サーバーが異常終了しました: %v", err)
	}
}
