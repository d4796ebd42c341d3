// Package main はtinyresponderサーバーコマンドの実装です
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"tinyresponder/internal/config"
	"tinyresponder/internal/logging"
	"tinyresponder/internal/server"
)

func main() {
	// コマンドラインオプション
	var (
		configFile = flag.String("config", "", "YAML設定ファイルのパス")
		host       = flag.String("host", "", "バインドするホスト (デフォルト: 0.0.0.0)")
		port       = flag.Int("port", -1, "バインドするポート (デフォルト: 8080)")
		backlog    = flag.Int("backlog", 0, "accept待ちキューの深さ (デフォルト: 5)")
		chunk      = flag.Int("read-chunk", 0, "1回の読み込みの最大バイト数 (デフォルト: 4096)")
		policy     = flag.String("policy", "", "応答ポリシー: static / file")
		file       = flag.String("file", "", "file ポリシーで返すファイル")
		framing    = flag.String("framing", "", "file ポリシーのフレーミング: raw / http")
		transport  = flag.String("transport", "", "トランスポート: auto / unix / net")
		ioMode     = flag.String("io-mode", "", "読み書き方式: recv / stream")
		statusPort = flag.Int("status-port", 0, "ステータスエンドポイントを有効にするポート")
		logLevel   = flag.String("log-level", "", "ログレベル")
		help       = flag.Bool("help", false, "ヘルプを表示")
	)

	flag.Parse()

	// ヘルプ表示
	if *help {
		fmt.Println("tinyresponder")
		fmt.Println()
		fmt.Println("使用方法:")
		fmt.Println("  server [オプション]")
		fmt.Println()
		fmt.Println("オプション:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	// 設定を読み込む
	var (
		cfg *config.Config
		err error
	)
	if *configFile != "" {
		cfg, err = config.LoadFile(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// コマンドラインオプションで設定を上書き
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port >= 0 {
		cfg.Server.Port = *port
	}
	if *backlog != 0 {
		cfg.Server.Backlog = *backlog
	}
	if *chunk != 0 {
		cfg.Server.ReadChunkSize = *chunk
	}
	if *policy != "" {
		cfg.Response.Policy = *policy
	}
	if *file != "" {
		cfg.Response.FilePath = *file
	}
	if *framing != "" {
		cfg.Response.Framing = *framing
	}
	if *transport != "" {
		cfg.Server.Transport = *transport
	}
	if *ioMode != "" {
		cfg.Server.IOMode = *ioMode
	}
	if *statusPort != 0 {
		cfg.Status.Enabled = true
		cfg.Status.Port = *statusPort
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("設定が不正です: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("ロガーの作成に失敗しました: %v", err)
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		log.Fatalf("サーバーの作成に失敗しました: %v", err)
	}

	log.Printf("tinyresponder を起動します: %s (transport=%s)", cfg.ServerAddress(), srv.Transport().Name())
	if err := srv.Start(context.Background()); err != nil {
		log.Fatalf("サーバーが異常終了しました: %v", err)
	}
}
