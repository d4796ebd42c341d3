// Package server は接続を1つずつ処理する応答ループを管理します。
//
// このパッケージは、待ち受けソケットの作成、接続の受け付け、
// 1回の読み込みと1回の書き込み、接続のクローズを繰り返します。
//
// 責務:
//   - 待ち受けソケットの作成（トランスポート経由）
//   - 接続の逐次処理（同時に扱う接続は常に1つ）
//   - 応答ポリシーによるバイト列の書き込み
//   - ステータス・メトリクスエンドポイントの提供（任意）
//
// 仕様:
//   - 読み込みは ReadChunkSize バイトまでの1回のみで、内容は解析しない
//   - 書き込みの成否に関わらず接続は必ずクローズする
//   - accept / read / write / close の失敗はリトライせず呼び出し元へ返す
//   - コンテキストのキャンセルが唯一の正常終了経路
package server
