// Package transport は待ち受けソケットの実装を抽象化する
//
// # 責務
// - バインドアドレスの名前解決
// - ソケットの作成・SO_REUSEADDR の設定・バインド・リッスン
// - 接続の accept / read / write / close
// - 利用可能な実装の選択（ケイパビリティネゴシエーション）
//
// # 仕様
//   - Unix Transport: golang.org/x/sys/unix で生ソケットを作成し、
//     指定したバックログをそのまま listen(2) に渡す
//   - Net Transport: 標準の net パッケージによる移植性のある実装。
//     バックログは OS の somaxconn に従う
//   - Negotiate は候補を順に調べ、最初に利用可能なものを選ぶ
//   - サーバーはインターフェースだけを扱い、実装の違いを意識しない
package transport
