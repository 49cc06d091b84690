// Package cache は在庫変更後の画面キャッシュ無効化。
package cache

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// 無効化通知を流すチャンネル
const InvalidateChannel = "cache:invalidate"

// キャッシュキーはpage:<path>
func PageKey(path string) string {
	return "page:" + path
}

// 該当キーを消して、他ノードにもPUBLISHで知らせる。失敗はログのみ
type RedisInvalidator struct {
	rdb *redis.Client
	log *slog.Logger
}

func NewRedisInvalidator(rdb *redis.Client, log *slog.Logger) *RedisInvalidator {
	return &RedisInvalidator{rdb: rdb, log: log}
}

func (i *RedisInvalidator) Invalidate(ctx context.Context, paths ...string) {
	if i.rdb == nil || len(paths) == 0 {
		return
	}

	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		keys = append(keys, PageKey(p))
	}

	pipe := i.rdb.Pipeline()
	pipe.Del(ctx, keys...)
	for _, p := range paths {
		pipe.Publish(ctx, InvalidateChannel, p)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		i.log.WarnContext(ctx, "cache invalidation failed", "paths", paths, "error", err)
	}
}

// Redisなしの環境用
type NoopInvalidator struct{}

func (NoopInvalidator) Invalidate(ctx context.Context, paths ...string) {}
