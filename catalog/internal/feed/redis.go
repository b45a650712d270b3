package feed

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/catalog/internal/model"
)

const ChangesChannel = "catalog:changes"

// RedisNotifier broadcasts change notices to every replica through redis pub/sub.
type RedisNotifier struct {
	rdb *redis.Client
	log *zap.Logger
}

func NewRedisNotifier(rdb *redis.Client, log *zap.Logger) *RedisNotifier {
	return &RedisNotifier{
		rdb: rdb,
		log: log.Named("notifier"),
	}
}

func (n *RedisNotifier) Changed(ctx context.Context, collections ...model.Collection) {
	if len(collections) == 0 {
		return
	}
	if err := n.rdb.Publish(ctx, ChangesChannel, encodeNotice(collections)).Err(); err != nil {
		n.log.Warn("publish change", zap.Error(err))
	}
}

// Listen relays change notices from redis into hub until ctx is done.
func Listen(ctx context.Context, rdb *redis.Client, hub *Hub, log *zap.Logger) {
	log = log.Named("listener")
	sub := rdb.Subscribe(ctx, ChangesChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				log.Warn("redis channel was closed")
				return
			}
			hub.Changed(ctx, decodeNotice(msg.Payload)...)
		case <-ctx.Done():
			return
		}
	}
}

func encodeNotice(collections []model.Collection) string {
	parts := make([]string, 0, len(collections))
	for _, c := range collections {
		parts = append(parts, string(c))
	}
	return strings.Join(parts, ",")
}

func decodeNotice(payload string) []model.Collection {
	if payload == "" {
		return nil
	}
	parts := strings.Split(payload, ",")
	collections := make([]model.Collection, 0, len(parts))
	for _, p := range parts {
		collections = append(collections, model.Collection(p))
	}
	return collections
}
