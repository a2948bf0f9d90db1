// Package registry answers "does this robot belong to this organization"
// against the fleet registry kept in Redis by the robot CRUD service.
package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type RobotRegistry interface {
	RobotExists(ctx context.Context, robotID, organizationID string) (bool, error)
	Close() error
}

type RedisOpts struct {
	Addr, Password, Namespace, InvalidateChannel string

	DB        int
	UsePubSub bool
	Timeout   time.Duration
}

type redisRegistry struct {
	rdb       *redis.Client
	nsPrefix  string
	subject   string
	usePubSub bool
	// memCache holds positive lookups only; invalidation comes over pub/sub
	// when a robot is moved or deleted.
	memCache sync.Map
}

func NewRedisRegistry(o RedisOpts) RobotRegistry {
	rdb := redis.NewClient(&redis.Options{
		Addr:         o.Addr,
		Password:     o.Password,
		DB:           o.DB,
		DialTimeout:  o.Timeout,
		ReadTimeout:  o.Timeout,
		WriteTimeout: o.Timeout,
	})
	rr := &redisRegistry{
		rdb:       rdb,
		nsPrefix:  firstNonEmpty(o.Namespace, "fleet"),
		subject:   firstNonEmpty(o.InvalidateChannel, "robots:invalidate"),
		usePubSub: o.UsePubSub,
	}
	if rr.usePubSub {
		go rr.listenInvalidations(context.Background())
	}
	return rr
}

func (r *redisRegistry) key(robotID, organizationID string) string {
	return fmt.Sprintf("%s:robot:%s:%s", r.nsPrefix, organizationID, robotID)
}

func (r *redisRegistry) RobotExists(ctx context.Context, robotID, organizationID string) (bool, error) {
	k := r.key(robotID, organizationID)
	if _, ok := r.memCache.Load(k); ok {
		return true, nil
	}
	n, err := r.rdb.Exists(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("registry lookup failed (%s): %w", k, err)
	}
	if n == 0 {
		return false, nil
	}
	r.memCache.Store(k, struct{}{})
	return true, nil
}

func (r *redisRegistry) listenInvalidations(ctx context.Context) {
	pubsub := r.rdb.Subscribe(ctx, r.subject)
	for msg := range pubsub.Channel() {
		payload := strings.TrimSpace(msg.Payload)
		if payload == "ALL" || payload == "" {
			r.memCache.Range(func(k, _ any) bool {
				r.memCache.Delete(k)
				return true
			})
			continue
		}
		r.memCache.Delete(payload)
	}
}

func (r *redisRegistry) Close() error { return r.rdb.Close() }

func firstNonEmpty(s, def string) string {
	if strings.TrimSpace(s) != "" {
		return s
	}
	return def
}
