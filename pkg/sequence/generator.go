package sequence

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"artisan-marketplace/pkg/rediskey"
	"artisan-marketplace/pkg/util"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var Module = fx.Module("sequence",
	fx.Provide(NewRedisGenerator),
)

// Generator issues human-readable reference codes for rows that buyers and
// support staff see (orders, donations). Row ids stay snowflake.
type Generator interface {
	NextOrderCode(ctx context.Context) (string, error)
	NextDonationCode(ctx context.Context) (string, error)
}

type RedisGenerator struct {
	rdb *redis.Client
}

type Params struct {
	fx.In

	Redis *redis.Client
}

func NewRedisGenerator(p Params) Generator {
	return &RedisGenerator{
		rdb: p.Redis,
	}
}

func (g *RedisGenerator) NextOrderCode(ctx context.Context) (string, error) {
	return g.nextDailyCode(ctx, rediskey.OrderSequence)
}

func (g *RedisGenerator) NextDonationCode(ctx context.Context) (string, error) {
	return g.nextDailyCode(ctx, rediskey.DonationSequence)
}

func (g *RedisGenerator) nextDailyCode(ctx context.Context, prefix string) (string, error) {
	today := time.Now().UTC().Format("060102")
	key := rediskey.BuildDailySequenceKey(prefix, today)

	seq, err := g.rdb.Incr(ctx, key).Result()
	if err != nil {
		return "", err
	}

	if seq == 1 {
		// daily keys expire at the next UTC midnight
		expire := time.Until(time.Now().UTC().Truncate(24 * time.Hour).Add(24*time.Hour - time.Second))
		_ = g.rdb.Expire(ctx, key, expire).Err()
	}

	encodedSeq := strings.ToUpper(fmt.Sprintf("%03s", strconv.FormatInt(seq, 36)))

	randSuffix, err := util.RandomCode(2)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%s-%s%s", prefix, today, encodedSeq, randSuffix), nil
}
