// Package presence publishes live room populations to Redis so the
// navigator can list the busiest rooms across server processes.
package presence

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/hotelgo/server/internal/config"
)

// RoomPopulation is one navigator entry.
type RoomPopulation struct {
	RoomID  int
	Players int
}

// Publisher keeps a sorted set of room id -> active players.
type Publisher struct {
	client redis.UniversalClient
	key    string
}

// NewClient builds a Redis client from [redis].
func NewClient(cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis: addr is required")
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}), nil
}

func New(client redis.UniversalClient, key string) (*Publisher, error) {
	if client == nil {
		return nil, errors.New("presence: client is required")
	}
	if key == "" {
		return nil, errors.New("presence: key is required")
	}
	return &Publisher{client: client, key: key}, nil
}

func (p *Publisher) SetPopulation(ctx context.Context, roomID, players int) error {
	err := p.client.ZAdd(ctx, p.key, redis.Z{
		Score:  float64(players),
		Member: strconv.Itoa(roomID),
	}).Err()
	if err != nil {
		return fmt.Errorf("presence set room %d: %w", roomID, err)
	}
	return nil
}

func (p *Publisher) Remove(ctx context.Context, roomID int) error {
	if err := p.client.ZRem(ctx, p.key, strconv.Itoa(roomID)).Err(); err != nil {
		return fmt.Errorf("presence remove room %d: %w", roomID, err)
	}
	return nil
}

// Popular returns up to n occupied rooms, busiest first.
func (p *Publisher) Popular(ctx context.Context, n int) ([]RoomPopulation, error) {
	if n <= 0 {
		return nil, nil
	}
	zs, err := p.client.ZRevRangeByScoreWithScores(ctx, p.key, &redis.ZRangeBy{
		Min:   "1",
		Max:   "+inf",
		Count: int64(n),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("presence popular: %w", err)
	}
	out := make([]RoomPopulation, 0, len(zs))
	for _, z := range zs {
		member, _ := z.Member.(string)
		id, err := strconv.Atoi(member)
		if err != nil {
			continue
		}
		out = append(out, RoomPopulation{RoomID: id, Players: int(z.Score)})
	}
	return out, nil
}

// Reset drops every entry, used at boot so rooms of a previous run do not
// linger.
func (p *Publisher) Reset(ctx context.Context) error {
	return p.client.Del(ctx, p.key).Err()
}
