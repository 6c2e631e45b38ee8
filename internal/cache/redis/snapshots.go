package redis

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"turtle_dash/internal/models"
)

const (
	snapshotKey = "turtle:snapshot"
	snapshotTTL = 48 * time.Hour
)

// Snapshots хранит последний ScanResult целиком, одним JSON-значением.
type Snapshots struct {
	rdb *redis.Client
}

func NewSnapshots(c *Client) *Snapshots {
	return &Snapshots{rdb: c.rdb}
}

func (s *Snapshots) Save(ctx context.Context, res *models.ScanResult) error {
	raw, err := sonic.Marshal(res)
	if err != nil {
		return errors.Wrap(err, "redis: marshal snapshot")
	}
	return errors.Wrap(s.rdb.Set(ctx, snapshotKey, raw, snapshotTTL).Err(), "redis: save snapshot")
}

// Load возвращает (nil, nil), когда снапшота нет.
func (s *Snapshots) Load(ctx context.Context) (*models.ScanResult, error) {
	raw, err := s.rdb.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis: load snapshot")
	}

	res := &models.ScanResult{}
	if err = sonic.Unmarshal(raw, res); err != nil {
		return nil, errors.Wrap(err, "redis: decode snapshot")
	}
	return res, nil
}
