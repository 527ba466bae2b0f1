package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"attendance-svc/src/internal/config"
	"attendance-svc/src/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Service interface {
	GetEmployeeExists(ctx context.Context, employeeID string) (found bool, exists bool, err error)
	SaveEmployeeExists(ctx context.Context, employeeID string, exists bool) error
	SaveStats(ctx context.Context, stats *models.Stats) error
	GetStats(ctx context.Context) (*models.Stats, error)
}

type cacheService struct {
	client *redis.Client
	cfg    *config.CacheConfig
}

func NewCacheService(client *redis.Client, cfg *config.Configuration) Service {
	return &cacheService{
		client: client,
		cfg:    &cfg.Cache,
	}
}

func employeeKey(employeeID string) string {
	return fmt.Sprintf("employee:exists:%s", employeeID)
}

func (c *cacheService) GetEmployeeExists(ctx context.Context, employeeID string) (bool, bool, error) {
	data, err := c.client.Get(ctx, employeeKey(employeeID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, false, nil // Not an error, just not cached
		}
		logrus.WithError(err).WithField("employee_id", employeeID).Error("Failed to get employee existence from cache")
		return false, false, models.ErrRedisGet
	}

	exists, err := strconv.ParseBool(data)
	if err != nil {
		logrus.WithField("employee_id", employeeID).Warn("Corrupt employee existence cache entry")
		return false, false, models.ErrRedisGet
	}

	return true, exists, nil
}

func (c *cacheService) SaveEmployeeExists(ctx context.Context, employeeID string, exists bool) error {
	expiration := time.Duration(c.cfg.EmployeeExpirationMinutes) * time.Minute

	err := c.client.Set(ctx, employeeKey(employeeID), strconv.FormatBool(exists), expiration).Err()
	if err != nil {
		logrus.WithError(err).WithField("employee_id", employeeID).Error("Failed to cache employee existence")
		return models.ErrRedisSet
	}

	return nil
}

func (c *cacheService) SaveStats(ctx context.Context, stats *models.Stats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal attendance stats for cache")
		return models.ErrRedisSet
	}

	expiration := time.Duration(c.cfg.StatsExpirationMinutes) * time.Minute
	err = c.client.Set(ctx, c.cfg.StatsKey, data, expiration).Err()
	if err != nil {
		logrus.WithError(err).Error("Failed to cache attendance stats")
		return models.ErrRedisSet
	}
	return nil
}

func (c *cacheService) GetStats(ctx context.Context) (*models.Stats, error) {
	data, err := c.client.Get(ctx, c.cfg.StatsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			logrus.Debug("Attendance stats not found in cache")
			return nil, nil // Not an error, just not found
		}
		logrus.WithError(err).Error("Failed to get attendance stats from cache")
		return nil, models.ErrRedisGet
	}

	var stats models.Stats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		logrus.WithError(err).Error("Failed to unmarshal attendance stats from cache")
		return nil, models.ErrRedisGet
	}

	logrus.Debug("Attendance stats retrieved from cache successfully")
	return &stats, nil
}
