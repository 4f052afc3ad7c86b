package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"proppool/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StatsService runs the pure aggregation functions over a pool's stored rows
// and caches the pool summary in Redis. The store stays authoritative: cache
// reads and writes that fail are logged and skipped, never surfaced.
type StatsService struct {
	db     *gorm.DB
	redis  *redis.Client
	logger *zap.Logger
}

func NewStatsService(db *gorm.DB, redis *redis.Client, logger *zap.Logger) *StatsService {
	return &StatsService{
		db:     db,
		redis:  redis,
		logger: logger,
	}
}

const summaryCacheTTL = 2 * time.Hour

func summaryCacheKey(poolID uint) string {
	return fmt.Sprintf("pool:summary:%d", poolID)
}

// PerPropStats loads the pool's props and picks and aggregates them.
func (s *StatsService) PerPropStats(poolID uint) (map[uint]PropPickStats, error) {
	props, picks, err := s.loadPoolRows(poolID)
	if err != nil {
		return nil, err
	}
	return ComputePerPropStats(picks, props), nil
}

// PoolSummary returns the leaderboard highlights, from cache when possible.
func (s *StatsService) PoolSummary(poolID uint) (*PoolPickSummary, error) {
	if summary := s.cachedSummary(poolID); summary != nil {
		return summary, nil
	}

	props, picks, err := s.loadPoolRows(poolID)
	if err != nil {
		return nil, err
	}

	stats := ComputePerPropStats(picks, props)
	summary := ComputePoolSummary(stats, props)
	s.storeSummary(poolID, &summary)

	return &summary, nil
}

// InvalidateSummary drops the cached summary after a scoring mutation.
func (s *StatsService) InvalidateSummary(poolID uint) {
	if err := s.redis.Del(context.Background(), summaryCacheKey(poolID)).Err(); err != nil {
		s.logger.Warn("failed to invalidate summary cache",
			zap.Uint("pool_id", poolID),
			zap.Error(err),
		)
	}
}

// loadPoolRows fetches the props (options in order) and every pick on them.
// These are plain reads; the aggregation itself touches no I/O.
func (s *StatsService) loadPoolRows(poolID uint) ([]models.Prop, []models.Pick, error) {
	var pool models.Pool
	if err := s.db.First(&pool, poolID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrPoolNotFound
		}
		return nil, nil, err
	}

	var props []models.Prop
	if err := s.db.Where("pool_id = ?", poolID).
		Preload("Options", orderedOptions).
		Order("props.display_order").
		Find(&props).Error; err != nil {
		return nil, nil, err
	}

	if len(props) == 0 {
		return props, nil, nil
	}

	propIDs := make([]uint, len(props))
	for i, prop := range props {
		propIDs[i] = prop.ID
	}

	var picks []models.Pick
	if err := s.db.Where("prop_id IN ?", propIDs).Find(&picks).Error; err != nil {
		return nil, nil, err
	}

	return props, picks, nil
}

func (s *StatsService) cachedSummary(poolID uint) *PoolPickSummary {
	data, err := s.redis.Get(context.Background(), summaryCacheKey(poolID)).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("failed to read summary cache",
				zap.Uint("pool_id", poolID),
				zap.Error(err),
			)
		}
		return nil
	}

	var summary PoolPickSummary
	if err := json.Unmarshal([]byte(data), &summary); err != nil {
		s.logger.Warn("failed to unmarshal cached summary",
			zap.Uint("pool_id", poolID),
			zap.Error(err),
		)
		return nil
	}
	return &summary
}

func (s *StatsService) storeSummary(poolID uint, summary *PoolPickSummary) {
	data, err := json.Marshal(summary)
	if err != nil {
		s.logger.Warn("failed to marshal summary",
			zap.Uint("pool_id", poolID),
			zap.Error(err),
		)
		return
	}

	if err := s.redis.Set(context.Background(), summaryCacheKey(poolID), data, summaryCacheTTL).Err(); err != nil {
		s.logger.Warn("failed to store summary cache",
			zap.Uint("pool_id", poolID),
			zap.Error(err),
		)
	}
}
