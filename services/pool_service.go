package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"proppool/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PoolService covers the pool lifecycle and the player-facing path: joining
// by invite code and submitting picks while the pool is open. Once the pool
// is locked, picks are frozen and scoring belongs to PropService.
type PoolService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewPoolService(db *gorm.DB, logger *zap.Logger) *PoolService {
	return &PoolService{
		db:     db,
		logger: logger,
	}
}

type CreatePoolRequest struct {
	Name        string `json:"name"`
	CaptainName string `json:"captain_name"`
}

type JoinPoolRequest struct {
	InviteCode string `json:"invite_code"`
	Name       string `json:"name"`
}

// CreatePool creates a pool in draft status with a fresh invite code and
// captain secret.
func (s *PoolService) CreatePool(req *CreatePoolRequest) (*models.Pool, error) {
	pool := models.Pool{
		Name:          req.Name,
		InviteCode:    s.generateInviteCode(),
		CaptainName:   req.CaptainName,
		CaptainSecret: uuid.NewString(),
		Status:        models.PoolStatusDraft,
	}

	if err := s.db.Create(&pool).Error; err != nil {
		return nil, err
	}

	s.logger.Info("pool created",
		zap.Uint("pool_id", pool.ID),
		zap.String("invite_code", pool.InviteCode),
	)
	return &pool, nil
}

// OpenPool moves a draft pool to open. Players can now join and pick.
func (s *PoolService) OpenPool(poolID uint) (*models.Pool, error) {
	return s.advancePool(poolID, models.PoolStatusDraft, models.PoolStatusOpen)
}

// LockPool freezes picks; resolving and voiding props requires this status.
func (s *PoolService) LockPool(poolID uint) (*models.Pool, error) {
	return s.advancePool(poolID, models.PoolStatusOpen, models.PoolStatusLocked)
}

// CompletePool marks the contest finished. Props left unresolved simply never
// award their points.
func (s *PoolService) CompletePool(poolID uint) (*models.Pool, error) {
	return s.advancePool(poolID, models.PoolStatusLocked, models.PoolStatusCompleted)
}

// advancePool performs one forward lifecycle step; anything else is rejected.
func (s *PoolService) advancePool(poolID uint, from, to string) (*models.Pool, error) {
	var pool models.Pool
	if err := s.db.First(&pool, poolID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPoolNotFound
		}
		return nil, err
	}
	if pool.Status != from {
		return nil, ErrInvalidTransition
	}

	if err := s.db.Model(&pool).Update("status", to).Error; err != nil {
		return nil, err
	}
	pool.Status = to

	s.logger.Info("pool status changed",
		zap.Uint("pool_id", pool.ID),
		zap.String("status", to),
	)
	return &pool, nil
}

// GetPool loads a pool with its props (options ordered) and players.
func (s *PoolService) GetPool(poolID uint) (*models.Pool, error) {
	var pool models.Pool
	err := s.db.
		Preload("Props", func(db *gorm.DB) *gorm.DB {
			return db.Order("props.display_order")
		}).
		Preload("Props.Options", orderedOptions).
		Preload("Players").
		First(&pool, poolID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPoolNotFound
		}
		return nil, err
	}
	return &pool, nil
}

// GetPoolByInviteCode is the join-path lookup.
func (s *PoolService) GetPoolByInviteCode(code string) (*models.Pool, error) {
	var pool models.Pool
	err := s.db.Where("invite_code = ?", code).First(&pool).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPoolNotFound
		}
		return nil, err
	}
	return &pool, nil
}

// JoinPool adds a player to an open pool. Names are unique within a pool.
func (s *PoolService) JoinPool(req *JoinPoolRequest) (*models.Player, error) {
	pool, err := s.GetPoolByInviteCode(req.InviteCode)
	if err != nil {
		return nil, err
	}
	if pool.Status != models.PoolStatusOpen {
		return nil, ErrPicksClosed
	}

	var existing models.Player
	if err := s.db.Where("pool_id = ? AND name = ?", pool.ID, req.Name).
		First(&existing).Error; err == nil {
		return nil, ErrNameTaken
	}

	player := models.Player{
		PoolID:   pool.ID,
		Name:     req.Name,
		Secret:   uuid.NewString(),
		Status:   models.PlayerStatusActive,
		JoinedAt: time.Now(),
	}
	if err := s.db.Create(&player).Error; err != nil {
		return nil, err
	}

	s.logger.Info("player joined",
		zap.Uint("pool_id", pool.ID),
		zap.Uint("player_id", player.ID),
		zap.String("name", player.Name),
	)
	return &player, nil
}

// RemovePlayer flips a player to removed. Their picks stay; only the
// leaderboard stops listing them.
func (s *PoolService) RemovePlayer(playerID uint) error {
	result := s.db.Model(&models.Player{}).Where("id = ?", playerID).
		Update("status", models.PlayerStatusRemoved)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

// SubmitPick records or replaces a player's answer to a prop while the pool
// is open. The index is checked against the prop's current options; edits to
// the options after submission can still strand an old pick out of range.
func (s *PoolService) SubmitPick(playerID, propID uint, optionIndex int) (*models.Pick, error) {
	var player models.Player
	if err := s.db.First(&player, playerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	if player.Status != models.PlayerStatusActive {
		return nil, ErrPlayerNotFound
	}

	var prop models.Prop
	if err := s.db.Preload("Options", orderedOptions).First(&prop, propID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPropNotFound
		}
		return nil, err
	}
	if prop.PoolID != player.PoolID {
		return nil, ErrPropNotFound
	}

	var pool models.Pool
	if err := s.db.First(&pool, prop.PoolID).Error; err != nil {
		return nil, err
	}
	if pool.Status != models.PoolStatusOpen {
		return nil, ErrPicksClosed
	}

	if optionIndex < 0 || optionIndex >= len(prop.Options) {
		return nil, ErrInvalidOption
	}

	// Upsert on (player, prop): resubmitting replaces the selection.
	var pick models.Pick
	err := s.db.Where("player_id = ? AND prop_id = ?", playerID, propID).First(&pick).Error
	switch {
	case err == nil:
		if err := s.db.Model(&pick).Update("selected_option_index", optionIndex).Error; err != nil {
			return nil, err
		}
		pick.SelectedOptionIndex = optionIndex
	case errors.Is(err, gorm.ErrRecordNotFound):
		pick = models.Pick{
			PlayerID:            playerID,
			PropID:              propID,
			SelectedOptionIndex: optionIndex,
		}
		if err := s.db.Create(&pick).Error; err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	return &pick, nil
}

// Leaderboard lists a pool's active players by cached total, best first.
func (s *PoolService) Leaderboard(poolID uint) ([]models.Player, error) {
	if _, err := s.GetPoolByID(poolID); err != nil {
		return nil, err
	}

	var players []models.Player
	err := s.db.Where("pool_id = ? AND status = ?", poolID, models.PlayerStatusActive).
		Order("total_points DESC").
		Order("name ASC").
		Find(&players).Error
	return players, err
}

// GetPoolByID loads the bare pool row.
func (s *PoolService) GetPoolByID(poolID uint) (*models.Pool, error) {
	var pool models.Pool
	if err := s.db.First(&pool, poolID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPoolNotFound
		}
		return nil, err
	}
	return &pool, nil
}

func (s *PoolService) generateInviteCode() string {
	bytes := make([]byte, 3)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)[:6]
}
