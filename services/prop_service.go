package services

import (
	"errors"
	"fmt"
	"sort"

	"proppool/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PropService owns the prop lifecycle: creation and option edits while the
// pool is taking picks, then the resolve/void state machine once the pool is
// locked. Every scoring mutation runs in a single transaction that rewrites
// the affected picks and rebuilds the affected player totals together.
type PropService struct {
	db     *gorm.DB
	stats  *StatsService
	logger *zap.Logger
}

func NewPropService(db *gorm.DB, stats *StatsService, logger *zap.Logger) *PropService {
	return &PropService{
		db:     db,
		stats:  stats,
		logger: logger,
	}
}

type CreatePropRequest struct {
	Question   string   `json:"question"`
	Options    []string `json:"options"`
	PointValue int      `json:"point_value"`
	Order      int      `json:"order"`
	Category   string   `json:"category"`
}

const (
	minPropOptions = 2
	maxPropOptions = 10
)

// forUpdate adds a row lock on postgres. SQLite serializes writing
// transactions on its own and rejects the FOR UPDATE syntax.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func orderedOptions(db *gorm.DB) *gorm.DB {
	return db.Order("options.display_order")
}

// AddProp creates a prop with its options while the pool is still in draft or
// open status.
func (s *PropService) AddProp(poolID uint, req *CreatePropRequest) (*models.Prop, error) {
	if len(req.Options) < minPropOptions || len(req.Options) > maxPropOptions {
		return nil, ErrInvalidOption
	}
	if req.PointValue <= 0 {
		return nil, fmt.Errorf("point value must be positive")
	}

	var pool models.Pool
	if err := s.db.First(&pool, poolID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPoolNotFound
		}
		return nil, err
	}
	if pool.Status != models.PoolStatusDraft && pool.Status != models.PoolStatusOpen {
		return nil, ErrInvalidTransition
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	prop := models.Prop{
		PoolID:     poolID,
		Question:   req.Question,
		PointValue: req.PointValue,
		Status:     models.PropStatusActive,
		Order:      req.Order,
		Category:   req.Category,
	}
	if err := tx.Create(&prop).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	for i, text := range req.Options {
		option := models.Option{
			PropID: prop.ID,
			Text:   text,
			Order:  i,
		}
		if err := tx.Create(&option).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return s.GetProp(prop.ID)
}

// ReplaceOptions swaps out a prop's option list while the pool is open.
// Existing options are deleted and recreated. Picks submitted against the old
// list are left untouched, so a pick's index can end up past the new option
// count; such picks count toward totals but can never score.
func (s *PropService) ReplaceOptions(propID uint, options []string) (*models.Prop, error) {
	if len(options) < minPropOptions || len(options) > maxPropOptions {
		return nil, ErrInvalidOption
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var prop models.Prop
	if err := tx.First(&prop, propID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPropNotFound
		}
		return nil, err
	}

	var pool models.Pool
	if err := tx.First(&pool, prop.PoolID).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if pool.Status != models.PoolStatusOpen {
		return nil, errRollback(tx, ErrInvalidTransition)
	}
	if prop.Status == models.PropStatusVoided {
		return nil, errRollback(tx, ErrAlreadyVoided)
	}

	if err := tx.Where("prop_id = ?", propID).Delete(&models.Option{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for i, text := range options {
		option := models.Option{
			PropID: propID,
			Text:   text,
			Order:  i,
		}
		if err := tx.Create(&option).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return s.GetProp(propID)
}

// GetProp loads a prop with its options in display order.
func (s *PropService) GetProp(propID uint) (*models.Prop, error) {
	var prop models.Prop
	err := s.db.Preload("Options", orderedOptions).First(&prop, propID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPropNotFound
		}
		return nil, err
	}
	return &prop, nil
}

// ResolveProp records the correct option for a prop and rescores it. The
// owning pool must be locked. Calling it again with a different index fully
// rescores every pick against the new answer; with the same index it is a
// no-op in effect, so callers may retry safely.
func (s *PropService) ResolveProp(propID uint, correctOptionIndex int) (*models.Prop, []uint, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	prop, err := s.lockedProp(tx, propID)
	if err != nil {
		tx.Rollback()
		return nil, nil, err
	}
	if prop.Status == models.PropStatusVoided {
		return nil, nil, errRollback(tx, ErrAlreadyVoided)
	}
	if correctOptionIndex < 0 || correctOptionIndex >= len(prop.Options) {
		return nil, nil, errRollback(tx, ErrInvalidOption)
	}

	if err := tx.Model(prop).Update("correct_option_index", correctOptionIndex).Error; err != nil {
		tx.Rollback()
		return nil, nil, err
	}
	prop.CorrectOptionIndex = &correctOptionIndex

	playerIDs, err := s.rescoreProp(tx, prop)
	if err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, nil, err
	}

	s.logger.Info("prop resolved",
		zap.Uint("prop_id", prop.ID),
		zap.Int("correct_option_index", correctOptionIndex),
		zap.Int("players_affected", len(playerIDs)),
	)
	s.stats.InvalidateSummary(prop.PoolID)

	return prop, playerIDs, nil
}

// VoidProp takes a prop out of scoring for good: status flips to voided, the
// correct option is cleared and every pick on it is zeroed. Voiding is
// terminal; a voided prop can be neither resolved nor voided again.
func (s *PropService) VoidProp(propID uint) (*models.Prop, []uint, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	prop, err := s.lockedProp(tx, propID)
	if err != nil {
		tx.Rollback()
		return nil, nil, err
	}
	if prop.Status == models.PropStatusVoided {
		return nil, nil, errRollback(tx, ErrAlreadyVoided)
	}

	updates := map[string]interface{}{
		"status":               models.PropStatusVoided,
		"correct_option_index": nil,
	}
	if err := tx.Model(prop).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, nil, err
	}
	prop.Status = models.PropStatusVoided
	prop.CorrectOptionIndex = nil

	playerIDs, err := s.rescoreProp(tx, prop)
	if err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, nil, err
	}

	s.logger.Info("prop voided",
		zap.Uint("prop_id", prop.ID),
		zap.Int("players_affected", len(playerIDs)),
	)
	s.stats.InvalidateSummary(prop.PoolID)

	return prop, playerIDs, nil
}

// DeleteProp removes a prop together with its options and picks, then
// rebuilds the totals of every player who had picked it so no deleted points
// linger in the leaderboard.
func (s *PropService) DeleteProp(propID uint) error {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var prop models.Prop
	if err := forUpdate(tx).First(&prop, propID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPropNotFound
		}
		return err
	}

	var picks []models.Pick
	if err := tx.Where("prop_id = ?", propID).Find(&picks).Error; err != nil {
		tx.Rollback()
		return err
	}
	playerIDs := distinctPlayerIDs(picks)

	if err := tx.Where("prop_id = ?", propID).Delete(&models.Pick{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Where("prop_id = ?", propID).Delete(&models.Option{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Delete(&prop).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := s.recomputeTotals(tx, playerIDs); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	s.logger.Info("prop deleted",
		zap.Uint("prop_id", propID),
		zap.Int("players_affected", len(playerIDs)),
	)
	s.stats.InvalidateSummary(prop.PoolID)

	return nil
}

// lockedProp loads a prop with its options inside the transaction and checks
// that its pool is locked, the precondition for any scoring mutation.
func (s *PropService) lockedProp(tx *gorm.DB, propID uint) (*models.Prop, error) {
	var prop models.Prop
	if err := forUpdate(tx).Preload("Options", orderedOptions).First(&prop, propID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPropNotFound
		}
		return nil, err
	}

	var pool models.Pool
	if err := tx.First(&pool, prop.PoolID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPoolNotFound
		}
		return nil, err
	}
	if pool.Status != models.PoolStatusLocked {
		return nil, ErrPoolNotLocked
	}

	return &prop, nil
}

// rescoreProp rewrites PointsEarned for every pick on the prop from its
// current resolution state and rebuilds the totals of the affected players.
// Picks are read inside the transaction, never from an earlier snapshot.
func (s *PropService) rescoreProp(tx *gorm.DB, prop *models.Prop) ([]uint, error) {
	var picks []models.Pick
	if err := tx.Where("prop_id = ?", prop.ID).Find(&picks).Error; err != nil {
		return nil, err
	}

	for i := range picks {
		points := ScorePick(&picks[i], prop)
		if err := tx.Model(&models.Pick{}).Where("id = ?", picks[i].ID).
			Update("points_earned", points).Error; err != nil {
			return nil, err
		}
	}

	playerIDs := distinctPlayerIDs(picks)
	if err := s.recomputeTotals(tx, playerIDs); err != nil {
		return nil, err
	}
	return playerIDs, nil
}

// recomputeTotals reloads each player's full pick set inside the transaction
// and rewrites the cached total. Players are locked in ascending id order so
// concurrent resolutions sharing players cannot deadlock.
func (s *PropService) recomputeTotals(tx *gorm.DB, playerIDs []uint) error {
	for _, playerID := range playerIDs {
		var player models.Player
		if err := forUpdate(tx).First(&player, playerID).Error; err != nil {
			return err
		}

		var picks []models.Pick
		if err := tx.Where("player_id = ?", playerID).Find(&picks).Error; err != nil {
			return err
		}

		total := RecomputePlayerTotal(picks)
		if err := tx.Model(&models.Player{}).Where("id = ?", playerID).
			Update("total_points", total).Error; err != nil {
			return err
		}
	}
	return nil
}

func distinctPlayerIDs(picks []models.Pick) []uint {
	seen := make(map[uint]bool, len(picks))
	ids := make([]uint, 0, len(picks))
	for _, pick := range picks {
		if !seen[pick.PlayerID] {
			seen[pick.PlayerID] = true
			ids = append(ids, pick.PlayerID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// errRollback rolls the transaction back and passes the domain error through.
func errRollback(tx *gorm.DB, err error) error {
	tx.Rollback()
	return err
}
