package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/apperr"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
)

// RelationSpec describes one exclusive (actor, target) relationship table
type RelationSpec[T any] struct {
	Name         string
	TargetColumn string
	TargetModel  interface{}
	TargetName   string
	New          func(actorID, targetID uint) *T

	// SelfAdd and SelfRemove are returned when actor == target; nil allows self-relationships
	SelfAdd    *apperr.Error
	SelfRemove *apperr.Error
	Duplicate  *apperr.Error
	Missing    *apperr.Error
}

// RelationService toggles presence of a directed link between a user and a target row.
// Every relation table keys the actor by user_id.
type RelationService[T any] struct {
	db      *gorm.DB
	spec    RelationSpec[T]
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewRelationService[T any](db *gorm.DB, spec RelationSpec[T], log *logger.Logger, m *metrics.Metrics) *RelationService[T] {
	return &RelationService[T]{
		db:      db,
		spec:    spec,
		logger:  log.With("service", "RelationService", "relation", spec.Name),
		metrics: m,
	}
}

func NewFollowService(db *gorm.DB, log *logger.Logger, m *metrics.Metrics) *RelationService[models.Follow] {
	return NewRelationService(db, RelationSpec[models.Follow]{
		Name:         "follow",
		TargetColumn: "following_id",
		TargetModel:  &models.User{},
		TargetName:   "user",
		New: func(actorID, targetID uint) *models.Follow {
			return &models.Follow{UserID: actorID, FollowingID: targetID}
		},
		SelfAdd:    apperr.ErrSelfFollow,
		SelfRemove: apperr.ErrSelfUnfollow,
		Duplicate:  apperr.ErrAlreadyFollowing,
		Missing:    apperr.ErrNotFollowing,
	}, log, m)
}

func NewFavoriteService(db *gorm.DB, log *logger.Logger, m *metrics.Metrics) *RelationService[models.FavoriteRecipe] {
	return NewRelationService(db, RelationSpec[models.FavoriteRecipe]{
		Name:         "favorite",
		TargetColumn: "recipe_id",
		TargetModel:  &models.Recipe{},
		TargetName:   "recipe",
		New: func(actorID, targetID uint) *models.FavoriteRecipe {
			return &models.FavoriteRecipe{UserID: actorID, RecipeID: targetID}
		},
		Duplicate: apperr.ErrAlreadyFavorited,
		Missing:   apperr.ErrNotFavorited,
	}, log, m)
}

func NewShoppingCartService(db *gorm.DB, log *logger.Logger, m *metrics.Metrics) *RelationService[models.ShoppingCart] {
	return NewRelationService(db, RelationSpec[models.ShoppingCart]{
		Name:         "shopping_cart",
		TargetColumn: "recipe_id",
		TargetModel:  &models.Recipe{},
		TargetName:   "recipe",
		New: func(actorID, targetID uint) *models.ShoppingCart {
			return &models.ShoppingCart{UserID: actorID, RecipeID: targetID}
		},
		Duplicate: apperr.ErrAlreadyInCart,
		Missing:   apperr.ErrNotInCart,
	}, log, m)
}

// Add moves the pair from absent to present
func (s *RelationService[T]) Add(ctx context.Context, actorID, targetID uint) (err error) {
	defer func() { s.metrics.ObserveRelation(s.spec.Name, "add", err) }()

	if actorID == targetID && s.spec.SelfAdd != nil {
		return s.spec.SelfAdd
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.requireTarget(tx, targetID); err != nil {
			return err
		}
		present, err := s.exists(tx, actorID, targetID)
		if err != nil {
			return err
		}
		if present {
			return s.spec.Duplicate
		}
		if err := tx.Omit(clause.Associations).Create(s.spec.New(actorID, targetID)).Error; err != nil {
			// lost a race with a concurrent add; the unique index decides
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return s.spec.Duplicate.Wrap(err)
			}
			return fmt.Errorf("failed to create %s: %w", s.spec.Name, err)
		}
		return nil
	})
	if err == nil {
		s.logger.Debug("relation added", "actor_id", actorID, "target_id", targetID)
	}
	return err
}

// Remove moves the pair from present to absent
func (s *RelationService[T]) Remove(ctx context.Context, actorID, targetID uint) (err error) {
	defer func() { s.metrics.ObserveRelation(s.spec.Name, "remove", err) }()

	if actorID == targetID && s.spec.SelfRemove != nil {
		return s.spec.SelfRemove
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.requireTarget(tx, targetID); err != nil {
			return err
		}
		res := tx.Where("user_id = ? AND "+s.spec.TargetColumn+" = ?", actorID, targetID).Delete(new(T))
		if res.Error != nil {
			return fmt.Errorf("failed to delete %s: %w", s.spec.Name, res.Error)
		}
		if res.RowsAffected == 0 {
			return s.spec.Missing
		}
		return nil
	})
	if err == nil {
		s.logger.Debug("relation removed", "actor_id", actorID, "target_id", targetID)
	}
	return err
}

func (s *RelationService[T]) Exists(ctx context.Context, actorID, targetID uint) (bool, error) {
	return s.exists(s.db.WithContext(ctx), actorID, targetID)
}

// Among returns which of targetIDs the actor is linked to
func (s *RelationService[T]) Among(ctx context.Context, actorID uint, targetIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool, len(targetIDs))
	if actorID == 0 || len(targetIDs) == 0 {
		return out, nil
	}
	var linked []uint
	err := s.db.WithContext(ctx).Model(new(T)).
		Where("user_id = ? AND "+s.spec.TargetColumn+" IN ?", actorID, targetIDs).
		Pluck(s.spec.TargetColumn, &linked).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load %s flags: %w", s.spec.Name, err)
	}
	for _, id := range linked {
		out[id] = true
	}
	return out, nil
}

// TargetsOf is a subquery selecting every target the actor is linked to, in link order
func (s *RelationService[T]) TargetsOf(ctx context.Context, actorID uint) *gorm.DB {
	return s.db.WithContext(ctx).Model(new(T)).
		Select(s.spec.TargetColumn).
		Where("user_id = ?", actorID)
}

func (s *RelationService[T]) exists(tx *gorm.DB, actorID, targetID uint) (bool, error) {
	var count int64
	err := tx.Model(new(T)).
		Where("user_id = ? AND "+s.spec.TargetColumn+" = ?", actorID, targetID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", s.spec.Name, err)
	}
	return count > 0, nil
}

func (s *RelationService[T]) requireTarget(tx *gorm.DB, targetID uint) error {
	var count int64
	if err := tx.Model(s.spec.TargetModel).Where("id = ?", targetID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up %s: %w", s.spec.TargetName, err)
	}
	if count == 0 {
		return apperr.NotFoundf("%s not found", s.spec.TargetName)
	}
	return nil
}
