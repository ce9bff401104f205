package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/apperr"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// UserService serves public profiles and subscriptions
type UserService struct {
	db      *gorm.DB
	follows *RelationService[models.Follow]
	recipes *RecipeService
	logger  *logger.Logger
}

func NewUserService(db *gorm.DB, follows *RelationService[models.Follow], recipes *RecipeService, log *logger.Logger) *UserService {
	return &UserService{
		db:      db,
		follows: follows,
		recipes: recipes,
		logger:  log.With("service", "UserService"),
	}
}

func (s *UserService) List(ctx context.Context, viewer types.Viewer, page types.PageRequest) (*types.Page[types.UserResponse], error) {
	result := &types.Page[types.UserResponse]{Results: []types.UserResponse{}}
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&result.Count).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	var users []models.User
	err := s.db.WithContext(ctx).Order("id ASC").Limit(page.Limit).Offset(page.Offset()).Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	subscribed, err := s.follows.Among(ctx, viewer.UserID, userIDs(users))
	if err != nil {
		return nil, err
	}
	for i := range users {
		result.Results = append(result.Results, userResponse(&users[i], subscribed[users[i].ID]))
	}
	return result, nil
}

func (s *UserService) Get(ctx context.Context, viewer types.Viewer, id uint) (*types.UserResponse, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, lookupError(err, "user")
	}
	subscribed, err := s.follows.Among(ctx, viewer.UserID, []uint{id})
	if err != nil {
		return nil, err
	}
	resp := userResponse(&user, subscribed[id])
	return &resp, nil
}

// Subscriptions lists the authors the viewer follows, in the order they were followed
func (s *UserService) Subscriptions(ctx context.Context, viewer types.Viewer, page types.PageRequest, recipesLimit int) (*types.Page[types.SubscriptionResponse], error) {
	if !viewer.Authenticated() {
		return nil, apperr.ErrAuthRequired
	}
	result := &types.Page[types.SubscriptionResponse]{Results: []types.SubscriptionResponse{}}

	followed := s.db.WithContext(ctx).Model(&models.Follow{}).Where("follows.user_id = ?", viewer.UserID)
	if err := followed.Count(&result.Count).Error; err != nil {
		return nil, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	var users []models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN follows ON follows.following_id = users.id").
		Where("follows.user_id = ?", viewer.UserID).
		Order("follows.id ASC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	result.Results, err = s.withRecipes(ctx, users, recipesLimit)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Subscribe follows an author and returns them with their recipe preview
func (s *UserService) Subscribe(ctx context.Context, viewer types.Viewer, authorID uint, recipesLimit int) (*types.SubscriptionResponse, error) {
	if !viewer.Authenticated() {
		return nil, apperr.ErrAuthRequired
	}
	if err := s.follows.Add(ctx, viewer.UserID, authorID); err != nil {
		return nil, err
	}
	var author models.User
	if err := s.db.WithContext(ctx).First(&author, authorID).Error; err != nil {
		return nil, lookupError(err, "user")
	}
	out, err := s.withRecipes(ctx, []models.User{author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	s.logger.Info("subscribed", "user_id", viewer.UserID, "author_id", authorID)
	return &out[0], nil
}

func (s *UserService) Unsubscribe(ctx context.Context, viewer types.Viewer, authorID uint) error {
	if !viewer.Authenticated() {
		return apperr.ErrAuthRequired
	}
	if err := s.follows.Remove(ctx, viewer.UserID, authorID); err != nil {
		return err
	}
	s.logger.Info("unsubscribed", "user_id", viewer.UserID, "author_id", authorID)
	return nil
}

// withRecipes builds subscription entries; every author here is followed by the viewer
func (s *UserService) withRecipes(ctx context.Context, authors []models.User, recipesLimit int) ([]types.SubscriptionResponse, error) {
	previews, counts, err := s.recipes.Previews(ctx, userIDs(authors), recipesLimit)
	if err != nil {
		return nil, err
	}
	out := make([]types.SubscriptionResponse, 0, len(authors))
	for i := range authors {
		a := &authors[i]
		out = append(out, types.SubscriptionResponse{
			UserResponse: userResponse(a, true),
			Recipes:      previews[a.ID],
			RecipesCount: counts[a.ID],
		})
	}
	return out, nil
}

func userIDs(users []models.User) []uint {
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}
