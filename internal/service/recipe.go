package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/apperr"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/pageza/foodgram/backend/internal/validation"
)

// RecipeService owns the recipe aggregate: the recipe row, its tag links and its ingredient lines
type RecipeService struct {
	db        *gorm.DB
	images    storage.ImageStore
	favorites *RelationService[models.FavoriteRecipe]
	carts     *RelationService[models.ShoppingCart]
	follows   *RelationService[models.Follow]
	logger    *logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(
	db *gorm.DB,
	images storage.ImageStore,
	favorites *RelationService[models.FavoriteRecipe],
	carts *RelationService[models.ShoppingCart],
	follows *RelationService[models.Follow],
	log *logger.Logger,
	m *metrics.Metrics,
) *RecipeService {
	return &RecipeService{
		db:        db,
		images:    images,
		favorites: favorites,
		carts:     carts,
		follows:   follows,
		logger:    log.With("service", "RecipeService"),
		metrics:   m,
		now:       time.Now,
	}
}

// Create validates the payload, stores the image and writes the aggregate in one transaction
func (s *RecipeService) Create(ctx context.Context, viewer types.Viewer, req *types.RecipeRequest) (resp *types.RecipeResponse, err error) {
	defer func() { s.metrics.ObserveRecipeWrite("create", err) }()

	if !viewer.Authenticated() {
		return nil, apperr.ErrAuthRequired
	}
	if err := validation.ValidateRecipe(req, true); err != nil {
		return nil, err
	}
	img, err := resolveImage(req)
	if err != nil {
		return nil, err
	}
	key, err := s.images.Save(ctx, img.Ext, img.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to store recipe image: %w", err)
	}

	recipe := models.Recipe{
		AuthorID:    viewer.UserID,
		Name:        strings.TrimSpace(req.Name),
		Image:       key,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		PubDate:     s.now().UTC(),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}
		return s.writeCollections(tx, &recipe, req)
	})
	if err != nil {
		s.discardImage(ctx, key)
		return nil, err
	}

	s.logger.Info("recipe created", "recipe_id", recipe.ID, "author_id", viewer.UserID)
	return s.Get(ctx, viewer, recipe.ID)
}

// Update replaces every field and the full ingredient set. The image is kept when none is sent.
func (s *RecipeService) Update(ctx context.Context, viewer types.Viewer, id uint, req *types.RecipeRequest) (resp *types.RecipeResponse, err error) {
	defer func() { s.metrics.ObserveRecipeWrite("update", err) }()

	existing, err := s.editable(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateRecipe(req, false); err != nil {
		return nil, err
	}

	newKey := ""
	if req.ImageData != nil || req.Image != "" {
		img, err := resolveImage(req)
		if err != nil {
			return nil, err
		}
		if newKey, err = s.images.Save(ctx, img.Ext, img.Data); err != nil {
			return nil, fmt.Errorf("failed to store recipe image: %w", err)
		}
	}

	recipe := *existing
	recipe.Name = strings.TrimSpace(req.Name)
	recipe.Text = req.Text
	recipe.CookingTime = req.CookingTime
	if newKey != "" {
		recipe.Image = newKey
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Recipe{ID: recipe.ID}).Updates(map[string]interface{}{
			"name":         recipe.Name,
			"text":         recipe.Text,
			"cooking_time": recipe.CookingTime,
			"image":        recipe.Image,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update recipe: %w", err)
		}
		return s.writeCollections(tx, &recipe, req)
	})
	if err != nil {
		s.discardImage(ctx, newKey)
		return nil, err
	}
	if newKey != "" {
		s.discardImage(ctx, existing.Image)
	}

	s.logger.Info("recipe updated", "recipe_id", id, "user_id", viewer.UserID)
	return s.Get(ctx, viewer, id)
}

// Delete removes the recipe with its tag links, lines, favorites and cart entries
func (s *RecipeService) Delete(ctx context.Context, viewer types.Viewer, id uint) (err error) {
	defer func() { s.metrics.ObserveRecipeWrite("delete", err) }()

	recipe, err := s.editable(ctx, viewer, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
			return fmt.Errorf("failed to unlink tags: %w", err)
		}
		for _, child := range []interface{}{&models.RecipeIngredient{}, &models.FavoriteRecipe{}, &models.ShoppingCart{}} {
			if err := tx.Where("recipe_id = ?", id).Delete(child).Error; err != nil {
				return fmt.Errorf("failed to delete recipe children: %w", err)
			}
		}
		if err := tx.Delete(&models.Recipe{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete recipe: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.discardImage(ctx, recipe.Image)
	s.logger.Info("recipe deleted", "recipe_id", id, "user_id", viewer.UserID)
	return nil
}

// Get returns one recipe as seen by the viewer
func (s *RecipeService) Get(ctx context.Context, viewer types.Viewer, id uint) (*types.RecipeResponse, error) {
	recipes, err := s.load(ctx, []uint{id})
	if err != nil {
		return nil, err
	}
	if len(recipes) == 0 {
		return nil, apperr.NotFound("recipe not found")
	}
	out, err := s.present(ctx, viewer, recipes)
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// List returns a newest-first page of recipes matching the filter
func (s *RecipeService) List(ctx context.Context, viewer types.Viewer, filter types.RecipeFilter, page types.PageRequest) (*types.Page[types.RecipeResponse], error) {
	result := &types.Page[types.RecipeResponse]{Results: []types.RecipeResponse{}}

	// relationship filters have nothing to match for an anonymous caller
	if (filter.IsFavorited || filter.IsInShoppingCart) && !viewer.Authenticated() {
		return result, nil
	}

	q := s.db.WithContext(ctx).Model(&models.Recipe{})
	if filter.AuthorID != 0 {
		q = q.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if len(filter.Tags) > 0 {
		tagged := s.db.WithContext(ctx).Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.Tags)
		q = q.Where("recipes.id IN (?)", tagged)
	}
	if filter.IsFavorited {
		q = q.Where("recipes.id IN (?)", s.favorites.TargetsOf(ctx, viewer.UserID))
	}
	if filter.IsInShoppingCart {
		q = q.Where("recipes.id IN (?)", s.carts.TargetsOf(ctx, viewer.UserID))
	}
	q = q.Session(&gorm.Session{})

	if err := q.Count(&result.Count).Error; err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}

	var ids []uint
	err := q.Order("recipes.pub_date DESC, recipes.id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Pluck("recipes.id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	if len(ids) == 0 {
		return result, nil
	}

	recipes, err := s.load(ctx, ids)
	if err != nil {
		return nil, err
	}
	if result.Results, err = s.present(ctx, viewer, recipes); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *RecipeService) AddFavorite(ctx context.Context, viewer types.Viewer, id uint) (*types.RecipeShort, error) {
	if !viewer.Authenticated() {
		return nil, apperr.ErrAuthRequired
	}
	if err := s.favorites.Add(ctx, viewer.UserID, id); err != nil {
		return nil, err
	}
	return s.Short(ctx, id)
}

func (s *RecipeService) RemoveFavorite(ctx context.Context, viewer types.Viewer, id uint) error {
	if !viewer.Authenticated() {
		return apperr.ErrAuthRequired
	}
	return s.favorites.Remove(ctx, viewer.UserID, id)
}

func (s *RecipeService) AddToCart(ctx context.Context, viewer types.Viewer, id uint) (*types.RecipeShort, error) {
	if !viewer.Authenticated() {
		return nil, apperr.ErrAuthRequired
	}
	if err := s.carts.Add(ctx, viewer.UserID, id); err != nil {
		return nil, err
	}
	return s.Short(ctx, id)
}

func (s *RecipeService) RemoveFromCart(ctx context.Context, viewer types.Viewer, id uint) error {
	if !viewer.Authenticated() {
		return apperr.ErrAuthRequired
	}
	return s.carts.Remove(ctx, viewer.UserID, id)
}

// Short returns the compact representation of a recipe
func (s *RecipeService) Short(ctx context.Context, id uint) (*types.RecipeShort, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		return nil, lookupError(err, "recipe")
	}
	short := s.shortOf(&recipe)
	return &short, nil
}

// Previews returns up to limit newest recipes and the total recipe count for each author
func (s *RecipeService) Previews(ctx context.Context, authorIDs []uint, limit int) (map[uint][]types.RecipeShort, map[uint]int64, error) {
	previews := make(map[uint][]types.RecipeShort, len(authorIDs))
	counts := make(map[uint]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return previews, counts, nil
	}

	type authorCount struct {
		AuthorID uint
		Total    int64
	}
	var rows []authorCount
	err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count author recipes: %w", err)
	}
	for _, row := range rows {
		counts[row.AuthorID] = row.Total
	}

	for _, authorID := range authorIDs {
		previews[authorID] = []types.RecipeShort{}
		if limit <= 0 || counts[authorID] == 0 {
			continue
		}
		var recipes []models.Recipe
		err := s.db.WithContext(ctx).
			Where("author_id = ?", authorID).
			Order("pub_date DESC, id DESC").
			Limit(limit).
			Find(&recipes).Error
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load author recipes: %w", err)
		}
		for i := range recipes {
			previews[authorID] = append(previews[authorID], s.shortOf(&recipes[i]))
		}
	}
	return previews, counts, nil
}

// ImageURL resolves a stored image key
func (s *RecipeService) ImageURL(key string) string {
	return s.images.URL(key)
}

func (s *RecipeService) editable(ctx context.Context, viewer types.Viewer, id uint) (*models.Recipe, error) {
	if !viewer.Authenticated() {
		return nil, apperr.ErrAuthRequired
	}
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		return nil, lookupError(err, "recipe")
	}
	if !viewer.CanModify(recipe.AuthorID) {
		return nil, apperr.ErrNotRecipeAuthor
	}
	return &recipe, nil
}

func (s *RecipeService) writeCollections(tx *gorm.DB, recipe *models.Recipe, req *types.RecipeRequest) error {
	if err := replaceTags(tx, recipe, req.Tags); err != nil {
		return err
	}
	return replaceIngredients(tx, recipe.ID, req.Ingredients)
}

func replaceTags(tx *gorm.DB, recipe *models.Recipe, tagIDs []uint) error {
	var tags []models.Tag
	if err := tx.Where("id IN ?", tagIDs).Find(&tags).Error; err != nil {
		return fmt.Errorf("failed to load tags: %w", err)
	}
	if len(tags) != len(tagIDs) {
		found := make(map[uint]bool, len(tags))
		for _, t := range tags {
			found[t.ID] = true
		}
		for _, id := range tagIDs {
			if !found[id] {
				return apperr.Validationf("tag %d does not exist", id).WithField("tags", "unknown tag")
			}
		}
	}
	if err := tx.Model(recipe).Association("Tags").Replace(tags); err != nil {
		return fmt.Errorf("failed to link tags: %w", err)
	}
	return nil
}

// replaceIngredients deletes every existing line and inserts the new set in request order
func replaceIngredients(tx *gorm.DB, recipeID uint, lines []types.IngredientAmount) error {
	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ID)
	}
	var known []uint
	if err := tx.Model(&models.Ingredient{}).Where("id IN ?", ids).Pluck("id", &known).Error; err != nil {
		return fmt.Errorf("failed to load ingredients: %w", err)
	}
	if len(known) != len(ids) {
		found := make(map[uint]bool, len(known))
		for _, id := range known {
			found[id] = true
		}
		for _, id := range ids {
			if !found[id] {
				return apperr.NotFoundf("ingredient %d not found", id)
			}
		}
	}

	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
		return fmt.Errorf("failed to clear ingredient lines: %w", err)
	}
	rows := make([]models.RecipeIngredient, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, models.RecipeIngredient{RecipeID: recipeID, IngredientID: line.ID, Amount: line.Amount})
	}
	if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to write ingredient lines: %w", err)
	}
	return nil
}

func (s *RecipeService) load(ctx context.Context, ids []uint) ([]models.Recipe, error) {
	var recipes []models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB {
			return db.Order("tags.name ASC, tags.id ASC")
		}).
		Preload("RecipeIngredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("recipe_ingredients.id ASC")
		}).
		Preload("RecipeIngredients.Ingredient").
		Where("id IN ?", ids).
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}

	position := make(map[uint]int, len(ids))
	for i, id := range ids {
		position[id] = i
	}
	sort.Slice(recipes, func(i, j int) bool {
		return position[recipes[i].ID] < position[recipes[j].ID]
	})
	return recipes, nil
}

// present projects stored aggregates into responses with the viewer's flags filled in
func (s *RecipeService) present(ctx context.Context, viewer types.Viewer, recipes []models.Recipe) ([]types.RecipeResponse, error) {
	recipeIDs := make([]uint, 0, len(recipes))
	authorIDs := make([]uint, 0, len(recipes))
	for _, r := range recipes {
		recipeIDs = append(recipeIDs, r.ID)
		authorIDs = append(authorIDs, r.AuthorID)
	}

	favorited, err := s.favorites.Among(ctx, viewer.UserID, recipeIDs)
	if err != nil {
		return nil, err
	}
	inCart, err := s.carts.Among(ctx, viewer.UserID, recipeIDs)
	if err != nil {
		return nil, err
	}
	subscribed, err := s.follows.Among(ctx, viewer.UserID, authorIDs)
	if err != nil {
		return nil, err
	}

	out := make([]types.RecipeResponse, 0, len(recipes))
	for i := range recipes {
		r := &recipes[i]
		resp := types.RecipeResponse{
			ID:               r.ID,
			Tags:             make([]types.TagResponse, 0, len(r.Tags)),
			Author:           userResponse(&r.Author, subscribed[r.AuthorID]),
			Ingredients:      make([]types.RecipeIngredientResponse, 0, len(r.RecipeIngredients)),
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            s.images.URL(r.Image),
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		}
		for _, t := range r.Tags {
			resp.Tags = append(resp.Tags, tagResponse(&t))
		}
		for _, line := range r.RecipeIngredients {
			resp.Ingredients = append(resp.Ingredients, types.RecipeIngredientResponse{
				ID:              line.Ingredient.ID,
				Name:            line.Ingredient.Name,
				MeasurementUnit: line.Ingredient.MeasurementUnit,
				Amount:          line.Amount,
			})
		}
		out = append(out, resp)
	}
	return out, nil
}

func (s *RecipeService) shortOf(r *models.Recipe) types.RecipeShort {
	return types.RecipeShort{
		ID:          r.ID,
		Name:        r.Name,
		Image:       s.images.URL(r.Image),
		CookingTime: r.CookingTime,
	}
}

func (s *RecipeService) discardImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to delete recipe image", "key", key, "error", err)
	}
}

func resolveImage(req *types.RecipeRequest) (*types.ImageFile, error) {
	if req.ImageData != nil {
		if len(req.ImageData.Data) == 0 {
			return nil, errBadImage
		}
		return req.ImageData, nil
	}
	return DecodeDataURI(req.Image)
}

// lookupError turns a missing row into a NotFound error
func lookupError(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFoundf("%s not found", what)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}
