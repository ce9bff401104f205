package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/apperr"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

const importBatchSize = 500

// CatalogService manages the shared tag and ingredient reference data
type CatalogService struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewCatalogService(db *gorm.DB, log *logger.Logger) *CatalogService {
	return &CatalogService{db: db, logger: log.With("service", "CatalogService")}
}

func (s *CatalogService) ListTags(ctx context.Context) ([]types.TagResponse, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("name ASC, id ASC").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	out := make([]types.TagResponse, 0, len(tags))
	for i := range tags {
		out = append(out, tagResponse(&tags[i]))
	}
	return out, nil
}

func (s *CatalogService) GetTag(ctx context.Context, id uint) (*types.TagResponse, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, lookupError(err, "tag")
	}
	resp := tagResponse(&tag)
	return &resp, nil
}

func (s *CatalogService) CreateTag(ctx context.Context, viewer types.Viewer, req *types.CreateTagRequest) (*types.TagResponse, error) {
	if !viewer.IsAdmin {
		return nil, apperr.ErrAdminOnly
	}
	tag := models.Tag{Name: strings.TrimSpace(req.Name), Color: strings.ToUpper(req.Color), Slug: req.Slug}
	if err := s.db.WithContext(ctx).Create(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("a tag with this slug already exists").WithField("slug", "must be unique")
		}
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}
	s.logger.Info("tag created", "tag_id", tag.ID, "slug", tag.Slug)
	resp := tagResponse(&tag)
	return &resp, nil
}

// SearchIngredients matches a case-insensitive substring of the name; an empty query returns everything
func (s *CatalogService) SearchIngredients(ctx context.Context, name string) ([]types.IngredientResponse, error) {
	q := s.db.WithContext(ctx).Model(&models.Ingredient{})
	if name = strings.TrimSpace(name); name != "" {
		q = q.Where("LOWER(name) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(name))+"%")
	}
	var ingredients []models.Ingredient
	if err := q.Order("name ASC, measurement_unit ASC").Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("failed to search ingredients: %w", err)
	}
	out := make([]types.IngredientResponse, 0, len(ingredients))
	for i := range ingredients {
		out = append(out, ingredientResponse(&ingredients[i]))
	}
	return out, nil
}

func (s *CatalogService) GetIngredient(ctx context.Context, id uint) (*types.IngredientResponse, error) {
	var ing models.Ingredient
	if err := s.db.WithContext(ctx).First(&ing, id).Error; err != nil {
		return nil, lookupError(err, "ingredient")
	}
	resp := ingredientResponse(&ing)
	return &resp, nil
}

func (s *CatalogService) CreateIngredient(ctx context.Context, viewer types.Viewer, req *types.CreateIngredientRequest) (*types.IngredientResponse, error) {
	if !viewer.IsAdmin {
		return nil, apperr.ErrAdminOnly
	}
	ing := models.Ingredient{Name: strings.TrimSpace(req.Name), MeasurementUnit: strings.TrimSpace(req.MeasurementUnit)}
	if err := s.db.WithContext(ctx).Create(&ing).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("this ingredient already exists with that measurement unit")
		}
		return nil, fmt.Errorf("failed to create ingredient: %w", err)
	}
	s.logger.Info("ingredient created", "ingredient_id", ing.ID)
	resp := ingredientResponse(&ing)
	return &resp, nil
}

// ImportIngredients reads name,measurement_unit rows and inserts the pairs that do not exist yet.
// It returns the number of rows inserted.
func (s *CatalogService) ImportIngredients(ctx context.Context, r io.Reader) (int64, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows []models.Ingredient
	seen := make(map[[2]string]bool)
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read ingredients csv: %w", err)
		}
		if len(record) < 2 {
			return 0, fmt.Errorf("line %d: expected name,measurement_unit", line)
		}
		name, unit := strings.TrimSpace(record[0]), strings.TrimSpace(record[1])
		if name == "" || unit == "" || (line == 1 && name == "name" && unit == "measurement_unit") {
			continue
		}
		key := [2]string{name, unit}
		if seen[key] {
			continue
		}
		seen[key] = true
		rows = append(rows, models.Ingredient{Name: name, MeasurementUnit: unit})
	}
	return s.insertIgnoringDuplicates(ctx, &rows, len(rows))
}

// ImportTags reads a JSON array of {name, color, slug} objects, skipping slugs that already exist
func (s *CatalogService) ImportTags(ctx context.Context, r io.Reader) (int64, error) {
	var payload []types.CreateTagRequest
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return 0, fmt.Errorf("failed to decode tags json: %w", err)
	}
	rows := make([]models.Tag, 0, len(payload))
	for _, t := range payload {
		if t.Slug == "" || t.Name == "" {
			continue
		}
		rows = append(rows, models.Tag{Name: t.Name, Color: strings.ToUpper(t.Color), Slug: t.Slug})
	}
	return s.insertIgnoringDuplicates(ctx, &rows, len(rows))
}

func (s *CatalogService) insertIgnoringDuplicates(ctx context.Context, rows interface{}, n int) (int64, error) {
	if n == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, importBatchSize)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to import: %w", res.Error)
	}
	s.logger.Info("catalog import finished", "submitted", n, "inserted", res.RowsAffected)
	return res.RowsAffected, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
