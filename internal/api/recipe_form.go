package api

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/apperr"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/pageza/foodgram/backend/internal/validation"
)

const maxImageSize = 10 << 20

var errInvalidAuthor = apperr.Validation("author must be a user id").WithField("author", "must be an integer")

// bindRecipe reads a recipe payload from JSON (image as a data URI) or multipart/form-data
// (image as a file part, tags repeated, ingredients as a JSON array)
func bindRecipe(c *gin.Context) (*types.RecipeRequest, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		return bindRecipeForm(c)
	}
	var req types.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, validation.FromBinding(err)
	}
	return &req, nil
}

func bindRecipeForm(c *gin.Context) (*types.RecipeRequest, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperr.Validation("malformed multipart body").Wrap(err)
	}

	req := &types.RecipeRequest{
		Name:  formValue(form, "name"),
		Text:  formValue(form, "text"),
		Image: formValue(form, "image"),
	}
	invalid := apperr.Validation("invalid recipe")
	failed := false

	if raw := formValue(form, "cooking_time"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			invalid, failed = invalid.WithField("cooking_time", "must be an integer"), true
		}
		req.CookingTime = n
	}
	for _, raw := range form.Value["tags"] {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
			if err != nil {
				invalid, failed = invalid.WithField("tags", "must be tag ids"), true
				break
			}
			req.Tags = append(req.Tags, uint(id))
		}
	}
	if raw := formValue(form, "ingredients"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Ingredients); err != nil {
			invalid, failed = invalid.WithField("ingredients", "must be a JSON array of {id, amount}"), true
		}
	}
	if failed {
		return nil, invalid
	}

	if files := form.File["image"]; len(files) > 0 {
		img, err := readImagePart(files[0])
		if err != nil {
			return nil, err
		}
		req.ImageData = img
		req.Image = ""
	}
	return req, nil
}

func readImagePart(fh *multipart.FileHeader) (*types.ImageFile, error) {
	invalid := apperr.Validation("invalid image upload")
	if fh.Size > maxImageSize {
		return nil, invalid.WithField("image", "file is too large")
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fh.Filename)), ".")
	if ext == "" {
		if ct := fh.Header.Get("Content-Type"); strings.HasPrefix(ct, "image/") {
			ext = strings.TrimPrefix(ct, "image/")
		}
	}
	if ext == "" {
		return nil, invalid.WithField("image", "unknown image type")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, invalid.Wrap(err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxImageSize+1))
	if err != nil {
		return nil, invalid.Wrap(err)
	}
	if len(data) == 0 {
		return nil, invalid.WithField("image", "file is empty")
	}
	return &types.ImageFile{Name: filepath.Base(fh.Filename), Ext: ext, Data: data}, nil
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}
