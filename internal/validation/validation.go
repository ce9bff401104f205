// Package validation holds field rules for accounts and recipes and plugs them into gin's binding engine.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/pageza/foodgram/backend/internal/apperr"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	UsernameMaxLength = 150
	EmailMaxLength    = 254
	NameMaxLength     = 200

	// ReservedUsername collides with the /users/me/ route
	ReservedUsername = "me"
)

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

	registerOnce sync.Once
	registerErr  error
)

// Register installs the custom tags on gin's validator. Safe to call more than once.
func Register() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin binding engine is not go-playground/validator")
			return
		}
		v.RegisterTagNameFunc(jsonTagName)
		if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return ValidateUsername(fl.Field().String()) == nil
		}); err != nil {
			registerErr = err
			return
		}
		registerErr = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		})
	})
	return registerErr
}

func jsonTagName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return field.Name
	}
	return name
}

func ValidateUsername(username string) error {
	switch {
	case username == "":
		return apperr.Validation("username is required").WithField("username", "this field is required")
	case len(username) > UsernameMaxLength:
		return apperr.Validation("username is too long").
			WithField("username", fmt.Sprintf("ensure this field has no more than %d characters", UsernameMaxLength))
	case !usernamePattern.MatchString(username):
		return apperr.Validation("username contains invalid characters").
			WithField("username", "letters, digits and @/./+/-/_ only")
	case strings.EqualFold(username, ReservedUsername):
		return apperr.Validation("username is reserved").
			WithField("username", fmt.Sprintf("%q cannot be used as a username", ReservedUsername))
	}
	return nil
}

func ValidateCookingTime(minutes int) error {
	if minutes < models.MinCookingTime || minutes > models.MaxCookingTime {
		return apperr.Validationf("cooking time must be between %d and %d", models.MinCookingTime, models.MaxCookingTime).
			WithField("cooking_time", "out of range")
	}
	return nil
}

func ValidateAmount(amount int) error {
	if amount < models.MinAmount || amount > models.MaxAmount {
		return apperr.Validationf("ingredient amount must be between %d and %d", models.MinAmount, models.MaxAmount).
			WithField("amount", "out of range")
	}
	return nil
}

// ValidateRecipe checks the scalar fields and collection shape of a recipe payload.
// References to tags and ingredients are resolved later, inside the write transaction.
// Duplicate tags are removed in place; duplicate ingredients are rejected.
func ValidateRecipe(req *types.RecipeRequest, requireImage bool) error {
	verr := apperr.Validation("invalid recipe")
	invalid := false
	fail := func(field, msg string) {
		verr = verr.WithField(field, msg)
		invalid = true
	}

	if strings.TrimSpace(req.Name) == "" {
		fail("name", "this field is required")
	} else if len([]rune(req.Name)) > NameMaxLength {
		fail("name", fmt.Sprintf("ensure this field has no more than %d characters", NameMaxLength))
	}
	if strings.TrimSpace(req.Text) == "" {
		fail("text", "this field is required")
	}
	if err := ValidateCookingTime(req.CookingTime); err != nil {
		fail("cooking_time", err.Error())
	}
	if requireImage && req.ImageData == nil && req.Image == "" {
		fail("image", "this field is required")
	}

	if len(req.Tags) == 0 {
		fail("tags", "at least one tag is required")
	}
	req.Tags = dedupe(req.Tags)

	if len(req.Ingredients) == 0 {
		fail("ingredients", "at least one ingredient is required")
	}
	seen := make(map[uint]struct{}, len(req.Ingredients))
	for _, line := range req.Ingredients {
		if _, dup := seen[line.ID]; dup {
			fail("ingredients", fmt.Sprintf("ingredient %d is listed more than once", line.ID))
			continue
		}
		seen[line.ID] = struct{}{}
		if err := ValidateAmount(line.Amount); err != nil {
			fail("ingredients", err.Error())
		}
	}

	if invalid {
		return verr
	}
	return nil
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// FromBinding converts a gin binding failure into a validation error with per-field messages
func FromBinding(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := apperr.Validation("invalid request")
		for _, fe := range verrs {
			out = out.WithField(fe.Field(), describe(fe))
		}
		return out
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return apperr.Validation("malformed request body").Wrap(err)
	}
	return apperr.Validation(err.Error())
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "max":
		return fmt.Sprintf("ensure this field has no more than %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("ensure this field has at least %s characters", fe.Param())
	case "username":
		return "letters, digits and @/./+/-/_ only; \"me\" is reserved"
	case "slug":
		return "letters, digits, hyphens and underscores only"
	case "hexcolor":
		return "enter a hex color such as #E26C2D"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
