package types

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims represents the claims in a JWT token
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// TokenResponse is returned by the login endpoint
type TokenResponse struct {
	AuthToken string `json:"auth_token"`
}

// Viewer is the identity a read is evaluated against. The zero value is an anonymous caller.
type Viewer struct {
	UserID  uint
	IsAdmin bool
}

func Anonymous() Viewer {
	return Viewer{}
}

func (v Viewer) Authenticated() bool {
	return v.UserID != 0
}

// CanModify reports whether the viewer may change a resource owned by ownerID
func (v Viewer) CanModify(ownerID uint) bool {
	return v.Authenticated() && (v.IsAdmin || v.UserID == ownerID)
}
