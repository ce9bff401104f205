package service

import (
	"encoding/base64"
	"regexp"
	"strings"

	"github.com/pageza/foodgram/backend/internal/apperr"
	"github.com/pageza/foodgram/backend/internal/types"
)

var dataURIPattern = regexp.MustCompile(`^data:image/([a-zA-Z0-9.+-]+);base64,(.+)$`)

var errBadImage = apperr.Validation("image must be a base64 data URI such as data:image/png;base64,...").
	WithField("image", "invalid image")

// DecodeDataURI turns data:image/<ext>;base64,<payload> into a file named temp.<ext>
func DecodeDataURI(raw string) (*types.ImageFile, error) {
	m := dataURIPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return nil, errBadImage
	}
	data, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return nil, errBadImage.Wrap(err)
	}
	if len(data) == 0 {
		return nil, errBadImage
	}
	ext := strings.ToLower(m[1])
	return &types.ImageFile{Name: "temp." + ext, Ext: ext, Data: data}, nil
}

// EncodeDataURI is the inverse of DecodeDataURI
func EncodeDataURI(ext string, data []byte) string {
	return "data:image/" + ext + ";base64," + base64.StdEncoding.EncodeToString(data)
}
