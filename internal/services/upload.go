package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"stuffbox-backend/internal/models"
)

var imageContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// UploadRequest asks for a pre-signed URL for one image
type UploadRequest struct {
	Filename string `json:"filename" validate:"required,max=200"`
}

// UploadResponse represents the response with pre-signed URL
type UploadResponse struct {
	UploadURL string `json:"upload_url"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expires_in"`
}

// UploadService hands out upload URLs under the caller's own prefix
type UploadService struct {
	users UserStore
	files FileStore
	now   func() time.Time
}

// NewUploadService creates a new upload service
func NewUploadService(users UserStore, files FileStore) *UploadService {
	return &UploadService{users: users, files: files, now: time.Now}
}

// uploadDir is the key prefix of every upload made by u
func uploadDir(u *models.User) string {
	return fmt.Sprintf("%s-%s/imgs/", u.NickName, u.ID)
}

// ownsUpload reports whether key sits under an upload directory of u. The nick
// name part is not checked so renames keep earlier uploads valid.
func ownsUpload(u *models.User, key string) bool {
	dir, name, ok := strings.Cut(key, "/imgs/")
	return ok && name != "" && !strings.Contains(name, "/") && strings.HasSuffix(dir, "-"+u.ID)
}

// PresignImage returns a URL the caller can PUT a jpg or png to, and the key to
// reference it by afterwards
func (s *UploadService) PresignImage(ctx context.Context, userID string, req UploadRequest) (*UploadResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	name := path.Base(strings.ReplaceAll(req.Filename, `\`, "/"))
	contentType, ok := imageContentTypes[strings.ToLower(path.Ext(name))]
	if !ok {
		return nil, validationError("filename", "image")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err)
	}

	key := fmt.Sprintf("%s%d-%s", uploadDir(user), s.now().UnixMilli(), name)
	url, err := s.files.PresignUpload(ctx, key, contentType)
	if err != nil {
		return nil, err
	}

	return &UploadResponse{
		UploadURL: url,
		Key:       key,
		ExpiresIn: int(presignExpiry.Seconds()),
	}, nil
}
