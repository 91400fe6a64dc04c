package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stuffbox-backend/internal/models"
	"stuffbox-backend/internal/pagination"
	"stuffbox-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const jwtExpDays = 365

// SignupRequest registers a new account
type SignupRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	NickName  string `json:"nick_name" validate:"omitempty,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=7"`
}

// LoginRequest carries credentials
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserRequest changes profile fields; nil fields are left alone
type UpdateUserRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=1"`
	LastName  *string `json:"last_name" validate:"omitempty,min=1"`
	NickName  *string `json:"nick_name" validate:"omitempty,max=50"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Password  *string `json:"password" validate:"omitempty,min=7"`
}

// UserQuery narrows the user search
type UserQuery struct {
	Text      string
	NickName  string
	FirstName string
	LastName  string
	Email     string
	Me        bool
	SortBy    string
}

// AuthResponse is returned by signup and login
type AuthResponse struct {
	User  UserView `json:"user"`
	Token string   `json:"token"`
}

// UserService handles accounts, sessions and profile reads
type UserService struct {
	users       UserStore
	stuff       StuffStore
	collections CollectionStore
	projector   *Projector
	files       FileStore
	jwtSecret   string
}

// NewUserService creates a new user service
func NewUserService(stores Stores, projector *Projector, files FileStore, jwtSecret string) *UserService {
	return &UserService{
		users:       stores.Users,
		stuff:       stores.Stuff,
		collections: stores.Collections,
		projector:   projector,
		files:       files,
		jwtSecret:   jwtSecret,
	}
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"jti":     uuid.New().String(),
		"exp":     now.AddDate(0, 0, jwtExpDays).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", fmt.Errorf("user_id not found in token")
	}

	return userID, nil
}

// Authenticate resolves a bearer token to its user. The token must be signed by
// us and still be recorded on the user, so logout revokes it.
func (s *UserService) Authenticate(ctx context.Context, token string) (string, error) {
	userID, err := s.ValidateJWT(token)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	live, err := s.users.HasToken(ctx, userID, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUnauthenticated
		}
		return "", storeErr(err)
	}
	if !live {
		return "", ErrUnauthenticated
	}
	return userID, nil
}

func (s *UserService) issueToken(ctx context.Context, user *models.User) (*AuthResponse, error) {
	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.users.AddToken(ctx, user.ID, token); err != nil {
		return nil, storeErr(err)
	}
	return &AuthResponse{User: s.projector.User(user, ""), Token: token}, nil
}

// Signup creates an account and signs it in
func (s *UserService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		NickName:     req.NickName,
		Email:        req.Email,
		PasswordHash: string(hash),
		Avatar:       models.DefaultAvatar,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, validationError("email", "unique")
		}
		return nil, storeErr(err)
	}

	return s.issueToken(ctx, user)
}

// Login checks credentials and issues a new token
func (s *UserService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, storeErr(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueToken(ctx, user)
}

// Logout revokes the token the request was made with
func (s *UserService) Logout(ctx context.Context, userID, token string) error {
	return storeErr(s.users.RemoveToken(ctx, userID, token))
}

// LogoutAll revokes every token of the user
func (s *UserService) LogoutAll(ctx context.Context, userID string) error {
	return storeErr(s.users.ClearTokens(ctx, userID))
}

// Me returns the caller's own profile
func (s *UserService) Me(ctx context.Context, userID string) (*UserView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	view := s.projector.User(user, "")
	return &view, nil
}

// UpdateMe applies a profile update
func (s *UserService) UpdateMe(ctx context.Context, userID string, req UpdateUserRequest) (*UserView, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err)
	}

	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.NickName != nil {
		user.NickName = *req.NickName
	}
	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, validationError("email", "unique")
		}
		return nil, storeErr(err)
	}

	return s.Me(ctx, userID)
}

// GetUser returns any user with the viewer's isFollowing flag
func (s *UserService) GetUser(ctx context.Context, viewerID, userID string) (*UserView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	view := s.projector.User(user, viewerID)
	return &view, nil
}

// Followers lists the users following userID
func (s *UserService) Followers(ctx context.Context, viewerID, userID string) ([]UserView, error) {
	return s.relatedUsers(ctx, viewerID, userID, func(u *models.User) []string { return u.Followers })
}

// Following lists the users userID follows
func (s *UserService) Following(ctx context.Context, viewerID, userID string) ([]UserView, error) {
	return s.relatedUsers(ctx, viewerID, userID, func(u *models.User) []string { return u.Following })
}

func (s *UserService) relatedUsers(ctx context.Context, viewerID, userID string, set func(*models.User) []string) ([]UserView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	related, err := s.users.GetByIDs(ctx, set(user))
	if err != nil {
		return nil, storeErr(err)
	}
	return s.projector.Users(related, viewerID), nil
}

// ListUsers searches users other than the viewer, or only the viewer when q.Me is set
func (s *UserService) ListUsers(ctx context.Context, viewerID string, q UserQuery, page pagination.Params) ([]UserView, int, error) {
	filter := repository.UserFilter{
		Text:      q.Text,
		NickName:  q.NickName,
		FirstName: q.FirstName,
		LastName:  q.LastName,
		Email:     q.Email,
		Sort:      repository.ParseSort(q.SortBy, true),
	}
	if q.Me {
		filter.OnlyID = viewerID
	} else {
		filter.ExcludeID = viewerID
	}

	users, total, err := s.users.List(ctx, filter, page.Limit, page.Skip)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	return s.projector.Users(users, viewerID), total, nil
}

// UpdateAvatar points the avatar at an uploaded key and releases the previous upload
func (s *UserService) UpdateAvatar(ctx context.Context, userID, key string) (*UserView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	if !ownsUpload(user, key) {
		return nil, validationError("key", "owned_upload")
	}

	if err := s.users.UpdateAvatar(ctx, userID, key); err != nil {
		return nil, storeErr(err)
	}
	if user.Avatar != key {
		releaseFile(ctx, s.files, user.Avatar)
	}
	return s.Me(ctx, userID)
}

// UpdatePushToken registers or clears the device token used for offline push
func (s *UserService) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	if pushToken != nil && *pushToken == "" {
		pushToken = nil
	}
	return storeErr(s.users.UpdatePushToken(ctx, userID, pushToken))
}

// LikedStuff pages through the viewer's liked items, newest like first
func (s *UserService) LikedStuff(ctx context.Context, viewerID string, page pagination.Params) ([]StuffView, int, error) {
	user, err := s.users.GetByID(ctx, viewerID)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	ids, total := pagination.Page(user.LikedStuff, page.Limit, page.Skip)
	items, err := s.stuff.GetByIDs(ctx, ids)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	views, err := s.projector.Stuff(ctx, items, viewerID)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// LikedCollections pages through the viewer's liked collections, newest like first
func (s *UserService) LikedCollections(ctx context.Context, viewerID string, page pagination.Params) ([]CollectionView, int, error) {
	user, err := s.users.GetByID(ctx, viewerID)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	ids, total := pagination.Page(user.LikedCollections, page.Limit, page.Skip)
	cols, err := s.collections.GetByIDs(ctx, ids)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	views, err := s.projector.Collections(ctx, cols, viewerID)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}
