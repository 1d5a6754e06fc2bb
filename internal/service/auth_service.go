package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
	"learn2b.app/ieltsbackend/internal/dto"
	"learn2b.app/ieltsbackend/internal/model"
	"learn2b.app/ieltsbackend/internal/repository"
	"learn2b.app/ieltsbackend/pkg/apperror"
)

type AuthService interface {
	// Register creates a student account, or a teacher account when the
	// request carries the matching teacher code.
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	// GoogleLogin returns the consent URL to redirect the browser to.
	GoogleLogin() (string, error)
	// GoogleCallback exchanges the authorization code, provisions the
	// account on first login and issues the app JWT.
	GoogleCallback(ctx context.Context, code string) (*dto.AuthResponse, error)
}

type authService struct {
	userRepo      repository.UserRepository
	jwtSecret     string
	jwtTTL        time.Duration
	teacherSecret string
	googleConfig  *oauth2.Config
}

func NewAuthService(userRepo repository.UserRepository, jwtSecret string, jwtTTL time.Duration, teacherSecret string, googleConfig *oauth2.Config) AuthService {
	return &authService{
		userRepo:      userRepo,
		jwtSecret:     jwtSecret,
		jwtTTL:        jwtTTL,
		teacherSecret: teacherSecret,
		googleConfig:  googleConfig,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role := model.RoleStudent
	if req.TeacherCode != "" {
		if s.teacherSecret == "" || req.TeacherCode != s.teacherSecret {
			return nil, apperror.New(http.StatusForbidden, "invalid teacher code", apperror.ErrForbidden)
		}
		role = model.RoleTeacher
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.New(http.StatusConflict, "an account with this email already exists", apperror.ErrBadRequest)
		}
		return nil, err
	}

	return s.buildAuthResponse(user)
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrUnauthorized
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, apperror.ErrUnauthorized
	}

	return s.buildAuthResponse(user)
}

func (s *authService) GoogleLogin() (string, error) {
	if s.googleConfig == nil {
		return "", apperror.New(http.StatusServiceUnavailable, "google login is not configured", apperror.ErrBadRequest)
	}
	return s.googleConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline), nil
}

type googleProfile struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (s *authService) GoogleCallback(ctx context.Context, code string) (*dto.AuthResponse, error) {
	if s.googleConfig == nil {
		return nil, apperror.New(http.StatusServiceUnavailable, "google login is not configured", apperror.ErrBadRequest)
	}

	token, err := s.googleConfig.Exchange(ctx, code)
	if err != nil {
		return nil, apperror.New(http.StatusUnauthorized, "failed to exchange token", apperror.ErrUnauthorized)
	}

	client := s.googleConfig.Client(ctx, token)
	userInfoResp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, apperror.New(http.StatusBadGateway, "failed to fetch user info", apperror.ErrBadRequest)
	}
	defer userInfoResp.Body.Close()

	var profile googleProfile
	if err := json.NewDecoder(userInfoResp.Body).Decode(&profile); err != nil {
		return nil, apperror.New(http.StatusBadGateway, "failed to decode user info", apperror.ErrBadRequest)
	}

	return s.loginWithGoogle(ctx, &profile)
}

// loginWithGoogle provisions a student account on first login and
// links the Google id to existing accounts that signed up by email.
func (s *authService) loginWithGoogle(ctx context.Context, profile *googleProfile) (*dto.AuthResponse, error) {
	if profile.Email == "" || profile.ID == "" {
		return nil, apperror.ErrUnauthorized
	}

	user, err := s.userRepo.FindByEmail(ctx, profile.Email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		// Random password so the account stays google-only until the
		// user sets one.
		hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}

		user = &model.User{
			Email:        profile.Email,
			PasswordHash: string(hash),
			FullName:     profile.Name,
			Role:         model.RoleStudent,
			GoogleID:     &profile.ID,
		}
		if profile.Picture != "" {
			user.AvatarURL = &profile.Picture
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
		return s.buildAuthResponse(user)
	}

	if user.GoogleID == nil || *user.GoogleID != profile.ID {
		user.GoogleID = &profile.ID
		if err := s.userRepo.Update(ctx, user); err != nil {
			log.Printf("auth: failed to link google id for %s: %v", user.Email, err)
		}
	}
	return s.buildAuthResponse(user)
}

func (s *authService) buildAuthResponse(user *model.User) (*dto.AuthResponse, error) {
	token, err := s.signToken(user)
	if err != nil {
		return nil, err
	}
	// Never ship the hash to clients.
	user.PasswordHash = ""
	return &dto.AuthResponse{Token: token, User: user}, nil
}

type authClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (s *authService) signToken(user *model.User) (string, error) {
	now := time.Now()
	claims := authClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ParseToken validates the signed token and returns the user id and
// role. Shared with the auth middleware.
func ParseToken(tokenString, secret string) (uuid.UUID, string, error) {
	var claims authClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, "", apperror.ErrUnauthorized
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, "", apperror.ErrUnauthorized
	}
	return userID, claims.Role, nil
}
