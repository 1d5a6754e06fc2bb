package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"learn2b.app/ieltsbackend/internal/dto"
	"learn2b.app/ieltsbackend/internal/model"
	"learn2b.app/ieltsbackend/internal/repository"
	"learn2b.app/ieltsbackend/pkg/apperror"
)

const testTeacherCode = "teach-me-2026"

func newAuthFixture(t *testing.T) AuthService {
	t.Helper()
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	return NewAuthService(userRepo, "test-secret", time.Hour, testTeacherCode, nil)
}

func registerReq(email string) *dto.RegisterRequest {
	return &dto.RegisterRequest{
		FullName:        "New Student",
		Email:           email,
		Password:        "password123",
		ConfirmPassword: "password123",
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a student and returns a usable token", func(t *testing.T) {
		svc := newAuthFixture(t)

		resp, err := svc.Register(ctx, registerReq("student@example.com"))
		require.NoError(t, err)
		assert.Equal(t, model.RoleStudent, resp.User.Role)
		assert.Empty(t, resp.User.PasswordHash)

		userID, role, err := ParseToken(resp.Token, "test-secret")
		require.NoError(t, err)
		assert.Equal(t, resp.User.ID, userID)
		assert.Equal(t, model.RoleStudent, role)
	})

	t.Run("teacher code upgrades the role", func(t *testing.T) {
		svc := newAuthFixture(t)

		req := registerReq("teacher@example.com")
		req.TeacherCode = testTeacherCode
		resp, err := svc.Register(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, model.RoleTeacher, resp.User.Role)
	})

	t.Run("wrong teacher code is rejected", func(t *testing.T) {
		svc := newAuthFixture(t)

		req := registerReq("imposter@example.com")
		req.TeacherCode = "wrong"
		_, err := svc.Register(ctx, req)
		assert.ErrorIs(t, err, apperror.ErrForbidden)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		svc := newAuthFixture(t)

		_, err := svc.Register(ctx, registerReq("dup@example.com"))
		require.NoError(t, err)

		_, err = svc.Register(ctx, registerReq("dup@example.com"))
		require.Error(t, err)

		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 409, appErr.Code)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		svc := newAuthFixture(t)
		_, err := svc.Register(ctx, registerReq("login@example.com"))
		require.NoError(t, err)

		resp, err := svc.Login(ctx, &dto.LoginRequest{
			Email:    "login@example.com",
			Password: "password123",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("wrong password and unknown email both map to unauthorized", func(t *testing.T) {
		svc := newAuthFixture(t)
		_, err := svc.Register(ctx, registerReq("login2@example.com"))
		require.NoError(t, err)

		_, err = svc.Login(ctx, &dto.LoginRequest{Email: "login2@example.com", Password: "nope"})
		assert.ErrorIs(t, err, apperror.ErrUnauthorized)

		_, err = svc.Login(ctx, &dto.LoginRequest{Email: "ghost@example.com", Password: "password123"})
		assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	})
}

func TestGoogleLoginUnconfigured(t *testing.T) {
	svc := newAuthFixture(t)

	_, err := svc.GoogleLogin()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 503, appErr.Code)

	_, err = svc.GoogleCallback(context.Background(), "some-code")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 503, appErr.Code)
}

func TestLoginWithGoogle(t *testing.T) {
	ctx := context.Background()

	t.Run("first login provisions a student account", func(t *testing.T) {
		svc := newAuthFixture(t).(*authService)

		resp, err := svc.loginWithGoogle(ctx, &googleProfile{
			ID:      "google-123",
			Email:   "oauth@example.com",
			Name:    "OAuth Student",
			Picture: "https://lh3.example.com/photo.jpg",
		})
		require.NoError(t, err)
		assert.Equal(t, model.RoleStudent, resp.User.Role)
		require.NotNil(t, resp.User.GoogleID)
		assert.Equal(t, "google-123", *resp.User.GoogleID)
		require.NotNil(t, resp.User.AvatarURL)

		userID, _, err := ParseToken(resp.Token, "test-secret")
		require.NoError(t, err)
		assert.Equal(t, resp.User.ID, userID)
	})

	t.Run("links the google id to an existing email account", func(t *testing.T) {
		svc := newAuthFixture(t).(*authService)

		registered, err := svc.Register(ctx, registerReq("linked@example.com"))
		require.NoError(t, err)

		resp, err := svc.loginWithGoogle(ctx, &googleProfile{
			ID:    "google-456",
			Email: "linked@example.com",
			Name:  "Ignored Name",
		})
		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, resp.User.ID)
		require.NotNil(t, resp.User.GoogleID)
		assert.Equal(t, "google-456", *resp.User.GoogleID)
	})

	t.Run("incomplete profile is rejected", func(t *testing.T) {
		svc := newAuthFixture(t).(*authService)

		_, err := svc.loginWithGoogle(ctx, &googleProfile{Email: "noid@example.com"})
		assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	})
}

func TestParseTokenRejectsTampering(t *testing.T) {
	svc := newAuthFixture(t)
	resp, err := svc.Register(context.Background(), registerReq("token@example.com"))
	require.NoError(t, err)

	_, _, err = ParseToken(resp.Token, "other-secret")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, _, err = ParseToken("not-a-token", "test-secret")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}
