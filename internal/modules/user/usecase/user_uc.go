package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Hermela440/game/internal/modules/user/domain"
	walletdomain "github.com/Hermela440/game/internal/modules/wallet/domain"
	"github.com/Hermela440/game/pkg/logger"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims is the JWT payload for both token types
type Claims struct {
	UserID    int64  `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// UserUseCase handles registration and authentication
type UserUseCase struct {
	repo           domain.UserRepository
	jwtSecret      []byte
	tokenTTL       time.Duration
	refreshTTL     time.Duration
	initialBalance int64
}

// NewUserUseCase wires the user module
func NewUserUseCase(repo domain.UserRepository, jwtSecret string, tokenTTL, refreshTTL time.Duration, initialBalance int64) *UserUseCase {
	return &UserUseCase{
		repo:           repo,
		jwtSecret:      []byte(jwtSecret),
		tokenTTL:       tokenTTL,
		refreshTTL:     refreshTTL,
		initialBalance: initialBalance,
	}
}

// Register creates a user with a hashed password and the starting balance
func (uc *UserUseCase) Register(ctx context.Context, username, password string) (*domain.User, error) {
	if len(username) < 3 || len(username) > 64 {
		return nil, fmt.Errorf("%w: username must be 3 to 64 characters", domain.ErrInvalidCredentials)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrInvalidCredentials)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &domain.User{
		UserID:       walletdomain.NewID(),
		Username:     username,
		PasswordHash: string(hash),
		Balance:      uc.initialBalance,
		Status:       domain.StatusActive,
	}
	if err := uc.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Int64("user_id", user.UserID).
		Str("username", username).
		Msg("user registered")
	return user, nil
}

// Login verifies the password and issues a token pair
func (uc *UserUseCase) Login(ctx context.Context, username, password string) (*domain.TokenPair, error) {
	user, err := uc.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, domain.ErrInvalidCredentials
	}

	pair, err := uc.issuePair(user.UserID)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).Int64("user_id", user.UserID).Msg("user logged in")
	return pair, nil
}

// Refresh exchanges a valid refresh token for a new pair
func (uc *UserUseCase) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := uc.parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	return uc.issuePair(claims.UserID)
}

// ValidateToken checks an access token and returns the user id
func (uc *UserUseCase) ValidateToken(ctx context.Context, token string) (int64, error) {
	claims, err := uc.parse(token, tokenTypeAccess)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

// GetUser loads a user by id
func (uc *UserUseCase) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	return uc.repo.GetByID(ctx, userID)
}

func (uc *UserUseCase) issuePair(userID int64) (*domain.TokenPair, error) {
	access, err := uc.sign(userID, tokenTypeAccess, uc.tokenTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := uc.sign(userID, tokenTypeRefresh, uc.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(uc.tokenTTL.Seconds()),
	}, nil
}

func (uc *UserUseCase) sign(userID int64, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(uc.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

func (uc *UserUseCase) parse(tokenString, wantType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return uc.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.TokenType != wantType {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}
