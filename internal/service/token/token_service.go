package token

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/Skotchmaster/marketplace/pkg/tokens"
)

var (
	ErrWrongTokenType = errors.New("invalid token type")
	ErrRevoked        = errors.New("refresh token is invalid or has been revoked")
	ErrExpired        = errors.New("refresh token has expired")
)

// Service issues, rotates and revokes token pairs. Access tokens are
// stateless; the refresh token is stored on the user row as a SHA-256 hex
// digest, so at most one refresh token per user is ever valid.
type Service struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type Pair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// IssuePair signs a fresh access+refresh pair for the user and overwrites
// the stored refresh token, invalidating any previous session.
func (s *Service) IssuePair(ctx context.Context, user *models.User) (Pair, error) {
	access, err := tokens.SignAccessToken(user.ID, string(user.Role), s.JWTSecret, s.AccessTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, exp, err := tokens.SignRefreshToken(user.ID, string(user.Role), s.RefreshSecret, s.RefreshTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	digest := sha256Hex(refresh)
	updates := map[string]any{
		"refresh_token_hash":   digest,
		"refresh_token_expiry": exp,
	}
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		return Pair{}, fmt.Errorf("store refresh token: %w", err)
	}

	return Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.AccessTTL / time.Second),
	}, nil
}

// Rotate validates the presented refresh token and issues a new pair. The
// old token value stops working the moment the new pair is stored.
func (s *Service) Rotate(ctx context.Context, rawToken string) (Pair, error) {
	claims, err := tokens.RefreshClaimsFromToken(rawToken, s.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			// The signature checked out, only the lifetime is over: drop the
			// stored copy so the session ends server-side too.
			s.clearByHash(ctx, sha256Hex(rawToken))
			return Pair{}, ErrExpired
		}
		if errors.Is(err, tokens.ErrWrongTokenType) {
			return Pair{}, ErrWrongTokenType
		}
		// An access token signed with the access secret fails the signature
		// check here; report the type mismatch rather than a revoked session.
		if tokens.UnverifiedType(rawToken) == tokens.TypeAccess {
			return Pair{}, ErrWrongTokenType
		}
		return Pair{}, ErrRevoked
	}

	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Pair{}, ErrRevoked
		}
		return Pair{}, fmt.Errorf("load user: %w", err)
	}

	if !user.IsActive {
		return Pair{}, ErrRevoked
	}
	if user.RefreshTokenHash == nil || *user.RefreshTokenHash != sha256Hex(rawToken) {
		return Pair{}, ErrRevoked
	}
	if user.RefreshTokenExpiry == nil || user.RefreshTokenExpiry.Before(time.Now()) {
		if err := s.Revoke(ctx, user.ID); err != nil {
			return Pair{}, err
		}
		return Pair{}, ErrExpired
	}

	return s.IssuePair(ctx, &user)
}

// Revoke clears the stored refresh token, ending the user's session.
func (s *Service) Revoke(ctx context.Context, userID uint) error {
	updates := map[string]any{
		"refresh_token_hash":   nil,
		"refresh_token_expiry": nil,
	}
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (s *Service) clearByHash(ctx context.Context, digest string) {
	updates := map[string]any{
		"refresh_token_hash":   nil,
		"refresh_token_expiry": nil,
	}
	err := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("refresh_token_hash = ?", digest).Updates(updates).Error
	if err != nil {
		logging.FromContext(ctx).Warn("clear expired refresh token failed", "error", err)
	}
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
