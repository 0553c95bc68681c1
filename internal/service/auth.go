package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/otp"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/sms"
	"github.com/Skotchmaster/storefront/internal/tokens"
)

var ErrOTPAlreadySent = otp.ErrCodeAlreadySent

type AuthService struct {
	Repo          *repo.GormRepo
	OTP           *otp.Store
	SMS           sms.Sender
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	CodeLength    int
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	User         *models.User
}

func (s *AuthService) CreateAccessToken(role, id string, accessExp time.Time) (string, error) {
	accessClaims := tokens.AccessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(accessExp),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString(s.AccessSecret)
}

// CreateRefreshToken returns the signed token and its jti.
func (s *AuthService) CreateRefreshToken(id string, refreshExp time.Time) (string, string, error) {
	jti := tokens.NewJTI()
	refreshClaims := tokens.RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(refreshExp),
			ID:        jti,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString(s.RefreshSecret)
	if err != nil {
		return "", "", err
	}
	return signed, jti, nil
}

// RequestOTP generates a code for phone, stores its hash and texts it.
// It returns how long the code stays valid.
func (s *AuthService) RequestOTP(ctx context.Context, phone string) (time.Duration, error) {
	l := logging.FromContext(ctx).With("svc", "auth.request_otp")

	code, err := otp.GenerateCode(s.CodeLength)
	if err != nil {
		return 0, fmt.Errorf("generate otp: %w", err)
	}
	codeHash, err := hash.Hash(code)
	if err != nil {
		return 0, fmt.Errorf("hash otp: %w", err)
	}

	if err := s.OTP.Save(ctx, phone, codeHash); err != nil {
		if errors.Is(err, otp.ErrCodeAlreadySent) {
			remaining, _ := s.OTP.Remaining(ctx, phone)
			return remaining, err
		}
		return 0, err
	}

	if err := s.SMS.Send(ctx, phone, fmt.Sprintf("Your verification code: %s", code)); err != nil {
		l.Error("send_otp_error", "error", err)
		if derr := s.OTP.Delete(ctx, phone); derr != nil {
			l.Error("drop_otp_error", "error", derr)
		}
		return 0, fmt.Errorf("send otp: %w", err)
	}

	return s.OTP.TTL(), nil
}

// VerifyOTP checks code for phone and logs the user in, registering them
// on first sight.
func (s *AuthService) VerifyOTP(ctx context.Context, phone, code string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.verify_otp")

	stored, err := s.OTP.Get(ctx, phone)
	if err != nil {
		if errors.Is(err, otp.ErrCodeNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
		return nil, err
	}

	if !hash.Check(stored, code) {
		if err := s.OTP.RegisterFailure(ctx, phone); err != nil {
			if errors.Is(err, otp.ErrTooManyAttempts) {
				return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
			}
			return nil, err
		}
		return nil, fmt.Errorf("%w: wrong code", ErrUnauthorized)
	}

	if err := s.OTP.Delete(ctx, phone); err != nil {
		l.Warn("drop_otp_error", "error", err)
	}

	var user *models.User
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		u, created, err := tx.FindOrCreateUserByPhone(ctx, phone)
		if err != nil {
			return err
		}
		user = u
		if !created {
			return nil
		}
		return tx.AddOutbox(ctx, models.TopicUserEvents, "user_registered", u.ID.String(), map[string]any{
			"user_id": u.ID,
			"phone":   u.Phone,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("find or create user: %w", err)
	}

	return s.issue(ctx, user)
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*LoginResult, error) {
	accessExp := time.Now().Add(s.AccessTTL)
	accessToken, err := s.CreateAccessToken(user.Role, user.ID.String(), accessExp)
	if err != nil {
		return nil, err
	}

	refreshExp := time.Now().Add(s.RefreshTTL)
	refreshToken, jti, err := s.CreateRefreshToken(user.ID.String(), refreshExp)
	if err != nil {
		return nil, err
	}

	err = s.Repo.CreateRefreshToken(ctx, &models.RefreshToken{
		TokenHash: tokens.Sha256Hex(refreshToken),
		UserID:    user.ID,
		JTI:       jti,
		ExpiresAt: refreshExp.Unix(),
	})
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		User:         user,
	}, nil
}

// Refresh rotates a refresh token. The presented token is revoked and a new
// pair is issued; presenting it again fails.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrUnauthorized)
	}

	user, err := s.Repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user not found", ErrUnauthorized)
		}
		return nil, err
	}

	accessExp := time.Now().Add(s.AccessTTL)
	accessToken, err := s.CreateAccessToken(user.Role, user.ID.String(), accessExp)
	if err != nil {
		return nil, err
	}
	refreshExp := time.Now().Add(s.RefreshTTL)
	newRefresh, jti, err := s.CreateRefreshToken(user.ID.String(), refreshExp)
	if err != nil {
		return nil, err
	}

	err = s.Repo.RotateRefreshToken(ctx, claims.ID, &models.RefreshToken{
		TokenHash: tokens.Sha256Hex(newRefresh),
		UserID:    user.ID,
		JTI:       jti,
		ExpiresAt: refreshExp.Unix(),
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, repo.ErrTokenRevoked) {
			return nil, fmt.Errorf("%w: %w", ErrUnauthorized, repo.ErrTokenRevoked)
		}
		return nil, err
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		User:         user,
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Repo.RevokeRefreshToken(ctx, tokens.Sha256Hex(refreshToken))
}

func (s *AuthService) Me(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.Repo.GetUser(ctx, id)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}
