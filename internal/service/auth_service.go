package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"algobank/backend/internal/config"
	"algobank/backend/internal/models"
	"algobank/backend/internal/repository"
	"algobank/backend/pkg/helpers"
	"algobank/backend/pkg/logger"
)

var (
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailNotVerified    = errors.New("email not verified")
	ErrInvalidReferralCode = errors.New("invalid referral code")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrUserNotFound        = errors.New("user not found")
)

const verificationTokenTTL = 24 * time.Hour

// Claims is the JWT payload issued on login.
type Claims struct {
	UserID  uint64 `json:"userId"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

// AuthService handles registration, email verification and login. Registration
// provisions the account's wallet and gains rows and records the referral link
// when a valid code is supplied.
type AuthService struct {
	userRepo     repository.UserRepository
	walletRepo   repository.WalletRepository
	gainsRepo    repository.GainsRepository
	referralRepo repository.ReferralRepository
	emailService *EmailService
	idGen        *helpers.IDGenerator
	jwtConfig    config.JWTConfig
	logger       *logger.Logger
}

func NewAuthService(
	userRepo repository.UserRepository,
	walletRepo repository.WalletRepository,
	gainsRepo repository.GainsRepository,
	referralRepo repository.ReferralRepository,
	emailService *EmailService,
	jwtConfig config.JWTConfig,
	log *logger.Logger,
) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		walletRepo:   walletRepo,
		gainsRepo:    gainsRepo,
		referralRepo: referralRepo,
		emailService: emailService,
		idGen:        helpers.NewIDGenerator(),
		jwtConfig:    jwtConfig,
		logger:       log,
	}
}

type RegisterInput struct {
	Name         string
	Email        string
	Password     string
	Phone        string
	ReferralCode string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	existing, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	// Resolve the referrer before creating anything, so a bad code rejects the
	// whole registration.
	var referrer *models.User
	if input.ReferralCode != "" {
		referrer, err = s.userRepo.FindByReferralCode(ctx, input.ReferralCode)
		if err != nil {
			return nil, fmt.Errorf("failed to look up referral code: %w", err)
		}
		if referrer == nil {
			return nil, ErrInvalidReferralCode
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	token := s.idGen.GenerateVerificationToken()
	expires := time.Now().Add(verificationTokenTTL)

	user := &models.User{
		Name:                input.Name,
		Email:               input.Email,
		PasswordHash:        string(hash),
		Phone:               input.Phone,
		VerificationToken:   &token,
		VerificationExpires: &expires,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	wallet := &models.Wallet{UserID: user.ID, Balance: decimal.Zero, Currency: "USD"}
	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	gains := &models.Gains{UserID: user.ID}
	if err := s.gainsRepo.Create(ctx, gains); err != nil {
		return nil, fmt.Errorf("failed to create gains record: %w", err)
	}

	if referrer != nil {
		ref := &models.Referral{
			ReferrerID: referrer.ID,
			ReferredID: user.ID,
			Code:       input.ReferralCode,
		}
		if err := s.referralRepo.CreateLink(ctx, ref); err != nil {
			// The account is usable without the link; log and continue.
			s.logger.WithUserID(user.ID).WithError(err).Warn("failed to record referral link")
		}
	}

	s.emailService.SendVerification(user.Email, user.Name, token)

	return user, nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	user, err := s.userRepo.FindByVerificationToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidToken
	}

	user.IsVerified = true
	user.VerificationToken = nil
	user.VerificationExpires = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to verify user: %w", err)
	}
	return user, nil
}

func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	// Do not reveal whether the address exists.
	if user == nil || user.IsVerified {
		return nil
	}

	token := s.idGen.GenerateVerificationToken()
	expires := time.Now().Add(verificationTokenTTL)
	user.VerificationToken = &token
	user.VerificationExpires = &expires
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to refresh verification token: %w", err)
	}

	s.emailService.SendVerification(user.Email, user.Name, token)
	return nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if !user.IsVerified {
		return "", nil, ErrEmailNotVerified
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:  user.ID,
		IsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.jwtConfig.ExpireHours) * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a signed token and returns its claims.
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtConfig.Secret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) GetUser(ctx context.Context, userID uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uint64, name, phone string) (*models.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if name != "" {
		user.Name = name
	}
	if phone != "" {
		user.Phone = phone
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}
