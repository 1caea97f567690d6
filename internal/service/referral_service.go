package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"algobank/backend/internal/models"
	"algobank/backend/internal/repository"
	"algobank/backend/pkg/helpers"
	"algobank/backend/pkg/logger"
)

var ErrReferralNotFound = errors.New("referral not found")

// Commission chain depth. Level 1 is the direct referrer.
const maxReferralDepth = 3

// ReferralService pays multi-level commissions on a referred account's first
// completed deposit and serves referral listings and the derived tree.
type ReferralService struct {
	referralRepo        repository.ReferralRepository
	userRepo            repository.UserRepository
	notificationService *NotificationService
	idGen               *helpers.IDGenerator
	logger              *logger.Logger
}

func NewReferralService(
	referralRepo repository.ReferralRepository,
	userRepo repository.UserRepository,
	notificationService *NotificationService,
	log *logger.Logger,
) *ReferralService {
	return &ReferralService{
		referralRepo:        referralRepo,
		userRepo:            userRepo,
		notificationService: notificationService,
		idGen:               helpers.NewIDGenerator(),
		logger:              log,
	}
}

// ProcessFirstDeposit pays the commission chain for a referred account's
// first completed deposit. The level-1 link's pending-to-completed transition
// is the idempotency guard: once it has flipped, repeated calls for the same
// account pay nothing.
func (s *ReferralService) ProcessFirstDeposit(ctx context.Context, referredID uint64, depositAmount decimal.Decimal) error {
	link, err := s.referralRepo.FindByReferred(ctx, referredID)
	if err != nil {
		return fmt.Errorf("failed to look up referral link: %w", err)
	}
	if link == nil || link.Status != models.ReferralStatusPending {
		return nil
	}

	settings, err := s.referralRepo.Settings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load referral settings: %w", err)
	}
	rates := make(map[int]*models.ReferralSetting, len(settings))
	for _, st := range settings {
		rates[st.Level] = st
	}

	level1, ok := rates[1]
	if !ok {
		return fmt.Errorf("referral level 1 not configured")
	}
	if depositAmount.LessThan(level1.MinDepositAmount) {
		return nil
	}

	commission := depositAmount.Mul(level1.CommissionRate).Div(decimal.NewFromInt(100))

	completed, err := s.referralRepo.CompleteLink(ctx, link.ID, commission)
	if err != nil {
		return fmt.Errorf("failed to complete referral link: %w", err)
	}
	if !completed {
		// Lost the race to another completion; the chain is already paid.
		return nil
	}

	s.pay(ctx, link.ReferrerID, referredID, 1, commission)

	// Walk up the chain for the higher levels.
	current := link.ReferrerID
	for level := 2; level <= maxReferralDepth; level++ {
		parent, err := s.referralRepo.FindByReferred(ctx, current)
		if err != nil {
			s.logger.WithUserID(current).WithError(err).Warn("failed to walk referral chain")
			break
		}
		if parent == nil {
			break
		}

		setting, ok := rates[level]
		if !ok || setting.CommissionRate.IsZero() {
			current = parent.ReferrerID
			continue
		}

		amount := depositAmount.Mul(setting.CommissionRate).Div(decimal.NewFromInt(100))
		s.pay(ctx, parent.ReferrerID, referredID, level, amount)
		current = parent.ReferrerID
	}

	return nil
}

// pay credits one commission. Failures after the link has flipped are logged
// rather than returned; the completed link prevents a retry of the chain, so
// a missed payout is surfaced for manual follow-up instead.
func (s *ReferralService) pay(ctx context.Context, referrerID, referredID uint64, level int, amount decimal.Decimal) {
	earning := &models.ReferralEarning{
		ReferrerID: referrerID,
		ReferredID: referredID,
		Level:      level,
		Amount:     amount,
	}
	if err := s.referralRepo.PayCommission(ctx, earning); err != nil {
		s.logger.WithError(err).
			WithField("referrer_id", referrerID).
			WithField("referred_id", referredID).
			WithField("level", level).
			Error("failed to pay referral commission")
		return
	}

	s.notificationService.Notify(ctx, referrerID,
		"Referral commission earned",
		fmt.Sprintf("You earned $%s from a level %d referral deposit.", amount.StringFixed(2), level),
		models.NotificationCategorySystem)
}

// Code returns the user's referral code, generating and storing one on first
// use.
func (s *ReferralService) Code(ctx context.Context, userID uint64) (string, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return "", ErrUserNotFound
	}
	if user.ReferralCode != nil && *user.ReferralCode != "" {
		return *user.ReferralCode, nil
	}

	// Retry on the unique constraint; an 8-char collision is rare but real.
	for attempt := 0; attempt < 5; attempt++ {
		code := s.idGen.GenerateReferralCode()
		existing, err := s.userRepo.FindByReferralCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check referral code: %w", err)
		}
		if existing != nil {
			continue
		}
		if err := s.userRepo.SetReferralCode(ctx, userID, code); err != nil {
			return "", fmt.Errorf("failed to store referral code: %w", err)
		}
		return code, nil
	}
	return "", fmt.Errorf("failed to generate unique referral code")
}

func (s *ReferralService) MyReferrals(ctx context.Context, userID uint64) ([]*models.ReferralWithUsers, *models.ReferralStats, error) {
	refs, err := s.referralRepo.ListByReferrer(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	stats, err := s.referralRepo.Stats(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return refs, stats, nil
}

// Tree builds the referral tree rooted at the user, down to maxReferralDepth
// levels.
func (s *ReferralService) Tree(ctx context.Context, userID uint64) (*models.ReferralTreeNode, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	earnings, err := s.referralRepo.SumEarnings(ctx, userID)
	if err != nil {
		return nil, err
	}

	root := &models.ReferralTreeNode{
		UserID:        user.ID,
		Name:          user.Name,
		Email:         user.Email,
		Status:        models.ReferralStatusCompleted,
		TotalEarnings: earnings,
	}
	if err := s.fillChildren(ctx, root, 1); err != nil {
		return nil, err
	}
	return root, nil
}

func (s *ReferralService) fillChildren(ctx context.Context, node *models.ReferralTreeNode, depth int) error {
	if depth > maxReferralDepth {
		return nil
	}
	children, err := s.referralRepo.Children(ctx, node.UserID)
	if err != nil {
		return err
	}
	node.Children = children
	for _, child := range children {
		if err := s.fillChildren(ctx, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// Admin operations.

func (s *ReferralService) ListAll(ctx context.Context) ([]*models.ReferralWithUsers, error) {
	return s.referralRepo.ListAll(ctx)
}

func (s *ReferralService) UpdateStatus(ctx context.Context, id uint64, status string) error {
	switch status {
	case models.ReferralStatusPending, models.ReferralStatusCompleted, models.ReferralStatusInactive:
	default:
		return fmt.Errorf("invalid referral status %q", status)
	}

	link, err := s.referralRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if link == nil {
		return ErrReferralNotFound
	}

	// Manually completing a pending link pays its recorded commission once,
	// through the same guarded transition as the deposit path.
	if status == models.ReferralStatusCompleted && link.Status == models.ReferralStatusPending {
		flipped, err := s.referralRepo.CompleteLink(ctx, id, link.Commission)
		if err != nil {
			return err
		}
		if flipped && link.Commission.IsPositive() {
			s.pay(ctx, link.ReferrerID, link.ReferredID, 1, link.Commission)
		}
		return nil
	}

	ok, err := s.referralRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		return err
	}
	if !ok {
		return ErrReferralNotFound
	}
	return nil
}

func (s *ReferralService) Settings(ctx context.Context) ([]*models.ReferralSetting, error) {
	return s.referralRepo.Settings(ctx)
}

func (s *ReferralService) UpdateSetting(ctx context.Context, level int, rate, minDeposit decimal.Decimal) error {
	if level < 1 || level > maxReferralDepth {
		return fmt.Errorf("invalid referral level %d", level)
	}
	if rate.IsNegative() || minDeposit.IsNegative() {
		return fmt.Errorf("referral settings must not be negative")
	}
	return s.referralRepo.UpdateSetting(ctx, level, rate, minDeposit)
}
