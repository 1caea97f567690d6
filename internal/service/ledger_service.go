package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"algobank/backend/internal/config"
	"algobank/backend/internal/models"
	"algobank/backend/internal/repository"
	"algobank/backend/pkg/helpers"
	"algobank/backend/pkg/logger"
)

var (
	ErrAmountTooSmall       = errors.New("amount below minimum")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrInsufficientGains    = errors.New("insufficient gains")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrWithdrawalNotFound   = errors.New("withdrawal request not found")
	ErrWithdrawalNotPending = errors.New("withdrawal request not pending")
	ErrDepositNotPending    = errors.New("deposit not pending")
	ErrWalletNotFound       = errors.New("wallet not found")
	ErrAddressRequired      = errors.New("withdrawal address required for payment method")
	ErrUnsupportedMethod    = errors.New("unsupported payment method")
)

// Operation minimums, in USD.
var (
	minDeposit    = decimal.NewFromInt(10)
	minWithdrawal = decimal.NewFromInt(10)
	minInvestment = decimal.NewFromInt(9)
)

// Investments grow 1% of principal per whole elapsed day.
var dailyGainRate = decimal.NewFromFloat(0.01)

// LedgerService owns every balance movement: deposits and their completion,
// the withdrawal approval workflow, investments and their lazy daily accrual.
type LedgerService struct {
	walletRepo          repository.WalletRepository
	gainsRepo           repository.GainsRepository
	transactionRepo     repository.TransactionRepository
	withdrawalRepo      repository.WithdrawalRepository
	investmentRepo      repository.InvestmentRepository
	userRepo            repository.UserRepository
	referralService     *ReferralService
	notificationService *NotificationService
	emailService        *EmailService
	marketService       *MarketService
	depositConfig       config.DepositConfig
	idGen               *helpers.IDGenerator
	logger              *logger.Logger
}

func NewLedgerService(
	walletRepo repository.WalletRepository,
	gainsRepo repository.GainsRepository,
	transactionRepo repository.TransactionRepository,
	withdrawalRepo repository.WithdrawalRepository,
	investmentRepo repository.InvestmentRepository,
	userRepo repository.UserRepository,
	referralService *ReferralService,
	notificationService *NotificationService,
	emailService *EmailService,
	marketService *MarketService,
	depositConfig config.DepositConfig,
	log *logger.Logger,
) *LedgerService {
	return &LedgerService{
		walletRepo:          walletRepo,
		gainsRepo:           gainsRepo,
		transactionRepo:     transactionRepo,
		withdrawalRepo:      withdrawalRepo,
		investmentRepo:      investmentRepo,
		userRepo:            userRepo,
		referralService:     referralService,
		notificationService: notificationService,
		emailService:        emailService,
		marketService:       marketService,
		depositConfig:       depositConfig,
		idGen:               helpers.NewIDGenerator(),
		logger:              log,
	}
}

type DepositInput struct {
	UserID        uint64
	Amount        decimal.Decimal
	PaymentMethod string
}

// Deposit opens a pending deposit and returns the transaction together with
// the platform address the user must pay to. Nothing is credited until the
// deposit is completed.
func (s *LedgerService) Deposit(ctx context.Context, input DepositInput) (*models.Transaction, error) {
	if input.Amount.LessThan(minDeposit) {
		return nil, ErrAmountTooSmall
	}

	txn := &models.Transaction{
		ID:            s.idGen.GenerateTransactionID(),
		UserID:        input.UserID,
		Type:          models.TransactionTypeDeposit,
		Amount:        input.Amount,
		Currency:      "USD",
		Status:        models.TransactionStatusPending,
		PaymentMethod: input.PaymentMethod,
	}

	switch input.PaymentMethod {
	case models.PaymentMethodBitcoin:
		price := s.marketService.BTCPrice(ctx)
		crypto := input.Amount.Div(price).Round(8)
		network := models.NetworkBTC
		txn.CryptoAmount = &crypto
		txn.Network = &network
		if s.depositConfig.BitcoinAddress != "" {
			addr := s.depositConfig.BitcoinAddress
			txn.BitcoinAddress = &addr
		}
	case models.PaymentMethodUSDT:
		crypto := input.Amount
		network := models.NetworkTRC20
		txn.CryptoAmount = &crypto
		txn.Network = &network
		if s.depositConfig.USDTAddress != "" {
			addr := s.depositConfig.USDTAddress
			txn.USDTAddress = &addr
		}
	default:
		return nil, ErrUnsupportedMethod
	}

	if err := s.transactionRepo.Create(ctx, txn); err != nil {
		return nil, err
	}

	s.notificationService.Notify(ctx, input.UserID,
		"Deposit initiated",
		fmt.Sprintf("Your deposit of $%s is awaiting payment.", input.Amount.StringFixed(2)),
		models.NotificationCategoryDeposit)

	return txn, nil
}

// ConfirmDeposit records the user's payment proof on a pending deposit.
func (s *LedgerService) ConfirmDeposit(ctx context.Context, userID uint64, txnID, txHash string) (*models.Transaction, error) {
	ok, err := s.transactionRepo.SetTxHash(ctx, txnID, userID, txHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrDepositNotPending
	}
	return s.transactionRepo.FindByIDForUser(ctx, txnID, userID)
}

// CompleteDeposit credits a pending deposit and, when it is the account's
// first, triggers the referral commission chain. Completing an already
// completed deposit is a no-op error, never a double credit.
func (s *LedgerService) CompleteDeposit(ctx context.Context, txnID, txHash string) (*models.Transaction, error) {
	txn, err := s.transactionRepo.FindByID(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if txn == nil || txn.Type != models.TransactionTypeDeposit {
		return nil, ErrTransactionNotFound
	}

	completed, err := s.transactionRepo.CompleteDeposit(ctx, txnID, txn.UserID, txHash)
	if err != nil {
		return nil, err
	}
	if !completed {
		return nil, ErrDepositNotPending
	}

	// First completed deposit pays the referral chain.
	prior, err := s.transactionRepo.CountCompletedDeposits(ctx, txn.UserID, txnID)
	if err != nil {
		s.logger.WithUserID(txn.UserID).WithError(err).Warn("failed to count prior deposits")
	} else if prior == 0 {
		if err := s.referralService.ProcessFirstDeposit(ctx, txn.UserID, txn.Amount); err != nil {
			s.logger.WithUserID(txn.UserID).WithError(err).Error("failed to process referral commission")
		}
	}

	s.notificationService.Notify(ctx, txn.UserID,
		"Deposit completed",
		fmt.Sprintf("Your deposit of $%s has been credited.", txn.Amount.StringFixed(2)),
		models.NotificationCategoryDeposit)

	if user, err := s.userRepo.FindByID(ctx, txn.UserID); err == nil && user != nil {
		s.emailService.SendDepositCompleted(user.Email, user.Name, txn.Amount.StringFixed(2))
	}

	return s.transactionRepo.FindByID(ctx, txnID)
}

// FailDeposit marks a pending deposit failed without crediting anything.
func (s *LedgerService) FailDeposit(ctx context.Context, txnID string) error {
	txn, err := s.transactionRepo.FindByID(ctx, txnID)
	if err != nil {
		return err
	}
	if txn == nil || txn.Type != models.TransactionTypeDeposit {
		return ErrTransactionNotFound
	}

	ok, err := s.transactionRepo.MarkStatus(ctx, txnID, models.TransactionStatusFailed)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDepositNotPending
	}

	s.notificationService.Notify(ctx, txn.UserID,
		"Deposit failed",
		fmt.Sprintf("Your deposit of $%s could not be confirmed.", txn.Amount.StringFixed(2)),
		models.NotificationCategoryDeposit)

	return nil
}

type WithdrawalInput struct {
	UserID         uint64
	Amount         decimal.Decimal
	PaymentMethod  string
	BitcoinAddress string
	USDTAddress    string
}

// RequestWithdrawal reserves the amount out of the user's gains and opens a
// pending request for review.
func (s *LedgerService) RequestWithdrawal(ctx context.Context, input WithdrawalInput) (*models.WithdrawalRequest, error) {
	if input.Amount.LessThan(minWithdrawal) {
		return nil, ErrAmountTooSmall
	}

	req := &models.WithdrawalRequest{
		UserID:        input.UserID,
		Amount:        input.Amount,
		PaymentMethod: input.PaymentMethod,
	}

	switch input.PaymentMethod {
	case models.PaymentMethodBitcoin:
		if input.BitcoinAddress == "" {
			return nil, ErrAddressRequired
		}
		price := s.marketService.BTCPrice(ctx)
		crypto := input.Amount.Div(price).Round(8)
		network := models.NetworkBTC
		req.BitcoinAddress = &input.BitcoinAddress
		req.CryptoAmount = &crypto
		req.Network = &network
	case models.PaymentMethodUSDT:
		if input.USDTAddress == "" {
			return nil, ErrAddressRequired
		}
		crypto := input.Amount
		network := models.NetworkTRC20
		req.USDTAddress = &input.USDTAddress
		req.CryptoAmount = &crypto
		req.Network = &network
	default:
		return nil, ErrUnsupportedMethod
	}

	txn := &models.Transaction{
		ID:       s.idGen.GenerateTransactionID(),
		UserID:   input.UserID,
		Currency: "USD",
	}

	ok, err := s.withdrawalRepo.CreateWithReservation(ctx, req, txn)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInsufficientGains
	}

	s.notificationService.Notify(ctx, input.UserID,
		"Withdrawal requested",
		fmt.Sprintf("Your withdrawal request for $%s is pending review.", input.Amount.StringFixed(2)),
		models.NotificationCategoryWithdrawal)

	if user, err := s.userRepo.FindByID(ctx, input.UserID); err == nil && user != nil {
		s.emailService.SendWithdrawalRequested(user.Email, user.Name, input.Amount.StringFixed(2))
	}

	return req, nil
}

// ApproveWithdrawal settles a pending request: the reservation is consumed
// and the ledger transaction completed.
func (s *LedgerService) ApproveWithdrawal(ctx context.Context, id uint64, txHash string) error {
	req, err := s.withdrawalRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if req == nil {
		return ErrWithdrawalNotFound
	}

	ok, err := s.withdrawalRepo.Approve(ctx, id, txHash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWithdrawalNotPending
	}

	s.notifyWithdrawalDecision(ctx, req, true)
	return nil
}

// RejectWithdrawal returns the reserved amount to the user's gains, exactly
// reversing the reservation.
func (s *LedgerService) RejectWithdrawal(ctx context.Context, id uint64) error {
	req, err := s.withdrawalRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if req == nil {
		return ErrWithdrawalNotFound
	}

	ok, err := s.withdrawalRepo.Reject(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWithdrawalNotPending
	}

	s.notifyWithdrawalDecision(ctx, req, false)
	return nil
}

func (s *LedgerService) notifyWithdrawalDecision(ctx context.Context, req *models.WithdrawalRequest, approved bool) {
	title := "Withdrawal rejected"
	message := fmt.Sprintf("Your withdrawal request for $%s was rejected; the funds are back in your gains.",
		req.Amount.StringFixed(2))
	if approved {
		title = "Withdrawal approved"
		message = fmt.Sprintf("Your withdrawal of $%s has been approved.", req.Amount.StringFixed(2))
	}
	s.notificationService.Notify(ctx, req.UserID, title, message, models.NotificationCategoryWithdrawal)

	if user, err := s.userRepo.FindByID(ctx, req.UserID); err == nil && user != nil {
		s.emailService.SendWithdrawalDecision(user.Email, user.Name, req.Amount.StringFixed(2), approved)
	}
}

type InvestInput struct {
	UserID    uint64
	ProductID string
	Amount    decimal.Decimal
}

// Invest moves funds from the wallet balance into a new position.
func (s *LedgerService) Invest(ctx context.Context, input InvestInput) (*models.Investment, error) {
	if input.Amount.LessThan(minInvestment) {
		return nil, ErrAmountTooSmall
	}

	inv := &models.Investment{
		UserID:    input.UserID,
		ProductID: input.ProductID,
		Amount:    input.Amount,
	}
	txn := &models.Transaction{
		ID:       s.idGen.GenerateTransactionID(),
		Currency: "USD",
	}

	ok, err := s.investmentRepo.CreateWithDebit(ctx, inv, txn)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInsufficientBalance
	}

	s.notificationService.Notify(ctx, input.UserID,
		"Investment opened",
		fmt.Sprintf("You invested $%s in %s.", input.Amount.StringFixed(2), input.ProductID),
		models.NotificationCategorySystem)

	return inv, nil
}

// Investments returns the user's positions with accrual applied.
func (s *LedgerService) Investments(ctx context.Context, userID uint64) ([]*models.Investment, error) {
	invs, err := s.investmentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, inv := range invs {
		s.accrue(ctx, inv)
	}
	return invs, nil
}

// accrue applies the daily growth lazily. The timestamp-guarded write means a
// concurrent accrual of the same position applies the elapsed days once; the
// loser simply keeps the stale value until the next read.
func (s *LedgerService) accrue(ctx context.Context, inv *models.Investment) {
	days := int64(time.Since(inv.LastUpdated).Hours() / 24)
	if days <= 0 {
		return
	}

	delta := inv.Amount.Mul(dailyGainRate).Mul(decimal.NewFromInt(days))
	newValue := inv.CurrentValue.Add(delta)
	newUpdated := inv.LastUpdated.Add(time.Duration(days) * 24 * time.Hour)

	ok, err := s.investmentRepo.Accrue(ctx, inv.ID, newValue, inv.LastUpdated, newUpdated)
	if err != nil {
		s.logger.WithError(err).WithField("investment_id", inv.ID).Warn("failed to accrue investment")
		return
	}
	if !ok {
		return
	}

	inv.CurrentValue = newValue
	inv.LastUpdated = newUpdated

	if err := s.gainsRepo.Add(ctx, inv.UserID, delta); err != nil {
		s.logger.WithUserID(inv.UserID).WithError(err).Error("failed to credit accrued gains")
	}
}

// BalanceSummary is the wallet endpoint's aggregate view.
type BalanceSummary struct {
	Balance            decimal.Decimal `json:"balance"`
	Gains              decimal.Decimal `json:"gains"`
	PendingWithdrawals decimal.Decimal `json:"pendingWithdrawals"`
	Invested           decimal.Decimal `json:"invested"`
	InvestmentValue    decimal.Decimal `json:"investmentValue"`
}

// Balance aggregates the user's funds, accruing investments first so the
// numbers reflect today.
func (s *LedgerService) Balance(ctx context.Context, userID uint64) (*BalanceSummary, error) {
	invs, err := s.investmentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, inv := range invs {
		s.accrue(ctx, inv)
	}

	wallet, err := s.walletRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, ErrWalletNotFound
	}

	gains, err := s.gainsRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &BalanceSummary{
		Balance:            wallet.Balance,
		Gains:              decimal.Zero,
		PendingWithdrawals: decimal.Zero,
		Invested:           decimal.Zero,
		InvestmentValue:    decimal.Zero,
	}
	if gains != nil {
		summary.Gains = gains.Amount
		summary.PendingWithdrawals = gains.PendingWithdrawals
	}
	for _, inv := range invs {
		summary.Invested = summary.Invested.Add(inv.Amount)
		summary.InvestmentValue = summary.InvestmentValue.Add(inv.CurrentValue)
	}

	return summary, nil
}

// RecalculateGains accrues every open position and overwrites the gains
// amount with the total unrealized growth, currentValue minus principal
// summed over the user's investments.
func (s *LedgerService) RecalculateGains(ctx context.Context, userID uint64) (*models.Gains, error) {
	invs, err := s.investmentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, inv := range invs {
		s.accrue(ctx, inv)
		total = total.Add(inv.CurrentValue.Sub(inv.Amount))
	}

	if err := s.gainsRepo.SetAmount(ctx, userID, total); err != nil {
		return nil, err
	}

	gains, err := s.gainsRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if gains == nil {
		gains = &models.Gains{UserID: userID, Amount: total, PendingWithdrawals: decimal.Zero}
	}
	return gains, nil
}

func (s *LedgerService) Transactions(ctx context.Context, userID uint64) ([]*models.Transaction, error) {
	return s.transactionRepo.ListByUser(ctx, userID)
}

func (s *LedgerService) Transaction(ctx context.Context, userID uint64, id string) (*models.Transaction, error) {
	txn, err := s.transactionRepo.FindByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, ErrTransactionNotFound
	}
	return txn, nil
}

func (s *LedgerService) Withdrawals(ctx context.Context, userID uint64) ([]*models.WithdrawalRequest, error) {
	return s.withdrawalRepo.ListByUser(ctx, userID)
}

// Admin listings.

func (s *LedgerService) AllTransactions(ctx context.Context) ([]*models.TransactionWithUser, error) {
	return s.transactionRepo.ListAll(ctx)
}

func (s *LedgerService) Users(ctx context.Context) ([]*models.User, error) {
	return s.userRepo.List(ctx)
}

func (s *LedgerService) Wallets(ctx context.Context) ([]*models.WalletWithUser, error) {
	return s.walletRepo.ListAll(ctx)
}

// DeleteUser removes an account and its ledger data. Admin accounts are never
// deleted.
func (s *LedgerService) DeleteUser(ctx context.Context, userID uint64) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.IsAdmin {
		return fmt.Errorf("admin accounts cannot be deleted")
	}
	return s.userRepo.DeleteWithData(ctx, userID)
}

func (s *LedgerService) AllWithdrawals(ctx context.Context) ([]*models.WithdrawalRequest, error) {
	return s.withdrawalRepo.ListAll(ctx)
}

// PlatformStats is the admin dashboard aggregate. DepositGrowth compares the
// current calendar month's completed deposits to the previous month's, in
// percent; zero when the previous month had none.
type PlatformStats struct {
	TotalUsers         int64           `json:"totalUsers"`
	TotalBalances      decimal.Decimal `json:"totalBalances"`
	TotalInvested      decimal.Decimal `json:"totalInvested"`
	TotalDeposited     decimal.Decimal `json:"totalDeposited"`
	PendingWithdrawals decimal.Decimal `json:"pendingWithdrawals"`
	DepositGrowth      decimal.Decimal `json:"depositGrowth"`
}

func (s *LedgerService) Stats(ctx context.Context) (*PlatformStats, error) {
	users, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	balances, err := s.walletRepo.SumBalances(ctx)
	if err != nil {
		return nil, err
	}
	invested, err := s.investmentRepo.SumInvested(ctx)
	if err != nil {
		return nil, err
	}
	deposited, err := s.transactionRepo.SumCompletedByType(ctx, models.TransactionTypeDeposit)
	if err != nil {
		return nil, err
	}
	pending, err := s.withdrawalRepo.SumPending(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	prevStart := monthStart.AddDate(0, -1, 0)

	growth := decimal.Zero
	current, err := s.transactionRepo.SumCompletedDepositsBetween(ctx, monthStart, now)
	if err != nil {
		return nil, err
	}
	previous, err := s.transactionRepo.SumCompletedDepositsBetween(ctx, prevStart, monthStart)
	if err != nil {
		return nil, err
	}
	if previous.IsPositive() {
		growth = current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(2)
	}

	return &PlatformStats{
		TotalUsers:         users,
		TotalBalances:      balances,
		TotalInvested:      invested,
		TotalDeposited:     deposited,
		PendingWithdrawals: pending,
		DepositGrowth:      growth,
	}, nil
}
