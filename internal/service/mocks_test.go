package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"algobank/backend/internal/models"
	"algobank/backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.NewLogger("test")
}

// mockUserRepo implements repository.UserRepository on in-memory state.
type mockUserRepo struct {
	users      map[uint64]*models.User
	nextID     uint64
	createErr  error
	updateCnt  int
	deletedIDs []uint64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uint64]*models.User), nextID: 1}
}

func (m *mockUserRepo) Create(_ context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = m.nextID
	m.nextID++
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id uint64) (*models.User, error) {
	return m.users[id], nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) FindByReferralCode(_ context.Context, code string) (*models.User, error) {
	for _, u := range m.users {
		if u.ReferralCode != nil && *u.ReferralCode == code {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) FindByVerificationToken(_ context.Context, token string) (*models.User, error) {
	now := time.Now()
	for _, u := range m.users {
		if u.VerificationToken != nil && *u.VerificationToken == token &&
			u.VerificationExpires != nil && u.VerificationExpires.After(now) {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *models.User) error {
	m.updateCnt++
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) SetReferralCode(_ context.Context, userID uint64, code string) error {
	if u, ok := m.users[userID]; ok {
		u.ReferralCode = &code
	}
	return nil
}

func (m *mockUserRepo) List(_ context.Context) ([]*models.User, error) {
	var out []*models.User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *mockUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

func (m *mockUserRepo) DeleteWithData(_ context.Context, userID uint64) error {
	delete(m.users, userID)
	m.deletedIDs = append(m.deletedIDs, userID)
	return nil
}

// mockWalletRepo implements repository.WalletRepository.
type mockWalletRepo struct {
	balances map[uint64]decimal.Decimal
	created  []uint64
}

func newMockWalletRepo() *mockWalletRepo {
	return &mockWalletRepo{balances: make(map[uint64]decimal.Decimal)}
}

func (m *mockWalletRepo) Create(_ context.Context, w *models.Wallet) error {
	m.balances[w.UserID] = w.Balance
	m.created = append(m.created, w.UserID)
	return nil
}

func (m *mockWalletRepo) FindByUserID(_ context.Context, userID uint64) (*models.Wallet, error) {
	bal, ok := m.balances[userID]
	if !ok {
		return nil, nil
	}
	return &models.Wallet{UserID: userID, Balance: bal, Currency: "USD"}, nil
}

func (m *mockWalletRepo) SumBalances(_ context.Context) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, b := range m.balances {
		total = total.Add(b)
	}
	return total, nil
}

func (m *mockWalletRepo) ListAll(_ context.Context) ([]*models.WalletWithUser, error) {
	return nil, nil
}

// mockGainsRepo implements repository.GainsRepository.
type mockGainsRepo struct {
	amounts map[uint64]decimal.Decimal
	pending map[uint64]decimal.Decimal
	created []uint64
}

func newMockGainsRepo() *mockGainsRepo {
	return &mockGainsRepo{
		amounts: make(map[uint64]decimal.Decimal),
		pending: make(map[uint64]decimal.Decimal),
	}
}

func (m *mockGainsRepo) Create(_ context.Context, g *models.Gains) error {
	m.amounts[g.UserID] = g.Amount
	m.pending[g.UserID] = g.PendingWithdrawals
	m.created = append(m.created, g.UserID)
	return nil
}

func (m *mockGainsRepo) FindByUserID(_ context.Context, userID uint64) (*models.Gains, error) {
	amt, ok := m.amounts[userID]
	if !ok {
		return nil, nil
	}
	return &models.Gains{
		UserID:             userID,
		Amount:             amt,
		PendingWithdrawals: m.pending[userID],
	}, nil
}

func (m *mockGainsRepo) Add(_ context.Context, userID uint64, amount decimal.Decimal) error {
	m.amounts[userID] = m.amounts[userID].Add(amount)
	return nil
}

func (m *mockGainsRepo) SetAmount(_ context.Context, userID uint64, amount decimal.Decimal) error {
	m.amounts[userID] = amount
	return nil
}

// mockTransactionRepo implements repository.TransactionRepository.
type mockTransactionRepo struct {
	txns map[string]*models.Transaction
}

func newMockTransactionRepo() *mockTransactionRepo {
	return &mockTransactionRepo{txns: make(map[string]*models.Transaction)}
}

func (m *mockTransactionRepo) Create(_ context.Context, txn *models.Transaction) error {
	txn.CreatedAt = time.Now()
	txn.UpdatedAt = txn.CreatedAt
	m.txns[txn.ID] = txn
	return nil
}

func (m *mockTransactionRepo) FindByID(_ context.Context, id string) (*models.Transaction, error) {
	return m.txns[id], nil
}

func (m *mockTransactionRepo) FindByIDForUser(_ context.Context, id string, userID uint64) (*models.Transaction, error) {
	txn := m.txns[id]
	if txn == nil || txn.UserID != userID {
		return nil, nil
	}
	return txn, nil
}

func (m *mockTransactionRepo) ListByUser(_ context.Context, userID uint64) ([]*models.Transaction, error) {
	var out []*models.Transaction
	for _, t := range m.txns {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockTransactionRepo) ListAll(_ context.Context) ([]*models.TransactionWithUser, error) {
	return nil, nil
}

// CompleteDeposit mirrors the pending-only guard; the wallet credit lives in
// the SQL transaction and is not reproduced here.
func (m *mockTransactionRepo) CompleteDeposit(_ context.Context, id string, userID uint64, txHash string) (bool, error) {
	txn := m.txns[id]
	if txn == nil || txn.UserID != userID ||
		txn.Type != models.TransactionTypeDeposit ||
		txn.Status != models.TransactionStatusPending {
		return false, nil
	}
	txn.Status = models.TransactionStatusCompleted
	txn.TxHash = &txHash
	return true, nil
}

func (m *mockTransactionRepo) SetTxHash(_ context.Context, id string, userID uint64, txHash string) (bool, error) {
	txn := m.txns[id]
	if txn == nil || txn.UserID != userID || txn.Status != models.TransactionStatusPending {
		return false, nil
	}
	txn.TxHash = &txHash
	return true, nil
}

func (m *mockTransactionRepo) MarkStatus(_ context.Context, id, status string) (bool, error) {
	txn := m.txns[id]
	if txn == nil || txn.Status != models.TransactionStatusPending {
		return false, nil
	}
	txn.Status = status
	return true, nil
}

func (m *mockTransactionRepo) CountCompletedDeposits(_ context.Context, userID uint64, excludeID string) (int64, error) {
	var count int64
	for _, t := range m.txns {
		if t.UserID == userID && t.Type == models.TransactionTypeDeposit &&
			t.Status == models.TransactionStatusCompleted && t.ID != excludeID {
			count++
		}
	}
	return count, nil
}

func (m *mockTransactionRepo) SumCompletedByType(_ context.Context, txType string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, t := range m.txns {
		if t.Type == txType && t.Status == models.TransactionStatusCompleted {
			total = total.Add(t.Amount)
		}
	}
	return total, nil
}

func (m *mockTransactionRepo) SumCompletedDepositsBetween(_ context.Context, from, to time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, t := range m.txns {
		if t.Type == models.TransactionTypeDeposit &&
			t.Status == models.TransactionStatusCompleted &&
			!t.CreatedAt.Before(from) && t.CreatedAt.Before(to) {
			total = total.Add(t.Amount)
		}
	}
	return total, nil
}

// mockWithdrawalRepo implements repository.WithdrawalRepository, backed by the
// gains repo so reservations behave like the real SQL.
type mockWithdrawalRepo struct {
	gains  *mockGainsRepo
	reqs   map[uint64]*models.WithdrawalRequest
	nextID uint64
}

func newMockWithdrawalRepo(gains *mockGainsRepo) *mockWithdrawalRepo {
	return &mockWithdrawalRepo{
		gains:  gains,
		reqs:   make(map[uint64]*models.WithdrawalRequest),
		nextID: 1,
	}
}

func (m *mockWithdrawalRepo) CreateWithReservation(_ context.Context, req *models.WithdrawalRequest, txn *models.Transaction) (bool, error) {
	if m.gains.amounts[req.UserID].LessThan(req.Amount) {
		return false, nil
	}
	m.gains.amounts[req.UserID] = m.gains.amounts[req.UserID].Sub(req.Amount)
	m.gains.pending[req.UserID] = m.gains.pending[req.UserID].Add(req.Amount)

	req.ID = m.nextID
	m.nextID++
	req.Status = models.WithdrawalStatusPending
	req.TransactionID = &txn.ID
	m.reqs[req.ID] = req
	return true, nil
}

func (m *mockWithdrawalRepo) FindByID(_ context.Context, id uint64) (*models.WithdrawalRequest, error) {
	return m.reqs[id], nil
}

func (m *mockWithdrawalRepo) ListByUser(_ context.Context, userID uint64) ([]*models.WithdrawalRequest, error) {
	var out []*models.WithdrawalRequest
	for _, r := range m.reqs {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockWithdrawalRepo) ListAll(_ context.Context) ([]*models.WithdrawalRequest, error) {
	var out []*models.WithdrawalRequest
	for _, r := range m.reqs {
		out = append(out, r)
	}
	return out, nil
}

func (m *mockWithdrawalRepo) Reject(_ context.Context, id uint64) (bool, error) {
	req := m.reqs[id]
	if req == nil || req.Status != models.WithdrawalStatusPending {
		return false, nil
	}
	req.Status = models.WithdrawalStatusRejected
	m.gains.amounts[req.UserID] = m.gains.amounts[req.UserID].Add(req.Amount)
	m.gains.pending[req.UserID] = m.gains.pending[req.UserID].Sub(req.Amount)
	return true, nil
}

func (m *mockWithdrawalRepo) Approve(_ context.Context, id uint64, _ string) (bool, error) {
	req := m.reqs[id]
	if req == nil || req.Status != models.WithdrawalStatusPending {
		return false, nil
	}
	req.Status = models.WithdrawalStatusApproved
	m.gains.pending[req.UserID] = m.gains.pending[req.UserID].Sub(req.Amount)
	return true, nil
}

func (m *mockWithdrawalRepo) SumPending(_ context.Context) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, r := range m.reqs {
		if r.Status == models.WithdrawalStatusPending {
			total = total.Add(r.Amount)
		}
	}
	return total, nil
}

// mockInvestmentRepo implements repository.InvestmentRepository, backed by the
// wallet repo for the debit.
type mockInvestmentRepo struct {
	wallets *mockWalletRepo
	invs    map[uint64]*models.Investment
	nextID  uint64
}

func newMockInvestmentRepo(wallets *mockWalletRepo) *mockInvestmentRepo {
	return &mockInvestmentRepo{
		wallets: wallets,
		invs:    make(map[uint64]*models.Investment),
		nextID:  1,
	}
}

func (m *mockInvestmentRepo) CreateWithDebit(_ context.Context, inv *models.Investment, _ *models.Transaction) (bool, error) {
	if m.wallets.balances[inv.UserID].LessThan(inv.Amount) {
		return false, nil
	}
	m.wallets.balances[inv.UserID] = m.wallets.balances[inv.UserID].Sub(inv.Amount)

	inv.ID = m.nextID
	m.nextID++
	inv.CurrentValue = inv.Amount
	inv.StartDate = time.Now()
	inv.LastUpdated = inv.StartDate
	m.invs[inv.ID] = inv
	return true, nil
}

func (m *mockInvestmentRepo) FindByID(_ context.Context, id uint64) (*models.Investment, error) {
	return m.invs[id], nil
}

func (m *mockInvestmentRepo) ListByUser(_ context.Context, userID uint64) ([]*models.Investment, error) {
	var out []*models.Investment
	for _, inv := range m.invs {
		if inv.UserID == userID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (m *mockInvestmentRepo) ListAll(_ context.Context) ([]*models.Investment, error) {
	var out []*models.Investment
	for _, inv := range m.invs {
		out = append(out, inv)
	}
	return out, nil
}

func (m *mockInvestmentRepo) Accrue(_ context.Context, id uint64, newValue decimal.Decimal, prevUpdated, newUpdated time.Time) (bool, error) {
	inv := m.invs[id]
	if inv == nil || !inv.LastUpdated.Equal(prevUpdated) {
		return false, nil
	}
	inv.CurrentValue = newValue
	inv.LastUpdated = newUpdated
	return true, nil
}

func (m *mockInvestmentRepo) SumInvested(_ context.Context) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, inv := range m.invs {
		total = total.Add(inv.Amount)
	}
	return total, nil
}

// mockReferralRepo implements repository.ReferralRepository.
type mockReferralRepo struct {
	links    map[uint64]*models.Referral
	earnings []*models.ReferralEarning
	settings []*models.ReferralSetting
	wallets  *mockWalletRepo
	nextID   uint64
}

func newMockReferralRepo(wallets *mockWalletRepo) *mockReferralRepo {
	return &mockReferralRepo{
		links:   make(map[uint64]*models.Referral),
		wallets: wallets,
		nextID:  1,
		settings: []*models.ReferralSetting{
			{Level: 1, CommissionRate: decimal.NewFromFloat(3.0), MinDepositAmount: decimal.NewFromInt(10)},
			{Level: 2, CommissionRate: decimal.NewFromFloat(1.5)},
			{Level: 3, CommissionRate: decimal.NewFromFloat(0.75)},
		},
	}
}

func (m *mockReferralRepo) CreateLink(_ context.Context, ref *models.Referral) error {
	ref.ID = m.nextID
	m.nextID++
	ref.Status = models.ReferralStatusPending
	ref.Commission = decimal.Zero
	m.links[ref.ID] = ref
	return nil
}

func (m *mockReferralRepo) FindByReferred(_ context.Context, referredID uint64) (*models.Referral, error) {
	for _, l := range m.links {
		if l.ReferredID == referredID && l.Status != models.ReferralStatusInactive {
			return l, nil
		}
	}
	return nil, nil
}

func (m *mockReferralRepo) FindByID(_ context.Context, id uint64) (*models.Referral, error) {
	return m.links[id], nil
}

func (m *mockReferralRepo) CompleteLink(_ context.Context, id uint64, commission decimal.Decimal) (bool, error) {
	l := m.links[id]
	if l == nil || l.Status != models.ReferralStatusPending {
		return false, nil
	}
	l.Status = models.ReferralStatusCompleted
	l.Commission = commission
	return true, nil
}

func (m *mockReferralRepo) PayCommission(_ context.Context, earning *models.ReferralEarning) error {
	if m.wallets != nil {
		m.wallets.balances[earning.ReferrerID] = m.wallets.balances[earning.ReferrerID].Add(earning.Amount)
	}
	m.earnings = append(m.earnings, earning)
	return nil
}

func (m *mockReferralRepo) ListByReferrer(_ context.Context, referrerID uint64) ([]*models.ReferralWithUsers, error) {
	var out []*models.ReferralWithUsers
	for _, l := range m.links {
		if l.ReferrerID == referrerID {
			out = append(out, &models.ReferralWithUsers{Referral: *l})
		}
	}
	return out, nil
}

func (m *mockReferralRepo) ListAll(_ context.Context) ([]*models.ReferralWithUsers, error) {
	var out []*models.ReferralWithUsers
	for _, l := range m.links {
		out = append(out, &models.ReferralWithUsers{Referral: *l})
	}
	return out, nil
}

func (m *mockReferralRepo) Stats(_ context.Context, referrerID uint64) (*models.ReferralStats, error) {
	stats := &models.ReferralStats{TotalCommission: decimal.Zero}
	for _, l := range m.links {
		if l.ReferrerID != referrerID || l.Status == models.ReferralStatusInactive {
			continue
		}
		stats.TotalReferrals++
		if l.Status == models.ReferralStatusCompleted {
			stats.ActiveReferrals++
		}
	}
	for _, e := range m.earnings {
		if e.ReferrerID == referrerID {
			stats.TotalCommission = stats.TotalCommission.Add(e.Amount)
		}
	}
	return stats, nil
}

func (m *mockReferralRepo) SumEarnings(_ context.Context, referrerID uint64) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, e := range m.earnings {
		if e.ReferrerID == referrerID {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

func (m *mockReferralRepo) Children(_ context.Context, referrerID uint64) ([]*models.ReferralTreeNode, error) {
	var out []*models.ReferralTreeNode
	for _, l := range m.links {
		if l.ReferrerID == referrerID && l.Status != models.ReferralStatusInactive {
			out = append(out, &models.ReferralTreeNode{
				UserID: l.ReferredID,
				Status: l.Status,
			})
		}
	}
	return out, nil
}

func (m *mockReferralRepo) UpdateStatus(_ context.Context, id uint64, status string) (bool, error) {
	l := m.links[id]
	if l == nil {
		return false, nil
	}
	l.Status = status
	return true, nil
}

func (m *mockReferralRepo) Settings(_ context.Context) ([]*models.ReferralSetting, error) {
	return m.settings, nil
}

func (m *mockReferralRepo) UpdateSetting(_ context.Context, level int, rate, minDeposit decimal.Decimal) error {
	for _, s := range m.settings {
		if s.Level == level {
			s.CommissionRate = rate
			s.MinDepositAmount = minDeposit
			return nil
		}
	}
	return nil
}

// mockNotificationRepo implements repository.NotificationRepository.
type mockNotificationRepo struct {
	items  []*models.Notification
	nextID uint64
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{nextID: 1}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *models.Notification) error {
	n.ID = m.nextID
	m.nextID++
	n.CreatedAt = time.Now()
	m.items = append(m.items, n)
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID uint64) ([]*models.Notification, error) {
	var out []*models.Notification
	for _, n := range m.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID uint64) (int64, error) {
	var count int64
	for _, n := range m.items {
		if n.UserID == userID && n.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id, userID uint64) (bool, error) {
	for _, n := range m.items {
		if n.ID == id && n.UserID == userID {
			now := time.Now()
			n.ReadAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID uint64) error {
	now := time.Now()
	for _, n := range m.items {
		if n.UserID == userID {
			n.ReadAt = &now
		}
	}
	return nil
}

// mockTicketRepo implements repository.TicketRepository.
type mockTicketRepo struct {
	tickets  map[uint64]*models.SupportTicket
	messages []*models.SupportMessage
	nextID   uint64
}

func newMockTicketRepo() *mockTicketRepo {
	return &mockTicketRepo{tickets: make(map[uint64]*models.SupportTicket), nextID: 1}
}

func (m *mockTicketRepo) Create(_ context.Context, t *models.SupportTicket) error {
	t.ID = m.nextID
	m.nextID++
	t.Status = models.TicketStatusOpen
	t.CreatedAt = time.Now()
	t.LastUpdated = t.CreatedAt
	m.tickets[t.ID] = t
	return nil
}

func (m *mockTicketRepo) FindByID(_ context.Context, id uint64) (*models.SupportTicket, error) {
	return m.tickets[id], nil
}

func (m *mockTicketRepo) ListByUser(_ context.Context, userID uint64) ([]*models.SupportTicket, error) {
	var out []*models.SupportTicket
	for _, t := range m.tickets {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockTicketRepo) ListAll(_ context.Context, status string) ([]*models.SupportTicket, error) {
	var out []*models.SupportTicket
	for _, t := range m.tickets {
		if status == "" || t.Status == status {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockTicketRepo) UpdateStatus(_ context.Context, id uint64, status string, assignedTo *uint64) (bool, error) {
	t := m.tickets[id]
	if t == nil {
		return false, nil
	}
	t.Status = status
	if assignedTo != nil {
		t.AssignedTo = assignedTo
	}
	t.LastUpdated = time.Now()
	return true, nil
}

func (m *mockTicketRepo) CreateMessage(_ context.Context, msg *models.SupportMessage) error {
	msg.ID = uint64(len(m.messages) + 1)
	msg.CreatedAt = time.Now()
	m.messages = append(m.messages, msg)
	if t := m.tickets[msg.TicketID]; t != nil {
		t.LastUpdated = msg.CreatedAt
	}
	return nil
}

func (m *mockTicketRepo) ListMessages(_ context.Context, ticketID uint64) ([]*models.SupportMessage, error) {
	var out []*models.SupportMessage
	for _, msg := range m.messages {
		if msg.TicketID == ticketID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *mockTicketRepo) AddAttachment(_ context.Context, att *models.SupportAttachment) error {
	att.ID = 1
	return nil
}

// recordingChannel captures emails for assertions.
type recordingChannel struct {
	sent []*models.EmailPayload
}

func (c *recordingChannel) Send(payload *models.EmailPayload) error {
	c.sent = append(c.sent, payload)
	return nil
}
