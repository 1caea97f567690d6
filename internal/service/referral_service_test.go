package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"algobank/backend/internal/models"
)

func newReferralFixture() (*ReferralService, *mockReferralRepo, *mockUserRepo, *mockWalletRepo, *mockNotificationRepo) {
	userRepo := newMockUserRepo()
	walletRepo := newMockWalletRepo()
	referralRepo := newMockReferralRepo(walletRepo)
	notificationRepo := newMockNotificationRepo()
	notificationService := NewNotificationService(notificationRepo, testLogger())
	svc := NewReferralService(referralRepo, userRepo, notificationService, testLogger())
	return svc, referralRepo, userRepo, walletRepo, notificationRepo
}

func TestProcessFirstDepositSingleLevel(t *testing.T) {
	svc, repo, _, wallets, _ := newReferralFixture()

	// User 2 was referred by user 1.
	link := &models.Referral{ReferrerID: 1, ReferredID: 2, Code: "ABC12345"}
	repo.CreateLink(context.Background(), link)

	err := svc.ProcessFirstDeposit(context.Background(), 2, decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("ProcessFirstDeposit: %v", err)
	}

	// 3% of 100.
	want := decimal.NewFromInt(3)
	if !wallets.balances[1].Equal(want) {
		t.Errorf("referrer balance = %s, want %s", wallets.balances[1], want)
	}
	if len(repo.earnings) != 1 {
		t.Fatalf("earnings = %d, want 1", len(repo.earnings))
	}
	if repo.earnings[0].Level != 1 {
		t.Errorf("earning level = %d, want 1", repo.earnings[0].Level)
	}
	if link.Status != models.ReferralStatusCompleted {
		t.Errorf("link status = %s, want completed", link.Status)
	}
}

func TestProcessFirstDepositIsIdempotent(t *testing.T) {
	svc, repo, _, wallets, _ := newReferralFixture()

	link := &models.Referral{ReferrerID: 1, ReferredID: 2, Code: "ABC12345"}
	repo.CreateLink(context.Background(), link)

	amount := decimal.NewFromInt(200)
	if err := svc.ProcessFirstDeposit(context.Background(), 2, amount); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if err := svc.ProcessFirstDeposit(context.Background(), 2, amount); err != nil {
		t.Fatalf("second call: %v", err)
	}

	// 3% of 200, paid exactly once.
	want := decimal.NewFromInt(6)
	if !wallets.balances[1].Equal(want) {
		t.Errorf("referrer balance = %s, want %s", wallets.balances[1], want)
	}
	if len(repo.earnings) != 1 {
		t.Errorf("earnings = %d, want 1", len(repo.earnings))
	}
}

func TestProcessFirstDepositMultiLevel(t *testing.T) {
	svc, repo, _, wallets, _ := newReferralFixture()

	// Chain: 1 referred 2, 2 referred 3, 3 referred 4. User 4 deposits.
	repo.CreateLink(context.Background(), &models.Referral{ReferrerID: 1, ReferredID: 2})
	repo.CreateLink(context.Background(), &models.Referral{ReferrerID: 2, ReferredID: 3})
	repo.CreateLink(context.Background(), &models.Referral{ReferrerID: 3, ReferredID: 4})

	if err := svc.ProcessFirstDeposit(context.Background(), 4, decimal.NewFromInt(1000)); err != nil {
		t.Fatalf("ProcessFirstDeposit: %v", err)
	}

	cases := []struct {
		userID uint64
		want   decimal.Decimal
	}{
		{3, decimal.NewFromInt(30)},                  // level 1: 3%
		{2, decimal.NewFromInt(15)},                  // level 2: 1.5%
		{1, decimal.RequireFromString("7.5")},        // level 3: 0.75%
	}
	for _, tc := range cases {
		if !wallets.balances[tc.userID].Equal(tc.want) {
			t.Errorf("user %d balance = %s, want %s", tc.userID, wallets.balances[tc.userID], tc.want)
		}
	}
	if len(repo.earnings) != 3 {
		t.Errorf("earnings = %d, want 3", len(repo.earnings))
	}

	// Only the depositor's own link flips; ancestors stay pending.
	for _, l := range repo.links {
		if l.ReferredID == 4 && l.Status != models.ReferralStatusCompleted {
			t.Errorf("depositor link status = %s, want completed", l.Status)
		}
		if l.ReferredID != 4 && l.Status != models.ReferralStatusPending {
			t.Errorf("ancestor link status = %s, want pending", l.Status)
		}
	}
}

func TestProcessFirstDepositNoReferrer(t *testing.T) {
	svc, repo, _, wallets, _ := newReferralFixture()

	if err := svc.ProcessFirstDeposit(context.Background(), 9, decimal.NewFromInt(100)); err != nil {
		t.Fatalf("ProcessFirstDeposit: %v", err)
	}
	if len(repo.earnings) != 0 {
		t.Errorf("earnings = %d, want 0", len(repo.earnings))
	}
	if len(wallets.balances) != 0 {
		t.Errorf("balances touched for unreferred deposit")
	}
}

func TestProcessFirstDepositBelowMinimum(t *testing.T) {
	svc, repo, _, _, _ := newReferralFixture()

	link := &models.Referral{ReferrerID: 1, ReferredID: 2}
	repo.CreateLink(context.Background(), link)

	if err := svc.ProcessFirstDeposit(context.Background(), 2, decimal.NewFromInt(5)); err != nil {
		t.Fatalf("ProcessFirstDeposit: %v", err)
	}
	if link.Status != models.ReferralStatusPending {
		t.Errorf("link status = %s, want pending (deposit below minimum)", link.Status)
	}
	if len(repo.earnings) != 0 {
		t.Errorf("earnings = %d, want 0", len(repo.earnings))
	}
}

func TestReferralCodeGeneratedOnce(t *testing.T) {
	svc, _, userRepo, _, _ := newReferralFixture()

	user := &models.User{Name: "Dana", Email: "dana@example.com"}
	userRepo.Create(context.Background(), user)

	code, err := svc.Code(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Code: %v", err)
	}
	if len(code) != 8 {
		t.Errorf("code length = %d, want 8", len(code))
	}

	again, err := svc.Code(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Code second call: %v", err)
	}
	if again != code {
		t.Errorf("second call returned %s, want stable %s", again, code)
	}
}

func TestAdminCompleteReferralPaysRecordedCommission(t *testing.T) {
	svc, repo, _, wallets, _ := newReferralFixture()

	link := &models.Referral{ReferrerID: 1, ReferredID: 2}
	repo.CreateLink(context.Background(), link)
	link.Commission = decimal.NewFromInt(12)

	if err := svc.UpdateStatus(context.Background(), link.ID, models.ReferralStatusCompleted); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if !wallets.balances[1].Equal(decimal.NewFromInt(12)) {
		t.Errorf("referrer balance = %s, want 12", wallets.balances[1])
	}

	// Flipping again must not pay twice.
	if err := svc.UpdateStatus(context.Background(), link.ID, models.ReferralStatusCompleted); err != nil {
		t.Fatalf("UpdateStatus second call: %v", err)
	}
	if !wallets.balances[1].Equal(decimal.NewFromInt(12)) {
		t.Errorf("referrer balance after second flip = %s, want 12", wallets.balances[1])
	}
}
