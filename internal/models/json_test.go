package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTransactionSerializesCamelCase(t *testing.T) {
	hash := "abcdef1234567890"
	txn := Transaction{
		ID:            "TRX-20250901-A1B2C3",
		UserID:        7,
		Type:          TransactionTypeDeposit,
		Amount:        decimal.NewFromInt(100),
		Currency:      "USD",
		Status:        TransactionStatusPending,
		PaymentMethod: PaymentMethodUSDT,
		TxHash:        &hash,
		CreatedAt:     time.Now(),
	}

	out, err := json.Marshal(&txn)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(out)

	for _, key := range []string{`"id"`, `"userId"`, `"paymentMethod"`, `"txHash"`, `"createdAt"`} {
		if !strings.Contains(body, key) {
			t.Errorf("response missing key %s: %s", key, body)
		}
	}
	for _, key := range []string{`"ID"`, `"UserID"`, `"PaymentMethod"`, `"TxHash"`} {
		if strings.Contains(body, key) {
			t.Errorf("response leaks Go field name %s: %s", key, body)
		}
	}
	// Unset nullable fields stay out of the payload.
	if strings.Contains(body, "bitcoinAddress") {
		t.Errorf("nil bitcoin address serialized: %s", body)
	}
}

func TestUserSerializationHidesCredentials(t *testing.T) {
	token := "deadbeef"
	user := User{
		ID:                7,
		Name:              "Alice",
		Email:             "alice@example.com",
		PasswordHash:      "$2a$10$secret",
		VerificationToken: &token,
	}

	out, err := json.Marshal(&user)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(out)

	if strings.Contains(body, "secret") || strings.Contains(body, "deadbeef") {
		t.Errorf("credentials leaked: %s", body)
	}
	if !strings.Contains(body, `"email":"alice@example.com"`) {
		t.Errorf("expected camelCase public fields: %s", body)
	}
}

func TestAttachmentSerializationHidesStoragePath(t *testing.T) {
	msg := SupportMessage{
		ID:       1,
		TicketID: 2,
		SenderID: 3,
		Content:  "see attached",
		Attachments: []SupportAttachment{
			{ID: 1, MessageID: 1, Filename: "receipt.png", Path: "/srv/uploads/ab12.png", Mimetype: "image/png"},
		},
	}

	out, err := json.Marshal(&msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(out)

	if strings.Contains(body, "/srv/uploads") || strings.Contains(body, `"path"`) {
		t.Errorf("storage path leaked: %s", body)
	}
	if !strings.Contains(body, `"filename":"receipt.png"`) {
		t.Errorf("expected attachment filename in payload: %s", body)
	}
}
