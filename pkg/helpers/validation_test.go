package helpers

import (
	"strings"
	"testing"
)

func TestValidateBitcoinAddress(t *testing.T) {
	cases := []struct {
		name string
		addr string
		want bool
	}{
		{"legacy", "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", true},
		{"script", "3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy", true},
		{"bech32", "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq", true},
		{"empty", "", false},
		{"tron address", "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t", false},
		{"garbage", "hello world", false},
		{"legacy with invalid char", "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfN0", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidateBitcoinAddress(tc.addr); got != tc.want {
				t.Errorf("ValidateBitcoinAddress(%q) = %v, want %v", tc.addr, got, tc.want)
			}
		})
	}
}

func TestValidateTRC20Address(t *testing.T) {
	cases := []struct {
		name string
		addr string
		want bool
	}{
		{"valid", "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t", true},
		{"too short", "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjL", false},
		{"wrong prefix", "XR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t", false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidateTRC20Address(tc.addr); got != tc.want {
				t.Errorf("ValidateTRC20Address(%q) = %v, want %v", tc.addr, got, tc.want)
			}
		})
	}
}

func TestCustomValidatorCryptoRules(t *testing.T) {
	v := NewCustomValidator()

	type form struct {
		BTC  string `validate:"omitempty,btc_address"`
		TRC  string `validate:"omitempty,trc20_address"`
		Hash string `validate:"omitempty,tx_hash"`
	}

	cases := []struct {
		name    string
		form    form
		wantErr bool
	}{
		{"all empty passes", form{}, false},
		{"valid values", form{
			BTC:  "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa",
			TRC:  "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t",
			Hash: "0xdeadbeefcafe1234",
		}, false},
		{"bad btc", form{BTC: "nope"}, true},
		{"bad hash", form{Hash: "zzzz"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(tc.form)
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestGenerateTransactionID(t *testing.T) {
	g := NewIDGenerator()

	id := g.GenerateTransactionID()
	if !strings.HasPrefix(id, "TRX-") {
		t.Errorf("id %q missing TRX- prefix", id)
	}
	parts := strings.Split(id, "-")
	if len(parts) != 3 || len(parts[1]) != 8 || len(parts[2]) != 6 {
		t.Errorf("id %q not in TRX-YYYYMMDD-XXXXXX form", id)
	}

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		next := g.GenerateTransactionID()
		if seen[next] {
			t.Fatalf("duplicate transaction id %q", next)
		}
		seen[next] = true
	}
}

func TestGenerateReferralCode(t *testing.T) {
	g := NewIDGenerator()
	code := g.GenerateReferralCode()
	if len(code) != 8 {
		t.Errorf("code length = %d, want 8", len(code))
	}
	for _, r := range code {
		if !strings.ContainsRune("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789", r) {
			t.Errorf("code %q contains unexpected character %q", code, r)
		}
	}
}

func TestGenerateVerificationToken(t *testing.T) {
	g := NewIDGenerator()
	token := g.GenerateVerificationToken()
	if len(token) != 64 {
		t.Errorf("token length = %d, want 64", len(token))
	}
	for _, r := range token {
		if !strings.ContainsRune("0123456789abcdef", r) {
			t.Errorf("token contains non-hex character %q", r)
		}
	}
}
