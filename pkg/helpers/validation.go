package helpers

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps go-playground validator with crypto-address rules
type CustomValidator struct {
	validate *validator.Validate
}

// NewCustomValidator creates a new custom validator with the domain rules registered
func NewCustomValidator() *CustomValidator {
	v := validator.New()

	// Register custom validators
	v.RegisterValidation("btc_address", validateBitcoinAddress)
	v.RegisterValidation("trc20_address", validateTRC20Address)
	v.RegisterValidation("tx_hash", validateTxHash)

	return &CustomValidator{validate: v}
}

// Validate validates a struct
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validate.Struct(i)
}

var (
	// Legacy (1...), script (3...) and bech32 (bc1...) address formats
	btcAddressRegex = regexp.MustCompile(`^(1[a-km-zA-HJ-NP-Z1-9]{25,34}|3[a-km-zA-HJ-NP-Z1-9]{25,34}|bc1[a-z0-9]{8,87})$`)
	// Tron addresses are base58, always start with T, 34 characters
	trc20AddressRegex = regexp.MustCompile(`^T[a-km-zA-HJ-NP-Z1-9]{33}$`)
	txHashRegex       = regexp.MustCompile(`^(0x)?[0-9a-fA-F]{16,128}$`)
)

// validateBitcoinAddress validates Bitcoin address formats
func validateBitcoinAddress(fl validator.FieldLevel) bool {
	addr := fl.Field().String()
	if addr == "" {
		return true // presence is enforced separately with required_if
	}
	return btcAddressRegex.MatchString(addr)
}

// validateTRC20Address validates Tron TRC20 addresses
func validateTRC20Address(fl validator.FieldLevel) bool {
	addr := fl.Field().String()
	if addr == "" {
		return true
	}
	return trc20AddressRegex.MatchString(addr)
}

// validateTxHash validates blockchain transaction hashes
func validateTxHash(fl validator.FieldLevel) bool {
	hash := fl.Field().String()
	if hash == "" {
		return true
	}
	return txHashRegex.MatchString(hash)
}

// ValidateBitcoinAddress is a standalone check used outside struct validation
func ValidateBitcoinAddress(addr string) bool {
	return btcAddressRegex.MatchString(addr)
}

// ValidateTRC20Address is a standalone check used outside struct validation
func ValidateTRC20Address(addr string) bool {
	return trc20AddressRegex.MatchString(addr)
}
