package models

import "time"

// User represents a registered account. Credential and verification fields
// never serialize; API responses go through Public.
type User struct {
	ID                  uint64     `db:"id" json:"id"`
	Name                string     `db:"name" json:"name"`
	Email               string     `db:"email" json:"email"`
	PasswordHash        string     `db:"password_hash" json:"-"`
	Phone               string     `db:"phone" json:"phone"`
	IsAdmin             bool       `db:"is_admin" json:"isAdmin"`
	IsVerified          bool       `db:"is_verified" json:"isVerified"`
	VerificationToken   *string    `db:"verification_token" json:"-"`
	VerificationExpires *time.Time `db:"verification_expires" json:"-"`
	ReferralCode        *string    `db:"referral_code" json:"referralCode,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updatedAt"`
}

// PublicUser is the representation returned to clients, without credentials
type PublicUser struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	IsAdmin      bool      `json:"isAdmin"`
	IsVerified   bool      `json:"isVerified"`
	ReferralCode string    `json:"referralCode,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Public strips credential fields from a user record
func (u *User) Public() PublicUser {
	p := PublicUser{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Phone:      u.Phone,
		IsAdmin:    u.IsAdmin,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
	if u.ReferralCode != nil {
		p.ReferralCode = *u.ReferralCode
	}
	return p
}
