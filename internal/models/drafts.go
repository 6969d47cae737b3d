package models

import (
	"time"

	"gorm.io/datatypes"
)

// DraftKind names a transient per-browser value object.
type DraftKind string

const (
	DraftShirtCustomization DraftKind = "shirtCustomization"
	DraftSignup             DraftKind = "signup"
)

// ShirtCustomization is produced by the customize page and consumed by checkout.
type ShirtCustomization struct {
	ProductID      string  `json:"productId"`
	ShirtColor     string  `json:"shirtColor"`
	ShirtColorName string  `json:"shirtColorName"`
	ShirtSize      string  `json:"shirtSize"`
	ShirtMockupURL string  `json:"shirtMockupUrl"`
	QRCodeText     string  `json:"qrCodeText"`
	QRCodeType     string  `json:"qrCodeType"` // url|text
	QRCodeImage    string  `json:"qrCodeImage"`
	Price          float64 `json:"price"`
}

type SignupStep string

const (
	StepRegister    SignupStep = "register"
	StepVerifyOTP   SignupStep = "verify-otp"
	StepSetPassword SignupStep = "set-password"
	StepComplete    SignupStep = "complete"
)

// SignupDraft carries the signup flow between requests. Secrets are never persisted.
type SignupDraft struct {
	Step      SignupStep `json:"step"`
	Email     string     `json:"email"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`

	OTP             string `json:"-"`
	Password        string `json:"-"`
	ConfirmPassword string `json:"-"`
}

// DraftRecord is the SQL row behind a draft.
type DraftRecord struct {
	ID        uint           `gorm:"primaryKey"`
	BrowserID string         `gorm:"size:64;not null;uniqueIndex:draft_key,priority:1"`
	Kind      string         `gorm:"size:32;not null;uniqueIndex:draft_key,priority:2"`
	Payload   datatypes.JSON `gorm:"not null"`
	ExpiresAt time.Time      `gorm:"index;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
