package models

import "time"

type QRCodeType string

const (
	QRCodeGoogleReview QRCodeType = "GOOGLE_REVIEW"
	QRCodeCustomURL    QRCodeType = "CUSTOM_URL"
	QRCodeProductLink  QRCodeType = "PRODUCT_LINK"
)

// QRCodeTypes lists the selectable types in form order.
var QRCodeTypes = []QRCodeType{QRCodeCustomURL, QRCodeGoogleReview, QRCodeProductLink}

func (t QRCodeType) Label() string {
	switch t {
	case QRCodeGoogleReview:
		return "Google Review"
	case QRCodeCustomURL:
		return "Custom URL"
	case QRCodeProductLink:
		return "Product Link"
	}
	return string(t)
}

// QRCode is a managed, scannable short link owned by a user.
type QRCode struct {
	ID             string     `json:"_id"`
	UserID         string     `json:"userId"`
	Slug           string     `json:"slug"`
	Type           QRCodeType `json:"type"`
	DestinationURL string     `json:"destinationUrl"`
	IsActive       bool       `json:"isActive"`
	ExpiresAt      *time.Time `json:"expiresAt"`
	QRCodeImageURL string     `json:"qrCodeImageUrl,omitempty"`
	ScanCount      int        `json:"scanCount"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (q QRCode) IsExpired(now time.Time) bool {
	return q.ExpiresAt != nil && q.ExpiresAt.Before(now)
}

// Status is the badge shown for a code: Expired wins over Inactive.
func (q QRCode) Status(now time.Time) string {
	switch {
	case q.IsExpired(now):
		return "Expired"
	case !q.IsActive:
		return "Inactive"
	default:
		return "Active"
	}
}

type CreateQRCodeInput struct {
	Type           QRCodeType `json:"type" validate:"required,oneof=GOOGLE_REVIEW CUSTOM_URL PRODUCT_LINK"`
	DestinationURL string     `json:"destinationUrl" validate:"required,url"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
}

// UpdateQRCodeInput is a partial update; nil fields are left alone.
type UpdateQRCodeInput struct {
	DestinationURL *string    `json:"destinationUrl,omitempty" validate:"omitempty,url"`
	IsActive       *bool      `json:"isActive,omitempty"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
}

type RotateLinkInput struct {
	DestinationURL string `json:"destinationUrl" validate:"required,url"`
}

// ScanResult is the data part of GET /qrcode/{slug}/scan.
type ScanResult struct {
	DestinationURL string `json:"destinationUrl"`
}
