package validate

import (
	"testing"
	"time"

	"qrmarket/internal/models"
)

func message(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func TestRegistration(t *testing.T) {
	tests := []struct {
		name, email, first, last, want string
	}{
		{"valid", "a@b.com", "Jo", "Do", ""},
		{"missing field", "a@b.com", "", "Do", MsgAllFieldsRequired},
		{"bad email", "a@b", "Jo", "Do", MsgInvalidEmail},
		{"short first", "a@b.com", "J", "Do", "First name must be at least 2 characters"},
		{"short last", "a@b.com", "Jo", "D", "Last name must be at least 2 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := message(Registration(tt.email, tt.first, tt.last)); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestOTP(t *testing.T) {
	for _, code := range []string{"12345", "1234567", "12a456", ""} {
		if got := message(OTP(code)); got != MsgInvalidOTP {
			t.Errorf("code %q: expected %q, got %q", code, MsgInvalidOTP, got)
		}
	}
	if err := OTP("123456"); err != nil {
		t.Errorf("expected valid otp, got %v", err)
	}
}

func TestPassword(t *testing.T) {
	tests := []struct {
		pw, confirm, want string
	}{
		{"Secret123", "Secret123", ""},
		{"", "", MsgPasswordsRequired},
		{"secret123", "secret123", MsgWeakPassword},
		{"Short1", "Short1", MsgWeakPassword},
		{"NoDigitsHere", "NoDigitsHere", MsgWeakPassword},
		{"Secret123", "Secret124", MsgPasswordMismatch},
	}
	for _, tt := range tests {
		if got := message(Password(tt.pw, tt.confirm)); got != tt.want {
			t.Errorf("password %q: expected %q, got %q", tt.pw, tt.want, got)
		}
	}
}

func TestDestinationURL(t *testing.T) {
	if got := message(DestinationURL("not-a-url")); got != MsgInvalidURL {
		t.Errorf("expected %q, got %q", MsgInvalidURL, got)
	}
	if got := message(DestinationURL("  ")); got != MsgURLRequired {
		t.Errorf("expected %q, got %q", MsgURLRequired, got)
	}
	if err := DestinationURL("https://example.com/menu"); err != nil {
		t.Errorf("expected valid url, got %v", err)
	}
}

func TestCreateQRCodeExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	in := models.CreateQRCodeInput{Type: models.QRCodeCustomURL, DestinationURL: "https://example.com"}
	if err := CreateQRCode(in, now); err != nil {
		t.Errorf("expected no error without expiry, got %v", err)
	}
	in.ExpiresAt = &past
	if got := message(CreateQRCode(in, now)); got != MsgExpiryInPast {
		t.Errorf("expected %q, got %q", MsgExpiryInPast, got)
	}
	in.ExpiresAt = &now
	if got := message(CreateQRCode(in, now)); got != MsgExpiryInPast {
		t.Errorf("expiry equal to now must be rejected, got %q", got)
	}
	in.ExpiresAt = &future
	if err := CreateQRCode(in, now); err != nil {
		t.Errorf("expected future expiry to pass, got %v", err)
	}
	in.Type = "BOGUS"
	if got := message(CreateQRCode(in, now)); got != MsgInvalidQRType {
		t.Errorf("expected %q, got %q", MsgInvalidQRType, got)
	}
}

func TestShippingMissingCity(t *testing.T) {
	addr := models.ShippingAddress{
		FullName: "Jo Do", Email: "a@b.com", Phone: "555", Street: "1 Main",
		State: "CA", PostalCode: "90000", Country: "US",
	}
	err := Shipping(addr)
	if got := message(err); got != MsgShippingIncomplete {
		t.Fatalf("expected %q, got %q", MsgShippingIncomplete, got)
	}
	if ve := err.(*Error); ve.Field != "City" {
		t.Errorf("expected City to be reported, got %s", ve.Field)
	}
	addr.City = "LA"
	if err := Shipping(addr); err != nil {
		t.Errorf("expected complete address to pass, got %v", err)
	}
}

func TestCard(t *testing.T) {
	if got := message(Card(models.CardDetails{Number: "4242424242424242", Expiry: "12/30"})); got != MsgCardIncomplete {
		t.Errorf("expected %q, got %q", MsgCardIncomplete, got)
	}
	if err := Card(models.CardDetails{Number: "4242424242424242", Expiry: "12/30", CVC: "123"}); err != nil {
		t.Errorf("expected complete card to pass, got %v", err)
	}
}

func TestIsValidation(t *testing.T) {
	if !IsValidation(OTP("1")) {
		t.Errorf("expected validation error to be detected")
	}
	if IsValidation(nil) {
		t.Errorf("nil is not a validation error")
	}
}
