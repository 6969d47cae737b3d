// Package validate holds every client-side check performed before a backend call.
package validate

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"qrmarket/internal/models"
)

var (
	v       = validator.New()
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	otpRe   = regexp.MustCompile(`^\d{6}$`)
)

const (
	MsgAllFieldsRequired   = "All fields are required"
	MsgInvalidEmail        = "Please enter a valid email address"
	MsgInvalidOTP          = "Please enter a valid 6-digit OTP"
	MsgPasswordsRequired   = "Both password fields are required"
	MsgWeakPassword        = "Password must be at least 8 characters and contain upper and lower case letters and a number"
	MsgPasswordMismatch    = "Passwords do not match"
	MsgCredentialsRequired = "Email and password are required"
	MsgURLRequired         = "Destination URL is required"
	MsgInvalidURL          = "Please enter a valid URL"
	MsgExpiryInPast        = "Expiry date must be in the future"
	MsgInvalidQRType       = "Please choose a valid QR code type"
	MsgShippingIncomplete  = "Please fill in all required fields"
	MsgCardIncomplete      = "Please fill in all card details"
)

// Error is a client-side validation failure; it never reaches the network.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string { return e.Message }

func fail(field, msg string) error { return &Error{Field: field, Message: msg} }

// IsValidation reports whether err is (or wraps) a validation failure.
func IsValidation(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

func Email(email string) error {
	if !emailRe.MatchString(email) {
		return fail("email", MsgInvalidEmail)
	}
	return nil
}

// Name accepts 2..50 characters.
func Name(field, label, name string) error {
	n := len([]rune(strings.TrimSpace(name)))
	if n < 2 {
		return fail(field, label+" must be at least 2 characters")
	}
	if n > 50 {
		return fail(field, label+" must be at most 50 characters")
	}
	return nil
}

func Login(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return fail("email", MsgCredentialsRequired)
	}
	return Email(email)
}

// Registration checks the first signup step.
func Registration(email, firstName, lastName string) error {
	if email == "" || firstName == "" || lastName == "" {
		return fail("email", MsgAllFieldsRequired)
	}
	if err := Email(email); err != nil {
		return err
	}
	if err := Name("firstName", "First name", firstName); err != nil {
		return err
	}
	return Name("lastName", "Last name", lastName)
}

func OTP(code string) error {
	if !otpRe.MatchString(code) {
		return fail("otp", MsgInvalidOTP)
	}
	return nil
}

// Password is the single password policy: 8+ characters from [A-Za-z0-9@$!%*?&]
// with at least one lower case letter, one upper case letter and one digit.
func Password(password, confirm string) error {
	if password == "" || confirm == "" {
		return fail("password", MsgPasswordsRequired)
	}
	if !strongPassword(password) {
		return fail("password", MsgWeakPassword)
	}
	if password != confirm {
		return fail("confirmPassword", MsgPasswordMismatch)
	}
	return nil
}

func strongPassword(pw string) bool {
	if len(pw) < 8 {
		return false
	}
	var lower, upper, digit bool
	for _, r := range pw {
		switch {
		case r > unicode.MaxASCII:
			return false
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune("@$!%*?&", r):
		default:
			return false
		}
	}
	return lower && upper && digit
}

// DestinationURL requires an absolute URL with a scheme.
func DestinationURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fail("destinationUrl", MsgURLRequired)
	}
	if err := v.Var(raw, "url"); err != nil {
		return fail("destinationUrl", MsgInvalidURL)
	}
	return nil
}

// Expiry accepts no expiry or one strictly after now.
func Expiry(expiresAt *time.Time, now time.Time) error {
	if expiresAt != nil && !expiresAt.After(now) {
		return fail("expiresAt", MsgExpiryInPast)
	}
	return nil
}

func CreateQRCode(in models.CreateQRCodeInput, now time.Time) error {
	if err := v.Var(string(in.Type), "required,oneof=GOOGLE_REVIEW CUSTOM_URL PRODUCT_LINK"); err != nil {
		return fail("type", MsgInvalidQRType)
	}
	if err := DestinationURL(in.DestinationURL); err != nil {
		return err
	}
	return Expiry(in.ExpiresAt, now)
}

func UpdateQRCode(in models.UpdateQRCodeInput, now time.Time) error {
	if in.DestinationURL != nil {
		if err := DestinationURL(*in.DestinationURL); err != nil {
			return err
		}
	}
	return Expiry(in.ExpiresAt, now)
}

func Shipping(addr models.ShippingAddress) error {
	return structFields(addr, MsgShippingIncomplete)
}

func Card(card models.CardDetails) error {
	return structFields(card, MsgCardIncomplete)
}

// structFields runs the struct's validate tags and reports the first failing
// field under a single form-level message.
func structFields(s any, msg string) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var fe validator.ValidationErrors
	if errors.As(err, &fe) && len(fe) > 0 {
		return fail(fe[0].Field(), msg)
	}
	return fail("", msg)
}
