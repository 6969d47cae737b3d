package models

// User is the signed-in account as the backend reports it.
type User struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// Platform tags every auth call with the client kind.
type Platform string

const (
	PlatformWeb    Platform = "WEB"
	PlatformMobile Platform = "MOBILE"
)

// LoginResponse is the data part of POST /user/login.
type LoginResponse struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	ExpiresIn int64  `json:"expiresIn"`
	Token     string `json:"token"`
}
