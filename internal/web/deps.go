package web

import (
	"net/http"

	"github.com/gorilla/mux"

	"qrmarket/config"
	"qrmarket/internal/credentials"
	"qrmarket/internal/drafts"
	"qrmarket/internal/qrmanager"
	"qrmarket/internal/services/auth"
	"qrmarket/internal/services/commerce"
	"qrmarket/internal/session"
	"qrmarket/internal/signup"
)

type Dependencies struct {
	CFG      *config.Config
	Creds    *credentials.Store
	Sessions *session.Manager
	Auth     *auth.Service
	Signup   *signup.Flow
	QR       *qrmanager.Registry
	Commerce *commerce.Service
	Drafts   *drafts.Service
}

// Attach mounts every page of the storefront on r. Routes registered on r
// before Attach (health probes) are not wrapped by the session middleware.
func Attach(r *mux.Router, d Dependencies) {
	h := &Handler{d: d, t: parseTemplates()}

	sub := r.NewRoute().Subrouter()
	sub.Use(d.Sessions.Middleware)

	sub.HandleFunc("/static/style.css", serveCSS).Methods(http.MethodGet)

	// storefront
	sub.HandleFunc("/", h.Home).Methods(http.MethodGet)
	sub.HandleFunc("/shop/customize", h.Customize).Methods(http.MethodGet)
	sub.HandleFunc("/shop/customize", h.CustomizeSubmit).Methods(http.MethodPost)
	sub.HandleFunc("/checkout", h.authed(h.Checkout)).Methods(http.MethodGet)
	sub.HandleFunc("/checkout", h.authed(h.CheckoutSubmit)).Methods(http.MethodPost)
	sub.HandleFunc("/payment", h.authed(h.Payment)).Methods(http.MethodGet)
	sub.HandleFunc("/payment", h.authed(h.PaymentSubmit)).Methods(http.MethodPost)
	sub.HandleFunc("/order-confirmation", h.authed(h.OrderConfirmation)).Methods(http.MethodGet)
	sub.HandleFunc("/qr/{slug}", h.Scan).Methods(http.MethodGet)

	// account
	sub.HandleFunc("/login", h.Login).Methods(http.MethodGet)
	sub.HandleFunc("/login", h.LoginSubmit).Methods(http.MethodPost)
	sub.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)
	sub.HandleFunc("/signup", h.Signup).Methods(http.MethodGet)
	sub.HandleFunc("/signup", h.SignupSubmit).Methods(http.MethodPost)
	sub.HandleFunc("/signup/resend", h.SignupResend).Methods(http.MethodPost)
	sub.HandleFunc("/signup/back", h.SignupBack).Methods(http.MethodPost)
	sub.HandleFunc("/verify-email", h.VerifyEmail).Methods(http.MethodGet)
	sub.HandleFunc("/api/verify-email", h.APIVerifyEmail).Methods(http.MethodPost)

	// dashboard
	dash := sub.PathPrefix("/dashboard").Subrouter()
	dash.Use(h.requireAuth)
	dash.HandleFunc("", h.redirect("/dashboard/qrcodes")).Methods(http.MethodGet)
	dash.HandleFunc("/", h.redirect("/dashboard/qrcodes")).Methods(http.MethodGet)
	dash.HandleFunc("/qrcodes", h.QRCodesList).Methods(http.MethodGet)
	dash.HandleFunc("/qrcodes", h.QRCodeCreate).Methods(http.MethodPost)
	dash.HandleFunc("/qrcodes/{id}", h.QRCodeDetail).Methods(http.MethodGet)
	dash.HandleFunc("/qrcodes/{id}/rotate", h.QRCodeRotate).Methods(http.MethodPost)
	dash.HandleFunc("/qrcodes/{id}/disable", h.QRCodeDisable).Methods(http.MethodPost)
	dash.HandleFunc("/qrcodes/{id}/delete", h.QRCodeDelete).Methods(http.MethodPost)
	dash.HandleFunc("/profile", h.Profile).Methods(http.MethodGet)
	dash.HandleFunc("/orders", h.placeholder("orders.tmpl", "Orders")).Methods(http.MethodGet)
	dash.HandleFunc("/cafes", h.placeholder("cafes.tmpl", "My Cafes")).Methods(http.MethodGet)
	dash.HandleFunc("/analytics", h.Analytics).Methods(http.MethodGet)
}
