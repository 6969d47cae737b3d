package web

import (
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/errgroup"

	"qrmarket/internal/models"
	"qrmarket/internal/services/auth"
	"qrmarket/internal/signup"
)

const (
	msgOTPSent       = "OTP sent to your email. Please verify to continue."
	msgOTPResent     = "A new OTP has been sent to your email."
	msgEmailVerified = "Email verified! Please set your password."
	msgPasswordSet   = "Password set successfully! Redirecting to login..."
)

// Home lists the catalog. Signed-in users also see how many codes they own;
// failing to count them never hides the catalog.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	s := sess(r)
	var (
		products    []models.Product
		productsErr error
	)
	qrCount := -1

	var g errgroup.Group
	g.Go(func() error {
		products, productsErr = h.d.Commerce.Products(r.Context())
		return nil
	})
	if s.Authenticated() {
		g.Go(func() error {
			m := h.d.QR.For(s.BrowserID)
			if err := m.Fetch(s.Context(r.Context())); err != nil {
				h.log(r).Warnf("home qr count: %v", err)
				return nil
			}
			qrCount = len(m.State().Items)
			return nil
		})
	}
	_ = g.Wait()

	data := map[string]any{"Title": "QR Market", "Products": products, "QRCount": qrCount}
	if productsErr != nil {
		data["Error"] = h.userMessage(r, productsErr)
	}
	h.render(w, r, "home.tmpl", data)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ret := r.URL.Query().Get("returnUrl")
	if sess(r).Authenticated() {
		http.Redirect(w, r, safeReturnURL(ret), http.StatusFound)
		return
	}
	h.render(w, r, "login.tmpl", map[string]any{"Title": "Sign in", "ReturnURL": ret})
}

func (h *Handler) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email, ret := form(r, "email"), form(r, "returnUrl")
	if err := h.d.Sessions.Login(w, r, sess(r), email, r.PostFormValue("password")); err != nil {
		h.render(w, r, "login.tmpl", map[string]any{
			"Title": "Sign in", "Email": email, "ReturnURL": ret, "Error": h.userMessage(r, err),
		})
		return
	}
	seeOther(w, r, safeReturnURL(ret))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.d.Sessions.Logout(w, r, sess(r)); err != nil {
		h.log(r).Warnf("logout: %v", err)
	}
	seeOther(w, r, "/login")
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	s := sess(r)
	if s.Authenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	d, err := h.d.Signup.Current(r.Context(), s.BrowserID)
	data := map[string]any{"Title": "Create account", "Draft": d}
	if err != nil {
		data["Error"] = h.userMessage(r, err)
	}
	h.render(w, r, "signup.tmpl", data)
}

// SignupSubmit advances whichever step the browser's draft is on; the step
// is never taken from the form.
func (h *Handler) SignupSubmit(w http.ResponseWriter, r *http.Request) {
	s := sess(r)
	ctx := r.Context()
	cur, err := h.d.Signup.Current(ctx, s.BrowserID)
	if err != nil {
		h.signupError(w, r, cur, err)
		return
	}

	var d models.SignupDraft
	switch cur.Step {
	case models.StepVerifyOTP:
		d, err = h.d.Signup.VerifyOTP(ctx, s.BrowserID, form(r, "otp"))
		if err == nil {
			h.flash(w, r, msgEmailVerified)
		}
	case models.StepSetPassword:
		d, err = h.d.Signup.SetPassword(ctx, s.BrowserID, r.PostFormValue("password"), r.PostFormValue("confirmPassword"))
		if err == nil {
			h.render(w, r, "signup.tmpl", map[string]any{
				"Title": "Create account", "Draft": d, "Success": msgPasswordSet, "RedirectToLogin": true,
			})
			return
		}
	default:
		d, err = h.d.Sessions.Signup(ctx, s, form(r, "email"), form(r, "firstName"), form(r, "lastName"))
		if err == nil {
			h.flash(w, r, msgOTPSent)
		}
	}
	if err != nil {
		h.signupError(w, r, d, err)
		return
	}
	seeOther(w, r, "/signup")
}

func (h *Handler) signupError(w http.ResponseWriter, r *http.Request, d models.SignupDraft, err error) {
	if errors.Is(err, signup.ErrOutOfStep) {
		_ = h.d.Signup.Abandon(r.Context(), sess(r).BrowserID)
		d = models.SignupDraft{Step: models.StepRegister}
	}
	h.render(w, r, "signup.tmpl", map[string]any{
		"Title": "Create account", "Draft": d, "Error": h.userMessage(r, err),
	})
}

func (h *Handler) SignupResend(w http.ResponseWriter, r *http.Request) {
	d, err := h.d.Signup.Resend(r.Context(), sess(r).BrowserID)
	if err != nil {
		h.signupError(w, r, d, err)
		return
	}
	h.flash(w, r, msgOTPResent)
	seeOther(w, r, "/signup")
}

// SignupBack abandons the draft and returns to the login page.
func (h *Handler) SignupBack(w http.ResponseWriter, r *http.Request) {
	if err := h.d.Signup.Abandon(r.Context(), sess(r).BrowserID); err != nil {
		h.log(r).Warnf("abandon signup: %v", err)
	}
	seeOther(w, r, "/login")
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	data := map[string]any{"Title": "Verify email"}
	if token == "" {
		data["Error"] = "No verification token provided"
		h.render(w, r, "verify_email.tmpl", data)
		return
	}
	msg, err := h.d.Auth.VerifyEmail(r.Context(), token)
	switch {
	case err != nil:
		data["Error"] = h.userMessage(r, err)
	case msg == "":
		data["Success"] = "Email verified successfully!"
	default:
		data["Success"] = msg
	}
	h.render(w, r, "verify_email.tmpl", data)
}

// APIVerifyEmail proxies {token} to the backend and mirrors its answer.
func (h *Handler) APIVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := jsoniter.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&body); err != nil {
		models.WriteMessage(w, http.StatusInternalServerError, "An error occurred during email verification")
		return
	}
	if body.Token == "" {
		models.WriteMessage(w, http.StatusBadRequest, auth.MsgTokenRequired)
		return
	}
	status, raw, err := h.d.Auth.ForwardVerifyEmail(r.Context(), body.Token)
	if err != nil {
		h.log(r).Warnf("verify-email proxy: %v", err)
		models.WriteMessage(w, http.StatusInternalServerError, "An error occurred during email verification")
		return
	}
	if status >= 200 && status <= 299 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}
