package web

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"qrmarket/config"
	"qrmarket/internal/apiclient"
	"qrmarket/internal/credentials"
	"qrmarket/internal/drafts"
	"qrmarket/internal/logs"
	"qrmarket/internal/models"
	"qrmarket/internal/qrmanager"
	"qrmarket/internal/services/auth"
	"qrmarket/internal/services/commerce"
	"qrmarket/internal/services/qrcode"
	"qrmarket/internal/session"
	"qrmarket/internal/signup"
	"qrmarket/internal/validate"
)

func init() { logs.Discard() }

// backend is a fake API server that counts calls per "METHOD path".
type backend struct {
	mu    sync.Mutex
	calls map[string]int
	over  map[string]http.HandlerFunc
	srv   *httptest.Server
}

// on replaces the canned reply for "METHOD path".
func (b *backend) on(key string, fn http.HandlerFunc) {
	b.mu.Lock()
	b.over[key] = fn
	b.mu.Unlock()
}

const productJSON = `{"_id":"p1","name":"Tee","basePrice":25,"productType":"shirt",
"shirtDesigns":[{"colorCode":"#000000","colorName":"Black","size":"M","mockupImageUrl":"https://cdn.example.com/black.png"}]}`

func newBackend(t *testing.T) *backend {
	b := &backend{calls: map[string]int{}, over: map[string]http.HandlerFunc{}}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls[r.Method+" "+r.URL.Path]++
		fn := b.over[r.Method+" "+r.URL.Path]
		b.mu.Unlock()
		if fn != nil {
			fn(w, r)
			return
		}

		reply := func(data string) {
			_, _ = io.WriteString(w, `{"success":true,"message":"","data":`+data+`}`)
		}
		switch r.Method + " " + r.URL.Path {
		case "POST /user/login":
			reply(`{"email":"jo@example.com","role":"USER","token":"tok-1","expiresIn":3600}`)
		case "POST /user/signup/email", "POST /user/verify-otp", "POST /user/set-password":
			reply(`{}`)
		case "POST /user/verify-email":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"success":false,"message":"Token expired"}`)
		case "GET /products":
			reply(`[` + productJSON + `]`)
		case "GET /products/p1":
			reply(productJSON)
		case "GET /qrcode":
			reply(`[{"_id":"q1","slug":"abc","type":"CUSTOM_URL","destinationUrl":"https://example.com","isActive":true,"scanCount":3}]`)
		case "GET /qrcode/q1":
			reply(`{"_id":"q1","slug":"abc","type":"CUSTOM_URL","destinationUrl":"https://example.com","isActive":true,"scanCount":3}`)
		case "POST /qrcode":
			reply(`{"_id":"q2","slug":"def","type":"CUSTOM_URL","destinationUrl":"https://example.org","isActive":true}`)
		case "GET /qrcode/abc/scan":
			reply(`{"destinationUrl":"https://example.com/menu"}`)
		case "GET /qrcode/evil/scan":
			reply(`{"destinationUrl":"javascript:alert(1)"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"success":false,"message":"Not found"}`)
		}
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) count(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[key]
}

func (b *backend) total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		n += c
	}
	return n
}

// site wires the storefront against b and returns a client that keeps
// cookies but does not follow redirects.
func site(t *testing.T, b *backend) (*httptest.Server, *http.Client) {
	cfg := &config.Config{}
	cfg.Server.PublicURL = "http://qr.test"

	api := apiclient.New(b.srv.URL, 5*time.Second)
	creds := credentials.New([]byte("0123456789abcdef0123456789abcdef"), credentials.Options{
		TokenCookie:   "authToken",
		BrowserCookie: "qm_browser",
		MaxAge:        3 * time.Hour,
	})
	authSvc := auth.New(api, models.PlatformWeb)
	dr := drafts.NewService(drafts.NewMemoryStore(), time.Hour)
	flow := signup.New(authSvc, dr)
	registry := qrmanager.NewRegistry(qrcode.New(api))
	sessions := session.NewManager(creds, authSvc, flow)
	sessions.OnChange = registry.Drop

	r := mux.NewRouter()
	Attach(r, Dependencies{
		CFG:      cfg,
		Creds:    creds,
		Sessions: sessions,
		Auth:     authSvc,
		Signup:   flow,
		QR:       registry,
		Commerce: commerce.New(api),
		Drafts:   dr,
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return srv, client
}

func get(t *testing.T, c *http.Client, u string) (*http.Response, string) {
	t.Helper()
	resp, err := c.Get(u)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func post(t *testing.T, c *http.Client, u string, v url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := c.PostForm(u, v)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func login(t *testing.T, srv *httptest.Server, c *http.Client) {
	t.Helper()
	resp, _ := post(t, c, srv.URL+"/login", url.Values{
		"email": {"jo@example.com"}, "password": {"Secret123"}, "returnUrl": {"/dashboard/qrcodes"},
	})
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/dashboard/qrcodes" {
		t.Fatalf("expected redirect to return url, got %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestHomeListsProducts(t *testing.T) {
	b := newBackend(t)
	srv, c := site(t, b)

	resp, body := get(t, c, srv.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Tee") {
		t.Errorf("expected product name in page")
	}
	if b.count("GET /qrcode") != 0 {
		t.Errorf("anonymous home must not load qr codes")
	}
}

func TestHomeKeepsCatalogWhenCountFails(t *testing.T) {
	b := newBackend(t)
	srv, c := site(t, b)
	login(t, srv, c)

	b.on("GET /products", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = io.WriteString(w, `{"success":true,"message":"","data":[`+productJSON+`]}`)
	})
	b.on("GET /qrcode", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"success":false,"message":"Unauthorized"}`)
	})

	resp, body := get(t, c, srv.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Tee") {
		t.Errorf("expected catalog to survive a failed qr count")
	}
	if strings.Contains(body, "Unauthorized") {
		t.Errorf("expected no banner for the qr count failure")
	}
	if strings.Contains(body, "Manage them") {
		t.Errorf("expected the qr count card to be hidden")
	}
}

func TestHomeShowsCatalogError(t *testing.T) {
	b := newBackend(t)
	srv, c := site(t, b)
	b.on("GET /products", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"success":false,"message":"Catalog unavailable"}`)
	})

	_, body := get(t, c, srv.URL+"/")
	if !strings.Contains(body, "Catalog unavailable") {
		t.Errorf("expected catalog failure banner")
	}
}

func TestDashboardRequiresAuth(t *testing.T) {
	srv, c := site(t, newBackend(t))

	resp, _ := get(t, c, srv.URL+"/dashboard/qrcodes?page=2")
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	want := "/login?returnUrl=" + url.QueryEscape("/dashboard/qrcodes?page=2")
	if loc := resp.Header.Get("Location"); loc != want {
		t.Errorf("expected %s, got %s", want, loc)
	}
}

func TestLoginThenDashboard(t *testing.T) {
	b := newBackend(t)
	srv, c := site(t, b)
	login(t, srv, c)

	resp, body := get(t, c, srv.URL+"/dashboard/qrcodes")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "abc") || !strings.Contains(body, "badge-active") {
		t.Errorf("expected listed code with active badge")
	}

	resp, _ = post(t, c, srv.URL+"/logout", nil)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303 after logout, got %d", resp.StatusCode)
	}
	resp, _ = get(t, c, srv.URL+"/dashboard/qrcodes")
	if resp.StatusCode != http.StatusFound {
		t.Errorf("expected dashboard to require login again, got %d", resp.StatusCode)
	}
}

func TestLoginRejectsForeignReturnURL(t *testing.T) {
	srv, c := site(t, newBackend(t))
	resp, _ := post(t, c, srv.URL+"/login", url.Values{
		"email": {"jo@example.com"}, "password": {"Secret123"}, "returnUrl": {"//evil.example.com"},
	})
	if loc := resp.Header.Get("Location"); loc != "/dashboard" {
		t.Errorf("expected fallback to /dashboard, got %s", loc)
	}
}

func TestSafeReturnURL(t *testing.T) {
	tests := map[string]string{
		"":                     "/dashboard",
		"/checkout":            "/checkout",
		"/dashboard/qrcodes/1": "/dashboard/qrcodes/1",
		"//evil.com":           "/dashboard",
		`/\evil.com`:           "/dashboard",
		"https://evil.com":     "/dashboard",
		"checkout":             "/dashboard",
	}
	for in, want := range tests {
		if got := safeReturnURL(in); got != want {
			t.Errorf("safeReturnURL(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestCreateWithInvalidURLMakesNoCall(t *testing.T) {
	b := newBackend(t)
	srv, c := site(t, b)
	login(t, srv, c)

	resp, body := post(t, c, srv.URL+"/dashboard/qrcodes", url.Values{
		"type": {"CUSTOM_URL"}, "destinationUrl": {"not-a-url"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected the form to be re-rendered, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, validate.MsgInvalidURL) {
		t.Errorf("expected url validation message")
	}
	if n := b.count("POST /qrcode"); n != 0 {
		t.Errorf("expected no create call, got %d", n)
	}
}

func TestCreateRedirectsWithFlash(t *testing.T) {
	b := newBackend(t)
	srv, c := site(t, b)
	login(t, srv, c)

	resp, _ := post(t, c, srv.URL+"/dashboard/qrcodes", url.Values{
		"type": {"CUSTOM_URL"}, "destinationUrl": {"https://example.org"},
	})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	_, body := get(t, c, srv.URL+"/dashboard/qrcodes")
	if !strings.Contains(body, msgCreated) {
		t.Errorf("expected success flash on the list page")
	}
}

func TestQRCodeDetail(t *testing.T) {
	b := newBackend(t)
	srv, c := site(t, b)
	login(t, srv, c)

	resp, body := get(t, c, srv.URL+"/dashboard/qrcodes/q1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "http://qr.test/qr/abc") {
		t.Errorf("expected public link in detail page")
	}
	if !strings.Contains(body, "data:image/png;base64,") {
		t.Errorf("expected generated qr preview")
	}

	resp, _ = get(t, c, srv.URL+"/dashboard/qrcodes/missing")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown code, got %d", resp.StatusCode)
	}
}

func TestSignupOTPTooShortMakesNoCall(t *testing.T) {
	b := newBackend(t)
	srv, c := site(t, b)

	resp, _ := post(t, c, srv.URL+"/signup", url.Values{
		"email": {"jo@example.com"}, "firstName": {"Jo"}, "lastName": {"Do"},
	})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303 after register, got %d", resp.StatusCode)
	}
	if b.count("POST /user/signup/email") != 1 {
		t.Fatalf("expected one signup call")
	}

	resp, body := post(t, c, srv.URL+"/signup", url.Values{"otp": {"12345"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected re-render, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, validate.MsgInvalidOTP) {
		t.Errorf("expected otp validation message")
	}
	if n := b.count("POST /user/verify-otp"); n != 0 {
		t.Errorf("expected no verify call, got %d", n)
	}
}

func TestSignupCompletes(t *testing.T) {
	b := newBackend(t)
	srv, c := site(t, b)

	post(t, c, srv.URL+"/signup", url.Values{"email": {"jo@example.com"}, "firstName": {"Jo"}, "lastName": {"Do"}})
	post(t, c, srv.URL+"/signup", url.Values{"otp": {"123456"}})
	resp, body := post(t, c, srv.URL+"/signup", url.Values{"password": {"Secret123"}, "confirmPassword": {"Secret123"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, msgPasswordSet) || !strings.Contains(body, `http-equiv="refresh"`) {
		t.Errorf("expected success banner with redirect to login")
	}
	if b.count("POST /user/login") != 0 {
		t.Errorf("signup must not sign the user in")
	}
}

func TestCheckoutMissingCityMakesNoCall(t *testing.T) {
	b := newBackend(t)
	srv, c := site(t, b)
	login(t, srv, c)

	resp, _ := post(t, c, srv.URL+"/shop/customize", url.Values{
		"productId": {"p1"}, "color": {"#000000"}, "size": {"M"},
		"qrType": {"url"}, "qrText": {"https://example.com"}, "qrImage": {"data:image/png;base64,AAAA"},
		"action": {"proceed"},
	})
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/checkout" {
		t.Fatalf("expected redirect to checkout, got %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, body := post(t, c, srv.URL+"/checkout", url.Values{
		"fullName": {"Jo Do"}, "email": {"jo@example.com"}, "phone": {"555"}, "street": {"1 Main"},
		"state": {"CA"}, "postalCode": {"90000"}, "country": {"US"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected re-render, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, validate.MsgShippingIncomplete) {
		t.Errorf("expected shipping validation message")
	}
	if b.count("POST /qrcodes") != 0 || b.count("POST /orders") != 0 {
		t.Errorf("expected no create calls before the address is complete")
	}
}

func TestCustomizeAnonymousGoesToLogin(t *testing.T) {
	srv, c := site(t, newBackend(t))
	resp, _ := post(t, c, srv.URL+"/shop/customize", url.Values{
		"productId": {"p1"}, "color": {"#000000"}, "size": {"L"},
		"qrType": {"text"}, "qrText": {"hello"}, "qrImage": {"x"}, "action": {"proceed"},
	})
	if loc := resp.Header.Get("Location"); loc != "/login?returnUrl=%2Fcheckout" {
		t.Errorf("expected login redirect, got %s", loc)
	}
}

func TestScanRedirect(t *testing.T) {
	srv, c := site(t, newBackend(t))

	resp, _ := get(t, c, srv.URL+"/qr/abc")
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "https://example.com/menu" {
		t.Errorf("expected redirect to destination, got %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}
	resp, _ = get(t, c, srv.URL+"/qr/evil")
	if resp.Header.Get("Location") != "/" {
		t.Errorf("expected non-http destination to be refused, got %s", resp.Header.Get("Location"))
	}
	resp, _ = get(t, c, srv.URL+"/qr/unknown")
	if resp.Header.Get("Location") != "/" {
		t.Errorf("expected unknown slug to land home, got %s", resp.Header.Get("Location"))
	}
}

func TestAPIVerifyEmail(t *testing.T) {
	b := newBackend(t)
	srv, c := site(t, b)

	resp, err := c.Post(srv.URL+"/api/verify-email", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(string(body), auth.MsgTokenRequired) {
		t.Errorf("expected 400 token required, got %d %s", resp.StatusCode, body)
	}
	if b.total() != 0 {
		t.Errorf("expected no backend call without a token")
	}

	resp, err = c.Post(srv.URL+"/api/verify-email", "application/json", strings.NewReader(`{"token":"t"}`))
	if err != nil {
		t.Fatal(err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(string(body), "Token expired") {
		t.Errorf("expected backend response mirrored, got %d %s", resp.StatusCode, body)
	}
}

func TestSignupResendWithoutDraft(t *testing.T) {
	b := newBackend(t)
	srv, c := site(t, b)

	resp, body := post(t, c, srv.URL+"/signup/resend", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected re-render, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, msgSignupExpired) {
		t.Errorf("expected expired-signup message")
	}
	if strings.Contains(body, signup.ErrOutOfStep.Error()) {
		t.Errorf("internal error text must not reach the page")
	}
	if b.total() != 0 {
		t.Errorf("expected no backend call, got %d", b.total())
	}
}
