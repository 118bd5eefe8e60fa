package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shaikwasi806/bank-app/internal/handler/dto"
	"github.com/shaikwasi806/bank-app/internal/metrics"
	"github.com/shaikwasi806/bank-app/internal/middleware"
	"github.com/shaikwasi806/bank-app/internal/relay"
	"github.com/shaikwasi806/bank-app/internal/service"
	"github.com/shaikwasi806/bank-app/internal/session"
	"github.com/shaikwasi806/bank-app/internal/store"
)

// testAPI wires the full request path: router, middleware, handlers and an
// in-memory store.
type testAPI struct {
	router *chi.Mux
	store  *store.MemoryStore
}

func newTestAPI(t *testing.T, upstreamURL string) *testAPI {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.NewMemoryStore(1000)
	issuer := session.NewIssuer([]byte("test-secret"), time.Hour, session.NewMemoryRegistry())

	accountService := service.NewAccountService(st, issuer, metrics.NewNoop())
	ledgerService := service.NewLedgerService(st, metrics.NewNoop())
	relayClient := relay.NewClient(upstreamURL, "", 2*time.Second, nil)

	accountHandler := NewAccountHandler(accountService, logger, time.Hour, false)
	bankHandler := NewBankHandler(accountService, ledgerService, logger)
	chatHandler := NewChatHandler(relayClient, logger)
	healthHandler := NewHealthHandler(st, nil)

	sessionCfg := middleware.SessionConfig{Logger: logger, Validator: issuer}

	r := chi.NewRouter()
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Route("/api", func(r chi.Router) {
		r.Post("/register", accountHandler.Register)
		r.Post("/login", accountHandler.Login)
		r.Post("/logout", accountHandler.Logout)
		r.Post("/ai/chat", chatHandler.Chat)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(sessionCfg))
			r.Get("/balance", bankHandler.Balance)
			r.Post("/transfer", bankHandler.Transfer)
			r.Get("/transactions", bankHandler.Transactions)
		})
	})
	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	return &testAPI{router: r, store: st}
}

func (a *testAPI) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// register creates an account and returns nothing; failures stop the test.
func (a *testAPI) register(t *testing.T, name, email, secret string) {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/register", dto.RegisterRequest{Name: name, Email: email, Secret: secret}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status = %d, body %s", email, rec.Code, rec.Body)
	}
}

// login opens a session and returns the session cookie.
func (a *testAPI) login(t *testing.T, email, secret string) *http.Cookie {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/login", dto.LoginRequest{Email: email, Secret: secret}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status = %d, body %s", email, rec.Code, rec.Body)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	t.Fatal("login response did not set the session cookie")
	return nil
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var e dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&e); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return e
}

func TestAPI_RegisterLoginBalanceFlow(t *testing.T) {
	api := newTestAPI(t, "")

	api.register(t, "Ada", "ada@x.com", "pw1")
	cookie := api.login(t, "ada@x.com", "pw1")

	if !cookie.HttpOnly {
		t.Error("session cookie must be HTTP-only")
	}

	rec := api.do(t, http.MethodGet, "/api/balance", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("balance status = %d, body %s", rec.Code, rec.Body)
	}

	var balance dto.BalanceResponse
	if err := json.NewDecoder(rec.Body).Decode(&balance); err != nil {
		t.Fatal(err)
	}
	if balance.Balance != 1000 || balance.Name != "Ada" {
		t.Errorf("balance = %+v, want 1000 for Ada", balance)
	}
}

func TestAPI_LoginDoesNotLeakToken(t *testing.T) {
	api := newTestAPI(t, "")
	api.register(t, "Ada", "ada@x.com", "pw1")

	rec := api.do(t, http.MethodPost, "/api/login", dto.LoginRequest{Email: "ada@x.com", Secret: "pw1"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatal(rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if _, ok := body["token"]; ok {
		t.Error("token must not appear in the login response body")
	}
}

func TestAPI_RegisterErrors(t *testing.T) {
	api := newTestAPI(t, "")
	api.register(t, "Ada", "ada@x.com", "pw1")

	cases := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"duplicate email", dto.RegisterRequest{Name: "B", Email: "ada@x.com", Secret: "pw"}, http.StatusBadRequest, "EMAIL_TAKEN"},
		{"missing fields", dto.RegisterRequest{Name: "B"}, http.StatusBadRequest, "INVALID_INPUT"},
		{"malformed email", dto.RegisterRequest{Name: "B", Email: "nope", Secret: "pw"}, http.StatusBadRequest, "INVALID_INPUT"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := api.do(t, http.MethodPost, "/api/register", tc.body, nil)
			if rec.Code != tc.status {
				t.Errorf("status = %d, want %d", rec.Code, tc.status)
			}
			if e := decodeError(t, rec); e.Code != tc.code {
				t.Errorf("code = %s, want %s", e.Code, tc.code)
			}
		})
	}
}

func TestAPI_RegisterInvalidJSON(t *testing.T) {
	api := newTestAPI(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewReader([]byte("{broken")))
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if e := decodeError(t, rec); e.Code != "INVALID_JSON" {
		t.Errorf("code = %s, want INVALID_JSON", e.Code)
	}
}

func TestAPI_LoginRejected(t *testing.T) {
	api := newTestAPI(t, "")
	api.register(t, "Ada", "ada@x.com", "pw1")

	for _, tc := range []dto.LoginRequest{
		{Email: "ada@x.com", Secret: "wrong"},
		{Email: "ghost@x.com", Secret: "pw1"},
	} {
		rec := api.do(t, http.MethodPost, "/api/login", tc, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("login %s: status = %d, want 401", tc.Email, rec.Code)
		}
		if e := decodeError(t, rec); e.Code != "INVALID_CREDENTIALS" {
			t.Errorf("login %s: code = %s", tc.Email, e.Code)
		}
	}
}

func TestAPI_ProtectedRoutesRequireSession(t *testing.T) {
	api := newTestAPI(t, "")
	api.register(t, "Ada", "ada@x.com", "pw1")
	cookie := api.login(t, "ada@x.com", "pw1")

	tampered := &http.Cookie{Name: cookie.Name, Value: cookie.Value + "x"}

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/balance"},
		{http.MethodPost, "/api/transfer"},
		{http.MethodGet, "/api/transactions"},
	}

	for _, rt := range routes {
		// No cookie at all.
		if rec := api.do(t, rt.method, rt.path, nil, nil); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without cookie: status = %d, want 401", rt.method, rt.path, rec.Code)
		}
		// Tampered token.
		if rec := api.do(t, rt.method, rt.path, nil, tampered); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s with tampered cookie: status = %d, want 401", rt.method, rt.path, rec.Code)
		}
	}
}

func TestAPI_TransferFlow(t *testing.T) {
	api := newTestAPI(t, "")
	api.register(t, "Ada", "ada@x.com", "pw1")
	api.register(t, "Bob", "bob@x.com", "pw2")
	cookie := api.login(t, "ada@x.com", "pw1")

	rec := api.do(t, http.MethodPost, "/api/transfer", dto.TransferRequest{RecipientEmail: "bob@x.com", Amount: 200}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("transfer status = %d, body %s", rec.Code, rec.Body)
	}

	var out dto.TransferResponse
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.NewBalance != 800 {
		t.Errorf("new_balance = %d, want 800", out.NewBalance)
	}
	if out.Transaction.RecipientEmail != "bob@x.com" || out.Transaction.Amount != 200 {
		t.Errorf("unexpected transaction: %+v", out.Transaction)
	}

	// Both parties see the transfer in their history.
	bobCookie := api.login(t, "bob@x.com", "pw2")
	for _, c := range []*http.Cookie{cookie, bobCookie} {
		rec := api.do(t, http.MethodGet, "/api/transactions", nil, c)
		if rec.Code != http.StatusOK {
			t.Fatalf("transactions status = %d", rec.Code)
		}
		var list dto.TransactionListResponse
		if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
			t.Fatal(err)
		}
		if len(list.Transactions) != 1 || list.Transactions[0].Amount != 200 {
			t.Errorf("unexpected history: %+v", list.Transactions)
		}
	}
}

func TestAPI_TransferErrors(t *testing.T) {
	api := newTestAPI(t, "")
	api.register(t, "Ada", "ada@x.com", "pw1")
	api.register(t, "Bob", "bob@x.com", "pw2")
	cookie := api.login(t, "ada@x.com", "pw1")

	cases := []struct {
		name   string
		body   dto.TransferRequest
		status int
		code   string
	}{
		{"zero amount", dto.TransferRequest{RecipientEmail: "bob@x.com", Amount: 0}, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"negative amount", dto.TransferRequest{RecipientEmail: "bob@x.com", Amount: -5}, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"insufficient funds", dto.TransferRequest{RecipientEmail: "bob@x.com", Amount: 5000}, http.StatusBadRequest, "INSUFFICIENT_FUNDS"},
		{"unknown recipient", dto.TransferRequest{RecipientEmail: "ghost@x.com", Amount: 10}, http.StatusNotFound, "RECIPIENT_NOT_FOUND"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := api.do(t, http.MethodPost, "/api/transfer", tc.body, cookie)
			if rec.Code != tc.status {
				t.Errorf("status = %d, want %d", rec.Code, tc.status)
			}
			if e := decodeError(t, rec); e.Code != tc.code {
				t.Errorf("code = %s, want %s", e.Code, tc.code)
			}
		})
	}

	// Failed transfers must not move money.
	rec := api.do(t, http.MethodGet, "/api/balance", nil, cookie)
	var balance dto.BalanceResponse
	if err := json.NewDecoder(rec.Body).Decode(&balance); err != nil {
		t.Fatal(err)
	}
	if balance.Balance != 1000 {
		t.Errorf("balance = %d after failed transfers, want 1000", balance.Balance)
	}
}

func TestAPI_LogoutClearsCookie(t *testing.T) {
	api := newTestAPI(t, "")
	api.register(t, "Ada", "ada@x.com", "pw1")
	cookie := api.login(t, "ada@x.com", "pw1")

	rec := api.do(t, http.MethodPost, "/api/logout", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}

	var cleared *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			cleared = c
		}
	}
	if cleared == nil {
		t.Fatal("logout did not touch the session cookie")
	}
	if cleared.Value != "" || cleared.MaxAge >= 0 {
		t.Errorf("cookie not cleared: value=%q max-age=%d", cleared.Value, cleared.MaxAge)
	}
}

func TestAPI_TokenStillValidAfterLogout(t *testing.T) {
	api := newTestAPI(t, "")
	api.register(t, "Ada", "ada@x.com", "pw1")
	cookie := api.login(t, "ada@x.com", "pw1")

	if rec := api.do(t, http.MethodPost, "/api/logout", nil, cookie); rec.Code != http.StatusOK {
		t.Fatal(rec.Code)
	}

	// Logout only clears the client cookie; a retained token keeps working
	// until it expires.
	if rec := api.do(t, http.MethodGet, "/api/balance", nil, cookie); rec.Code != http.StatusOK {
		t.Errorf("balance after logout with retained token: status = %d, want 200", rec.Code)
	}
}

func TestAPI_ChatRelayWithoutSession(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"hello"}}]}`))
	}))
	defer upstream.Close()

	api := newTestAPI(t, upstream.URL)

	// The chat endpoint is public: no account, no cookie.
	rec := api.do(t, http.MethodPost, "/api/ai/chat", map[string]any{"messages": []any{}}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("chat status = %d, body %s", rec.Code, rec.Body)
	}
	if got := rec.Body.String(); got != `{"choices":[{"message":{"content":"hello"}}]}` {
		t.Errorf("unexpected relayed body: %s", got)
	}
}

func TestAPI_ChatUpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close()

	api := newTestAPI(t, upstream.URL)

	rec := api.do(t, http.MethodPost, "/api/ai/chat", map[string]any{"messages": []any{}}, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if e := decodeError(t, rec); e.Code != "UPSTREAM_UNAVAILABLE" {
		t.Errorf("code = %s, want UPSTREAM_UNAVAILABLE", e.Code)
	}
}

func TestAPI_ChatRejectsInvalidJSON(t *testing.T) {
	api := newTestAPI(t, "http://127.0.0.1:0")

	req := httptest.NewRequest(http.MethodPost, "/api/ai/chat", bytes.NewReader([]byte("{broken")))
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAPI_Health(t *testing.T) {
	api := newTestAPI(t, "")

	if rec := api.do(t, http.MethodGet, "/healthz", nil, nil); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}

	rec := api.do(t, http.MethodGet, "/readyz", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz status = %d, body %s", rec.Code, rec.Body)
	}
	var health HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	if health.Checks["store"] != "ok" {
		t.Errorf("store check = %q, want ok", health.Checks["store"])
	}
}

func TestAPI_UnknownRoute(t *testing.T) {
	api := newTestAPI(t, "")

	rec := api.do(t, http.MethodGet, "/api/nope", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if e := decodeError(t, rec); e.Code != "NOT_FOUND" {
		t.Errorf("code = %s, want NOT_FOUND", e.Code)
	}
}
