package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"voyago/internal/auth"
	"voyago/internal/cache"
	"voyago/internal/config"
	"voyago/internal/db"
	"voyago/internal/domain/admins"
	"voyago/internal/domain/bookings"
	"voyago/internal/domain/dashboard"
	"voyago/internal/domain/storage"
	"voyago/internal/events"
	"voyago/internal/mailer"
	"voyago/internal/ratelimiter"
)

var testNow = time.Date(2026, 5, 14, 9, 30, 0, 0, time.UTC)

// fakeAdmins serves a fixed set of accounts.
type fakeAdmins struct {
	admins.Store
	byID map[uuid.UUID]*admins.Admin
}

func newFakeAdmins(t *testing.T, list ...*admins.Admin) *fakeAdmins {
	t.Helper()
	f := &fakeAdmins{byID: map[uuid.UUID]*admins.Admin{}}
	for _, a := range list {
		f.byID[a.ID] = a
	}
	return f
}

func (f *fakeAdmins) GetByID(_ context.Context, id uuid.UUID) (*admins.Admin, error) {
	if a, ok := f.byID[id]; ok {
		return a, nil
	}
	return nil, db.ErrNotFound
}

func (f *fakeAdmins) GetByEmail(_ context.Context, email string) (*admins.Admin, error) {
	for _, a := range f.byID {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeAdmins) TouchLogin(context.Context, uuid.UUID) error { return nil }

// recordingPublisher keeps published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []events.BookingEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.BookingEvent(nil), p.events...)
}

type testEnv struct {
	app       *application
	store     *storage.Container
	events    *recordingPublisher
	admin     *admins.Admin
	staff     *admins.Admin
	adminAuth string
	staffAuth string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	admin := &admins.Admin{ID: uuid.New(), Name: "Ada", Email: "ada@voyago.travel", Role: admins.RoleAdmin}
	require.NoError(t, admin.Password.Set("correct-horse"))
	staff := &admins.Admin{ID: uuid.New(), Name: "Sam", Email: "sam@voyago.travel", Role: admins.RoleStaff}

	cfg := config.Config{Env: "test", Addr: ":0"}
	cfg.Auth.BasicUser = "ops"
	cfg.Auth.BasicPass = "secret"
	cfg.Mail.ContactInbox = "team@voyago.travel"

	authenticator := auth.NewJWTAuthenticator("access", "refresh", "voyago", "voyago", time.Hour, 24*time.Hour)

	refs, err := bookings.NewReferenceCoder("test-salt")
	require.NoError(t, err)

	store := &storage.Container{Admins: newFakeAdmins(t, admin, staff)}
	pub := &recordingPublisher{}
	logger := zap.NewNop().Sugar()

	app := &application{
		config:        cfg,
		store:         store,
		refs:          refs,
		logger:        logger,
		mailer:        mailer.LogMailer{},
		events:        pub,
		authenticator: authenticator,
		rateLimiter:   ratelimiter.NewFixedWindowLimiter(100, time.Minute),
		now:           func() time.Time { return testNow },
	}
	app.dashboard = dashboard.NewService(nil, nil, nil, dashboard.Names{}, cache.Noop{}, time.Minute, logger)

	env := &testEnv{app: app, store: store, events: pub, admin: admin, staff: staff}
	env.adminAuth = bearer(t, authenticator, admin)
	env.staffAuth = bearer(t, authenticator, staff)
	return env
}

func bearer(t *testing.T, a auth.Authenticator, admin *admins.Admin) string {
	t.Helper()
	access, _, err := a.GenerateTokens(admin.ID.String(), admin.Role)
	require.NoError(t, err)
	return "Bearer " + access
}

func (e *testEnv) do(t *testing.T, method, path, authz string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rr := httptest.NewRecorder()
	e.app.mount().ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return env.Data
}

type errorBody struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Status  int               `json:"status"`
	Errors  map[string]string `json:"errors"`
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var b errorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &b), rr.Body.String())
	return b
}
