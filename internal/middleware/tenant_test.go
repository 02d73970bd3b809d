package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"taskboard-service/internal/model"
	"taskboard-service/internal/tenancy"
)

type fakeDirectory struct {
	tenants map[string]*model.Tenant
	err     error
}

func (d *fakeDirectory) LookupActive(subdomain string) (*model.Tenant, error) {
	if d.err != nil {
		return nil, d.err
	}
	tenant, ok := d.tenants[subdomain]
	if !ok {
		return nil, fmt.Errorf("%w: %s", tenancy.ErrTenantNotFound, subdomain)
	}
	return tenant, nil
}

type fakeSession struct {
	schema     string
	db         *gorm.DB
	released   bool
	releaseErr error
	sawErr     error
}

func (s *fakeSession) DB() *gorm.DB { return s.db }

func (s *fakeSession) Release(handlerErr error) error {
	s.released = true
	s.sawErr = handlerErr
	return s.releaseErr
}

func newTestDirectory() *fakeDirectory {
	return &fakeDirectory{tenants: map[string]*model.Tenant{
		"acme":  {ID: 1, Subdomain: "acme", SchemaName: "tenant_acme", Active: true},
		"globex": {ID: 2, Subdomain: "globex", SchemaName: "tenant_globex", Active: true},
	}}
}

func doRequest(t *testing.T, m *TenantMiddleware, host, header, path string, handler echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Host = host
	if header != "" {
		req.Header.Set(tenancy.SubdomainHeader, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := m.Handler(handler)(c)
	if err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestTenantMiddlewareSkipsTenantIndependentRoutes(t *testing.T) {
	opened := 0
	m := NewTenantMiddleware(newTestDirectory(), func(schema string) (TenantSession, error) {
		opened++
		return &fakeSession{schema: schema}, nil
	})

	for _, path := range []string{"/", "/health", "/metrics", "/api/tenants", "/api/tenants/1"} {
		rec := doRequest(t, m, "localhost:5000", "", path, func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		assert.Equal(t, http.StatusOK, rec.Code, "path %s", path)
	}
	assert.Zero(t, opened, "tenant-independent routes must not open sessions")
}

func TestTenantMiddlewareRejectsUnresolvedTenant(t *testing.T) {
	m := NewTenantMiddleware(newTestDirectory(), func(schema string) (TenantSession, error) {
		t.Fatal("session must not be opened without a resolved tenant")
		return nil, nil
	})

	rec := doRequest(t, m, "localhost:5000", "", "/api/projects", func(c echo.Context) error {
		t.Fatal("handler must not run")
		return nil
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTenantMiddlewareRejectsUnknownTenant(t *testing.T) {
	m := NewTenantMiddleware(newTestDirectory(), func(schema string) (TenantSession, error) {
		t.Fatal("session must not be opened for an unknown tenant")
		return nil, nil
	})

	rec := doRequest(t, m, "unknown.example.com", "", "/api/projects", func(c echo.Context) error {
		t.Fatal("handler must not run")
		return nil
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTenantMiddlewareLookupFailure(t *testing.T) {
	dir := newTestDirectory()
	dir.err = errors.New("registry unavailable")
	m := NewTenantMiddleware(dir, func(schema string) (TenantSession, error) {
		return &fakeSession{schema: schema}, nil
	})

	rec := doRequest(t, m, "acme.example.com", "", "/api/projects", func(c echo.Context) error {
		t.Fatal("handler must not run")
		return nil
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestTenantMiddlewareActivationFailure(t *testing.T) {
	m := NewTenantMiddleware(newTestDirectory(), func(schema string) (TenantSession, error) {
		return nil, errors.New("connection refused")
	})

	rec := doRequest(t, m, "acme.example.com", "", "/api/projects", func(c echo.Context) error {
		t.Fatal("handler must not run when activation fails")
		return nil
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestTenantMiddlewareRejectsMissingSchema(t *testing.T) {
	// A registered tenant whose physical schema was dropped out-of-band must
	// fail activation with a server error; the handler must never run against
	// the default namespace.
	m := NewTenantMiddleware(newTestDirectory(), func(schema string) (TenantSession, error) {
		return nil, fmt.Errorf("%w: %s", tenancy.ErrSchemaMissing, schema)
	})

	rec := doRequest(t, m, "acme.example.com", "", "/api/projects", func(c echo.Context) error {
		t.Fatal("handler must not run when the schema is missing")
		return nil
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestTenantMiddlewareResolvesAndReleases(t *testing.T) {
	var session *fakeSession
	m := NewTenantMiddleware(newTestDirectory(), func(schema string) (TenantSession, error) {
		session = &fakeSession{schema: schema}
		return session, nil
	})

	var seen *model.Tenant
	rec := doRequest(t, m, "acme.example.com", "", "/api/projects", func(c echo.Context) error {
		tenant, ok := TenantFromContext(c)
		require.True(t, ok)
		seen = tenant
		return c.NoContent(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "acme", seen.Subdomain)
	require.NotNil(t, session)
	assert.Equal(t, "tenant_acme", session.schema)
	assert.True(t, session.released, "session must be released after the handler")
	assert.NoError(t, session.sawErr)
}

func TestTenantMiddlewareHeaderOverride(t *testing.T) {
	var session *fakeSession
	m := NewTenantMiddleware(newTestDirectory(), func(schema string) (TenantSession, error) {
		session = &fakeSession{schema: schema}
		return session, nil
	})

	rec := doRequest(t, m, "localhost:5000", "globex", "/api/projects", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, session)
	assert.Equal(t, "tenant_globex", session.schema)
}

func TestTenantMiddlewareReleasesOnHandlerError(t *testing.T) {
	var session *fakeSession
	m := NewTenantMiddleware(newTestDirectory(), func(schema string) (TenantSession, error) {
		session = &fakeSession{schema: schema}
		return session, nil
	})

	boom := errors.New("handler failed")
	doRequest(t, m, "acme.example.com", "", "/api/projects", func(c echo.Context) error {
		return boom
	})

	require.NotNil(t, session)
	assert.True(t, session.released, "session must be released on handler error")
	assert.ErrorIs(t, session.sawErr, boom, "release must see the handler error to roll back")
}

func TestTenantMiddlewareReleasesOnPanic(t *testing.T) {
	var session *fakeSession
	m := NewTenantMiddleware(newTestDirectory(), func(schema string) (TenantSession, error) {
		session = &fakeSession{schema: schema}
		return session, nil
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Host = "acme.example.com"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	assert.Panics(t, func() {
		_ = m.Handler(func(c echo.Context) error {
			panic("handler exploded")
		})(c)
	})

	require.NotNil(t, session)
	assert.True(t, session.released, "session must be released even on panic")
	assert.Error(t, session.sawErr, "a panicking request must not commit")
}

func TestTenantMiddlewareConcurrentIsolation(t *testing.T) {
	var mu sync.Mutex
	schemas := map[string]int{}

	m := NewTenantMiddleware(newTestDirectory(), func(schema string) (TenantSession, error) {
		mu.Lock()
		schemas[schema]++
		mu.Unlock()
		return &fakeSession{schema: schema}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		sub := "acme"
		if i%2 == 1 {
			sub = "globex"
		}
		wg.Add(1)
		go func(sub string) {
			defer wg.Done()
			rec := doRequest(t, m, sub+".example.com", "", "/api/projects", func(c echo.Context) error {
				tenant, ok := TenantFromContext(c)
				if !ok || tenant.Subdomain != sub {
					return errors.New("wrong tenant bound to request")
				}
				return c.NoContent(http.StatusOK)
			})
			assert.Equal(t, http.StatusOK, rec.Code)
		}(sub)
	}
	wg.Wait()

	assert.Equal(t, 25, schemas["tenant_acme"])
	assert.Equal(t, 25, schemas["tenant_globex"])
}
