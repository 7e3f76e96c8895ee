package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"

	"cemas.ai/backend/common/logger"
	"cemas.ai/backend/common/metrics"
	"cemas.ai/backend/internal/http/middleware"
	"cemas.ai/backend/internal/model"
	"cemas.ai/backend/internal/service"
)

type mockAuthService struct {
	validateSessionFn func(ctx context.Context, sessionID int64) (*model.User, error)
}

func (m *mockAuthService) GetAuthorizationURL(string) (string, error) { return "", nil }

func (m *mockAuthService) HandleCallback(context.Context, string) (*model.User, *model.Session, error) {
	return nil, nil, nil
}

func (m *mockAuthService) ValidateSession(ctx context.Context, sessionID int64) (*model.User, error) {
	if m.validateSessionFn != nil {
		return m.validateSessionFn(ctx, sessionID)
	}
	return nil, service.ErrSessionExpired
}

func (m *mockAuthService) Logout(context.Context, int64) error { return nil }

func (m *mockAuthService) PurgeExpiredSessions(context.Context) error { return nil }

var _ = Describe("RequireSession", func() {
	var (
		router *gin.Engine
		auth   *mockAuthService
	)

	BeforeEach(func() {
		auth = &mockAuthService{}
		router = gin.New()
		router.GET("/me", middleware.RequireSession(auth, false), func(c *gin.Context) {
			ctx := c.Request.Context()
			user := middleware.GetUser(ctx)
			fields := logger.GetLogFields(ctx)
			c.JSON(http.StatusOK, gin.H{
				"user_id":    user.ID,
				"session_id": middleware.GetSessionID(ctx),
				"log_user":   *fields.UserID,
			})
		})
	})

	It("accepts the session cookie", func() {
		auth.validateSessionFn = func(_ context.Context, sessionID int64) (*model.User, error) {
			Expect(sessionID).To(Equal(int64(77)))
			return &model.User{ID: 5}, nil
		}

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "77"})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"user_id":5,"session_id":77,"log_user":5}`))
	})

	It("falls back to the session header", func() {
		auth.validateSessionFn = func(_ context.Context, sessionID int64) (*model.User, error) {
			Expect(sessionID).To(Equal(int64(78)))
			return &model.User{ID: 6}, nil
		}

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(middleware.SessionIDHeader, "78")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("rejects requests without a session", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("rejects a malformed session id", func() {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(middleware.SessionIDHeader, "abc")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("clears the cookie of an expired session", func() {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "77"})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(w.Header().Get("Set-Cookie")).To(ContainSubstring(middleware.SessionCookieName + "="))
	})

	It("returns 500 when the session cannot be checked", func() {
		auth.validateSessionFn = func(context.Context, int64) (*model.User, error) {
			return nil, errors.New("db down")
		}

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(middleware.SessionIDHeader, "77")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
	})
})

var _ = Describe("RequireAdminAPIKey", func() {
	newRouter := func(key string) *gin.Engine {
		r := gin.New()
		r.GET("/admin", middleware.RequireAdminAPIKey(key), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		return r
	}

	DescribeTable("checks the key",
		func(configured, header, value string, want int) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if header != "" {
				req.Header.Set(header, value)
			}
			w := httptest.NewRecorder()
			newRouter(configured).ServeHTTP(w, req)
			Expect(w.Code).To(Equal(want))
		},
		Entry("admin header", "secret", middleware.AdminAPIKeyHeader, "secret", http.StatusOK),
		Entry("bearer token", "secret", "Authorization", "Bearer secret", http.StatusOK),
		Entry("wrong key", "secret", middleware.AdminAPIKeyHeader, "nope", http.StatusUnauthorized),
		Entry("missing key", "secret", "", "", http.StatusUnauthorized),
		Entry("not configured", "", middleware.AdminAPIKeyHeader, "", http.StatusServiceUnavailable),
	)
})

var _ = Describe("Recovery", func() {
	It("turns a panic into a 500", func() {
		r := gin.New()
		r.Use(middleware.Recovery())
		r.GET("/boom", func(*gin.Context) { panic("boom") })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(w.Body.String()).To(MatchJSON(`{"error":"internal server error"}`))
	})
})

func requestCount(reg *prometheus.Registry, route, status string) float64 {
	families, err := reg.Gather()
	Expect(err).NotTo(HaveOccurred())

	for _, mf := range families {
		if mf.GetName() != "cemas_http_requests_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["route"] == route && labels["status"] == status {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

var _ = Describe("Logger", func() {
	It("records requests under the route template", func() {
		reg := prometheus.NewRegistry()
		m := metrics.New(reg)

		r := gin.New()
		r.Use(middleware.Logger(m))
		r.GET("/conversations/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

		for _, path := range []string{"/conversations/1", "/conversations/2", "/missing"} {
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
		}

		Expect(requestCount(reg, "/conversations/:id", "204")).To(Equal(2.0))
		Expect(requestCount(reg, "unmatched", "404")).To(Equal(1.0))
	})

	It("works without metrics", func() {
		r := gin.New()
		r.Use(middleware.Logger(nil))
		r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
	})
})
