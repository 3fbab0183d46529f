package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"pathwise.app/audit/internal/http/middleware"
	"pathwise.app/audit/internal/model"
	"pathwise.app/audit/internal/service"
)

type stubAuthService struct {
	validateSessionFn func(ctx context.Context, sessionID int64) (*model.User, error)
}

func (s *stubAuthService) GetAuthorizationURL(_ string) (string, error) {
	return "", nil
}

func (s *stubAuthService) HandleCallback(_ context.Context, _ string) (*model.User, *model.Session, error) {
	return nil, nil, nil
}

func (s *stubAuthService) ValidateSession(ctx context.Context, sessionID int64) (*model.User, error) {
	if s.validateSessionFn != nil {
		return s.validateSessionFn(ctx, sessionID)
	}
	return nil, nil
}

func (s *stubAuthService) Logout(_ context.Context, _ int64) error {
	return nil
}

var _ = Describe("RequireAuth", func() {
	var (
		router *gin.Engine
		auth   *stubAuthService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		auth = &stubAuthService{}

		router.GET("/protected", middleware.RequireAuth(auth), func(c *gin.Context) {
			user := middleware.GetUser(c.Request.Context())
			c.JSON(http.StatusOK, gin.H{
				"user_id":    user.ID,
				"session_id": middleware.GetSessionID(c.Request.Context()),
			})
		})
	})

	It("loads the session's user into the request context", func() {
		auth.validateSessionFn = func(_ context.Context, sessionID int64) (*model.User, error) {
			Expect(sessionID).To(Equal(int64(901)))
			return &model.User{ID: 42, Name: "Ada"}, nil
		}

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.AddCookie(&http.Cookie{Name: "pathwise_session", Value: "901"})
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"user_id":42`))
		Expect(w.Body.String()).To(ContainSubstring(`"session_id":901`))
	})

	It("rejects a request without a session cookie", func() {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("rejects a cookie that is not a session id", func() {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.AddCookie(&http.Cookie{Name: "pathwise_session", Value: "garbage"})
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("clears the cookie when the session has expired", func() {
		auth.validateSessionFn = func(_ context.Context, _ int64) (*model.User, error) {
			return nil, service.ErrSessionExpired
		}

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.AddCookie(&http.Cookie{Name: "pathwise_session", Value: "901"})
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))

		var sessionCookie *http.Cookie
		for _, c := range w.Result().Cookies() {
			if c.Name == "pathwise_session" {
				sessionCookie = c
			}
		}
		Expect(sessionCookie).NotTo(BeNil())
		Expect(sessionCookie.MaxAge).To(BeNumerically("<", 0))
	})

	It("fails closed when validation errors", func() {
		auth.validateSessionFn = func(_ context.Context, _ int64) (*model.User, error) {
			return nil, errors.New("database down")
		}

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.AddCookie(&http.Cookie{Name: "pathwise_session", Value: "901"})
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
	})
})
