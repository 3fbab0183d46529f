package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"pathwise.app/audit/internal/http/handler"
	"pathwise.app/audit/internal/http/middleware"
	"pathwise.app/audit/internal/model"
	"pathwise.app/audit/internal/service"
)

var _ = Describe("UserHandler", func() {
	var (
		router  *gin.Engine
		userSvc *mockUserService
		authSvc *mockAuthService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		userSvc = &mockUserService{}
		authSvc = &mockAuthService{}
		h := handler.NewUserHandler(userSvc, false)

		api := router.Group("/api/v1", middleware.RequireAuth(authSvc))
		api.GET("/users/me", h.Me)
		api.PATCH("/users/me", h.UpdateProfile)
		api.DELETE("/users/me", h.Delete)
	})

	Describe("Me", func() {
		It("returns the current profile", func() {
			userSvc.getFn = func(_ context.Context, userID int64) (*model.User, error) {
				Expect(userID).To(Equal(int64(42)))
				return &model.User{ID: 42, Name: "Ada", Email: "ada@example.com"}, nil
			}

			req := authedRequest(http.MethodGet, "/api/v1/users/me", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["id"]).To(Equal("42"))
			Expect(resp["email"]).To(Equal("ada@example.com"))
		})
	})

	Describe("UpdateProfile", func() {
		It("updates the name and avatar", func() {
			userSvc.updateProfileFn = func(_ context.Context, userID int64, name string, avatarURL *string) (*model.User, error) {
				Expect(name).To(Equal("Ada Lovelace"))
				Expect(avatarURL).NotTo(BeNil())
				Expect(*avatarURL).To(Equal("https://cdn.example.com/ada.png"))
				return &model.User{ID: userID, Name: name, Email: "ada@example.com", AvatarURL: avatarURL}, nil
			}

			body, _ := json.Marshal(map[string]string{
				"name":       "Ada Lovelace",
				"avatar_url": "https://cdn.example.com/ada.png",
			})
			req := authedRequest(http.MethodPatch, "/api/v1/users/me", bytes.NewBuffer(body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["name"]).To(Equal("Ada Lovelace"))
		})

		It("returns 400 when the service rejects the name", func() {
			userSvc.updateProfileFn = func(_ context.Context, _ int64, _ string, _ *string) (*model.User, error) {
				return nil, fmt.Errorf("%w: name is required", service.ErrInvalidInput)
			}

			body, _ := json.Marshal(map[string]string{"name": " "})
			req := authedRequest(http.MethodPatch, "/api/v1/users/me", bytes.NewBuffer(body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Delete", func() {
		It("removes the account and clears the session cookie", func() {
			var deleted int64
			userSvc.deleteFn = func(_ context.Context, userID int64) error {
				deleted = userID
				return nil
			}

			req := authedRequest(http.MethodDelete, "/api/v1/users/me", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNoContent))
			Expect(deleted).To(Equal(int64(42)))

			var sessionCookie *http.Cookie
			for _, c := range w.Result().Cookies() {
				if c.Name == "pathwise_session" {
					sessionCookie = c
				}
			}
			Expect(sessionCookie).NotTo(BeNil())
			Expect(sessionCookie.MaxAge).To(BeNumerically("<", 0))
		})
	})
})
