package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"cemas.ai/backend/internal/http/handler"
	"cemas.ai/backend/internal/model"
	"cemas.ai/backend/internal/service"
)

const ownerID int64 = 5

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

var _ = Describe("ConversationHandler", func() {
	var (
		router *gin.Engine
		svc    *mockConversationService
		now    time.Time
	)

	BeforeEach(func() {
		now = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		router = gin.New()
		svc = &mockConversationService{}
		h := handler.NewConversationHandler(svc)

		g := router.Group("/conversations", authenticatedAs(&model.User{ID: ownerID}))
		g.POST("", h.Create)
		g.GET("", h.List)
		g.GET("/:id", h.Get)
		g.PUT("/:id", h.Update)
		g.DELETE("/:id", h.Delete)
	})

	Describe("Create", func() {
		It("creates a conversation for the caller", func() {
			svc.createFn = func(_ context.Context, userID int64, title string) (*model.Conversation, error) {
				Expect(userID).To(Equal(ownerID))
				return &model.Conversation{ID: 10, UserID: userID, Title: title, CreatedAt: now}, nil
			}

			w := doJSON(router, http.MethodPost, "/conversations", `{"title":"Sleep"}`)

			Expect(w.Code).To(Equal(http.StatusCreated))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["id"]).To(Equal("10"))
			Expect(resp["user_id"]).To(Equal("5"))
			Expect(resp["title"]).To(Equal("Sleep"))
		})

		DescribeTable("rejects invalid titles",
			func(body string) {
				svc.createFn = func(context.Context, int64, string) (*model.Conversation, error) {
					Fail("service should not be called")
					return nil, nil
				}
				w := doJSON(router, http.MethodPost, "/conversations", body)
				Expect(w.Code).To(Equal(http.StatusBadRequest))
			},
			Entry("missing", `{}`),
			Entry("blank", `{"title":"  "}`),
			Entry("malformed JSON", `{"title":`),
		)

		It("returns 500 when the service fails", func() {
			svc.createFn = func(context.Context, int64, string) (*model.Conversation, error) {
				return nil, errors.New("boom")
			}

			w := doJSON(router, http.MethodPost, "/conversations", `{"title":"Sleep"}`)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("List", func() {
		It("returns the caller's conversations", func() {
			svc.listFn = func(_ context.Context, userID int64) ([]model.Conversation, error) {
				Expect(userID).To(Equal(ownerID))
				return []model.Conversation{{ID: 2, UserID: userID}, {ID: 1, UserID: userID}}, nil
			}

			w := doJSON(router, http.MethodGet, "/conversations", "")

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp []map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp).To(HaveLen(2))
			Expect(resp[0]["id"]).To(Equal("2"))
		})
	})

	Describe("Get", func() {
		It("embeds the ordered messages", func() {
			svc.getFn = func(_ context.Context, userID, convID int64) (*service.ConversationDetail, error) {
				Expect(convID).To(Equal(int64(10)))
				return &service.ConversationDetail{
					Conversation: &model.Conversation{ID: 10, UserID: userID, Title: "Sleep"},
					Messages: []model.Message{
						{ID: 100, ConversationID: 10, Role: model.RoleUser, Content: "hi", CreatedAt: now},
						{ID: 101, ConversationID: 10, Role: model.RoleAssistant, Content: "hello", CreatedAt: now.Add(time.Second)},
					},
				}, nil
			}

			w := doJSON(router, http.MethodGet, "/conversations/10", "")

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp struct {
				Messages []struct {
					ID   string `json:"id"`
					Role string `json:"role"`
				} `json:"messages"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Messages).To(HaveLen(2))
			Expect(resp.Messages[0].ID).To(Equal("100"))
			Expect(resp.Messages[1].Role).To(Equal("assistant"))
		})

		It("returns 404 for a conversation the caller does not own", func() {
			svc.getFn = func(context.Context, int64, int64) (*service.ConversationDetail, error) {
				return nil, service.ErrConversationNotFound
			}

			w := doJSON(router, http.MethodGet, "/conversations/10", "")

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 400 for a malformed id", func() {
			w := doJSON(router, http.MethodGet, "/conversations/abc", "")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Update", func() {
		It("passes a nil title when the field is absent", func() {
			var got *string
			called := false
			svc.updateFn = func(_ context.Context, userID, convID int64, title *string) (*model.Conversation, error) {
				called = true
				got = title
				return &model.Conversation{ID: convID, UserID: userID, Title: "Unchanged"}, nil
			}

			w := doJSON(router, http.MethodPut, "/conversations/10", `{}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(called).To(BeTrue())
			Expect(got).To(BeNil())
		})

		It("renames the conversation", func() {
			svc.updateFn = func(_ context.Context, userID, convID int64, title *string) (*model.Conversation, error) {
				Expect(title).NotTo(BeNil())
				return &model.Conversation{ID: convID, UserID: userID, Title: *title, UpdatedAt: &now}, nil
			}

			w := doJSON(router, http.MethodPut, "/conversations/10", `{"title":"Anxiety"}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"title":"Anxiety"`))
		})

		It("rejects a blank title", func() {
			w := doJSON(router, http.MethodPut, "/conversations/10", `{"title":" "}`)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 404 for a foreign conversation", func() {
			w := doJSON(router, http.MethodPut, "/conversations/10", `{"title":"x"}`)
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("Delete", func() {
		It("returns 204", func() {
			w := doJSON(router, http.MethodDelete, "/conversations/10", "")
			Expect(w.Code).To(Equal(http.StatusNoContent))
		})

		It("returns 404 for a foreign conversation", func() {
			svc.deleteFn = func(context.Context, int64, int64) error { return service.ErrConversationNotFound }

			w := doJSON(router, http.MethodDelete, "/conversations/10", "")

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 500 on store failure", func() {
			svc.deleteFn = func(context.Context, int64, int64) error { return errors.New("boom") }

			w := doJSON(router, http.MethodDelete, "/conversations/10", "")

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})
	})

	It("returns 401 without a session user", func() {
		r := gin.New()
		r.GET("/conversations", handler.NewConversationHandler(svc).List)

		w := doJSON(r, http.MethodGet, "/conversations", "")

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})
})
