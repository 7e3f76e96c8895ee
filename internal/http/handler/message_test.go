package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"cemas.ai/backend/common/llm"
	"cemas.ai/backend/common/retry"
	"cemas.ai/backend/internal/assistant"
	"cemas.ai/backend/internal/http/handler"
	"cemas.ai/backend/internal/model"
	"cemas.ai/backend/internal/service"
)

var _ = Describe("MessageHandler", func() {
	var (
		router  *gin.Engine
		svc     *mockChatService
		userMsg *model.Message
	)

	BeforeEach(func() {
		router = gin.New()
		svc = &mockChatService{}
		h := handler.NewMessageHandler(svc)

		g := router.Group("/conversations/:id", authenticatedAs(&model.User{ID: ownerID}))
		g.POST("/messages", h.Send)
		g.GET("/messages", h.List)
		g.POST("/insights", h.Insights)

		userMsg = &model.Message{
			ID:             100,
			ConversationID: 10,
			Role:           model.RoleUser,
			Content:        "I can't sleep",
			CreatedAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		}
	})

	Describe("Send", func() {
		It("returns the stored message and the generated reply", func() {
			svc.sendMessageFn = func(_ context.Context, userID, convID int64, role model.Role, content string) (*assistant.Turn, error) {
				Expect(userID).To(Equal(ownerID))
				Expect(convID).To(Equal(int64(10)))
				Expect(role).To(Equal(model.RoleUser))
				Expect(content).To(Equal("I can't sleep"))
				reply := &model.Message{ID: 101, ConversationID: 10, Role: model.RoleAssistant, Content: "That sounds hard."}
				return &assistant.Turn{UserMessage: userMsg, Reply: reply}, nil
			}

			w := doJSON(router, http.MethodPost, "/conversations/10/messages", `{"role":"user","content":"I can't sleep"}`)

			Expect(w.Code).To(Equal(http.StatusCreated))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["reply_status"]).To(Equal("generated"))
			Expect(resp["message"]).To(HaveKeyWithValue("id", "100"))
			Expect(resp["reply"]).To(HaveKeyWithValue("content", "That sounds hard."))
			Expect(resp).NotTo(HaveKey("reply_error"))
		})

		It("keeps the user message when the reply fails", func() {
			svc.sendMessageFn = func(context.Context, int64, int64, model.Role, string) (*assistant.Turn, error) {
				failure := &llm.Failure{Kind: llm.ProviderUnavailable, StatusCode: 503, Err: errors.New("down")}
				return &assistant.Turn{
					UserMessage: userMsg,
					ReplyErr:    &retry.ExhaustedError{Attempts: 3, Err: failure},
				}, nil
			}

			w := doJSON(router, http.MethodPost, "/conversations/10/messages", `{"role":"user","content":"I can't sleep"}`)

			Expect(w.Code).To(Equal(http.StatusCreated))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["reply_status"]).To(Equal("failed"))
			Expect(resp["reply"]).To(BeNil())
			Expect(resp["reply_error"]).To(ContainSubstring("temporarily unavailable"))
			Expect(resp["message"]).To(HaveKeyWithValue("content", "I can't sleep"))
		})

		It("reports skipped for assistant-role messages", func() {
			svc.sendMessageFn = func(_ context.Context, _, _ int64, role model.Role, _ string) (*assistant.Turn, error) {
				msg := *userMsg
				msg.Role = role
				return &assistant.Turn{UserMessage: &msg}, nil
			}

			w := doJSON(router, http.MethodPost, "/conversations/10/messages", `{"role":"assistant","content":"note"}`)

			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(w.Body.String()).To(ContainSubstring(`"reply_status":"skipped"`))
		})

		DescribeTable("rejects invalid bodies before the core runs",
			func(body string) {
				svc.sendMessageFn = func(context.Context, int64, int64, model.Role, string) (*assistant.Turn, error) {
					Fail("service should not be called")
					return nil, nil
				}
				w := doJSON(router, http.MethodPost, "/conversations/10/messages", body)
				Expect(w.Code).To(Equal(http.StatusBadRequest))
			},
			Entry("unknown role", `{"role":"system","content":"hi"}`),
			Entry("missing role", `{"content":"hi"}`),
			Entry("empty content", `{"role":"user","content":""}`),
			Entry("whitespace content", `{"role":"user","content":" \n\t "}`),
			Entry("malformed JSON", `{"role":`),
		)

		It("returns 404 for a conversation the caller does not own", func() {
			svc.sendMessageFn = func(context.Context, int64, int64, model.Role, string) (*assistant.Turn, error) {
				return nil, service.ErrConversationNotFound
			}

			w := doJSON(router, http.MethodPost, "/conversations/10/messages", `{"role":"user","content":"hi"}`)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 500 when the user message cannot be stored", func() {
			svc.sendMessageFn = func(context.Context, int64, int64, model.Role, string) (*assistant.Turn, error) {
				return nil, errors.New("storing user message: db down")
			}

			w := doJSON(router, http.MethodPost, "/conversations/10/messages", `{"role":"user","content":"hi"}`)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(w.Body.String()).NotTo(ContainSubstring(`"message"`))
		})

		It("returns the stored user message with a 500 when the reply cannot be stored", func() {
			svc.sendMessageFn = func(context.Context, int64, int64, model.Role, string) (*assistant.Turn, error) {
				return &assistant.Turn{UserMessage: userMsg}, errors.New("storing assistant reply: db down")
			}

			w := doJSON(router, http.MethodPost, "/conversations/10/messages", `{"role":"user","content":"I can't sleep"}`)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["message"]).To(HaveKeyWithValue("id", "100"))
		})
	})

	Describe("List", func() {
		It("returns messages in stored order", func() {
			svc.listMessagesFn = func(context.Context, int64, int64) ([]model.Message, error) {
				return []model.Message{*userMsg, {ID: 101, ConversationID: 10, Role: model.RoleAssistant, Content: "ok"}}, nil
			}

			w := doJSON(router, http.MethodGet, "/conversations/10/messages", "")

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp []map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp).To(HaveLen(2))
			Expect(resp[0]["id"]).To(Equal("100"))
			Expect(resp[1]["id"]).To(Equal("101"))
		})

		It("returns 404 for a foreign conversation", func() {
			svc.listMessagesFn = func(context.Context, int64, int64) ([]model.Message, error) {
				return nil, service.ErrConversationNotFound
			}

			w := doJSON(router, http.MethodGet, "/conversations/10/messages", "")

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("Insights", func() {
		It("returns the synthesized text", func() {
			svc.insightsFn = func(context.Context, int64, int64) (string, error) {
				return "Sleep is a recurring theme.", nil
			}

			w := doJSON(router, http.MethodPost, "/conversations/10/insights", "")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`{"insights":"Sleep is a recurring theme."}`))
		})

		DescribeTable("maps provider failures to 503",
			func(err error) {
				svc.insightsFn = func(context.Context, int64, int64) (string, error) {
					return "", fmt.Errorf("synthesizing insights: %w", err)
				}

				w := doJSON(router, http.MethodPost, "/conversations/10/insights", "")

				Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
				Expect(w.Body.String()).To(ContainSubstring(`"error"`))
			},
			Entry("retries exhausted", &retry.ExhaustedError{Attempts: 3, Err: &llm.Failure{Kind: llm.ProviderTimeout}}),
			Entry("malformed response", &llm.Failure{Kind: llm.MalformedResponse}),
		)

		It("returns 404 for a foreign conversation", func() {
			svc.insightsFn = func(context.Context, int64, int64) (string, error) {
				return "", service.ErrConversationNotFound
			}

			w := doJSON(router, http.MethodPost, "/conversations/10/insights", "")

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 500 for unexpected errors", func() {
			svc.insightsFn = func(context.Context, int64, int64) (string, error) {
				return "", errors.New("listing messages: db down")
			}

			w := doJSON(router, http.MethodPost, "/conversations/10/insights", "")

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})
	})
})
