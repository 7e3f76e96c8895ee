package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invopop/jsonschema"

	"cemas.ai/backend/internal/http/dto"
)

// SchemaHandler serves the JSON Schemas of the request bodies the API accepts.
type SchemaHandler struct {
	schemas map[string]*jsonschema.Schema
}

func NewSchemaHandler() *SchemaHandler {
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		AllowAdditionalProperties: false,
	}
	return &SchemaHandler{
		schemas: map[string]*jsonschema.Schema{
			"create_user":         r.Reflect(&dto.CreateUserRequest{}),
			"create_conversation": r.Reflect(&dto.CreateConversationRequest{}),
			"update_conversation": r.Reflect(&dto.UpdateConversationRequest{}),
			"create_message":      r.Reflect(&dto.CreateMessageRequest{}),
		},
	}
}

func (h *SchemaHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.schemas)
}

func (h *SchemaHandler) Get(c *gin.Context) {
	schema, ok := h.schemas[c.Param("name")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "schema not found"})
		return
	}
	c.JSON(http.StatusOK, schema)
}
