package handlers

import (
	"spiceexport/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ChatRequest is one visitor message to the assistant.
type ChatRequest struct {
	Message string `json:"message" validate:"required,max=1000"`
}

// ChatHandler serves the scripted product assistant.
type ChatHandler struct {
	service  *services.ChatService
	validate *validator.Validate
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(service *services.ChatService) *ChatHandler {
	return &ChatHandler{service: service, validate: validator.New()}
}

// RegisterRoutes registers the chat route with the Fiber app.
func (h *ChatHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/chat", h.HandleChat)
}

// HandleChat answers one visitor message.
func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}
	return c.JSON(fiber.Map{"reply": h.service.Reply(req.Message)})
}
