package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"github.com/ashebbar-dev/Ojas-EB/internal/config"
	"github.com/ashebbar-dev/Ojas-EB/internal/dto"
	"github.com/ashebbar-dev/Ojas-EB/internal/pkg/logger"
	"github.com/ashebbar-dev/Ojas-EB/internal/pkg/serverutils"
	"github.com/ashebbar-dev/Ojas-EB/internal/service"
	"github.com/ashebbar-dev/Ojas-EB/pkg/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type IChatController interface {
	RegisterRoutes(router fiber.Router)
	NewChat(ctx *fiber.Ctx) error
	Ask(ctx *fiber.Ctx) error
	AskStream(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
	cfg         *config.Config
	logger      logger.ILogger
}

func NewChatController(chatService service.IChatService, cfg *config.Config, log logger.ILogger) IChatController {
	return &chatController{
		chatService: chatService,
		cfg:         cfg,
		logger:      log,
	}
}

func (c *chatController) RegisterRoutes(router fiber.Router) {
	chat := router.Group("/chat")
	chat.Get("/new", c.NewChat)
	chat.Post("/ask", c.Ask)
	chat.Get("/ask_stream", c.AskStream)
	chat.Get("/history/:id", c.History)
}

func (c *chatController) NewChat(ctx *fiber.Ctx) error {
	chatID, err := c.chatService.NewChat(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).
		JSON(serverutils.SuccessResponse("Chat session created", dto.NewChatResponse{ChatID: chatID}))
}

func (c *chatController) Ask(ctx *fiber.Ctx) error {
	var req dto.AskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	resp, err := c.chatService.Ask(ctx.Context(), req.ChatID, req.Query)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Answer generated", resp))
}

// AskStream answers over server-sent events: status transitions first, then
// gated answer chunks, then a single finished status. Generation runs on its
// own goroutine with a detached context so a dropped connection does not
// cancel it mid-answer.
func (c *chatController) AskStream(ctx *fiber.Ctx) error {
	query := ctx.Query("query")
	if query == "" {
		return fiber.NewError(fiber.StatusBadRequest, "query parameter is required")
	}

	chatID := ctx.Query("chat_id")
	if chatID == "" {
		created, err := c.chatService.NewChat(ctx.Context())
		if err != nil {
			return err
		}
		chatID = created
	}

	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")
	ctx.Set("X-Chat-Id", chatID)

	relay := stream.NewRelay(c.cfg.Stream.AnswerMarker, c.cfg.Stream.PollTimeout, c.logger)

	go c.chatService.AskStream(context.Background(), chatID, query, relay)

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		err := relay.Run(func(event stream.Event) error {
			data, err := json.Marshal(event)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return err
			}
			return w.Flush()
		})
		if err != nil {
			c.logger.Info("ChatController", "Stream consumer detached", map[string]interface{}{
				"chat_id": chatID,
				"error":   err.Error(),
			})
		}
	}))
	return nil
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	chatID := ctx.Params("id")

	messages, err := c.chatService.History(ctx.Context(), chatID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse("Chat history retrieved", messages))
}
