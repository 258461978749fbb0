package controller

import (
	"io"

	"ai-conversations-be/internal/pkg/logger"
	"ai-conversations-be/internal/pkg/serverutils"
	"ai-conversations-be/internal/service"
	ws "ai-conversations-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type IIngestController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	Close(ctx *fiber.Ctx) error
}

type ingestController struct {
	ingestService service.IIngestService
	log           logger.ILogger
}

func NewIngestController(ingestService service.IIngestService, log logger.ILogger) IIngestController {
	return &ingestController{
		ingestService: ingestService,
		log:           log,
	}
}

func (c *ingestController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/ingest/v1")
	h.Use(serverutils.OptionalJwtMiddleware)
	h.Post("upload", c.Upload)
	h.Post("close", c.Close)

	h.Use("stream", func(ctx *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(ctx) {
			return ctx.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	h.Get("stream", websocket.New(c.stream))
}

// resolveUserID prefers the authenticated identity; anonymous devices fall
// back to the self-declared value.
func resolveUserID(ctx *fiber.Ctx, declared string) string {
	if userID := serverutils.LocalUserID(ctx); userID != "" {
		return userID
	}
	return declared
}

func (c *ingestController) Upload(ctx *fiber.Ctx) error {
	deviceName := ctx.FormValue("device_name")
	userID := resolveUserID(ctx, ctx.FormValue("user_id"))

	file, err := ctx.FormFile("audio")
	if err != nil {
		return serverutils.BadRequest("audio file is required")
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return err
	}

	res, err := c.ingestService.Upload(ctx.Context(), deviceName, userID, data)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success upload audio", res))
}

// Close ends the currently open conversation for a device without breaking
// its stream connection.
func (c *ingestController) Close(ctx *fiber.Ctx) error {
	var req struct {
		DeviceName string `json:"device_name" validate:"required"`
		UserID     string `json:"user_id"`
	}
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	clientId := c.ingestService.ClientId(req.DeviceName, resolveUserID(ctx, req.UserID))
	c.ingestService.CloseConversation(clientId)
	return ctx.JSON(serverutils.SuccessResponse("Success close conversation", clientId))
}

func (c *ingestController) stream(conn *websocket.Conn) {
	deviceName := conn.Query("device_name")
	userID, _ := conn.Locals("user_id").(string)
	if userID == "" {
		userID = conn.Query("user_id")
	}
	if deviceName == "" {
		_ = conn.WriteMessage(websocket.TextMessage, []byte("device_name is required"))
		_ = conn.Close()
		return
	}

	clientId := c.ingestService.ClientId(deviceName, userID)
	ws.ServeStream(conn, clientId, c.ingestService, c.log)
}
