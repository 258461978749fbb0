package controller

import (
	"ai-conversations-be/internal/dto"
	"ai-conversations-be/internal/entity"
	"ai-conversations-be/internal/pkg/serverutils"
	"ai-conversations-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IConversationController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	ListTranscriptVersions(ctx *fiber.Ctx) error
	ListMemoryVersions(ctx *fiber.Ctx) error
	ActivateVersion(ctx *fiber.Ctx) error
	DeleteVersion(ctx *fiber.Ctx) error
	ReprocessTranscript(ctx *fiber.Ctx) error
	ReprocessMemory(ctx *fiber.Ctx) error
	SearchMemories(ctx *fiber.Ctx) error
}

type conversationController struct {
	conversationService service.IConversationService
	versionService      service.IVersionService
	orchestrator        service.IOrchestratorService
}

func NewConversationController(
	conversationService service.IConversationService,
	versionService service.IVersionService,
	orchestrator service.IOrchestratorService,
) IConversationController {
	return &conversationController{
		conversationService: conversationService,
		versionService:      versionService,
		orchestrator:        orchestrator,
	}
}

func (c *conversationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/conversation/v1")
	h.Get("memory-search", c.SearchMemories)
	h.Get("", c.List)
	h.Get(":id", c.Show)
	h.Get(":id/versions/:kind", c.ListVersionsByKind)
	h.Post(":id/versions/:kind/activate", c.ActivateVersion)
	h.Delete(":id/versions/:kind/:versionId", c.DeleteVersion)
	h.Post(":id/reprocess/transcript", c.ReprocessTranscript)
	h.Post(":id/reprocess/memory", c.ReprocessMemory)
}

func parseId(ctx *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(param))
	if err != nil {
		return uuid.Nil, serverutils.BadRequest(param + " must be a valid uuid")
	}
	return id, nil
}

func parseKind(ctx *fiber.Ctx) (entity.VersionKind, error) {
	kind := entity.VersionKind(ctx.Params("kind"))
	if kind != entity.KindTranscript && kind != entity.KindMemory {
		return "", serverutils.BadRequest("version kind must be transcript or memory")
	}
	return kind, nil
}

func (c *conversationController) List(ctx *fiber.Ctx) error {
	var req dto.ListConversationsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return err
	}
	// default only when the parameter is absent; an explicit limit=0 must
	// reach the service and be rejected there
	if ctx.Query("limit") == "" {
		req.Limit = 20
	}

	res, err := c.conversationService.List(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list conversations", res))
}

func (c *conversationController) Show(ctx *fiber.Ctx) error {
	id, err := parseId(ctx, "id")
	if err != nil {
		return err
	}
	withSegments := ctx.QueryBool("include_segments", true)

	res, err := c.conversationService.Show(ctx.Context(), id, withSegments)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show conversation", res))
}

func (c *conversationController) ListVersionsByKind(ctx *fiber.Ctx) error {
	kind, err := parseKind(ctx)
	if err != nil {
		return err
	}
	if kind == entity.KindTranscript {
		return c.ListTranscriptVersions(ctx)
	}
	return c.ListMemoryVersions(ctx)
}

func (c *conversationController) ListTranscriptVersions(ctx *fiber.Ctx) error {
	id, err := parseId(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.conversationService.ListTranscriptVersions(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list transcript versions", res))
}

func (c *conversationController) ListMemoryVersions(ctx *fiber.Ctx) error {
	id, err := parseId(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.conversationService.ListMemoryVersions(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list memory versions", res))
}

func (c *conversationController) ActivateVersion(ctx *fiber.Ctx) error {
	id, err := parseId(ctx, "id")
	if err != nil {
		return err
	}
	kind, err := parseKind(ctx)
	if err != nil {
		return err
	}

	var req dto.ActivateVersionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.versionService.Activate(ctx.Context(), id, kind, req.VersionId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success activate version", req.VersionId))
}

func (c *conversationController) DeleteVersion(ctx *fiber.Ctx) error {
	id, err := parseId(ctx, "id")
	if err != nil {
		return err
	}
	kind, err := parseKind(ctx)
	if err != nil {
		return err
	}
	versionId, err := parseId(ctx, "versionId")
	if err != nil {
		return err
	}

	if err := c.versionService.DeleteVersion(ctx.Context(), id, kind, versionId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete version", versionId))
}

func (c *conversationController) ReprocessTranscript(ctx *fiber.Ctx) error {
	id, err := parseId(ctx, "id")
	if err != nil {
		return err
	}

	jobId, err := c.orchestrator.ReprocessTranscript(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Success enqueue transcript reprocess", dto.ReprocessResponse{JobId: jobId}))
}

func (c *conversationController) ReprocessMemory(ctx *fiber.Ctx) error {
	id, err := parseId(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.ReprocessMemoryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	jobId, err := c.orchestrator.ReprocessMemory(ctx.Context(), id, req.TranscriptVersionId)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Success enqueue memory reprocess", dto.ReprocessResponse{JobId: jobId}))
}

func (c *conversationController) SearchMemories(ctx *fiber.Ctx) error {
	var req dto.MemorySearchRequest
	if err := ctx.QueryParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.conversationService.SearchMemories(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success search memories", res))
}
