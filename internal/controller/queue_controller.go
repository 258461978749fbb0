package controller

import (
	"ai-conversations-be/internal/dto"
	"ai-conversations-be/internal/pkg/serverutils"
	"ai-conversations-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IQueueController interface {
	RegisterRoutes(r fiber.Router)
	ListJobs(ctx *fiber.Ctx) error
	ShowJob(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
	Flush(ctx *fiber.Ctx) error
}

type queueController struct {
	queueService service.IQueueService
}

func NewQueueController(queueService service.IQueueService) IQueueController {
	return &queueController{
		queueService: queueService,
	}
}

func (c *queueController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/queue/v1")
	h.Get("jobs", c.ListJobs)
	h.Get("jobs/:id", c.ShowJob)
	h.Get("stats", c.Stats)
	h.Get("health", c.Health)
	h.Post("flush", c.Flush)
}

func (c *queueController) ListJobs(ctx *fiber.Ctx) error {
	var req dto.ListJobsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return err
	}
	// default only when the parameter is absent; an explicit limit=0 must
	// reach the service and be rejected there
	if ctx.Query("limit") == "" {
		req.Limit = 20
	}

	res, err := c.queueService.ListJobs(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list jobs", res))
}

func (c *queueController) ShowJob(ctx *fiber.Ctx) error {
	id, err := parseId(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.queueService.GetJob(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show job", res))
}

func (c *queueController) Stats(ctx *fiber.Ctx) error {
	res, err := c.queueService.Stats(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success queue stats", res))
}

func (c *queueController) Health(ctx *fiber.Ctx) error {
	res, err := c.queueService.Health(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success queue health", res))
}

// Flush is the maintenance escape hatch for jobs stuck in processing after a
// crash. Operators call it once they know the owning workers are gone.
func (c *queueController) Flush(ctx *fiber.Ctx) error {
	res, err := c.queueService.FlushProcessing(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success flush processing jobs", res))
}
