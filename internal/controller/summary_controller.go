package controller

import (
	"bufio"
	"context"
	"encoding/json"

	"video-summary-be/internal/dto"
	"video-summary-be/internal/pkg/logger"
	"video-summary-be/internal/pkg/serverutils"
	"video-summary-be/internal/service"
	"video-summary-be/pkg/summarizer"

	"github.com/gofiber/fiber/v2"
)

const ndjsonContentType = "application/x-ndjson"

type ISummaryController interface {
	RegisterRoutes(r fiber.Router)
	Summarize(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
}

type summaryController struct {
	service service.ISummaryService
	logger  logger.ILogger
}

func NewSummaryController(service service.ISummaryService, logger logger.ILogger) ISummaryController {
	return &summaryController{service: service, logger: logger}
}

func (c *summaryController) RegisterRoutes(r fiber.Router) {
	r.Get("/healthz", c.Health)
	r.Get("/", c.Summarize)
	r.Post("/", c.Summarize)
}

func (c *summaryController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("OK", nil))
}

func (c *summaryController) Summarize(ctx *fiber.Ctx) error {
	var req dto.SummarizeRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query string")
	}
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	requestId := serverutils.RequestID(ctx)
	if req.Stream {
		return c.stream(ctx, requestId, &req)
	}

	res, err := c.service.Summarize(ctx.UserContext(), requestId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *summaryController) stream(ctx *fiber.Ctx, requestId string, req *dto.SummarizeRequest) error {
	st, err := c.service.PrepareStream(ctx.UserContext(), requestId, req)
	if err != nil {
		return err
	}

	// The writer runs after the handler returns; a failed flush is the
	// only disconnect signal from here on.
	streamCtx := context.WithoutCancel(ctx.UserContext())

	ctx.Set(fiber.HeaderContentType, ndjsonContentType)
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		if err := st.Emit(streamCtx, &ndjsonSink{w: w}); err != nil {
			c.logger.Debug("SummaryController", "Stream ended early", map[string]interface{}{
				"request_id": requestId,
				"error":      err.Error(),
			})
		}
	})
	return nil
}

// ndjsonSink writes one JSON object per line and flushes each one.
type ndjsonSink struct {
	w *bufio.Writer
}

func (s *ndjsonSink) Write(ev summarizer.StreamEvent) error {
	return s.line(ev)
}

func (s *ndjsonSink) WriteError(error) error {
	return s.line(dto.StreamErrorLine{Error: serverutils.GenericErrorMessage})
}

func (s *ndjsonSink) Close() error {
	return s.w.Flush()
}

func (s *ndjsonSink) line(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := s.w.Write(b); err != nil {
		return err
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return err
	}
	return s.w.Flush()
}
