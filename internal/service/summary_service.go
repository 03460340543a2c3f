package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"video-summary-be/internal/dto"
	"video-summary-be/internal/entity"
	"video-summary-be/internal/pkg/logger"
	"video-summary-be/internal/repository/contract"
	"video-summary-be/pkg/chunker"
	"video-summary-be/pkg/events"
	"video-summary-be/pkg/store"
	"video-summary-be/pkg/summarizer"
	"video-summary-be/pkg/transcript"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var ErrUnknownStrategy = errors.New("unknown summary strategy")

type ISummaryService interface {
	Summarize(ctx context.Context, requestId string, req *dto.SummarizeRequest) (*dto.SummarizeResponse, error)
	// PrepareStream loads and chunks the transcript up front so that those
	// failures still get a regular error response.
	PrepareStream(ctx context.Context, requestId string, req *dto.SummarizeRequest) (ISummaryStream, error)
}

type ISummaryStream interface {
	Emit(ctx context.Context, sink summarizer.Sink) error
}

type summaryService struct {
	source          transcript.TranscriptSource
	chunker         *chunker.Chunker
	summarizers     map[string]summarizer.Summarizer
	defaultStrategy string
	cache           contract.SummaryCacheRepository
	publisher       IPublisherService
	logger          logger.ILogger
	tracer          trace.Tracer
}

// NewSummaryService wires the pipeline. cache may be nil to disable caching.
func NewSummaryService(
	source transcript.TranscriptSource,
	chunker *chunker.Chunker,
	summarizers []summarizer.Summarizer,
	defaultStrategy string,
	cache contract.SummaryCacheRepository,
	publisher IPublisherService,
	logger logger.ILogger,
) ISummaryService {
	byName := make(map[string]summarizer.Summarizer, len(summarizers))
	for _, s := range summarizers {
		byName[s.Name()] = s
	}
	if publisher == nil {
		publisher = NewNoopPublisherService()
	}
	return &summaryService{
		source:          source,
		chunker:         chunker,
		summarizers:     byName,
		defaultStrategy: defaultStrategy,
		cache:           cache,
		publisher:       publisher,
		logger:          logger,
		tracer:          otel.Tracer("video-summary-be/service"),
	}
}

// job is everything one request needs once the transcript is in hand.
type job struct {
	requestId string
	videoUrl  string
	videoId   string
	cacheKey  string
	strategy  summarizer.Summarizer
	cached    *entity.Summary
	chunks    store.ChunkSet
	started   time.Time
	log       logger.ILogger
}

func (s *summaryService) Summarize(ctx context.Context, requestId string, req *dto.SummarizeRequest) (*dto.SummarizeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "SummaryService.Summarize")
	defer span.End()

	j, err := s.prepare(ctx, span, requestId, req)
	if err != nil {
		return nil, err
	}
	if j.cached != nil {
		s.announce(ctx, j, j.cached, false)
		return &dto.SummarizeResponse{Res: j.cached.Text, Omitted: j.cached.Omitted}, nil
	}

	res, err := j.strategy.Summarize(ctx, j.chunks)
	if err != nil {
		s.fail(span, j.log, "Summarization failed", err)
		return nil, err
	}

	summary := s.complete(ctx, j, res)
	span.SetAttributes(attribute.Int("summary.omitted", len(res.Omitted)))
	s.announce(ctx, j, summary, false)

	return &dto.SummarizeResponse{Res: res.Summary, Omitted: res.Omitted}, nil
}

func (s *summaryService) PrepareStream(ctx context.Context, requestId string, req *dto.SummarizeRequest) (ISummaryStream, error) {
	ctx, span := s.tracer.Start(ctx, "SummaryService.PrepareStream")
	defer span.End()

	j, err := s.prepare(ctx, span, requestId, req)
	if err != nil {
		return nil, err
	}
	return &summaryStream{svc: s, job: j}, nil
}

func (s *summaryService) prepare(ctx context.Context, span trace.Span, requestId string, req *dto.SummarizeRequest) (*job, error) {
	name := req.Strategy
	if name == "" {
		name = s.defaultStrategy
	}
	strategy, ok := s.summarizers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}

	videoId, err := transcript.ParseVideoID(req.VideoUrl)
	if err != nil {
		videoId = req.VideoUrl
	}

	j := &job{
		requestId: requestId,
		videoUrl:  req.VideoUrl,
		videoId:   videoId,
		cacheKey:  name + ":" + videoId,
		strategy:  strategy,
		started:   time.Now(),
		log: s.logger.With(map[string]interface{}{
			"request_id": requestId,
			"strategy":   name,
			"video_id":   videoId,
		}),
	}
	span.SetAttributes(
		attribute.String("summary.request_id", requestId),
		attribute.String("summary.strategy", name),
		attribute.String("summary.video_id", videoId),
	)

	if cached := s.lookup(ctx, j); cached != nil {
		span.SetAttributes(attribute.Bool("summary.cached", true))
		j.log.Info("SummaryService", "Serving cached summary", nil)
		j.cached = cached
		return j, nil
	}

	doc, err := s.source.Load(ctx, req.VideoUrl)
	if err != nil {
		s.fail(span, j.log, "Failed to load transcript", err)
		return nil, err
	}

	j.chunks = s.chunker.Split(doc)
	span.SetAttributes(attribute.Int("summary.chunks", len(j.chunks)))
	j.log.Info("SummaryService", "Transcript loaded", map[string]interface{}{
		"characters": len(doc.Text),
		"chunks":     len(j.chunks),
		"language":   doc.Metadata["language"],
	})
	return j, nil
}

func (s *summaryService) lookup(ctx context.Context, j *job) *entity.Summary {
	if s.cache == nil {
		return nil
	}
	cached, err := s.cache.Get(ctx, j.cacheKey)
	if err != nil {
		j.log.Warn("SummaryService", "Cache lookup failed", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return cached
}

// complete caches a finished result and returns its stored form.
func (s *summaryService) complete(ctx context.Context, j *job, res *summarizer.Result) *entity.Summary {
	summary := &entity.Summary{
		Id:         uuid.New(),
		VideoUrl:   j.videoUrl,
		VideoId:    j.videoId,
		Strategy:   res.Strategy,
		Text:       res.Summary,
		ChunkCount: res.Chunks,
		Omitted:    res.Omitted,
		CreatedAt:  time.Now(),
	}

	j.log.Info("SummaryService", "Summary completed", map[string]interface{}{
		"chunks":      res.Chunks,
		"omitted":     res.Omitted,
		"duration_ms": time.Since(j.started).Milliseconds(),
	})

	// Partial or empty results are not worth keeping
	if s.cache != nil && res.Summary != "" && len(res.Omitted) == 0 {
		if err := s.cache.Save(ctx, j.cacheKey, summary); err != nil {
			j.log.Warn("SummaryService", "Failed to cache summary", map[string]interface{}{"error": err.Error()})
		}
	}
	return summary
}

func (s *summaryService) announce(ctx context.Context, j *job, summary *entity.Summary, streamed bool) {
	evt := events.SummaryCompleted{
		RequestId:  j.requestId,
		SummaryId:  summary.Id.String(),
		VideoId:    j.videoId,
		VideoUrl:   j.videoUrl,
		Strategy:   summary.Strategy,
		ChunkCount: summary.ChunkCount,
		Omitted:    summary.Omitted,
		Cached:     j.cached != nil,
		Streamed:   streamed,
		DurationMs: time.Since(j.started).Milliseconds(),
		OccurredAt: time.Now(),
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		j.log.Warn("SummaryService", "Failed to publish summary event", map[string]interface{}{"error": err.Error()})
	}
}

func (s *summaryService) fail(span trace.Span, log logger.ILogger, message string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, message)
	log.Error("SummaryService", message, map[string]interface{}{"error": err})
}

type summaryStream struct {
	svc *summaryService
	job *job
}

// finalCapture remembers the final event on its way to the real sink.
type finalCapture struct {
	summarizer.Sink
	final *summarizer.StreamEvent
}

func (c *finalCapture) Write(ev summarizer.StreamEvent) error {
	if ev.IsFinal {
		final := ev
		c.final = &final
	}
	return c.Sink.Write(ev)
}

func (st *summaryStream) Emit(ctx context.Context, sink summarizer.Sink) error {
	s, j := st.svc, st.job
	ctx, span := s.tracer.Start(ctx, "SummaryService.Stream")
	defer span.End()

	if j.cached != nil {
		ev := summarizer.StreamEvent{TextFragment: j.cached.Text, IsFinal: true, Omitted: j.cached.Omitted}
		if err := sink.Write(ev); err != nil {
			return fmt.Errorf("%w: %w", summarizer.ErrConsumerGone, err)
		}
		s.announce(ctx, j, j.cached, true)
		return sink.Close()
	}

	capture := &finalCapture{Sink: sink}
	err := summarizer.Emit(ctx, j.strategy.Stream(ctx, j.chunks), capture)
	if errors.Is(err, summarizer.ErrConsumerGone) {
		span.SetAttributes(attribute.Bool("summary.disconnected", true))
		j.log.Info("SummaryService", "Stream consumer disconnected", map[string]interface{}{"error": err.Error()})
		return err
	}
	if err != nil {
		s.fail(span, j.log, "Streaming summarization failed", err)
		return err
	}
	if capture.final == nil {
		return nil
	}

	summary := s.complete(ctx, j, &summarizer.Result{
		Summary:  capture.final.TextFragment,
		Strategy: j.strategy.Name(),
		Chunks:   len(j.chunks),
		Omitted:  capture.final.Omitted,
	})
	s.announce(ctx, j, summary, true)
	return nil
}
