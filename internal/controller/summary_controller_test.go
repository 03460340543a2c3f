package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"video-summary-be/internal/dto"
	"video-summary-be/internal/pkg/logger"
	"video-summary-be/internal/pkg/serverutils"
	"video-summary-be/internal/service"
	"video-summary-be/pkg/summarizer"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const videoUrl = "https://www.youtube.com/watch?v=qaPMdcCqtWk"

type fakeSummaryService struct {
	res    *dto.SummarizeResponse
	err    error
	events []summarizer.StreamEvent
	failAt int // index into events after which a stream error is reported, -1 never

	lastReq       *dto.SummarizeRequest
	lastRequestId string
}

func (f *fakeSummaryService) Summarize(_ context.Context, requestId string, req *dto.SummarizeRequest) (*dto.SummarizeResponse, error) {
	f.lastReq, f.lastRequestId = req, requestId
	return f.res, f.err
}

func (f *fakeSummaryService) PrepareStream(_ context.Context, requestId string, req *dto.SummarizeRequest) (service.ISummaryStream, error) {
	f.lastReq, f.lastRequestId = req, requestId
	if f.err != nil {
		return nil, f.err
	}
	return f, nil
}

func (f *fakeSummaryService) Emit(_ context.Context, sink summarizer.Sink) error {
	for i, ev := range f.events {
		if err := sink.Write(ev); err != nil {
			return err
		}
		if i == f.failAt {
			failure := errors.New("model exploded")
			_ = sink.WriteError(failure)
			_ = sink.Close()
			return failure
		}
	}
	return sink.Close()
}

func newApp(svc service.ISummaryService) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.RequestIDMiddleware())
	app.Use(serverutils.ErrorHandlerMiddleware(logger.NewNopLogger()))
	NewSummaryController(svc, logger.NewNopLogger()).RegisterRoutes(app)
	return app
}

func decode(t *testing.T, body string) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	return out
}

func do(t *testing.T, app *fiber.App, method, target, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var sb strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteByte('\n')
	}
	return resp.StatusCode, strings.TrimSuffix(sb.String(), "\n")
}

func TestSummarizeFromBody(t *testing.T) {
	svc := &fakeSummaryService{res: &dto.SummarizeResponse{Res: "- point one"}}

	status, body := do(t, newApp(svc), "POST", "/", `{"videoUrl":"`+videoUrl+`","strategy":"refine"}`)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, map[string]interface{}{"res": "- point one"}, decode(t, body))
	assert.Equal(t, videoUrl, svc.lastReq.VideoUrl)
	assert.Equal(t, "refine", svc.lastReq.Strategy)
	assert.NotEmpty(t, svc.lastRequestId)
}

func TestSummarizeFromQuery(t *testing.T) {
	svc := &fakeSummaryService{res: &dto.SummarizeResponse{Res: "- point", Omitted: []int{2}}}

	status, body := do(t, newApp(svc), "GET", "/?videoUrl="+videoUrl, "")

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, map[string]interface{}{"res": "- point", "omitted": []interface{}{float64(2)}}, decode(t, body))
}

func TestSummarizeBadRequests(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		body   string
	}{
		{"missing url", "POST", "/", `{}`},
		{"not a url", "GET", "/?videoUrl=banana", ""},
		{"unknown strategy", "POST", "/", `{"videoUrl":"` + videoUrl + `","strategy":"stuff"}`},
		{"broken json", "POST", "/", `{"videoUrl":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeSummaryService{}
			status, body := do(t, newApp(svc), tt.method, tt.target, tt.body)

			assert.Equal(t, fiber.StatusBadRequest, status)
			assert.Contains(t, decode(t, body), "error")
			assert.Nil(t, svc.lastReq)
		})
	}
}

func TestSummarizeHidesFailures(t *testing.T) {
	svc := &fakeSummaryService{err: errors.New("transcript source said no")}

	status, body := do(t, newApp(svc), "POST", "/", `{"videoUrl":"`+videoUrl+`"}`)

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, map[string]interface{}{"error": serverutils.GenericErrorMessage}, decode(t, body))
}

func TestSummarizeStream(t *testing.T) {
	svc := &fakeSummaryService{
		failAt: -1,
		events: []summarizer.StreamEvent{
			{TextFragment: "- one", Step: 0},
			{TextFragment: " two", Step: 1},
			{TextFragment: "- one two", IsFinal: true, Step: 1},
		},
	}

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"videoUrl":"`+videoUrl+`","stream":true}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := newApp(svc).Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, ndjsonContentType, resp.Header.Get(fiber.HeaderContentType))

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		lines = append(lines, decode(t, scanner.Text()))
	}
	require.Len(t, lines, 3)
	assert.Equal(t, map[string]interface{}{"text": "- one", "final": false, "step": float64(0)}, lines[0])
	assert.Equal(t, map[string]interface{}{"text": "- one two", "final": true, "step": float64(1)}, lines[2])
}

func TestSummarizeStreamErrorMarker(t *testing.T) {
	svc := &fakeSummaryService{
		failAt: 0,
		events: []summarizer.StreamEvent{{TextFragment: "- one"}},
	}

	status, body := do(t, newApp(svc), "GET", "/?stream=true&videoUrl="+videoUrl, "")

	assert.Equal(t, fiber.StatusOK, status)
	lines := strings.Split(body, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, map[string]interface{}{"error": serverutils.GenericErrorMessage}, decode(t, lines[1]))
}

func TestSummarizeStreamPrepareFailure(t *testing.T) {
	svc := &fakeSummaryService{err: errors.New("video unavailable")}

	status, body := do(t, newApp(svc), "GET", "/?stream=true&videoUrl="+videoUrl, "")

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, map[string]interface{}{"error": serverutils.GenericErrorMessage}, decode(t, body))
}

func TestHealth(t *testing.T) {
	status, body := do(t, newApp(&fakeSummaryService{}), "GET", "/healthz", "")

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, decode(t, body)["success"])
}
