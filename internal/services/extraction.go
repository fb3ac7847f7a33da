package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ridgelinevc/portfolio-backend/internal/cache"
	"github.com/ridgelinevc/portfolio-backend/internal/dto"
	"github.com/ridgelinevc/portfolio-backend/internal/errs"
	"github.com/ridgelinevc/portfolio-backend/internal/metrics"
	"github.com/ridgelinevc/portfolio-backend/internal/models"
	"github.com/ridgelinevc/portfolio-backend/pkg/helpers"
	"github.com/ridgelinevc/portfolio-backend/pkg/logger"
)

const recordMetricTool = "record_metric"

// extractionVertex is the function-calling slice of the Vertex adapter.
type extractionVertex interface {
	GenerateContent(ctx context.Context, req dto.VertexGenerateRequest) (dto.VertexGenerateResponse, error)
}

type extractionService struct {
	vertex        extractionVertex
	store         metricStore
	access        accessChecker
	cache         *cache.CrossTabCache
	minConfidence float64
	clockNow      func() time.Time
}

func NewExtractionService(vertex extractionVertex, store metricStore, access accessChecker, ctCache *cache.CrossTabCache, minConfidence float64) *extractionService {
	return &extractionService{
		vertex:        vertex,
		store:         store,
		access:        access,
		cache:         ctCache,
		minConfidence: minConfidence,
		clockNow:      time.Now,
	}
}

// Extract turns founder update text into stored metric values. The model
// emits one record_metric call per metric it finds; calls below the
// confidence threshold or with unusable fields are counted, not stored.
func (s *extractionService) Extract(ctx context.Context, uid, companyID string, req dto.ExtractMetricsRequest) (dto.ExtractMetricsResponse, error) {
	log := logger.FromContext(ctx)

	if err := authorizeCompany(ctx, s.access, uid, companyID); err != nil {
		return dto.ExtractMetricsResponse{}, err
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return dto.ExtractMetricsResponse{}, errs.NewValidationError("text is required")
	}

	vreq := dto.VertexGenerateRequest{
		System:      extractionSystemPrompt(s.clockNow(), req.PeriodHint),
		UserMessage: text,
		Tools:       []dto.VertexTool{recordMetricSchema()},
		Temperature: helpers.Ptr(float32(0)),
	}
	resp, err := s.vertex.GenerateContent(ctx, vreq)
	if err != nil {
		var malformed *errs.MalformedFunctionCallError
		if errors.As(err, &malformed) {
			strictReq := vreq
			strictReq.System = strictExtractionSystemPrompt(s.clockNow(), req.PeriodHint)
			resp, err = s.vertex.GenerateContent(ctx, strictReq)
		}
	}
	if err != nil {
		return dto.ExtractMetricsResponse{}, err
	}

	if logger.IsDebugEnabled(ctx) {
		raw, _ := json.Marshal(resp.ToolCalls)
		log.Debug("model tool calls", "count", len(resp.ToolCalls), "calls", string(raw))
	}

	out := dto.ExtractMetricsResponse{Extracted: []models.MetricValue{}}
	for _, call := range resp.ToolCalls {
		if call.Name != recordMetricTool {
			log.Warn("model requested unknown tool", "tool", call.Name)
			out.Skipped++
			continue
		}
		m, reason := s.buildExtractedValue(companyID, uid, call.Args)
		if m == nil {
			log.Debug("skipping extracted metric", "reason", reason)
			out.Skipped++
			continue
		}
		if err := s.store.Upsert(ctx, m); err != nil {
			return dto.ExtractMetricsResponse{}, err
		}
		audit := &models.MetricAudit{
			CompanyID:    m.CompanyID,
			MetricName:   m.MetricName,
			PeriodType:   m.PeriodType,
			PeriodStart:  m.PeriodStart,
			Value:        m.Value,
			Source:       m.Source,
			AIConfidence: m.AIConfidence,
			SubmittedBy:  m.SubmittedBy,
			RecordedAt:   m.UpdatedAt,
		}
		if err := s.store.AppendHistory(ctx, audit); err != nil {
			log.Error("failed to append metric history",
				"company_id", m.CompanyID, "metric", m.MetricName, "error", err)
		}
		out.Extracted = append(out.Extracted, *m)
	}

	if len(out.Extracted) > 0 {
		s.cache.Invalidate(companyID)
	}
	log.Info("metric extraction completed",
		"company_id", companyID, "extracted", len(out.Extracted), "skipped", out.Skipped)
	return out, nil
}

// buildExtractedValue validates one tool call's arguments. A nil result
// means the call is dropped; the reason is for debug logging only.
func (s *extractionService) buildExtractedValue(companyID, uid string, args map[string]any) (*models.MetricValue, string) {
	name := strings.TrimSpace(stringArg(args, "metric_name"))
	if name == "" {
		return nil, "missing metric_name"
	}
	pt, ok := metrics.ParsePeriodType(stringArg(args, "period_type"))
	if !ok {
		return nil, "bad period_type"
	}
	startT := metrics.PeriodKey(stringArg(args, "period_start")).Time()
	if startT.IsZero() {
		return nil, "bad period_start"
	}
	conf, ok := numberArg(args, "confidence")
	if !ok || conf < s.minConfidence {
		return nil, "below confidence threshold"
	}

	var value metrics.RawValue
	switch v := args["value"].(type) {
	case float64:
		value = metrics.NumberValue(v)
	case string:
		value = metrics.StringValue(v)
	default:
		return nil, "unusable value"
	}
	if _, ok := value.Num(); !ok {
		return nil, "value does not normalize"
	}

	return &models.MetricValue{
		CompanyID:    companyID,
		MetricName:   name,
		PeriodType:   pt,
		PeriodStart:  metrics.PeriodKeyOf(metrics.PeriodStart(pt, startT)),
		PeriodEnd:    metrics.PeriodKeyOf(metrics.PeriodEnd(pt, startT)),
		Value:        value,
		Source:       metrics.SourceAIExtracted,
		AIConfidence: &conf,
		SubmittedBy:  uid,
	}, ""
}

// --- Prompt and tool schema ---

func extractionSystemPrompt(now time.Time, periodHint string) string {
	prompt := fmt.Sprintf(`You extract business metrics from startup investor updates.
Today's date is %s.

Read the update and call %s once for every concrete metric value you find.
Use the metric name as written. Convert shorthand amounts ("$1.2M", "45k")
to plain numbers. period_start is the first day of the period the value
covers. Report a confidence between 0 and 1 for each extraction. Do not
invent values that are not in the text.`, now.Format("2006-01-02"), recordMetricTool)
	if periodHint != "" {
		prompt += fmt.Sprintf("\n\nUnless the text says otherwise, values refer to the period %q.", periodHint)
	}
	return prompt
}

func strictExtractionSystemPrompt(now time.Time, periodHint string) string {
	return extractionSystemPrompt(now, periodHint) +
		"\n\nIMPORTANT: respond only with well-formed " + recordMetricTool +
		" function calls. Every argument must match the declared schema exactly."
}

func recordMetricSchema() dto.VertexTool {
	return dto.VertexTool{
		Name:        recordMetricTool,
		Description: "Record one business metric value found in the update text.",
		Parameters: &dto.VertexSchema{
			Type: "object",
			Properties: map[string]*dto.VertexSchema{
				"metric_name": {
					Type:        "string",
					Description: `The metric's name as written in the text, e.g. "MRR" or "Burn Rate"`,
				},
				"period_type": {
					Type: "string",
					Enum: []string{"monthly", "quarterly", "yearly"},
				},
				"period_start": {
					Type:        "string",
					Description: "First day of the covered period, formatted YYYY-MM-DD",
				},
				"value": {
					Type:        "number",
					Description: "The numeric value, without currency symbols or unit suffixes",
				},
				"confidence": {
					Type:        "number",
					Description: "How certain the extraction is, from 0 to 1",
				},
			},
			Required: []string{"metric_name", "period_type", "period_start", "value", "confidence"},
		},
	}
}

// ---- Helpers ----

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func numberArg(args map[string]any, key string) (float64, bool) {
	f, ok := args[key].(float64)
	return f, ok
}
