package nutrition

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/user/foodlog/internal/errors"
	"github.com/user/foodlog/internal/llmtypes"
	"github.com/user/foodlog/internal/logging"
	"github.com/user/foodlog/internal/metrics"
)

const (
	tracerName = "github.com/user/foodlog/internal/nutrition"

	// maxLoggedOutput bounds the raw provider output attached to failure logs
	maxLoggedOutput = 2 << 10
)

// Options holds pipeline behaviour switches
type Options struct {
	Itemized               bool // List shape for text and image modes
	VisionFreeformFallback bool // Return the model's text when image extraction fails
}

// Estimator runs Build → Invoke → Extract → Validate for every route
type Estimator struct {
	builder   *Builder
	invoker   *Invoker
	validator *Validator
	logger    *logging.Logger
	tracer    trace.Tracer
	opts      Options
}

// NewEstimator wires the pipeline stages
func NewEstimator(builder *Builder, invoker *Invoker, validator *Validator, logger *logging.Logger, opts Options) *Estimator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Estimator{
		builder:   builder,
		invoker:   invoker,
		validator: validator,
		logger:    logger.Named("estimator"),
		tracer:    otel.Tracer(tracerName),
		opts:      opts,
	}
}

// ShapeFor returns the record shape used for mode
func (e *Estimator) ShapeFor(mode Mode) Shape {
	if e.opts.Itemized && mode != ModeProfile {
		return ShapeList
	}
	return ShapeSingle
}

// Estimate runs the pipeline once, stopping at the first failing stage
func (e *Estimator) Estimate(ctx context.Context, input MealDescription, mode Mode) (*Estimate, error) {
	shape := e.ShapeFor(mode)

	ctx, span := e.tracer.Start(ctx, "nutrition.estimate", trace.WithAttributes(
		attribute.String("nutrition.mode", string(mode)),
		attribute.String("nutrition.shape", string(shape)),
	))
	defer span.End()

	estimate, content, err := e.run(ctx, input, mode, shape)
	if err != nil {
		if fallback := e.fallback(mode, content, err); fallback != nil {
			span.SetAttributes(attribute.Bool("nutrition.fallback", true))
			metrics.EstimatesTotal.WithLabelValues(string(mode), string(shape), metrics.OutcomeFallback).Inc()
			e.logger.Warn("structured extraction failed, returning freeform analysis",
				logging.String("stage", string(errors.StageOf(err))),
				logging.String("mode", string(mode)),
				logging.String("kind", string(errors.KindOf(err))),
			)
			return fallback, nil
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, string(errors.KindOf(err)))
		metrics.EstimatesTotal.WithLabelValues(string(mode), string(shape), metrics.OutcomeFailure).Inc()
		e.logFailure(err, mode, shape, content)
		return nil, err
	}

	if mode == ModeProfile && estimate.Record != nil {
		estimate.Record.Name = ""
	}

	span.SetStatus(codes.Ok, "")
	metrics.EstimatesTotal.WithLabelValues(string(mode), string(shape), metrics.OutcomeSuccess).Inc()
	e.logger.Info("estimate completed",
		logging.String("mode", string(mode)),
		logging.String("shape", string(shape)),
		logging.Float64("calories", estimate.TotalCalories()),
		logging.Int("items", len(estimate.Items)),
	)
	return estimate, nil
}

// run executes the stages. content is the provider's text content, returned
// so failures can be logged and the vision fallback can use it.
func (e *Estimator) run(ctx context.Context, input MealDescription, mode Mode, shape Shape) (*Estimate, string, error) {
	var req llmtypes.CompletionRequest
	err := e.stage(ctx, errors.StagePromptBuilder, mode, func(context.Context) error {
		var err error
		req, err = e.builder.Build(input, mode, shape)
		return err
	})
	if err != nil {
		return nil, "", err
	}

	var resp llmtypes.CompletionResponse
	err = e.stage(ctx, errors.StageInvoker, mode, func(ctx context.Context) error {
		var err error
		resp, err = e.invoker.Invoke(ctx, req)
		return err
	})
	if err != nil {
		return nil, "", err
	}

	var payload string
	err = e.stage(ctx, errors.StageExtractor, mode, func(ctx context.Context) error {
		var path ExtractionPath
		var err error
		payload, path, err = Extract(resp, req.ToolChoice)
		if err == nil {
			metrics.ExtractionPaths.WithLabelValues(string(path)).Inc()
			trace.SpanFromContext(ctx).SetAttributes(attribute.String("nutrition.extraction_path", string(path)))
		}
		return err
	})
	if err != nil {
		return nil, resp.Content, err
	}

	var estimate *Estimate
	err = e.stage(ctx, errors.StageValidator, mode, func(context.Context) error {
		var err error
		estimate, err = e.validator.Validate(payload, shape)
		return err
	})
	if err != nil {
		return nil, resp.Content, err
	}

	return estimate, resp.Content, nil
}

// stage runs fn in a child span and counts its failure against stage
func (e *Estimator) stage(ctx context.Context, stage errors.Stage, mode Mode, fn func(context.Context) error) error {
	ctx, span := e.tracer.Start(ctx, "nutrition."+string(stage))
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		kind := errors.KindOf(err)
		failedStage := errors.StageOf(err)
		if failedStage == "" {
			failedStage = stage
		}
		metrics.PipelineFailures.WithLabelValues(string(failedStage), string(kind), string(mode)).Inc()
		return err
	}
	return nil
}

// fallback returns a freeform estimate when the vision fallback applies to err
func (e *Estimator) fallback(mode Mode, content string, err error) *Estimate {
	if !e.opts.VisionFreeformFallback || mode != ModeImage {
		return nil
	}
	switch errors.KindOf(err) {
	case errors.KindNoStructuredData, errors.KindMalformedJSON, errors.KindSchemaViolation:
	default:
		return nil
	}

	text := strings.TrimSpace(content)
	if text == "" {
		return nil
	}
	return &Estimate{Shape: e.ShapeFor(mode), Analysis: text}
}

// logFailure logs a pipeline failure exactly once
func (e *Estimator) logFailure(err error, mode Mode, shape Shape, content string) {
	stage := errors.StageOf(err)
	fields := []logging.Field{
		logging.String("stage", string(stage)),
		logging.String("mode", string(mode)),
		logging.String("shape", string(shape)),
		logging.String("kind", string(errors.KindOf(err))),
		logging.Error(err),
	}

	if out := firstNonEmpty(errors.RawOutputOf(err), content); out != "" {
		fields = append(fields, logging.String("raw_output", truncate(out, maxLoggedOutput)))
	}

	if errors.KindOf(err) == errors.KindInvalidInput {
		e.logger.Warn("estimate rejected", fields...)
		return
	}
	e.logger.Error("estimate failed", fields...)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
