package nutrition

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/user/foodlog/internal/errors"
	"github.com/user/foodlog/internal/logging"
	testHelpers "github.com/user/foodlog/internal/testing"
)

func newTestEstimator(t *testing.T, client *testHelpers.MockLLMClient, opts Options) (*Estimator, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logger := logging.NewFromZap(zap.New(core))

	invoker := NewInvoker(client, time.Second, logger)
	return NewEstimator(newTestBuilder(t), invoker, MustNewValidator(), logger, opts), logs
}

func failureEntries(logs *observer.ObservedLogs) []observer.LoggedEntry {
	return logs.FilterLevelExact(zapcore.ErrorLevel).All()
}

func TestEstimator_Estimate_TextSingle(t *testing.T) {
	client := testHelpers.NewMockLLMClient(testHelpers.NewToolCallResponse(ToolRecord, testHelpers.TurkeySandwichJSON))
	est, logs := newTestEstimator(t, client, Options{})

	estimate, err := est.Estimate(context.Background(), MealDescription{Text: "a turkey sandwich with cheese"}, ModeText)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if estimate.Record == nil || estimate.Record.Calories != 450 || estimate.Record.Macros.Fats != 18 {
		t.Errorf("Expected turkey sandwich record, got %+v", estimate.Record)
	}
	if client.Calls() != 1 {
		t.Errorf("Expected exactly one provider call, got %d", client.Calls())
	}
	if len(failureEntries(logs)) != 0 {
		t.Errorf("Expected no failure logs, got %d", len(failureEntries(logs)))
	}
}

func TestEstimator_Estimate_ItemizedList(t *testing.T) {
	client := testHelpers.NewMockLLMClient(testHelpers.NewToolCallResponse(ToolRecordItems, testHelpers.ItemsJSON))
	est, _ := newTestEstimator(t, client, Options{Itemized: true})

	estimate, err := est.Estimate(context.Background(), MealDescription{Text: "eggs and toast"}, ModeText)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if estimate.Shape != ShapeList || len(estimate.Items) != 2 {
		t.Errorf("Expected 2 items, got %+v", estimate)
	}
	if client.LastRequest.ToolChoice != ToolRecordItems {
		t.Errorf("Expected list tool requested, got %s", client.LastRequest.ToolChoice)
	}
}

func TestEstimator_Estimate_ProfileStripsName(t *testing.T) {
	client := testHelpers.NewMockLLMClient(testHelpers.NewToolCallResponse(ToolRecord,
		`{"name":"Daily needs","calories":2100,"macros":{"protein":130,"carbs":230,"fats":70}}`))
	est, _ := newTestEstimator(t, client, Options{Itemized: true})

	estimate, err := est.Estimate(context.Background(), MealDescription{Responses: testHelpers.SampleQuestionnaire()}, ModeProfile)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if estimate.Shape != ShapeSingle {
		t.Errorf("Expected single shape for profile, got %s", estimate.Shape)
	}
	if estimate.Record.Name != "" {
		t.Errorf("Expected name removed, got '%s'", estimate.Record.Name)
	}
}

func TestEstimator_Estimate_TextPathFallback(t *testing.T) {
	client := testHelpers.NewMockLLMClient(testHelpers.NewTextResponse(testHelpers.FencedRecordText))
	est, _ := newTestEstimator(t, client, Options{})

	estimate, err := est.Estimate(context.Background(), MealDescription{Text: "sandwich"}, ModeText)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if estimate.Record.Calories != 450 {
		t.Errorf("Expected 450 calories, got %v", estimate.Record.Calories)
	}
}

func TestEstimator_Estimate_InvalidInputSkipsProvider(t *testing.T) {
	client := testHelpers.NewMockLLMClient(testHelpers.NewTextResponse("unused"))
	est, logs := newTestEstimator(t, client, Options{})

	_, err := est.Estimate(context.Background(), MealDescription{}, ModeText)
	if errors.KindOf(err) != errors.KindInvalidInput {
		t.Fatalf("Expected invalid input, got %v", err)
	}
	if client.Calls() != 0 {
		t.Errorf("Expected no provider call, got %d", client.Calls())
	}
	if logs.FilterMessage("estimate rejected").Len() != 1 {
		t.Errorf("Expected one rejection warning")
	}
}

func TestEstimator_Estimate_FreeformTextFails(t *testing.T) {
	client := testHelpers.NewMockLLMClient(testHelpers.NewTextResponse(testHelpers.FreeformAnalysis))
	est, logs := newTestEstimator(t, client, Options{})

	estimate, err := est.Estimate(context.Background(), MealDescription{Text: "oatmeal"}, ModeText)
	if estimate != nil {
		t.Errorf("Expected no estimate, got %+v", estimate)
	}
	kind := errors.KindOf(err)
	if kind != errors.KindNoStructuredData && kind != errors.KindMalformedJSON {
		t.Fatalf("Expected extraction failure, got %v", err)
	}

	entries := failureEntries(logs)
	if len(entries) != 1 {
		t.Fatalf("Expected exactly one failure log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["stage"] != string(errors.StageExtractor) {
		t.Errorf("Expected stage %s, got %v", errors.StageExtractor, fields["stage"])
	}
	if fields["mode"] != "text" || fields["shape"] != "single" {
		t.Errorf("Expected mode/shape fields, got %v", fields)
	}
	if fields["raw_output"] != testHelpers.FreeformAnalysis {
		t.Errorf("Expected raw output logged, got %v", fields["raw_output"])
	}
}

func TestEstimator_Estimate_SchemaViolation(t *testing.T) {
	client := testHelpers.NewMockLLMClient(testHelpers.NewToolCallResponse(ToolRecord, testHelpers.NegativeFatsJSON))
	est, logs := newTestEstimator(t, client, Options{})

	_, err := est.Estimate(context.Background(), MealDescription{Text: "salad"}, ModeText)
	if errors.KindOf(err) != errors.KindSchemaViolation {
		t.Fatalf("Expected schema violation, got %v", err)
	}

	entries := failureEntries(logs)
	if len(entries) != 1 || entries[0].ContextMap()["stage"] != string(errors.StageValidator) {
		t.Errorf("Expected one validator failure log, got %v", entries)
	}
}

func TestEstimator_Estimate_ProviderTimeout(t *testing.T) {
	client := testHelpers.NewMockLLMClient(testHelpers.NewToolCallResponse(ToolRecord, testHelpers.TurkeySandwichJSON))
	client.Delay = time.Second

	core, logs := observer.New(zapcore.DebugLevel)
	logger := logging.NewFromZap(zap.New(core))
	est := NewEstimator(newTestBuilder(t), NewInvoker(client, 20*time.Millisecond, logger), MustNewValidator(), logger, Options{})

	_, err := est.Estimate(context.Background(), MealDescription{Text: "pizza"}, ModeText)
	if errors.KindOf(err) != errors.KindProviderUnavailable {
		t.Fatalf("Expected provider unavailable, got %v", err)
	}
	if !stderrors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded cause, got %v", err)
	}

	entries := failureEntries(logs)
	if len(entries) != 1 || entries[0].ContextMap()["stage"] != string(errors.StageInvoker) {
		t.Errorf("Expected one invoker failure log, got %v", entries)
	}
}

func TestEstimator_Estimate_VisionFreeformFallback(t *testing.T) {
	client := testHelpers.NewMockLLMClient(testHelpers.NewTextResponse(testHelpers.FreeformAnalysis))
	est, logs := newTestEstimator(t, client, Options{VisionFreeformFallback: true})

	estimate, err := est.Estimate(context.Background(), MealDescription{ImageURL: "https://img.example/a.png"}, ModeImage)
	if err != nil {
		t.Fatalf("Expected fallback instead of error, got %v", err)
	}
	if estimate.Analysis != testHelpers.FreeformAnalysis {
		t.Errorf("Expected analysis text, got '%s'", estimate.Analysis)
	}
	body, ok := estimate.Body().(map[string]string)
	if !ok || body["analysis"] != testHelpers.FreeformAnalysis {
		t.Errorf("Expected analysis body, got %v", estimate.Body())
	}
	if len(failureEntries(logs)) != 0 {
		t.Errorf("Expected fallback to log a warning, not an error")
	}
}

func TestEstimator_Estimate_FallbackOnlyForImages(t *testing.T) {
	client := testHelpers.NewMockLLMClient(testHelpers.NewTextResponse(testHelpers.FreeformAnalysis))
	est, _ := newTestEstimator(t, client, Options{VisionFreeformFallback: true})

	if _, err := est.Estimate(context.Background(), MealDescription{Text: "oatmeal"}, ModeText); err == nil {
		t.Fatal("Expected text mode to fail without fallback")
	}
}

func TestEstimator_Estimate_ClientCancelDoesNotAbortCall(t *testing.T) {
	client := testHelpers.NewMockLLMClient(testHelpers.NewToolCallResponse(ToolRecord, testHelpers.TurkeySandwichJSON))
	client.Delay = 30 * time.Millisecond
	est, _ := newTestEstimator(t, client, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	estimate, err := est.Estimate(ctx, MealDescription{Text: "sandwich"}, ModeText)
	if err != nil {
		t.Fatalf("Expected the detached call to complete, got %v", err)
	}
	if estimate.Record.Calories != 450 {
		t.Errorf("Expected 450 calories, got %v", estimate.Record.Calories)
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("x", maxLoggedOutput+10)

	got := truncate(long, maxLoggedOutput)
	if !strings.HasPrefix(got, strings.Repeat("x", maxLoggedOutput)) || !strings.HasSuffix(got, "...(truncated)") {
		t.Errorf("Expected truncated output, got length %d", len(got))
	}
	if truncate("short", maxLoggedOutput) != "short" {
		t.Error("Expected short strings unchanged")
	}
}
