package nutrition

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/user/foodlog/internal/config"
	"github.com/user/foodlog/internal/errors"
	"github.com/user/foodlog/internal/llmtypes"
	"github.com/user/foodlog/internal/prompts"
)

// Client-facing input messages
const (
	MsgTextRequired      = "Text input is required"
	MsgResponsesRequired = "Responses are required"
	MsgPhotoRequired     = "No photo uploaded."
	MsgPhotoNotImage     = "Uploaded file must be an image."
	MsgImageURLScheme    = "Image URL must use http, https or data."
)

// Builder turns a MealDescription into a provider request. It has no side effects.
type Builder struct {
	prompts     *prompts.Manager
	model       string
	visionModel string
	maxTokens   int
	temperature float64
	imageDetail string
}

// NewBuilder creates a prompt builder from the LLM configuration
func NewBuilder(pm *prompts.Manager, cfg config.LLMConfig) *Builder {
	return &Builder{
		prompts:     pm,
		model:       cfg.Model,
		visionModel: cfg.GetVisionModel(),
		maxTokens:   cfg.GetMaxTokens(),
		temperature: cfg.Temperature,
		imageDetail: cfg.GetImageDetail(),
	}
}

// Build assembles the completion request for input in the given mode and shape.
// The profile mode always produces a single-record request.
func (b *Builder) Build(input MealDescription, mode Mode, shape Shape) (llmtypes.CompletionRequest, error) {
	if mode == ModeProfile {
		shape = ShapeSingle
	}

	vars := map[string]interface{}{
		"Text":      "",
		"Responses": "",
		"Itemized":  shape == ShapeList,
	}

	var imageURL string
	switch mode {
	case ModeText:
		if strings.TrimSpace(input.Text) == "" {
			return llmtypes.CompletionRequest{}, errors.NewInvalidInputError(errors.StagePromptBuilder, MsgTextRequired)
		}
		vars["Text"] = input.Text

	case ModeProfile:
		responses, err := renderResponses(input.Responses)
		if err != nil {
			return llmtypes.CompletionRequest{}, err
		}
		vars["Responses"] = responses

	case ModeImage:
		u, err := imageReference(input)
		if err != nil {
			return llmtypes.CompletionRequest{}, err
		}
		imageURL = u

	default:
		return llmtypes.CompletionRequest{}, errors.NewError(fmt.Sprintf("unknown estimate mode: %q", mode), errors.KindInternal)
	}

	rendered, err := b.prompts.RenderTemplate("nutrition_"+string(mode), vars)
	if err != nil {
		return llmtypes.CompletionRequest{}, errors.WrapErrorWithContext(err, "Failed to render prompt", errors.KindInternal, &errors.ErrorContext{
			Operation: "Prompt rendering",
			Component: string(errors.StagePromptBuilder),
			Details:   map[string]interface{}{"mode": string(mode)},
		})
	}

	tool := ToolFor(mode, shape)
	req := llmtypes.CompletionRequest{
		Model:        b.model,
		SystemPrompt: rendered.SystemPrompt,
		Tools:        []llmtypes.ToolDefinition{tool},
		ToolChoice:   tool.Name,
		MaxTokens:    b.maxTokens,
		Temperature:  b.temperature,
	}

	if mode == ModeImage {
		req.Model = b.visionModel
		req.Messages = []llmtypes.Message{llmtypes.ImageMessage(rendered.UserPrompt, imageURL, b.imageDetail)}
	} else {
		req.Messages = []llmtypes.Message{llmtypes.TextMessage("user", rendered.UserPrompt)}
	}

	return req, nil
}

// renderResponses formats questionnaire answers as indented JSON
func renderResponses(responses interface{}) (string, error) {
	if responses == nil {
		return "", errors.NewInvalidInputError(errors.StagePromptBuilder, MsgResponsesRequired)
	}
	if s, ok := responses.(string); ok && strings.TrimSpace(s) == "" {
		return "", errors.NewInvalidInputError(errors.StagePromptBuilder, MsgResponsesRequired)
	}

	data, err := json.MarshalIndent(responses, "", "  ")
	if err != nil {
		return "", errors.NewInvalidInputError(errors.StagePromptBuilder, MsgResponsesRequired)
	}
	return string(data), nil
}

// imageReference returns the URL the provider should fetch: the public URL when
// set, otherwise an inline data URL built from the image bytes
func imageReference(input MealDescription) (string, error) {
	if input.ImageURL != "" {
		u, err := url.Parse(input.ImageURL)
		if err != nil {
			return "", errors.NewInvalidInputError(errors.StagePromptBuilder, MsgImageURLScheme)
		}
		switch u.Scheme {
		case "http", "https", "data":
			return input.ImageURL, nil
		default:
			return "", errors.NewInvalidInputError(errors.StagePromptBuilder, MsgImageURLScheme)
		}
	}

	if len(input.ImageData) == 0 {
		return "", errors.NewInvalidInputError(errors.StagePromptBuilder, MsgPhotoRequired)
	}

	mime := ImageMIME(input.ImageData, input.ImageMIME)
	if mime == "" {
		return "", errors.NewInvalidInputError(errors.StagePromptBuilder, MsgPhotoNotImage)
	}

	return DataURL(input.ImageData, mime), nil
}

// ImageMIME returns the image content type for data, preferring declared when it
// names an image type, or "" when data is not an image
func ImageMIME(data []byte, declared string) string {
	declared = strings.ToLower(strings.TrimSpace(strings.SplitN(declared, ";", 2)[0]))
	if strings.HasPrefix(declared, "image/") {
		return declared
	}

	detected := http.DetectContentType(data)
	if strings.HasPrefix(detected, "image/") {
		return detected
	}
	return ""
}

// DataURL encodes data as a base64 data URL
func DataURL(data []byte, mime string) string {
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}
