package llmtypes

// Content part types
const (
	PartText     = "text"
	PartImageURL = "image_url"
)

// Message represents a chat message
type Message struct {
	Role    string // "system", "user", "assistant"
	Content string
	Parts   []ContentPart // Multimodal content; when set, Content is ignored
}

// ContentPart is one element of a multimodal message
type ContentPart struct {
	Type     string // PartText or PartImageURL
	Text     string
	ImageURL string // https URL or data: URL
	Detail   string // low, high, auto
}

// ToolCall represents a tool/function call from the LLM
type ToolCall struct {
	Name         string                 // Name of the tool to call
	Arguments    map[string]interface{} // Decoded arguments when they form a JSON object
	RawArguments string                 // Arguments exactly as the provider sent them
}

// CompletionRequest is a request for LLM completion
type CompletionRequest struct {
	Model        string // Overrides the client's default model when set
	SystemPrompt string
	Messages     []Message
	Tools        []ToolDefinition
	ToolChoice   string // Name of a tool the model must call; empty lets the model decide
	MaxTokens    int
	Temperature  float64
}

// CompletionResponse is the response from LLM
type CompletionResponse struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
	Usage        TokenUsage
}

// TokenUsage tracks token usage
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// ToolDefinition defines a tool for the LLM
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// TextMessage builds a plain user or system message
func TextMessage(role, content string) Message {
	return Message{Role: role, Content: content}
}

// ImageMessage builds a user message carrying an instruction and one image
func ImageMessage(text, imageURL, detail string) Message {
	return Message{
		Role: "user",
		Parts: []ContentPart{
			{Type: PartText, Text: text},
			{Type: PartImageURL, ImageURL: imageURL, Detail: detail},
		},
	}
}

// HasImage reports whether any message in the request carries an image part
func (r CompletionRequest) HasImage() bool {
	for _, msg := range r.Messages {
		for _, part := range msg.Parts {
			if part.Type == PartImageURL {
				return true
			}
		}
	}
	return false
}
