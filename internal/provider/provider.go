// Package provider wraps the hosted generative-language service behind a small interface.
package provider

import "context"

// Provider issues content-generation calls and opens chat sessions.
type Provider interface {
	// GenerateContent performs one single-shot generation call.
	GenerateContent(ctx context.Context, req Request) (*Response, error)

	// CreateChat opens a multi-turn session bound to cfg for its whole lifetime.
	CreateChat(ctx context.Context, cfg ChatConfig) (ChatSession, error)
}

// ChatSession is a provider-side conversation handle.
type ChatSession interface {
	Send(ctx context.Context, text string) (*Response, error)
}

// Factory builds a Provider from a credential. It must not perform network I/O.
type Factory func(ctx context.Context, apiKey string) (Provider, error)

// Request is a single generation call.
type Request struct {
	Model  string
	Prompt string
	Config GenerateConfig
}

// ChatConfig fixes the model and generation settings of a chat session.
type ChatConfig struct {
	Model  string
	Config GenerateConfig
}

// GenerateConfig carries the optional generation settings.
type GenerateConfig struct {
	SystemInstruction string
	Tools             []Tool
	SafetySettings    []SafetySetting
	// ThinkingBudget is nil when reasoning-budget tuning is not requested.
	ThinkingBudget *int32
}

// Tool enables a provider-side capability for a call.
type Tool struct {
	Search bool
}

// HasSearch reports whether any tool enables web search.
func HasSearch(tools []Tool) bool {
	for _, t := range tools {
		if t.Search {
			return true
		}
	}
	return false
}

// HarmCategory names a provider safety category.
type HarmCategory string

const (
	HarmCategoryHarassment       HarmCategory = "HARM_CATEGORY_HARASSMENT"
	HarmCategoryHateSpeech       HarmCategory = "HARM_CATEGORY_HATE_SPEECH"
	HarmCategorySexuallyExplicit HarmCategory = "HARM_CATEGORY_SEXUALLY_EXPLICIT"
	HarmCategoryDangerousContent HarmCategory = "HARM_CATEGORY_DANGEROUS_CONTENT"
)

// HarmCategories lists every category that can be overridden.
var HarmCategories = []HarmCategory{
	HarmCategoryHarassment,
	HarmCategoryHateSpeech,
	HarmCategorySexuallyExplicit,
	HarmCategoryDangerousContent,
}

// BlockNone is the most permissive safety threshold.
const BlockNone = "BLOCK_NONE"

// SafetySetting overrides the blocking threshold for one category.
type SafetySetting struct {
	Category  HarmCategory
	Threshold string
}

// Response is the provider reply reduced to what callers consume.
type Response struct {
	Text      string
	Citations []Citation
}

// Citation is a raw grounding entry. Either field may be empty.
type Citation struct {
	URI   string
	Title string
}
