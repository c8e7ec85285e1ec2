package persuader

// =============================================================================
// OpenAI Models
// https://platform.openai.com/docs/models/
// =============================================================================

const (
	// GPT-4.1 Series
	ModelOpenAIGPT41     = "gpt-4.1"
	ModelOpenAIGPT41Mini = "gpt-4.1-mini"
	ModelOpenAIGPT41Nano = "gpt-4.1-nano"

	// GPT-4o Series
	ModelOpenAIGPT4o     = "gpt-4o"
	ModelOpenAIGPT4oMini = "gpt-4o-mini"

	// O-Series (Reasoning Models)
	ModelOpenAIO3     = "o3"
	ModelOpenAIO4Mini = "o4-mini"
	ModelOpenAIO1     = "o1"
)

// =============================================================================
// Anthropic Claude Models
// https://docs.anthropic.com/en/docs/about-claude/models/overview
// =============================================================================

const (
	ModelAnthropicClaude4Opus   = "claude-opus-4-20250522"
	ModelAnthropicClaude4Sonnet = "claude-sonnet-4-20250522"

	// Claude 3.5 Series (Legacy)
	ModelAnthropicClaude35Sonnet = "claude-3-5-sonnet-20241022"
	ModelAnthropicClaude35Haiku  = "claude-3-5-haiku-20241022"
)

// =============================================================================
// Google Gemini Models
// https://ai.google.dev/gemini-api/docs/models
// =============================================================================

const (
	ModelGoogleGemini25Pro   = "gemini-2.5-pro"
	ModelGoogleGemini25Flash = "gemini-2.5-flash"

	ModelGoogleGemini20Flash     = "gemini-2.0-flash"
	ModelGoogleGemini20FlashLite = "gemini-2.0-flash-lite"
)

// DefaultModel is used when a request does not name a model.
const DefaultModel = ModelOpenAIGPT4oMini
