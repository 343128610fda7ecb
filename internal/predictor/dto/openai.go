package dto

// Message is a single chat message in an OpenAI-compatible request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenAPIReq is the OpenAI-compatible chat completion request payload.
type OpenAPIReq struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// OpenAPIRes is the OpenAI-compatible chat completion response payload.
type OpenAPIRes struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// OpenAIEmbeddingReq is the OpenAI embeddings request payload.
type OpenAIEmbeddingReq struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// OpenAIEmbeddingRes is the OpenAI embeddings response payload.
type OpenAIEmbeddingRes struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}
