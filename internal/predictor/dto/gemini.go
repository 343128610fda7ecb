package dto

// GeminiAPIRequest is the request payload for the Gemini generateContent API.
type GeminiAPIRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// GenerationConfig carries sampling parameters for a Gemini request.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

// Content represents the content of a request or response.
type Content struct {
	Parts []Part `json:"parts"`
}

// Part is a part of the content.
type Part struct {
	Text string `json:"text"`
}

// GeminiAPIResponse is the response from the Gemini API.
type GeminiAPIResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// Candidate is a candidate response from the Gemini API.
type Candidate struct {
	Content Content `json:"content"`
}

// GeminiEmbedRequest is the batchEmbedContents request payload.
type GeminiEmbedRequest struct {
	Requests []GeminiEmbedContent `json:"requests"`
}

// GeminiEmbedContent is a single embedding request entry.
type GeminiEmbedContent struct {
	Model   string  `json:"model"`
	Content Content `json:"content"`
}

// GeminiEmbedResponse is the batchEmbedContents response payload.
type GeminiEmbedResponse struct {
	Embeddings []struct {
		Values []float64 `json:"values"`
	} `json:"embeddings"`
}
