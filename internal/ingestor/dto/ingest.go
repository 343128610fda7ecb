package dto

// FeedTask is the payload published to the ingestion stream for one feed poll.
type FeedTask struct {
	Category string `json:"category"`
	FeedURL  string `json:"feed_url"`
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

// GeminiEmbedRequest is the batchEmbedContents request payload.
type GeminiEmbedRequest struct {
	Requests []GeminiEmbedContent `json:"requests"`
}

// GeminiEmbedContent is a single embedding request entry.
type GeminiEmbedContent struct {
	Model   string        `json:"model"`
	Content GeminiContent `json:"content"`
}

// GeminiContent wraps the text parts of an embedding request.
type GeminiContent struct {
	Parts []GeminiPart `json:"parts"`
}

// GeminiPart is a single text part.
type GeminiPart struct {
	Text string `json:"text"`
}

// GeminiEmbedResponse is the batchEmbedContents response payload.
type GeminiEmbedResponse struct {
	Embeddings []struct {
		Values []float64 `json:"values"`
	} `json:"embeddings"`
}

// PineconeVector is an upsert row.
type PineconeVector struct {
	ID       string                 `json:"id"`
	Values   []float64              `json:"values"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// PineconeUpsertRequest is the /vectors/upsert payload.
type PineconeUpsertRequest struct {
	Vectors []PineconeVector `json:"vectors"`
}

// PineconeUpsertResponse is the /vectors/upsert response payload.
type PineconeUpsertResponse struct {
	UpsertedCount int `json:"upsertedCount"`
}
