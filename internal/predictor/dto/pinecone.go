package dto

// PineconeQueryRequest is the vector index /query payload.
type PineconeQueryRequest struct {
	Vector          []float64 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

// PineconeMatch is a single scored match from the index.
type PineconeMatch struct {
	ID       string                 `json:"id"`
	Score    float64                `json:"score"`
	Metadata map[string]interface{} `json:"metadata"`
}

// PineconeQueryResponse is the /query response payload.
type PineconeQueryResponse struct {
	Matches []PineconeMatch `json:"matches"`
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
