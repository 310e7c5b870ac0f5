package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// VoyageProvider implements EmbeddingProvider against the Voyage AI REST API.
type VoyageProvider struct {
	APIKey  string
	BaseURL string
	Model   string
}

func NewVoyageProvider(apiKey string, model string) EmbeddingProvider {
	if model == "" {
		model = "voyage-3-large"
	}
	return &VoyageProvider{
		APIKey:  apiKey,
		BaseURL: "https://api.voyageai.com/v1",
		Model:   model,
	}
}

type voyageEmbeddingRequest struct {
	Input     []string `json:"input"`
	Model     string   `json:"model"`
	InputType string   `json:"input_type,omitempty"`
}

type voyageEmbeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (p *VoyageProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	// Voyage distinguishes "query" and "document" input types
	inputType := "query"
	if taskType == "RETRIEVAL_DOCUMENT" {
		inputType = "document"
	}

	reqBody := voyageEmbeddingRequest{
		Input:     []string{text},
		Model:     p.Model,
		InputType: inputType,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/embeddings", p.BaseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("voyage embedding error: %s", string(bodyBytes))
	}

	var voyageResp voyageEmbeddingResponse
	if err := json.Unmarshal(bodyBytes, &voyageResp); err != nil {
		return nil, err
	}
	if len(voyageResp.Data) == 0 {
		return nil, fmt.Errorf("voyage embedding error: empty data")
	}

	values := make([]float32, len(voyageResp.Data[0].Embedding))
	for i, v := range voyageResp.Data[0].Embedding {
		values[i] = float32(v)
	}

	// Cosine distance in pgvector requires normalized vectors (magnitude = 1)
	normalizedValues := normalizeVector(values)

	return &EmbeddingResponse{
		Embedding: EmbeddingResponseEmbedding{
			Values: normalizedValues,
		},
	}, nil
}
