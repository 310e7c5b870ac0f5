package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ashebbar-dev/Ojas-EB/pkg/rerank"
)

// Client implements rerank.Reranker against the Cohere rerank API.
type Client struct {
	apiKey  string
	baseURL string
	model   string
}

func NewClient(apiKey string, model string) *Client {
	if model == "" {
		model = "rerank-english-v3.0"
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: "https://api.cohere.com/v2",
		model:   model,
	}
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
	Message string `json:"message,omitempty"`
}

func (c *Client) Rerank(ctx context.Context, query string, documents []string, topN int) ([]rerank.Result, error) {
	if len(documents) == 0 {
		return nil, nil
	}
	// The API rejects top_n > len(documents); clamp instead
	if topN > len(documents) || topN <= 0 {
		topN = len(documents)
	}

	reqBody := rerankRequest{
		Model:     c.model,
		Query:     query,
		Documents: documents,
		TopN:      topN,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/rerank", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cohere api error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var rerankResp rerankResponse
	if err := json.Unmarshal(bodyBytes, &rerankResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	results := make([]rerank.Result, 0, len(rerankResp.Results))
	for _, r := range rerankResp.Results {
		results = append(results, rerank.Result{
			Index:          r.Index,
			RelevanceScore: r.RelevanceScore,
		})
	}
	return results, nil
}
