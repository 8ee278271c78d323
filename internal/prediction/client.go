package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"
)

// ProductFeatures is one row of a scoring request: a product record plus the
// covariates the model was trained on.
type ProductFeatures struct {
	Store     int `json:"store"`
	Dept      int `json:"dept"`
	IsHoliday int `json:"isholiday"` // 0 or 1
	Size      int `json:"size"`
	Week      int `json:"week"` // 1-52
	Type      int `json:"type"`
	Year      int `json:"year"`
}

// UpstreamError wraps any network or non-2xx failure talking to the scoring
// service. There is no retry; the caller surfaces it immediately.
type UpstreamError struct {
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("prediction service unavailable: %v", e.Err)
	}
	return fmt.Sprintf("prediction service returned status %d", e.Status)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// UploadResult is the scoring service's response to a training-data upload.
type UploadResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Client talks to the external sales-prediction service.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type predictRequest struct {
	Products []ProductFeatures `json:"products"`
}

type predictResponse struct {
	Success        bool      `json:"success"`
	PredictedSales []float64 `json:"predicted_sales"`
}

// PredictSales forwards the batch to /predictSales and rounds every returned
// sales value to the nearest integer. Output order matches input order.
func (c *Client) PredictSales(ctx context.Context, products []ProductFeatures) ([]int, error) {
	var res predictResponse
	if err := c.post(ctx, "/predictSales", predictRequest{Products: products}, &res); err != nil {
		return nil, err
	}

	rounded := make([]int, len(res.PredictedSales))
	for i, v := range res.PredictedSales {
		rounded[i] = int(math.Round(v))
	}
	return rounded, nil
}

type uploadRequest struct {
	Data []map[string]string `json:"data"`
}

// UploadTrainingData forwards parsed historical rows to /uploadData so the
// model can be retrained.
func (c *Client) UploadTrainingData(ctx context.Context, rows []map[string]string) (*UploadResult, error) {
	var res UploadResult
	if err := c.post(ctx, "/uploadData", uploadRequest{Data: rows}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &UpstreamError{Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &UpstreamError{Err: err}
	}
	return nil
}
