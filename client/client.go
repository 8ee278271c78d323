// Package client is the Go consumer of the storesight HTTP API. The bearer
// token is carried by each Client value and injected per request; nothing
// mutates shared transport state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

type User struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Image    string `json:"image"`
}

type Product struct {
	ID    string    `json:"_id"`
	Store int       `json:"store"`
	Dept  int       `json:"dept"`
	Size  int       `json:"size"`
	Type  int       `json:"type"`
	Date  time.Time `json:"date"`
}

// PredictionRow is a product plus the covariates the scoring model expects.
type PredictionRow struct {
	Store     int `json:"store"`
	Dept      int `json:"dept"`
	IsHoliday int `json:"isholiday"`
	Size      int `json:"size"`
	Week      int `json:"week"`
	Type      int `json:"type"`
	Year      int `json:"year"`
}

type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

type UploadDataResponse struct {
	Message string          `json:"message"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// APIError is any non-2xx response, carrying the server's message body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithToken returns a copy of the client that authenticates with token. The
// receiver is not modified, so clients for different sessions can share the
// underlying transport safely.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	body := map[string]string{"username": username, "password": password}
	var res LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/login", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Register(ctx context.Context, username, password, email, image string) error {
	body := map[string]string{
		"username": username,
		"password": password,
		"email":    email,
		"image":    image,
	}
	return c.doJSON(ctx, http.MethodPost, "/register", body, nil)
}

func (c *Client) Users(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.doJSON(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.doJSON(ctx, http.MethodGet, "/product", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) AddProduct(ctx context.Context, store, dept, size, typ int) (*Product, error) {
	body := map[string]int{"store": store, "dept": dept, "size": size, "type": typ}
	var res struct {
		Message string  `json:"message"`
		Product Product `json:"product"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/product/add", body, &res); err != nil {
		return nil, err
	}
	return &res.Product, nil
}

// ProductUpdate fields left at zero are not applied by the server.
type ProductUpdate struct {
	Store int `json:"store,omitempty"`
	Dept  int `json:"dept,omitempty"`
	Size  int `json:"size,omitempty"`
}

func (c *Client) UpdateProduct(ctx context.Context, id string, update ProductUpdate) error {
	body := struct {
		ID string `json:"_id"`
		ProductUpdate
	}{ID: id, ProductUpdate: update}
	return c.doJSON(ctx, http.MethodPost, "/product/update", body, nil)
}

func (c *Client) DeleteProduct(ctx context.Context, id string) (bool, error) {
	body := map[string]string{"_id": id}
	var res struct {
		Message string `json:"message"`
		Deleted bool   `json:"deleted"`
	}
	if err := c.doJSON(ctx, http.MethodDelete, "/product/delete", body, &res); err != nil {
		return false, err
	}
	return res.Deleted, nil
}

// AddBulk uploads a CSV file and returns the created products.
func (c *Client) AddBulk(ctx context.Context, filename string, csvData []byte) ([]Product, error) {
	var res struct {
		Message  string    `json:"message"`
		Success  bool      `json:"success"`
		Products []Product `json:"products"`
	}
	if err := c.doMultipart(ctx, "/product/addBulk", filename, csvData, &res); err != nil {
		return nil, err
	}
	return res.Products, nil
}

func (c *Client) Predict(ctx context.Context, rows []PredictionRow) ([]int, error) {
	var res struct {
		Success        bool  `json:"success"`
		PredictedSales []int `json:"predicted_sales"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/product/predict", rows, &res); err != nil {
		return nil, err
	}
	return res.PredictedSales, nil
}

// UploadData sends a historical sales CSV to the prediction service via the
// backend proxy.
func (c *Client) UploadData(ctx context.Context, filename string, csvData []byte) (*UploadDataResponse, error) {
	var res UploadDataResponse
	if err := c.doMultipart(ctx, "/product/uploadData", filename, csvData, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) doMultipart(ctx context.Context, path, filename string, data []byte, out interface{}) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(map[string][]string)
	header["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename)}
	header["Content-Type"] = []string{"text/csv"}
	part, err := writer.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: "An unexpected error occurred"}
		var body struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &body) == nil && body.Message != "" {
			apiErr.Message = body.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}
