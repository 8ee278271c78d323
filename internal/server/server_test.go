package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storesight-backend/internal/config"
	"storesight-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestApp(t *testing.T, predictionURL string) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Product{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	cfg := &config.Config{
		JWTSecret:     "test-secret-key-for-the-suite",
		PredictionURL: predictionURL,
		CORSOrigins:   "*",
	}
	return New(cfg, db)
}

func jsonRequest(method, path string, body interface{}, token string) *http.Request {
	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func csvRequest(t *testing.T, path, filename, contents, token string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := map[string][]string{
		"Content-Disposition": {fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename)},
		"Content-Type":        {"text/csv"},
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("creating multipart part: %v", err)
	}
	if _, err := part.Write([]byte(contents)); err != nil {
		t.Fatalf("writing multipart part: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
}

// register + login, returns the bearer token.
func loginAs(t *testing.T, app *fiber.App, username, password string) string {
	t.Helper()

	resp, err := app.Test(jsonRequest(http.MethodPost, "/register", map[string]string{
		"username": username,
		"password": password,
		"email":    username + "@example.com",
	}, ""))
	if err != nil {
		t.Fatalf("register request failed: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d, want 201", resp.StatusCode)
	}

	resp, err = app.Test(jsonRequest(http.MethodPost, "/login", map[string]string{
		"username": username,
		"password": password,
	}, ""))
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Token string `json:"token"`
	}
	decodeBody(t, resp, &body)
	if body.Token == "" {
		t.Fatal("login returned an empty token")
	}
	return body.Token
}

func TestRegister_DuplicateUsername(t *testing.T) {
	app := newTestApp(t, "")

	register := func() *http.Response {
		resp, err := app.Test(jsonRequest(http.MethodPost, "/register", map[string]string{
			"username": "bob",
			"password": "hunter22",
			"email":    "bob@example.com",
		}, ""))
		if err != nil {
			t.Fatalf("register request failed: %v", err)
		}
		return resp
	}

	if resp := register(); resp.StatusCode != http.StatusCreated {
		t.Errorf("first register status = %d, want 201", resp.StatusCode)
	}

	resp := register()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("second register status = %d, want 400", resp.StatusCode)
	}
	var body struct {
		Message string `json:"message"`
	}
	decodeBody(t, resp, &body)
	if body.Message != "Username already exists" {
		t.Errorf("message = %q, want %q", body.Message, "Username already exists")
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	app := newTestApp(t, "")
	loginAs(t, app, "alice1", "secretpw")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/login", map[string]string{
		"username": "alice1",
		"password": "wrongpw",
	}, ""))
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
	var body struct {
		Message string `json:"message"`
	}
	decodeBody(t, resp, &body)
	if body.Message != "Authentication failed" {
		t.Errorf("message = %q, want %q", body.Message, "Authentication failed")
	}
}

func TestAuthGate(t *testing.T) {
	app := newTestApp(t, "")
	token := loginAs(t, app, "alice1", "secretpw")

	payload := map[string]int{"store": 1, "dept": 2, "size": 100, "type": 1}

	t.Run("missing token", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(http.MethodPost, "/product/add", payload, ""))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", resp.StatusCode)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(http.MethodPost, "/product/add", payload, "not-a-jwt"))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("status = %d, want 403", resp.StatusCode)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(http.MethodPost, "/product/add", payload, token))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusCreated {
			t.Errorf("status = %d, want 201", resp.StatusCode)
		}

		var body struct {
			Message string         `json:"message"`
			Product models.Product `json:"product"`
		}
		decodeBody(t, resp, &body)
		p := body.Product
		if p.ID == "" {
			t.Error("created product has no identifier")
		}
		if p.Store != 1 || p.Dept != 2 || p.Size != 100 || p.Type != 1 {
			t.Errorf("product = %+v, want store=1 dept=2 size=100 type=1", p)
		}
	})
}

func TestProductCRUD(t *testing.T) {
	app := newTestApp(t, "")
	token := loginAs(t, app, "alice1", "secretpw")

	// create
	resp, err := app.Test(jsonRequest(http.MethodPost, "/product/add",
		map[string]int{"store": 4, "dept": 5, "size": 500, "type": 2}, token))
	if err != nil {
		t.Fatalf("add request failed: %v", err)
	}
	var created struct {
		Product models.Product `json:"product"`
	}
	decodeBody(t, resp, &created)
	id := created.Product.ID

	// missing required field
	resp, err = app.Test(jsonRequest(http.MethodPost, "/product/add",
		map[string]int{"store": 4, "dept": 5, "type": 2}, token))
	if err != nil {
		t.Fatalf("add request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("add without size status = %d, want 400", resp.StatusCode)
	}

	// update
	resp, err = app.Test(jsonRequest(http.MethodPost, "/product/update",
		map[string]interface{}{"_id": id, "size": 750}, token))
	if err != nil {
		t.Fatalf("update request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("update status = %d, want 200", resp.StatusCode)
	}

	// update unknown id
	resp, err = app.Test(jsonRequest(http.MethodPost, "/product/update",
		map[string]interface{}{"_id": "missing", "size": 1}, token))
	if err != nil {
		t.Fatalf("update request failed: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("update unknown id status = %d, want 404", resp.StatusCode)
	}

	// list reflects the update
	resp, err = app.Test(jsonRequest(http.MethodGet, "/product", nil, token))
	if err != nil {
		t.Fatalf("list request failed: %v", err)
	}
	var products []models.Product
	decodeBody(t, resp, &products)
	if len(products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(products))
	}
	if products[0].Size != 750 || products[0].Store != 4 {
		t.Errorf("product after update = %+v, want size=750 store=4", products[0])
	}

	// delete
	resp, err = app.Test(jsonRequest(http.MethodDelete, "/product/delete",
		map[string]string{"_id": id}, token))
	if err != nil {
		t.Fatalf("delete request failed: %v", err)
	}
	var deleted struct {
		Deleted bool `json:"deleted"`
	}
	decodeBody(t, resp, &deleted)
	if !deleted.Deleted {
		t.Error("deleted = false, want true")
	}

	// delete again
	resp, err = app.Test(jsonRequest(http.MethodDelete, "/product/delete",
		map[string]string{"_id": id}, token))
	if err != nil {
		t.Fatalf("delete request failed: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", resp.StatusCode)
	}

	// list is empty again
	resp, err = app.Test(jsonRequest(http.MethodGet, "/product", nil, token))
	if err != nil {
		t.Fatalf("list request failed: %v", err)
	}
	decodeBody(t, resp, &products)
	if len(products) != 0 {
		t.Errorf("expected empty list after delete, got %d", len(products))
	}
}

func TestAddBulk(t *testing.T) {
	app := newTestApp(t, "")
	token := loginAs(t, app, "alice1", "secretpw")

	t.Run("valid file inserts every row", func(t *testing.T) {
		contents := "Store,Dept,Size,Type,Date\n" +
			"1,1,100,1,2021-06-18\n" +
			"2,2,200,2,2021-06-18\n" +
			"3,3,300,3,2021-06-18\n"
		resp, err := app.Test(csvRequest(t, "/product/addBulk", "products.csv", contents, token))
		if err != nil {
			t.Fatalf("addBulk request failed: %v", err)
		}
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d, want 201", resp.StatusCode)
		}

		var body struct {
			Success  bool             `json:"success"`
			Products []models.Product `json:"products"`
		}
		decodeBody(t, resp, &body)
		if !body.Success {
			t.Error("success = false, want true")
		}
		if len(body.Products) != 3 {
			t.Errorf("created %d products, want 3", len(body.Products))
		}
	})

	t.Run("malformed row rejects whole batch", func(t *testing.T) {
		contents := "Store,Dept,Size,Type,Date\n" +
			"4,4,400,4,2021-06-18\n" +
			"0,5,500,5,2021-06-18\n"
		resp, err := app.Test(csvRequest(t, "/product/addBulk", "products.csv", contents, token))
		if err != nil {
			t.Fatalf("addBulk request failed: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}

		var body struct {
			Message string `json:"message"`
		}
		decodeBody(t, resp, &body)
		if body.Message != "Missing required fields in row 3" {
			t.Errorf("message = %q, want row 3 error", body.Message)
		}

		// Nothing from the bad batch was persisted.
		listResp, err := app.Test(jsonRequest(http.MethodGet, "/product", nil, token))
		if err != nil {
			t.Fatalf("list request failed: %v", err)
		}
		var products []models.Product
		decodeBody(t, listResp, &products)
		if len(products) != 3 {
			t.Errorf("expected the 3 earlier products only, got %d", len(products))
		}
	})

	t.Run("non-csv file rejected", func(t *testing.T) {
		resp, err := app.Test(csvRequest(t, "/product/addBulk", "products.txt", "Store\n1\n", token))
		if err != nil {
			t.Fatalf("addBulk request failed: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("missing file rejected", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(http.MethodPost, "/product/addBulk", map[string]string{}, token))
		if err != nil {
			t.Fatalf("addBulk request failed: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})
}

func TestPredict(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Products []map[string]interface{} `json:"products"`
		}
		json.NewDecoder(r.Body).Decode(&body)

		sales := make([]float64, len(body.Products))
		for i := range sales {
			sales[i] = float64(i)*100 + 0.6
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":         true,
			"predicted_sales": sales,
		})
	}))
	defer upstream.Close()

	app := newTestApp(t, upstream.URL)
	token := loginAs(t, app, "alice1", "secretpw")

	rows := []map[string]int{
		{"store": 1, "dept": 1, "isholiday": 0, "size": 100, "week": 1, "type": 1, "year": 2021},
		{"store": 2, "dept": 2, "isholiday": 0, "size": 200, "week": 1, "type": 2, "year": 2021},
	}
	resp, err := app.Test(jsonRequest(http.MethodPost, "/product/predict", rows, token))
	if err != nil {
		t.Fatalf("predict request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Success        bool  `json:"success"`
		PredictedSales []int `json:"predicted_sales"`
	}
	decodeBody(t, resp, &body)
	want := []int{1, 101}
	if len(body.PredictedSales) != len(want) {
		t.Fatalf("got %d values, want %d", len(body.PredictedSales), len(want))
	}
	for i := range want {
		if body.PredictedSales[i] != want[i] {
			t.Errorf("predicted_sales[%d] = %d, want %d", i, body.PredictedSales[i], want[i])
		}
	}
}

func TestPredict_UpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close()

	app := newTestApp(t, upstream.URL)
	token := loginAs(t, app, "alice1", "secretpw")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/product/predict", []map[string]int{}, token), -1)
	if err != nil {
		t.Fatalf("predict request failed: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}

	var body struct {
		Message string `json:"message"`
	}
	decodeBody(t, resp, &body)
	if body.Message != "Internal server error" {
		t.Errorf("message = %q, want %q", body.Message, "Internal server error")
	}
}

func TestUploadData(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Data []map[string]string `json:"data"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if len(body.Data) != 2 {
			t.Errorf("upstream received %d rows, want 2", len(body.Data))
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"message": "Model retrained successfully with the new data",
		})
	}))
	defer upstream.Close()

	app := newTestApp(t, upstream.URL)
	token := loginAs(t, app, "alice1", "secretpw")

	contents := "Store,Dept,IsHoliday,Size,Type,Weekly_Sales,Date\n" +
		"1,1,FALSE,151315,A,24924.5,2010-02-05\n" +
		"1,2,TRUE,151315,A,50605.27,2010-02-12\n"
	resp, err := app.Test(csvRequest(t, "/product/uploadData", "train.csv", contents, token))
	if err != nil {
		t.Fatalf("uploadData request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Message string `json:"message"`
		Success bool   `json:"success"`
	}
	decodeBody(t, resp, &body)
	if !body.Success {
		t.Error("success = false, want true")
	}
	if body.Message != "CSV file processed successfully" {
		t.Errorf("message = %q", body.Message)
	}
}

func TestListUsers_NoPasswordLeak(t *testing.T) {
	app := newTestApp(t, "")
	token := loginAs(t, app, "alice1", "secretpw")

	resp, err := app.Test(jsonRequest(http.MethodGet, "/users", nil, token))
	if err != nil {
		t.Fatalf("users request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if strings.Contains(strings.ToLower(string(raw)), "password") {
		t.Errorf("user listing leaks password material: %s", raw)
	}

	var users []map[string]interface{}
	if err := json.Unmarshal(raw, &users); err != nil {
		t.Fatalf("decoding users: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	if users[0]["username"] != "alice1" {
		t.Errorf("username = %v, want alice1", users[0]["username"])
	}
}
