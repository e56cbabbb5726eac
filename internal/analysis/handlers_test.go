package analysis

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
)

func testAuth(userID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		return c.Next()
	}
}

func testApp(mock pgxmock.PgxPoolIface, maxBytes int64) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app.Group("/analysis"), NewService(mock, nil, nil, Options{}), testAuth("user-1"), nil, maxBytes)
	return app
}

func multipartUpload(t *testing.T, fileName, contents string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := fw.Write([]byte(contents)); err != nil {
		t.Fatalf("write form: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestUploadHandler(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	expectInsert(mock, "user-1", "lap.csv", "csv")

	body, contentType := multipartUpload(t, "lap.csv", sampleCSV)
	req := httptest.NewRequest(http.MethodPost, "/analysis/", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := testApp(mock, 0).Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var a Analysis
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a.FileName != "lap.csv" || a.UserID != "user-1" {
		t.Fatalf("unexpected analysis: %+v", a)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUploadHandlerRawBody(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	expectInsert(mock, "user-1", "upload", "csv")

	req := httptest.NewRequest(http.MethodPost, "/analysis/", strings.NewReader(sampleCSV))
	resp, err := testApp(mock, 0).Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
}

func TestUploadHandlerInvalidInput(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	body, contentType := multipartUpload(t, "bad.csv", "speed\n\"unterminated")
	req := httptest.NewRequest(http.MethodPost, "/analysis/", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := testApp(mock, 0).Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	var out struct {
		Valid  bool   `json:"valid"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Valid || out.Reason == "" {
		t.Fatalf("expected invalid verdict with reason, got %+v", out)
	}
}

func TestUploadHandlerEmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/analysis/", nil)
	resp, err := testApp(nil, 0).Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestUploadHandlerTooLarge(t *testing.T) {
	body, contentType := multipartUpload(t, "lap.csv", sampleCSV)
	req := httptest.NewRequest(http.MethodPost, "/analysis/", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := testApp(nil, 8).Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.StatusCode)
	}
}

func TestHistoryHandlerEmpty(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, user_id, file_name, format, lap_seconds, top_speed, report, created_at`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "file_name", "format", "lap_seconds", "top_speed", "report", "created_at"}))

	resp, err := testApp(mock, 0).Test(httptest.NewRequest(http.MethodGet, "/analysis/", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var list []Analysis
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %v", list)
	}
}

func TestGetHandlerNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, user_id, file_name, format, lap_seconds, top_speed, report, created_at`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	resp, err := testApp(mock, 0).Test(httptest.NewRequest(http.MethodGet, "/analysis/missing", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestGetHandler(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, user_id, file_name, format, lap_seconds, top_speed, report, created_at`).
		WithArgs("an-1").
		WillReturnRows(analysisRows(t, "an-1"))

	resp, err := testApp(mock, 0).Test(httptest.NewRequest(http.MethodGet, "/analysis/an-1", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var a Analysis
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a.ID != "an-1" || a.Report.LapTime != "1:30.000" {
		t.Fatalf("unexpected analysis: %+v", a)
	}
}
