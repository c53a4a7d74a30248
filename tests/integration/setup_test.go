package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"finledger/internal/logger"
	"finledger/internal/middleware"
	"finledger/internal/server"
	"finledger/internal/testutil"
	"finledger/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	router := server.NewRouter(db, server.Options{
		Tokens:       middleware.NewTokenManager("integration-secret", time.Hour),
		ReportLocale: "en",
	})

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// mustStatus fails the test unless rec carries the expected status and
// returns the decoded body.
func mustStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) map[string]interface{} {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
	if rec.Body.Len() == 0 {
		return nil
	}
	return parseJSON(t, rec)
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the token and user ID.
func (app *testApp) registerUser(t *testing.T, username string) (token, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"email":"%s@example.com","password":"password123"}`, username, username)
	result := mustStatus(t, app.request(http.MethodPost, "/api/v1/auth/register", body, ""), http.StatusCreated)
	user := result["user"].(map[string]interface{})
	return result["token"].(string), user["id"].(string)
}

// createCategory creates a category and returns its ID.
func (app *testApp) createCategory(t *testing.T, token, name, categoryType string) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"type":%q}`, name, categoryType)
	result := mustStatus(t, app.request(http.MethodPost, "/api/v1/categories", body, token), http.StatusCreated)
	return result["category"].(map[string]interface{})["id"].(string)
}

// record records a transaction and returns its ID.
func (app *testApp) record(t *testing.T, token, categoryID, name, amount, date string) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"amount":%q,"date":%q}`, name, amount, date)
	path := "/api/v1/categories/" + categoryID + "/transactions"
	result := mustStatus(t, app.request(http.MethodPost, path, body, token), http.StatusCreated)
	return result["transaction"].(map[string]interface{})["id"].(string)
}

// reservedID looks up the catch-all category of the given type.
func (app *testApp) reservedID(t *testing.T, token, categoryType string) string {
	t.Helper()
	result := mustStatus(t, app.request(http.MethodGet, "/api/v1/categories?type="+categoryType, "", token), http.StatusOK)
	for _, raw := range result["categories"].([]interface{}) {
		cat := raw.(map[string]interface{})
		if cat["reserved"] == true {
			return cat["id"].(string)
		}
	}
	t.Fatalf("no reserved %s category", categoryType)
	return ""
}

// report fetches the monthly report for categoryID with an optional query suffix.
func (app *testApp) report(t *testing.T, token, categoryID, extra string) map[string]interface{} {
	t.Helper()
	path := "/api/v1/statistics?category_id=" + categoryID + extra
	return mustStatus(t, app.request(http.MethodGet, path, "", token), http.StatusOK)
}

// bucketTotals maps month names to totals of a decoded report.
func bucketTotals(report map[string]interface{}) map[string]string {
	totals := map[string]string{}
	for _, raw := range report["buckets"].([]interface{}) {
		b := raw.(map[string]interface{})
		totals[b["month"].(string)] = b["total"].(string)
	}
	return totals
}

// listTransactions returns the transactions of one category.
func (app *testApp) listTransactions(t *testing.T, token, categoryID string) []interface{} {
	t.Helper()
	result := mustStatus(t, app.request(http.MethodGet, "/api/v1/transactions?category_id="+categoryID, "", token), http.StatusOK)
	return result["data"].([]interface{})
}
