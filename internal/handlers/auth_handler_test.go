package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "finledger/internal/errors"
	"finledger/internal/logger"
	"finledger/internal/middleware"
	"finledger/internal/models"
	"finledger/internal/validator"
)

const (
	testUserID     = "0190a5e4-7a3c-7d2e-8f10-1a2b3c4d5e6f"
	testCategoryID = "0190a5e4-7a3c-7d2e-8f10-2b3c4d5e6f70"
	testTxID       = "0190a5e4-7a3c-7d2e-8f10-3c4d5e6f7081"
)

// --- mock services ---

type mockUserService struct {
	registerFn       func(username, email, password string) (*models.User, error)
	authenticateFn   func(username, password string) (*models.User, error)
	getUserByIDFn    func(id string) (*models.User, error)
	changePasswordFn func(userID, current, next string) error
}

func (m *mockUserService) Register(_ context.Context, username, email, password string) (*models.User, error) {
	if m.registerFn != nil {
		return m.registerFn(username, email, password)
	}
	return &models.User{Base: models.Base{ID: testUserID}, Username: username, Email: email}, nil
}

func (m *mockUserService) Authenticate(_ context.Context, username, password string) (*models.User, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(username, password)
	}
	return &models.User{Base: models.Base{ID: testUserID}, Username: username}, nil
}

func (m *mockUserService) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{Base: models.Base{ID: id}}, nil
}

func (m *mockUserService) ChangePassword(_ context.Context, userID, current, next string) error {
	if m.changePasswordFn != nil {
		return m.changePasswordFn(userID, current, next)
	}
	return nil
}

type auditEntry struct {
	action     string
	resourceID string
}

type mockAuditService struct {
	entries []auditEntry
}

func (m *mockAuditService) Log(_, action, _, resourceID, _ string, _ map[string]interface{}) {
	m.entries = append(m.entries, auditEntry{action: action, resourceID: resourceID})
}

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

func newTestTokens() *middleware.TokenManager {
	return middleware.NewTokenManager("handler-test-secret", time.Hour)
}

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	r.GET("/profile", injectUserID(testUserID), handler.GetProfile)
	r.PUT("/profile/password", injectUserID(testUserID), handler.ChangePassword)
	return r
}

func injectUserID(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, uid)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

// --- tests ---

func TestAuthHandler_Register(t *testing.T) {
	t.Run("returns 201 with a usable token and seeds defaults", func(t *testing.T) {
		seeded := ""
		tokens := newTestTokens()
		catSvc := &mockCategoryService{
			ensureDefaultsFn: func(userID string) error {
				seeded = userID
				return nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, catSvc, tokens))

		rec := doRequest(r, http.MethodPost, "/auth/register",
			`{"username":"alice","email":"alice@example.com","password":"password123"}`)
		assertStatus(t, rec, http.StatusCreated)

		if seeded != testUserID {
			t.Errorf("expected defaults seeded for %s, got %q", testUserID, seeded)
		}

		var resp AuthResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.User.Username != "alice" {
			t.Errorf("expected username alice, got %s", resp.User.Username)
		}
		if resp.ExpiresIn != int64(time.Hour.Seconds()) {
			t.Errorf("expected expires_in 3600, got %d", resp.ExpiresIn)
		}
		claims, err := tokens.Validate(resp.Token)
		if err != nil {
			t.Fatalf("issued token does not validate: %v", err)
		}
		if claims.UserID != testUserID {
			t.Errorf("expected token for %s, got %s", testUserID, claims.UserID)
		}
	})

	t.Run("rejects overlong username", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, &mockCategoryService{}, newTestTokens()))

		rec := doRequest(r, http.MethodPost, "/auth/register",
			`{"username":"this-name-is-way-too-long","email":"alice@example.com","password":"password123"}`)
		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("accepts short and non-ascii usernames", func(t *testing.T) {
		for _, name := range []string{"a", "Жанна"} {
			r := setupAuthRouter(NewAuthHandler(&mockUserService{}, &mockCategoryService{}, newTestTokens()))

			rec := doRequest(r, http.MethodPost, "/auth/register",
				`{"username":"`+name+`","email":"a@example.com","password":"password123"}`)
			assertStatus(t, rec, http.StatusCreated)
		}
	})

	t.Run("rejects short password", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, &mockCategoryService{}, newTestTokens()))

		rec := doRequest(r, http.MethodPost, "/auth/register",
			`{"username":"alice","email":"alice@example.com","password":"short"}`)
		assertStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("maps duplicate username to 409", func(t *testing.T) {
		userSvc := &mockUserService{
			registerFn: func(_, _, _ string) (*models.User, error) {
				return nil, apperrors.ErrDuplicateUsername
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockCategoryService{}, newTestTokens()))

		rec := doRequest(r, http.MethodPost, "/auth/register",
			`{"username":"alice","email":"alice@example.com","password":"password123"}`)
		assertStatus(t, rec, http.StatusConflict)
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_USERNAME")
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("returns 200 with token", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, &mockCategoryService{}, newTestTokens()))

		rec := doRequest(r, http.MethodPost, "/auth/login", `{"username":"alice","password":"password123"}`)
		assertStatus(t, rec, http.StatusOK)

		result := parseJSON(t, rec)
		if result["token"] == "" || result["token"] == nil {
			t.Error("expected token in response")
		}
	})

	t.Run("returns 401 on bad credentials", func(t *testing.T) {
		userSvc := &mockUserService{
			authenticateFn: func(_, _ string) (*models.User, error) {
				return nil, apperrors.ErrInvalidCredentials
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockCategoryService{}, newTestTokens()))

		rec := doRequest(r, http.MethodPost, "/auth/login", `{"username":"alice","password":"wrong"}`)
		assertStatus(t, rec, http.StatusUnauthorized)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_CREDENTIALS")
	})

	t.Run("surfaces seeding failure", func(t *testing.T) {
		catSvc := &mockCategoryService{
			ensureDefaultsFn: func(string) error {
				return apperrors.ErrInternalServer
			},
		}
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, catSvc, newTestTokens()))

		rec := doRequest(r, http.MethodPost, "/auth/login", `{"username":"alice","password":"password123"}`)
		assertStatus(t, rec, http.StatusInternalServerError)
	})
}

func TestAuthHandler_Profile(t *testing.T) {
	t.Run("returns the current user", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserByIDFn: func(id string) (*models.User, error) {
				return &models.User{Base: models.Base{ID: id}, Username: "alice", Email: "alice@example.com"}, nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockCategoryService{}, newTestTokens()))

		rec := doRequest(r, http.MethodGet, "/profile", "")
		assertStatus(t, rec, http.StatusOK)

		user := parseJSON(t, rec)["user"].(map[string]interface{})
		if user["id"] != testUserID {
			t.Errorf("expected id %s, got %v", testUserID, user["id"])
		}
	})

	t.Run("requires authentication", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{}, &mockCategoryService{}, newTestTokens())
		r := gin.New()
		r.GET("/profile", handler.GetProfile)

		rec := doRequest(r, http.MethodGet, "/profile", "")
		assertStatus(t, rec, http.StatusUnauthorized)
		assertErrorCode(t, parseJSON(t, rec), "UNAUTHORIZED")
	})

	t.Run("changes password", func(t *testing.T) {
		var gotCurrent, gotNext string
		userSvc := &mockUserService{
			changePasswordFn: func(_, current, next string) error {
				gotCurrent, gotNext = current, next
				return nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockCategoryService{}, newTestTokens()))

		rec := doRequest(r, http.MethodPut, "/profile/password",
			`{"current_password":"password123","new_password":"password456"}`)
		assertStatus(t, rec, http.StatusNoContent)
		if gotCurrent != "password123" || gotNext != "password456" {
			t.Errorf("unexpected passwords forwarded: %q %q", gotCurrent, gotNext)
		}
	})
}
