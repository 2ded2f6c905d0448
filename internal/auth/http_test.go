package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	service, _ := newTestService(t)
	router := gin.New()
	RegisterRoutes(router.Group("/v1"), service)

	protected := router.Group("/v1")
	protected.Use(Middleware(service))
	protected.GET("/me", func(c *gin.Context) {
		id, user, ok := RequireUser(c)
		if !ok {
			c.Status(http.StatusUnauthorized)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id.String(), "email": user.Email})
	})
	return router, service
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHTTPRegister(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/auth/register",
		map[string]string{"email": "a@x.com", "password": "password1"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, "a@x.com", body["email"])
	assert.NotEmpty(t, body["id"])
	assert.NotContains(t, body, "password_hash")
	assert.NotContains(t, body, "access_token")

	rec = doJSON(t, router, http.MethodPost, "/v1/auth/register",
		map[string]string{"email": "a@x.com", "password": "password2"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHTTPRegisterValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/auth/register",
		map[string]string{"email": "nope", "password": "x"}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "validation failed", body["error"])
	fields, ok := body["fields"].([]any)
	require.True(t, ok)
	assert.Len(t, fields, 2)
}

func TestHTTPRegisterMalformedBody(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPLoginJSONAndForm(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/v1/auth/register",
		map[string]string{"email": "a@x.com", "password": "password1"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/v1/auth/login",
		map[string]string{"email": "a@x.com", "password": "password1"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "bearer", body["token_type"])
	assert.NotEqual(t, body["access_token"], body["refresh_token"])

	form := url.Values{"username": {"a@x.com"}, "password": {"password1"}}
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	formRec := httptest.NewRecorder()
	router.ServeHTTP(formRec, req)
	require.Equal(t, http.StatusOK, formRec.Code, formRec.Body.String())
	assert.NotEmpty(t, decodeBody(t, formRec)["access_token"])
}

func TestHTTPLoginFailure(t *testing.T) {
	router, _ := newTestRouter(t)
	doJSON(t, router, http.MethodPost, "/v1/auth/register",
		map[string]string{"email": "a@x.com", "password": "password1"}, nil)

	wrong := doJSON(t, router, http.MethodPost, "/v1/auth/login",
		map[string]string{"email": "a@x.com", "password": "password2"}, nil)
	unknown := doJSON(t, router, http.MethodPost, "/v1/auth/login",
		map[string]string{"email": "b@x.com", "password": "password1"}, nil)

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
	assert.Equal(t, "Bearer", wrong.Header().Get("WWW-Authenticate"))
}

func TestHTTPRefresh(t *testing.T) {
	router, _ := newTestRouter(t)
	doJSON(t, router, http.MethodPost, "/v1/auth/register",
		map[string]string{"email": "a@x.com", "password": "password1"}, nil)
	login := decodeBody(t, doJSON(t, router, http.MethodPost, "/v1/auth/login",
		map[string]string{"email": "a@x.com", "password": "password1"}, nil))

	rec := doJSON(t, router, http.MethodPost, "/v1/auth/refresh",
		map[string]any{"refresh_token": login["refresh_token"]}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decodeBody(t, rec)["access_token"])

	rec = doJSON(t, router, http.MethodPost, "/v1/auth/refresh",
		map[string]any{"refresh_token": login["access_token"]}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
