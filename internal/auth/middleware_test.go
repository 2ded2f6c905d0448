package auth

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":   "abc",
		"bearer abc ":  "abc",
		"BEARER  abc":  "abc",
		"Basic abc":    "",
		"Bearer":       "",
		"":             "",
		"Bearerabcdef": "",
	}
	for header, want := range cases {
		assert.Equal(t, want, extractBearerToken(header), "header %q", header)
	}
}

func TestMiddleware(t *testing.T) {
	router, service := newTestRouter(t)
	mustRegister(t, service, "a@x.com", "password1")
	pair, err := service.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "password1"})
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + pair.AccessToken, http.StatusUnauthorized},
		{"refresh token", "Bearer " + pair.RefreshToken, http.StatusUnauthorized},
		{"garbage", "Bearer garbage", http.StatusUnauthorized},
		{"access token", "Bearer " + pair.AccessToken, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			header := http.Header{}
			if tc.header != "" {
				header.Set("Authorization", tc.header)
			}
			rec := doJSON(t, router, http.MethodGet, "/v1/me", nil, header)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			if tc.status == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
				return
			}
			assert.Equal(t, "a@x.com", decodeBody(t, rec)["email"])
		})
	}
}
