package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iudanet/docsync/internal/server/handlers"
)

func TestBearerTokenMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		header         string
		expectedToken  string
		expectedStatus int
		expectToken    bool
	}{
		{
			name:           "No header passes through",
			header:         "",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Bearer token stored in context",
			header:         "Bearer abc.def.ghi",
			expectedStatus: http.StatusOK,
			expectToken:    true,
			expectedToken:  "abc.def.ghi",
		},
		{
			name:           "Scheme is case insensitive",
			header:         "bearer token-1",
			expectedStatus: http.StatusOK,
			expectToken:    true,
			expectedToken:  "token-1",
		},
		{
			name:           "Wrong scheme",
			header:         "Basic dXNlcjpwYXNz",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Missing token",
			header:         "Bearer ",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "No separator",
			header:         "Bearertoken",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotToken string
			var gotOK bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotToken, gotOK = handlers.GetSessionToken(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/v1/sync/pull", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			BearerTokenMiddleware(logger)(next).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectToken, gotOK)
			assert.Equal(t, tt.expectedToken, gotToken)
		})
	}
}
