package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/docsync/pkg/api"
)

type fixedEpoch int64

func (e fixedEpoch) LastEpoch() int64 { return int64(e) }

func TestHealthHandler_Health(t *testing.T) {
	tests := []struct {
		epochs    EpochSource
		name      string
		version   string
		wantEpoch int64
	}{
		{name: "reports last assigned epoch", epochs: fixedEpoch(42), version: "1.2.3", wantEpoch: 42},
		{name: "fresh coordinator", epochs: fixedEpoch(0), version: "dev", wantEpoch: 0},
		{name: "no epoch source", epochs: nil, version: "dev", wantEpoch: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(setupTestLogger(), tt.epochs, tt.version)

			w := httptest.NewRecorder()
			handler.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var got api.HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, api.HealthResponse{Status: "ok", Version: tt.version, Epoch: tt.wantEpoch}, got)
		})
	}
}
