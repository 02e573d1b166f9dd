package helpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginBody struct {
	Email string `json:"email"`
}

func (b loginBody) Validate() []string {
	var errs []string
	if b.Email == "" {
		errs = append(errs, "email is required")
	}
	return errs
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestWriteJSONSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSONSuccess(rec, http.StatusCreated, MessageResponse{Message: "ok"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"message":"ok"},"error":null}`, rec.Body.String())
}

func TestWriteServerError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteServerError(rec)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Nil(t, resp.Data)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInternalError, resp.Error.Code)
	assert.Equal(t, ServerErrorMessage, resp.Error.Message)
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantOK  bool
		wantMsg string
	}{
		{name: "valid", body: `{"email":"a@example.com"}`, wantOK: true},
		{name: "empty body", body: ``, wantMsg: "request body is required"},
		{name: "malformed json", body: `{"email":`},
		{name: "unknown field", body: `{"email":"a@example.com","admin":true}`, wantMsg: "unknown field"},
		{name: "trailing data", body: `{"email":"a@example.com"}{}`, wantMsg: "single JSON object"},
		{name: "validator failure", body: `{}`, wantMsg: "email is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			var dest loginBody

			ok := DecodeAndValidate(rec, req, &dest)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, "a@example.com", dest.Email)
				return
			}
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeEnvelope(t, rec)
			require.NotNil(t, resp.Error)
			assert.Equal(t, ErrCodeBadRequest, resp.Error.Code)
			if tt.wantMsg != "" {
				assert.Contains(t, resp.Error.Message, tt.wantMsg)
			}
		})
	}
}

func TestDecodeObject(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantKeys []string
		wantErr  string
	}{
		{name: "object", body: `{"title":5,"venue":"x"}`, wantKeys: []string{"title", "venue"}},
		{name: "empty object", body: `{}`, wantKeys: []string{}},
		{name: "empty body", body: ``, wantErr: "request body is required"},
		{name: "null", body: `null`, wantErr: "JSON object"},
		{name: "array", body: `[1]`, wantErr: "cannot unmarshal"},
		{name: "trailing data", body: `{}{}`, wantErr: "single JSON object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/events/ev-1", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			fields, err := DecodeObject(rec, req)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Equal(t, 0, rec.Body.Len())
				return
			}
			require.NoError(t, err)
			keys := make([]string, 0, len(fields))
			for k := range fields {
				keys = append(keys, k)
			}
			assert.ElementsMatch(t, tt.wantKeys, keys)
		})
	}
}
