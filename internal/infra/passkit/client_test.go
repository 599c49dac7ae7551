package passkit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pass-app/internal/domain/passes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issueRequest() passes.IssueRequest {
	return passes.IssueRequest{
		PassID:     "0123456789abcdef",
		SessionID:  "cs_test_1",
		HolderName: "Guest",
		Email:      "guest@example.com",
		Tier:       passes.Tier30,
		Expiry:     time.Date(2026, 1, 30, 18, 29, 59, 999000000, time.UTC),
	}
}

func TestIssue_Success(t *testing.T) {
	var got issueBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"passId":"pk_42","smartLinkUrl":"https://pub1.pskt.io/abc"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIURL: srv.URL, Token: "secret-token", ProgramID: "prog", ClassID: "cls"})
	pass, err := c.Issue(context.Background(), issueRequest())
	require.NoError(t, err)

	assert.Equal(t, "pk_42", pass.IssuerID)
	assert.Equal(t, "https://pub1.pskt.io/abc", pass.LinkURL)
	assert.Equal(t, "0123456789abcdef", got.ExternalID, "externalId must be the derived pass id")
	assert.Equal(t, "2026-01-30T18:29:59.999Z", got.Expiry)
	assert.Equal(t, "prog", got.ProgramID)
	assert.Equal(t, passes.Tier30, got.Tier)
	assert.Equal(t, "guest@example.com", got.Person.EmailAddress)
}

func TestIssue_AlternateFieldNames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"pk_7","url":"https://link"}`))
	}))
	defer srv.Close()

	pass, err := NewClient(Config{APIURL: srv.URL}).Issue(context.Background(), issueRequest())
	require.NoError(t, err)
	assert.Equal(t, passes.IssuedPass{IssuerID: "pk_7", LinkURL: "https://link"}, pass)
}

func TestIssue_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"error body", http.StatusUnprocessableEntity, `{"error":"class not found"}`, "class not found"},
		{"plain body", http.StatusBadGateway, `upstream down`, "upstream down"},
		{"missing link", http.StatusOK, `{"passId":"pk_1"}`, "missing id or link"},
		{"garbage", http.StatusOK, `not json`, "decode response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(Config{APIURL: srv.URL}).Issue(context.Background(), issueRequest())
			require.Error(t, err)
			assert.ErrorIs(t, err, passes.ErrIssuer)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestIssue_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := NewClient(Config{APIURL: srv.URL, Timeout: 20 * time.Millisecond}).Issue(context.Background(), issueRequest())
	assert.ErrorIs(t, err, passes.ErrIssuer)
}
