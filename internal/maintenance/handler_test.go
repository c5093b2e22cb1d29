package maintenance

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborlane/harborlane/internal/platform/httpx"
	"github.com/harborlane/harborlane/internal/rbac"
)

func newTestHandler(repo RepositoryPort) *Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(logger, NewService(repo, allowAll{}, nil), nil, nil, nil, nil, rbac.Middleware{})
}

func postIntake(t *testing.T, handler http.HandlerFunc, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/maintenance", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) httpx.Envelope {
	t.Helper()
	var env httpx.Envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func TestSubmitJSONSuccess(t *testing.T) {
	repo := newFakeRequestRepo()
	h := newTestHandler(repo)

	rec := postIntake(t, h.handleSubmitJSON, url.Values{
		"name":           {"Priya Shah"},
		"email":          {"priya@example.com"},
		"address":        {"201 Quay Road"},
		"description":    {"Kitchen tap dripping constantly"},
		"urgency":        {"high"},
		"preferred_date": {"2026-09-15"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, httpx.StatusSuccess, env.Status)

	require.Len(t, repo.rows, 1)
	stored := repo.rows[1]
	assert.Equal(t, StatusPending, stored.Status)
	assert.Equal(t, UrgencyHigh, stored.Urgency)
	require.NotNil(t, stored.PreferredDate)
	assert.Equal(t, "2026-09-15", stored.PreferredDate.Format("2006-01-02"))
}

func TestSubmitJSONMalformedDateFails(t *testing.T) {
	repo := newFakeRequestRepo()
	h := newTestHandler(repo)

	rec := postIntake(t, h.handleSubmitJSON, url.Values{
		"name":           {"Tom Walsh"},
		"email":          {"tom@example.com"},
		"description":    {"No heating upstairs"},
		"preferred_date": {"next tuesday"},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, httpx.StatusFail, env.Status)
	assert.Empty(t, repo.rows, "nothing is committed on validation failure")
}

func TestSubmitJSONMissingContactFails(t *testing.T) {
	repo := newFakeRequestRepo()
	h := newTestHandler(repo)

	rec := postIntake(t, h.handleSubmitJSON, url.Values{
		"name":        {"No Contact"},
		"description": {"Door will not lock"},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, httpx.StatusFail, env.Status)
	assert.Empty(t, repo.rows)
}
