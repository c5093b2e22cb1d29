package properties

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
	return NewHandler(testLogger(), NewService(repo, allowAll{}, nil), nil, nil, nil, nil, rbac.Middleware{})
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func postForm(t *testing.T, handler http.HandlerFunc, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/properties", strings.NewReader(form.Encode()))
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

func TestCreateJSONSuccess(t *testing.T) {
	repo := newFakePropertyRepo()
	h := newTestHandler(repo)

	rec := postForm(t, h.handleCreateJSON, url.Values{
		"title":    {"Lakeview Villa"},
		"address":  {"1 Shore Dr"},
		"city":     {"Austin"},
		"price":    {"250000"},
		"bedrooms": {"3"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, httpx.StatusSuccess, env.Status)

	require.Len(t, repo.rows, 1)
	stored := repo.rows[1]
	assert.Equal(t, 250000.0, stored.Price)
	assert.Equal(t, 3, stored.Bedrooms)
}

func TestCreateJSONBlankNumericsCoerceToZero(t *testing.T) {
	repo := newFakePropertyRepo()
	h := newTestHandler(repo)

	rec := postForm(t, h.handleCreateJSON, url.Values{
		"title":   {"Bare"},
		"address": {"2 Shore Dr"},
		"price":   {""},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, repo.rows, 1)
	assert.Equal(t, 0.0, repo.rows[1].Price)
	assert.Equal(t, 0, repo.rows[1].Bedrooms)
}

func TestCreateJSONMalformedPriceFails(t *testing.T) {
	repo := newFakePropertyRepo()
	h := newTestHandler(repo)

	rec := postForm(t, h.handleCreateJSON, url.Values{
		"title":   {"Broken"},
		"address": {"3 Shore Dr"},
		"price":   {"lots"},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, httpx.StatusFail, env.Status)
	assert.Contains(t, env.Message, "price")
	assert.Empty(t, repo.rows, "nothing is committed on validation failure")
}

func TestCreateJSONMissingTitleFails(t *testing.T) {
	repo := newFakePropertyRepo()
	h := newTestHandler(repo)

	rec := postForm(t, h.handleCreateJSON, url.Values{
		"address": {"4 Shore Dr"},
		"price":   {"90000"},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, httpx.StatusFail, env.Status)
	assert.Empty(t, repo.rows)
}
