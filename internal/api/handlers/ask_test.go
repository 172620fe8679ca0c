package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/killallgit/highlight-api/internal/models"
)

type fakeAsker struct {
	resp      models.AskResponse
	err       error
	lastQuery string
	lastTopK  int
}

func (f *fakeAsker) Ask(_ context.Context, query string, topK int) (models.AskResponse, error) {
	f.lastQuery = query
	f.lastTopK = topK
	return f.resp, f.err
}

func setupRouter(asker *fakeAsker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/v1/ask", NewAskHandler(asker).HandleAsk)
	return router
}

func postAsk(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleAsk(t *testing.T) {
	asker := &fakeAsker{resp: models.AskResponse{
		Answer: "Here are the highlights that match your question:\n• a.mp4 [00:05.000-00:10.000]: A goal.",
		Matches: []models.Match{
			{HighlightID: 1, VideoID: 1, Filename: "a.mp4", StartSeconds: 5, EndSeconds: 10, Title: "Goal", Summary: "A goal."},
		},
	}}
	router := setupRouter(asker)

	w := postAsk(router, `{"query": "show me goals", "top_k": 3}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.AskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Matches, 1)
	assert.Equal(t, "a.mp4", resp.Matches[0].Filename)

	assert.Equal(t, "show me goals", asker.lastQuery)
	assert.Equal(t, 3, asker.lastTopK)
}

func TestHandleAskValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ``},
		{"missing query", `{"top_k": 3}`},
		{"empty query", `{"query": ""}`},
		{"top_k too large", `{"query": "goals", "top_k": 50}`},
		{"top_k negative", `{"query": "goals", "top_k": -1}`},
		{"malformed json", `{"query": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asker := &fakeAsker{}
			w := postAsk(setupRouter(asker), tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, asker.lastQuery)
		})
	}
}

func TestHandleAskDefaultTopK(t *testing.T) {
	asker := &fakeAsker{resp: models.AskResponse{Answer: "x"}}
	router := setupRouter(asker)

	w := postAsk(router, `{"query": "goals"}`)
	require.Equal(t, http.StatusOK, w.Code)

	// Zero passes through; the engine applies its configured default
	assert.Equal(t, 0, asker.lastTopK)
}

func TestHandleAskEngineError(t *testing.T) {
	asker := &fakeAsker{err: errors.New("embedding model missing")}
	router := setupRouter(asker)

	w := postAsk(router, `{"query": "goals"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
}
