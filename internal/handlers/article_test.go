package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/dzeya/mensor-construction-4/internal/articles"
	"github.com/dzeya/mensor-construction-4/internal/models"
)

func articleRouter(t *testing.T) http.Handler {
	t.Helper()
	store, err := articles.Default()
	require.NoError(t, err)

	h := NewArticleHandler(store)
	r := chi.NewRouter()
	r.Get("/api/articles", h.List)
	r.Get("/api/articles/{slug}", h.Get)
	return r
}

func TestArticleHandler_List(t *testing.T) {
	rr := httptest.NewRecorder()
	articleRouter(t).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/articles", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp models.ArticleListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Articles, 4)
	require.Equal(t, "geodeziya", resp.Articles[0].Slug)
	require.NotContains(t, rr.Body.String(), `"content"`)
}

func TestArticleHandler_Get(t *testing.T) {
	rr := httptest.NewRecorder()
	articleRouter(t).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/articles/toposemka", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var article models.Article
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &article))
	require.Equal(t, "toposemka", article.Slug)
	require.NotEmpty(t, article.Content)
}

func TestArticleHandler_GetUnknown(t *testing.T) {
	rr := httptest.NewRecorder()
	articleRouter(t).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/articles/nope", nil))

	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "Article not found", decodeError(t, rr))
}
