package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/dzeya/mensor-construction-4/internal/articles"
	"github.com/dzeya/mensor-construction-4/internal/models"
)

type articleStore interface {
	List() []models.ArticleSummary
	Get(slug string) (models.Article, error)
}

type ArticleHandler struct {
	store articleStore
}

func NewArticleHandler(store articleStore) *ArticleHandler {
	return &ArticleHandler{store: store}
}

func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.ArticleListResponse{Articles: h.store.List()})
}

func (h *ArticleHandler) Get(w http.ResponseWriter, r *http.Request) {
	article, err := h.store.Get(chi.URLParam(r, "slug"))
	if errors.Is(err, articles.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResp("Article not found"))
		return
	}
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, article)
}
