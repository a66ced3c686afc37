package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cloo-solutions/goalsight/internal/api"
	"github.com/cloo-solutions/goalsight/internal/domain"
	"github.com/cloo-solutions/goalsight/internal/service"
)

type SearchService interface {
	Search(ctx context.Context, input service.SearchInput) (*service.SearchOutput, error)
	Ask(ctx context.Context, query string) (*service.AnswerOutput, error)
	GetRecord(ctx context.Context, id string) (*domain.Record, error)
}

type SearchHandler struct {
	svc SearchService
}

func NewSearchHandler(svc SearchService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

type SearchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
	Mode  string `json:"mode,omitempty"`
}

type SearchResultResponse struct {
	RecordID      string   `json:"record_id"`
	Kind          string   `json:"kind"`
	Title         string   `json:"title"`
	Owner         string   `json:"owner,omitempty"`
	Department    string   `json:"department,omitempty"`
	Health        string   `json:"health"`
	SemanticScore float64  `json:"semantic_score"`
	KeywordScore  float64  `json:"keyword_score"`
	HybridScore   float64  `json:"hybrid_score"`
	Reasons       []string `json:"reasons,omitempty"`
}

type AnswerResponse struct {
	Text      string   `json:"text"`
	SourceIDs []string `json:"source_ids,omitempty"`
	Model     string   `json:"model,omitempty"`
	Degraded  bool     `json:"degraded"`
}

type SearchResponse struct {
	Results []*SearchResultResponse `json:"results"`
	Answer  *AnswerResponse         `json:"answer,omitempty"`
}

type AskRequest struct {
	Query string `json:"query"`
}

type RecordResponse struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Owner       string `json:"owner,omitempty"`
	Department  string `json:"department,omitempty"`
	Health      string `json:"health"`
	EndDate     string `json:"end_date,omitempty"`
	LastUpdate  string `json:"last_update,omitempty"`
	ParentID    string `json:"parent_id,omitempty"`
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	out, err := h.svc.Search(r.Context(), service.SearchInput{
		Query: req.Query,
		K:     req.K,
		Mode:  service.SearchMode(req.Mode),
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := SearchResponse{Results: make([]*SearchResultResponse, len(out.Results))}
	for i, res := range out.Results {
		resp.Results[i] = toSearchResultResponse(res)
	}
	if out.Answer != nil {
		resp.Answer = toAnswerResponse(out.Answer)
	}

	api.Success(w, http.StatusOK, resp)
}

func (h *SearchHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	answer, err := h.svc.Ask(r.Context(), req.Query)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, toAnswerResponse(answer))
}

func (h *SearchHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "record id is required")
		return
	}

	rec, err := h.svc.GetRecord(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, toRecordResponse(rec))
}

func toSearchResultResponse(res *service.SearchResult) *SearchResultResponse {
	reasons := make([]string, len(res.Reasons))
	for i, reason := range res.Reasons {
		reasons[i] = string(reason)
	}
	if len(reasons) == 0 {
		reasons = nil
	}
	return &SearchResultResponse{
		RecordID:      res.RecordID,
		Kind:          string(res.Kind),
		Title:         res.Title,
		Owner:         res.Owner,
		Department:    res.Department,
		Health:        string(res.Health),
		SemanticScore: res.SemanticScore,
		KeywordScore:  res.KeywordScore,
		HybridScore:   res.HybridScore,
		Reasons:       reasons,
	}
}

func toAnswerResponse(answer *service.AnswerOutput) *AnswerResponse {
	return &AnswerResponse{
		Text:      answer.Text,
		SourceIDs: answer.SourceIDs,
		Model:     answer.Model,
		Degraded:  answer.Degraded,
	}
}

func toRecordResponse(rec *domain.Record) *RecordResponse {
	resp := &RecordResponse{
		ID:          rec.ID,
		Kind:        string(rec.Kind),
		Title:       rec.Title,
		Description: rec.Description,
		Owner:       rec.Owner,
		Department:  rec.Department,
		Health:      string(rec.Health),
		LastUpdate:  rec.LastUpdate,
		ParentID:    rec.ParentID,
	}
	if rec.EndDate != nil {
		resp.EndDate = rec.EndDate.Format(time.RFC3339)
	}
	return resp
}
