package handler

import (
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/casepedia/internal/index"
	"github.com/xxxsen/casepedia/internal/model"
	"github.com/xxxsen/casepedia/internal/pkg/errcode"
	"github.com/xxxsen/casepedia/internal/pkg/response"
	"github.com/xxxsen/casepedia/internal/search"
	"github.com/xxxsen/casepedia/internal/service"
)

type SearchHandler struct {
	hybrid *service.HybridService
	idx    *index.Index
}

func NewSearchHandler(hybrid *service.HybridService, idx *index.Index) *SearchHandler {
	return &SearchHandler{hybrid: hybrid, idx: idx}
}

type searchRequest struct {
	Query    string `json:"query"`
	TopK     int    `json:"top_k"`
	Accuracy string `json:"accuracy_level"`
	Category string `json:"category"`
}

func (r searchRequest) toRequest() search.Request {
	return search.Request{
		Query:    r.Query,
		TopK:     r.TopK,
		Accuracy: model.AccuracyLevel(strings.ToLower(strings.TrimSpace(r.Accuracy))),
		Category: r.Category,
	}
}

// Search is the plain ranked search endpoint.
func (h *SearchHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	results, decision, err := h.hybrid.Search(c.Request.Context(), req.toRequest())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"query":     req.Query,
		"results":   results,
		"threshold": decision,
		"count":     len(results),
	})
}

type hybridRequest struct {
	Query             string `json:"query"`
	TopK              int    `json:"top_k"`
	IncludeGenerative *bool  `json:"include_generative"`
	TimeoutSeconds    int    `json:"timeout_seconds"`
	Accuracy          string `json:"accuracy_level"`
	Category          string `json:"category"`
}

// Hybrid runs the single-shot orchestrated search.
func (h *SearchHandler) Hybrid(c *gin.Context) {
	var req hybridRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	includeGenerative := true
	if req.IncludeGenerative != nil {
		includeGenerative = *req.IncludeGenerative
	}
	result, err := h.hybrid.HybridSearch(c.Request.Context(), service.HybridRequest{
		Query:             req.Query,
		TopK:              req.TopK,
		IncludeGenerative: includeGenerative,
		TimeoutSeconds:    req.TimeoutSeconds,
		Accuracy:          model.AccuracyLevel(strings.ToLower(strings.TrimSpace(req.Accuracy))),
		Category:          req.Category,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

// Fast serves the deadline-bounded quick path.
func (h *SearchHandler) Fast(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	result, err := h.hybrid.QuickSearch(c.Request.Context(), req.toRequest())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

// Stream emits the progressive pipeline phases as server-sent events, one
// event per phase, named after the phase.
func (h *SearchHandler) Stream(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		response.Error(c, errcode.ErrInvalid, "query required")
		return
	}
	topK, _ := strconv.Atoi(c.DefaultQuery("top_k", "0"))
	req := search.Request{
		Query:    query,
		TopK:     topK,
		Accuracy: model.AccuracyLevel(strings.ToLower(c.Query("accuracy_level"))),
		Category: c.Query("category"),
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	stages := h.hybrid.StreamSearch(c.Request.Context(), req)
	c.Stream(func(w io.Writer) bool {
		stage, ok := <-stages
		if !ok {
			return false
		}
		c.SSEvent(string(stage.Phase), stage)
		return true
	})
}

// Stats reports index shape plus pipeline and cache counters.
func (h *SearchHandler) Stats(c *gin.Context) {
	response.Success(c, gin.H{
		"index":    h.idx.Stats(),
		"pipeline": h.hybrid.Stats(),
	})
}
