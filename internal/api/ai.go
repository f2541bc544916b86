package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// AIRequest is the body for the /ai/* text operations.
type AIRequest struct {
	Text       string `json:"text"`
	MaxPoints  int    `json:"max_points,omitempty"`
	NumTopics  int    `json:"num_topics,omitempty"`
	Language   string `json:"language,omitempty"`
	TargetLang string `json:"target_language,omitempty"`
	SourceLang string `json:"source_language,omitempty"`
}

func (s *Server) decodeAIRequest(w http.ResponseWriter, r *http.Request) (AIRequest, bool) {
	var req AIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if req.Text == "" {
		s.errorResponse(w, http.StatusBadRequest, "text is required")
		return req, false
	}
	return req, true
}

// handleAISummary summarizes raw text.
// POST /ai/summary {"text": "...", "max_points": 5, "language": "ko"}
func (s *Server) handleAISummary(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeAIRequest(w, r)
	if !ok {
		return
	}

	summary, err := s.ai.Summarize(r.Context(), req.Text, req.MaxPoints, req.Language)
	if err != nil {
		s.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"summary": summary}, s.logger)
}

// handleAITranslate translates raw text.
// POST /ai/translate {"text": "...", "target_language": "ko"}
func (s *Server) handleAITranslate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeAIRequest(w, r)
	if !ok {
		return
	}
	if req.TargetLang == "" {
		s.errorResponse(w, http.StatusBadRequest, "target_language is required")
		return
	}

	translation, err := s.ai.Translate(r.Context(), req.Text, req.TargetLang, req.SourceLang)
	if err != nil {
		s.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"translation": translation}, s.logger)
}

// handleAITopics extracts key topics from raw text.
// POST /ai/topics {"text": "...", "num_topics": 5}
func (s *Server) handleAITopics(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeAIRequest(w, r)
	if !ok {
		return
	}

	topics, err := s.ai.Topics(r.Context(), req.Text, req.NumTopics, req.Language)
	if err != nil {
		s.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{"topics": topics}, s.logger)
}

// handleAIEnhance runs summary, translation, and topics in one call.
// Individual failures degrade to missing fields, mirroring the scrape
// pipeline.
// POST /ai/enhance {"text": "...", "target_language": "ko"}
func (s *Server) handleAIEnhance(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeAIRequest(w, r)
	if !ok {
		return
	}
	if !s.ai.Available() {
		s.errorResponse(w, http.StatusServiceUnavailable, "AI features are not configured")
		return
	}

	resp := map[string]any{}

	if summary, err := s.ai.Summarize(r.Context(), req.Text, req.MaxPoints, req.Language); err != nil {
		s.logger.Warn("enhance: summarization failed", "error", err)
	} else {
		resp["summary"] = summary
	}

	if req.TargetLang != "" {
		if translation, err := s.ai.Translate(r.Context(), req.Text, req.TargetLang, req.SourceLang); err != nil {
			s.logger.Warn("enhance: translation failed", "error", err)
		} else {
			resp["translation"] = translation
		}
	}

	if topics, err := s.ai.Topics(r.Context(), req.Text, req.NumTopics, req.Language); err != nil {
		s.logger.Warn("enhance: topic extraction failed", "error", err)
	} else {
		resp["topics"] = topics
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, resp, s.logger)
}

// handleAIHealth reports whether AI features can be served.
// GET /ai/health
func (s *Server) handleAIHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.ai == nil || !s.ai.Available() {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]any{"status": "unavailable", "reason": "no API key configured"}, s.logger)
		return
	}
	writeJSON(w, map[string]any{"status": "healthy"}, s.logger)
}

// handleUsageStats returns aggregated AI token usage.
// GET /usage/stats?days=7
func (s *Server) handleUsageStats(w http.ResponseWriter, r *http.Request) {
	if s.usage == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "usage tracking is not configured")
		return
	}

	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.errorResponse(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = n
	}

	end := time.Now().Add(time.Minute)
	start := end.Add(-time.Duration(days) * 24 * time.Hour)

	total, err := s.usage.UsageSummary(r.Context(), start, end)
	if err != nil {
		s.fail(w, err)
		return
	}
	byOp, err := s.usage.UsageByOperation(r.Context(), start, end)
	if err != nil {
		s.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{
		"days":         days,
		"total":        total,
		"by_operation": byOp,
	}, s.logger)
}
