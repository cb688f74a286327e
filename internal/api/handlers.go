package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Response payloads. Nullable metrics marshal as JSON null, mirroring the
// store's missing-denominator semantics.
type segmentValueResponse struct {
	SegmentValue string `json:"segment_value"`
	SegmentOrder int    `json:"segment_order"`
}

type factResponse struct {
	SegmentValue  string   `json:"segment_value"`
	ItemName      string   `json:"item_name"`
	Value         *float64 `json:"value"`
	Reliability   string   `json:"reliability"`
	IsIncome      bool     `json:"is_income_metric"`
	IsConsumption bool     `json:"is_consumption_metric"`
	SourceFile    string   `json:"source_file"`
}

type burnRateResponse struct {
	SegmentValue string   `json:"segment_value"`
	BurnRatePct  *float64 `json:"burn_rate_pct"`
}

type inequalityResponse struct {
	ItemName      string  `json:"item_name"`
	TopSegment    string  `json:"top_segment"`
	BottomSegment string  `json:"bottom_segment"`
	Ratio         float64 `json:"ratio"`
}

func (s *Server) handleSegmentTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.store.ListSegmentTypes(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if types == nil {
		types = []string{}
	}
	s.writeJSON(w, http.StatusOK, types)
}

func (s *Server) handleSegmentValues(w http.ResponseWriter, r *http.Request) {
	segType := segTypeParam(r)

	values, err := s.store.ListSegmentValues(r.Context(), segType)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	out := make([]segmentValueResponse, 0, len(values))
	for _, v := range values {
		out = append(out, segmentValueResponse{
			SegmentValue: v.SegmentValue,
			SegmentOrder: v.SegmentOrder,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleFacts(w http.ResponseWriter, r *http.Request) {
	segType := segTypeParam(r)
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	facts, err := s.store.ListFacts(r.Context(), segType, limit, offset)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	out := make([]factResponse, 0, len(facts))
	for _, f := range facts {
		out = append(out, factResponse{
			SegmentValue:  f.SegmentValue,
			ItemName:      f.ItemName,
			Value:         f.Value,
			Reliability:   f.Reliability,
			IsIncome:      f.IsIncome,
			IsConsumption: f.IsConsumption,
			SourceFile:    f.SourceFile,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBurnRate(w http.ResponseWriter, r *http.Request) {
	segType := segTypeParam(r)

	rates, err := s.store.BurnRates(r.Context(), segType)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	out := make([]burnRateResponse, 0, len(rates))
	for _, br := range rates {
		out = append(out, burnRateResponse{
			SegmentValue: br.SegmentValue,
			BurnRatePct:  br.BurnRatePct,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleInequality(w http.ResponseWriter, r *http.Request) {
	segType := segTypeParam(r)
	top := queryInt(r, "top", 10)

	items, err := s.store.TopInequality(r.Context(), segType, top)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	out := make([]inequalityResponse, 0, len(items))
	for _, it := range items {
		out = append(out, inequalityResponse{
			ItemName:      it.ItemName,
			TopSegment:    it.TopSegment,
			BottomSegment: it.BottomSegment,
			Ratio:         it.Ratio,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("query failed", "path", r.URL.Path, "error", err)
	http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
}

// segTypeParam returns the {type} path parameter. Segment types contain
// spaces, so the raw parameter may arrive percent-encoded.
func segTypeParam(r *http.Request) string {
	raw := chi.URLParam(r, "type")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
