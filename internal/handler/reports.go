package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/bobabar/api/internal/report"
	"github.com/go-chi/chi/v5"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportsHandler handles sales report endpoints.
type ReportsHandler struct {
	store report.SalesStore
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(store report.SalesStore) *ReportsHandler {
	return &ReportsHandler{store: store}
}

// RegisterRoutes registers report endpoints on the given Chi router.
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/reports/sales", h.Sales)
	r.Get("/reports/sales.xlsx", h.SalesXLSX)
}

// --- Response types ---

type salesResponse struct {
	From        string            `json:"from"`
	To          string            `json:"to"`
	TotalOrders int64             `json:"totalOrders"`
	Revenue     string            `json:"revenue"`
	TopItems    []topItemResponse `json:"topItems"`
}

type topItemResponse struct {
	ItemName string `json:"itemName"`
	Quantity int64  `json:"quantity"`
	Revenue  string `json:"revenue"`
}

func toSalesResponse(s report.Sales) salesResponse {
	resp := salesResponse{
		From:        s.FromLabel(),
		To:          s.ToLabel(),
		TotalOrders: s.TotalOrders,
		Revenue:     s.Revenue.StringFixed(2),
		TopItems:    make([]topItemResponse, len(s.TopItems)),
	}
	for i, it := range s.TopItems {
		resp.TopItems[i] = topItemResponse{
			ItemName: it.ItemName,
			Quantity: it.Quantity,
			Revenue:  it.Revenue.StringFixed(2),
		}
	}
	return resp
}

// --- Handlers ---

// Sales returns totals and best sellers for ?from=&to= (inclusive days).
func (h *ReportsHandler) Sales(w http.ResponseWriter, r *http.Request) {
	s, ok := h.build(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toSalesResponse(s))
}

// SalesXLSX returns the same report as a spreadsheet download.
func (h *ReportsHandler) SalesXLSX(w http.ResponseWriter, r *http.Request) {
	s, ok := h.build(w, r)
	if !ok {
		return
	}

	// Render fully before writing headers so a failure can still be a 500.
	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, s); err != nil {
		writeInternalError(w, "render sales workbook", err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", salesFilename(s)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck
}

func (h *ReportsHandler) build(w http.ResponseWriter, r *http.Request) (report.Sales, bool) {
	from, to, err := parseDays(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return report.Sales{}, false
	}

	s, err := report.BuildSales(r.Context(), h.store, from, to)
	if err != nil {
		writeInternalError(w, "build sales report", err)
		return report.Sales{}, false
	}
	return s, true
}

func salesFilename(s report.Sales) string {
	name := "sales"
	if from := s.FromLabel(); from != "" {
		name += "_" + from
	}
	if to := s.ToLabel(); to != "" {
		name += "_to_" + to
	}
	return name + ".xlsx"
}
