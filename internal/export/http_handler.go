package export

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Handler exposes the export service as an HTTP endpoint.
type Handler struct {
	service *Service
}

// NewHTTPHandler wraps the service with a GET endpoint streaming an xlsx
// workbook.
func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req := Request{
		TypeName: strings.TrimSpace(r.URL.Query().Get("typeName")),
		Pattern:  r.URL.Query().Get("pattern"),
	}
	if raw := r.URL.Query().Get("startFrom"); raw != "" {
		startFrom, err := strconv.Atoi(raw)
		if err != nil || startFrom < 0 {
			http.Error(w, "invalid startFrom", http.StatusBadRequest)
			return
		}
		req.StartFrom = startFrom
	}

	workbook, err := h.service.ExportElements(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	fileName := fmt.Sprintf("elements-%s.xlsx", time.Now().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	if _, err := workbook.WriteTo(w); err != nil {
		// Response already started, nothing left to report to the client.
		return
	}
}
