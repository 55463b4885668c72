package mockapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/codenestai/client/internal/logging"
	"github.com/codenestai/client/internal/models"
)

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	respondJSON(ctx, w, status, map[string]string{"error": message})
}

func respondValidation(ctx context.Context, w http.ResponseWriter, fields map[string]string) {
	respondJSON(ctx, w, http.StatusBadRequest, map[string]any{"errors": fields})
}

// respondStatus writes a bodiless response, as the platform does for 204s and lookups that
// miss.
func respondStatus(ctx context.Context, w http.ResponseWriter, status int) {
	w.WriteHeader(status)
	if status >= http.StatusBadRequest {
		logging.FromContext(ctx).Warn("request returned client error", "status", status)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type pageRequest struct {
	page int
	size int
}

func parsePage(r *http.Request, defaultSize int) pageRequest {
	q := r.URL.Query()
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 0 {
		page = 0
	}
	size, err := strconv.Atoi(q.Get("size"))
	if err != nil || size <= 0 {
		size = defaultSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return pageRequest{page: page, size: size}
}

func paginate[T any](items []T, req pageRequest) models.Page[T] {
	total := len(items)
	totalPages := (total + req.size - 1) / req.size

	start := req.page * req.size
	if start > total {
		start = total
	}
	end := start + req.size
	if end > total {
		end = total
	}

	content := make([]T, 0, end-start)
	content = append(content, items[start:end]...)
	return models.Page[T]{
		Content:       content,
		TotalElements: total,
		TotalPages:    totalPages,
		Number:        req.page,
		Size:          req.size,
		Last:          req.page >= totalPages-1,
	}
}
