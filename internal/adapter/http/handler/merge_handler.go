package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/voucherledger/internal/adapter/http/dto"
	"github.com/iho/voucherledger/internal/domain"
)

// MergeService defines the behavior needed by MergeHandler.
type MergeService interface {
	Merge(ctx context.Context, sourceID, targetID string) (*domain.MergeResult, error)
}

// MergeHandler handles vehicle merges.
type MergeHandler struct {
	mergeUC MergeService
}

// NewMergeHandler creates a new MergeHandler.
func NewMergeHandler(mergeUC MergeService) *MergeHandler {
	return &MergeHandler{mergeUC: mergeUC}
}

// Merge folds the path vehicle into the target named in the body. A merge
// that already completed is answered with 200 and already_applied set.
func (h *MergeHandler) Merge(w http.ResponseWriter, r *http.Request) {
	var req dto.MergeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.mergeUC.Merge(r.Context(), chi.URLParam(r, "id"), req.TargetVehicleID)
	if err != nil {
		writeDomainError(w, r, "failed to merge vehicles", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MergeFromDomain(result))
}
