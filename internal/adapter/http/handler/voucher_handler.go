package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/voucherledger/internal/adapter/http/dto"
	"github.com/iho/voucherledger/internal/domain"
	"github.com/iho/voucherledger/internal/usecase"
)

// VoucherService defines the behavior needed by VoucherHandler.
type VoucherService interface {
	CreateVoucher(ctx context.Context, input usecase.CreateVoucherInput) (*domain.Voucher, error)
	UpdateVoucher(ctx context.Context, input usecase.UpdateVoucherInput) (*domain.Voucher, error)
	DeleteVoucher(ctx context.Context, id string) error
	GetVoucher(ctx context.Context, id string) (*domain.Voucher, error)
	ListVehicleVouchers(ctx context.Context, vehicleID string, dateRange *domain.DateRange) ([]*domain.Voucher, error)
	ListCompanyVouchers(ctx context.Context, companyID string, start, end time.Time) ([]*domain.Voucher, error)
}

// VoucherHandler handles voucher-related HTTP requests.
type VoucherHandler struct {
	voucherUC VoucherService
}

// NewVoucherHandler creates a new VoucherHandler.
func NewVoucherHandler(voucherUC VoucherService) *VoucherHandler {
	return &VoucherHandler{voucherUC: voucherUC}
}

// Create posts a voucher.
func (h *VoucherHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateVoucherRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, r, "invalid voucher", err)
		return
	}

	voucher, err := h.voucherUC.CreateVoucher(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, "failed to create voucher", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.VoucherFromDomain(voucher))
}

// Get retrieves a voucher by ID.
func (h *VoucherHandler) Get(w http.ResponseWriter, r *http.Request) {
	voucher, err := h.voucherUC.GetVoucher(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get voucher", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.VoucherFromDomain(voucher))
}

// Update edits a voucher at the version the client last read.
func (h *VoucherHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateVoucherRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "invalid voucher", err)
		return
	}

	voucher, err := h.voucherUC.UpdateVoucher(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, "failed to update voucher", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.VoucherFromDomain(voucher))
}

// Delete removes a voucher.
func (h *VoucherHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.voucherUC.DeleteVoucher(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, "failed to delete voucher", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListByVehicle lists a vehicle's vouchers, optionally within start..end.
func (h *VoucherHandler) ListByVehicle(w http.ResponseWriter, r *http.Request) {
	var dateRange *domain.DateRange
	if r.URL.Query().Has("start") || r.URL.Query().Has("end") {
		start, err := dto.ParseDay("start", r.URL.Query().Get("start"))
		if err != nil {
			writeDomainError(w, r, "invalid date range", err)
			return
		}
		end, err := dto.ParseDay("end", r.URL.Query().Get("end"))
		if err != nil {
			writeDomainError(w, r, "invalid date range", err)
			return
		}
		dateRange = &domain.DateRange{Start: start, End: end}
	}

	vouchers, err := h.voucherUC.ListVehicleVouchers(r.Context(), chi.URLParam(r, "id"), dateRange)
	if err != nil {
		writeDomainError(w, r, "failed to list vouchers", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.VouchersFromDomain(vouchers))
}

// ListByCompany returns the company's day book between start and end.
func (h *VoucherHandler) ListByCompany(w http.ResponseWriter, r *http.Request) {
	start, err := dto.ParseDay("start", r.URL.Query().Get("start"))
	if err != nil {
		writeDomainError(w, r, "invalid date range", err)
		return
	}
	end, err := dto.ParseDay("end", r.URL.Query().Get("end"))
	if err != nil {
		writeDomainError(w, r, "invalid date range", err)
		return
	}

	vouchers, err := h.voucherUC.ListCompanyVouchers(r.Context(), chi.URLParam(r, "id"), start, end)
	if err != nil {
		writeDomainError(w, r, "failed to list vouchers", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.VouchersFromDomain(vouchers))
}
