package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/voucherledger/internal/adapter/http/dto"
	"github.com/iho/voucherledger/internal/domain"
	"github.com/iho/voucherledger/internal/usecase"
)

// CompanyService defines the behavior needed by CompanyHandler.
type CompanyService interface {
	CreateCompany(ctx context.Context, input usecase.CreateCompanyInput) (*domain.Company, error)
	GetCompany(ctx context.Context, id string) (*domain.Company, error)
	ListCompanies(ctx context.Context, input usecase.ListCompaniesInput) ([]*domain.Company, error)
	DeactivateCompany(ctx context.Context, id string) (*domain.Company, error)
}

// VoucherNumberService allocates and commits voucher numbers.
type VoucherNumberService interface {
	AllocateVoucherNumber(ctx context.Context, companyID string) (int64, error)
	CommitVoucherNumber(ctx context.Context, companyID string, assigned int64) (int64, error)
}

// CompanyHandler handles company-related HTTP requests.
type CompanyHandler struct {
	companyUC   CompanyService
	sequencerUC VoucherNumberService
}

// NewCompanyHandler creates a new CompanyHandler.
func NewCompanyHandler(companyUC CompanyService, sequencerUC VoucherNumberService) *CompanyHandler {
	return &CompanyHandler{companyUC: companyUC, sequencerUC: sequencerUC}
}

// Create creates a new company.
func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCompanyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, r, "invalid company", err)
		return
	}

	company, err := h.companyUC.CreateCompany(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, "failed to create company", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.CompanyFromDomain(company))
}

// Get retrieves a company by ID.
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	company, err := h.companyUC.GetCompany(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get company", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CompanyFromDomain(company))
}

// List lists companies.
func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	companies, err := h.companyUC.ListCompanies(r.Context(), usecase.ListCompaniesInput{
		Limit:  parseIntQuery(r, "limit", 20),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, r, "failed to list companies", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListCompaniesResponse{
		Companies: dto.CompaniesFromDomain(companies),
		Total:     int64(len(companies)),
	})
}

// Deactivate retires a company.
func (h *CompanyHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	company, err := h.companyUC.DeactivateCompany(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to deactivate company", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CompanyFromDomain(company))
}

// NextVoucherNumber returns the number the next voucher would receive.
// Nothing is reserved.
func (h *CompanyHandler) NextVoucherNumber(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	next, err := h.sequencerUC.AllocateVoucherNumber(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, "failed to allocate voucher number", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.VoucherNumberResponse{CompanyID: id, VoucherNumber: next})
}

// CommitVoucherNumber raises the company's high-water mark to the assigned
// number when it is higher.
func (h *CompanyHandler) CommitVoucherNumber(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.CommitVoucherNumberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	last, err := h.sequencerUC.CommitVoucherNumber(r.Context(), id, req.Assigned)
	if err != nil {
		writeDomainError(w, r, "failed to commit voucher number", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.VoucherNumberResponse{CompanyID: id, VoucherNumber: last})
}
