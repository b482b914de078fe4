package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/voucherledger/internal/adapter/http/dto"
	"github.com/iho/voucherledger/internal/domain"
	"github.com/iho/voucherledger/internal/usecase"
)

// VehicleService defines the behavior needed by VehicleHandler.
type VehicleService interface {
	CreateVehicle(ctx context.Context, input usecase.CreateVehicleInput) (*domain.Vehicle, error)
	GetVehicle(ctx context.Context, id string) (*domain.Vehicle, error)
	ListVehicles(ctx context.Context, companyID string) ([]*domain.Vehicle, error)
	DeleteVehicle(ctx context.Context, id string) error
	DeactivateVehicle(ctx context.Context, id string) error
}

// VehicleHandler handles vehicle-related HTTP requests.
type VehicleHandler struct {
	vehicleUC VehicleService
}

// NewVehicleHandler creates a new VehicleHandler.
func NewVehicleHandler(vehicleUC VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicleUC: vehicleUC}
}

// Create creates a new vehicle.
func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateVehicleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	vehicle, err := h.vehicleUC.CreateVehicle(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to create vehicle", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.VehicleFromDomain(vehicle))
}

// Get retrieves a vehicle by ID.
func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	vehicle, err := h.vehicleUC.GetVehicle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get vehicle", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.VehicleFromDomain(vehicle))
}

// ListByCompany lists the active vehicles of a company.
func (h *VehicleHandler) ListByCompany(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.vehicleUC.ListVehicles(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to list vehicles", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.VehiclesFromDomain(vehicles))
}

// Delete removes a vehicle without vouchers.
func (h *VehicleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.vehicleUC.DeleteVehicle(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, "failed to delete vehicle", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Deactivate retires a vehicle without vouchers.
func (h *VehicleHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.vehicleUC.DeactivateVehicle(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, "failed to deactivate vehicle", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
