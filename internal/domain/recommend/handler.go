package recommend

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/clinic/rxengine/internal/domain/patient"
	"github.com/clinic/rxengine/internal/platform/auth"
)

// Handler serves the recommendation endpoints over the clinic-scoped API group.
type Handler struct {
	svc *Service
}

// NewHandler returns a Handler backed by svc.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the four recommendation operations under
// /recommendations. Only physicians and pharmacists may call them.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/recommendations", auth.RequireRole("physician", "pharmacist"))
	g.POST("/medicines", h.SuggestMedicines)
	g.POST("/dosage", h.SuggestDosage)
	g.POST("/interactions", h.CheckInteractions)
	g.POST("/optimize", h.OptimizePrescription)
}

// InteractionRequest is the body of POST /recommendations/interactions.
// PatientID is optional; when set, the patient's allergies are checked too.
type InteractionRequest struct {
	Medications []string `json:"medications" validate:"dive,required"`
	PatientID   string   `json:"patient_id,omitempty"`
}

// OptimizeRequest is the body of POST /recommendations/optimize.
type OptimizeRequest struct {
	Prescription patient.Prescription `json:"prescription"`
	PatientID    string               `json:"patient_id" validate:"required"`
	Diagnosis    string               `json:"diagnosis,omitempty"`
}

func (h *Handler) SuggestMedicines(c echo.Context) error {
	var req SuggestionRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	out, err := h.svc.SuggestMedicines(c.Request().Context(), req)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) SuggestDosage(c echo.Context) error {
	var req SuggestionRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.MedicineName) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "medicine_name is required")
	}
	out, err := h.svc.SuggestDosage(c.Request().Context(), req.MedicineName, req)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) CheckInteractions(c echo.Context) error {
	var req InteractionRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	out, err := h.svc.CheckInteractions(c.Request().Context(), req.Medications, req.PatientID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) OptimizePrescription(c echo.Context) error {
	var req OptimizeRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	out, err := h.svc.OptimizePrescription(c.Request().Context(), req.Prescription, req.PatientID, req.Diagnosis)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, out)
}

func bindValid(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge {
			return he
		}
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func serviceError(err error) error {
	var dae *DataAccessError
	if errors.As(err, &dae) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "clinical data temporarily unavailable")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
