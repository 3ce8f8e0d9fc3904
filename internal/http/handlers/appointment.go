package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/pawclinic-backend/internal/domain"
	"github.com/yungbote/pawclinic-backend/internal/http/response"
	"github.com/yungbote/pawclinic-backend/internal/services"
)

type AppointmentHandler struct {
	appointments services.AppointmentService
}

func NewAppointmentHandler(appointments services.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments}
}

// GET /api/services
func (h *AppointmentHandler) ListServices(c *gin.Context) {
	list, err := h.appointments.ListServices(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, "list_services_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"services": list})
}

// POST /api/admin/services
func (h *AppointmentHandler) CreateService(c *gin.Context) {
	var req struct {
		Name            string `json:"name"`
		Slug            string `json:"slug"`
		Description     string `json:"description"`
		DurationMinutes int    `json:"duration_minutes"`
		PriceCents      int64  `json:"price_cents"`
		Active          *bool  `json:"active"`
	}
	if !bindJSON(c, &req) {
		return
	}
	svc, err := h.appointments.CreateService(c.Request.Context(), services.ServiceInput{
		Name:            req.Name,
		Slug:            req.Slug,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		PriceCents:      req.PriceCents,
		Active:          req.Active,
	})
	if err != nil {
		response.RespondServiceError(c, "create_service_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"service": svc})
}

// PUT /api/admin/services/:id
func (h *AppointmentHandler) UpdateService(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_service_id")
	if !ok {
		return
	}
	var req struct {
		Name            *string `json:"name"`
		Description     *string `json:"description"`
		DurationMinutes *int    `json:"duration_minutes"`
		PriceCents      *int64  `json:"price_cents"`
		Active          *bool   `json:"active"`
	}
	if !bindJSON(c, &req) {
		return
	}
	svc, err := h.appointments.UpdateService(c.Request.Context(), id, services.ServicePatch{
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		PriceCents:      req.PriceCents,
		Active:          req.Active,
	})
	if err != nil {
		response.RespondServiceError(c, "update_service_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"service": svc})
}

// GET /api/appointments/availability?vet_id=&service_id=&date=YYYY-MM-DD
func (h *AppointmentHandler) Availability(c *gin.Context) {
	vetID, err := uuid.Parse(c.Query("vet_id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_vet_id", err)
		return
	}
	serviceID, err := uuid.Parse(c.Query("service_id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_service_id", err)
		return
	}
	slots, err := h.appointments.Availability(c.Request.Context(), vetID, c.Query("date"), serviceID)
	if err != nil {
		response.RespondServiceError(c, "availability_failed", err)
		return
	}
	if slots == nil {
		slots = []time.Time{}
	}
	response.RespondOK(c, gin.H{"slots": slots})
}

// POST /api/appointments
func (h *AppointmentHandler) Book(c *gin.Context) {
	var req struct {
		PetID     uuid.UUID `json:"pet_id"`
		VetID     uuid.UUID `json:"vet_id"`
		ServiceID uuid.UUID `json:"service_id"`
		StartsAt  time.Time `json:"starts_at"`
		Reason    string    `json:"reason"`
	}
	if !bindJSON(c, &req) {
		return
	}
	appt, err := h.appointments.Book(c.Request.Context(), services.BookInput{
		PetID:     req.PetID,
		VetID:     req.VetID,
		ServiceID: req.ServiceID,
		StartsAt:  req.StartsAt,
		Reason:    req.Reason,
	})
	if err != nil {
		response.RespondServiceError(c, "book_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"appointment": appt})
}

// GET /api/appointments
func (h *AppointmentHandler) ListMine(c *gin.Context) {
	list, err := h.appointments.ListMyAppointments(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, "list_appointments_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"appointments": list})
}

// POST /api/appointments/:id/cancel
func (h *AppointmentHandler) CancelMine(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_appointment_id")
	if !ok {
		return
	}
	appt, err := h.appointments.CancelMyAppointment(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, "cancel_appointment_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"appointment": appt})
}

// GET /api/staff/appointments?from=&to=&vet_id=&status=
func (h *AppointmentHandler) List(c *gin.Context) {
	from, err := timeQuery(c, "from")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_range", err)
		return
	}
	to, err := timeQuery(c, "to")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_range", err)
		return
	}
	q := services.AppointmentQuery{From: from, To: to, Status: types.AppointmentStatus(c.Query("status"))}
	if raw := c.Query("vet_id"); raw != "" {
		vetID, err := uuid.Parse(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_vet_id", err)
			return
		}
		q.VetID = &vetID
	}
	list, err := h.appointments.ListAppointments(c.Request.Context(), q)
	if err != nil {
		response.RespondServiceError(c, "list_appointments_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"appointments": list})
}

// PUT /api/staff/appointments/:id
// body: { "status": "completed", "notes": "..." }
func (h *AppointmentHandler) UpdateStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_appointment_id")
	if !ok {
		return
	}
	var req struct {
		Status types.AppointmentStatus `json:"status"`
		Notes  *string                 `json:"notes"`
	}
	if !bindJSON(c, &req) {
		return
	}
	appt, err := h.appointments.UpdateAppointmentStatus(c.Request.Context(), id, req.Status, req.Notes)
	if err != nil {
		response.RespondServiceError(c, "update_appointment_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"appointment": appt})
}
