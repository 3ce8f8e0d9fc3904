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

type HotelHandler struct {
	hotel services.HotelService
}

func NewHotelHandler(hotel services.HotelService) *HotelHandler {
	return &HotelHandler{hotel: hotel}
}

// GET /api/hotel/rooms?check_in=YYYY-MM-DD&check_out=YYYY-MM-DD
func (h *HotelHandler) ListRooms(c *gin.Context) {
	checkIn, err := timeQuery(c, "check_in")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_dates", err)
		return
	}
	checkOut, err := timeQuery(c, "check_out")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_dates", err)
		return
	}
	rooms, err := h.hotel.ListRooms(c.Request.Context(), checkIn, checkOut)
	if err != nil {
		response.RespondServiceError(c, "list_rooms_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"rooms": rooms})
}

// POST /api/hotel/reservations
func (h *HotelHandler) Reserve(c *gin.Context) {
	var req struct {
		PetID    uuid.UUID `json:"pet_id"`
		RoomID   uuid.UUID `json:"room_id"`
		CheckIn  string    `json:"check_in"`
		CheckOut string    `json:"check_out"`
		Notes    string    `json:"notes"`
	}
	if !bindJSON(c, &req) {
		return
	}
	checkIn, err1 := parseDay(req.CheckIn)
	checkOut, err2 := parseDay(req.CheckOut)
	if err1 != nil || err2 != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_dates", errFirst(err1, err2))
		return
	}
	res, err := h.hotel.Reserve(c.Request.Context(), services.ReserveRequest{
		PetID:    req.PetID,
		RoomID:   req.RoomID,
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Notes:    req.Notes,
	})
	if err != nil {
		response.RespondServiceError(c, "reserve_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"reservation": res})
}

// GET /api/hotel/reservations
func (h *HotelHandler) ListMine(c *gin.Context) {
	list, err := h.hotel.ListMyReservations(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, "list_reservations_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"reservations": list})
}

// GET /api/hotel/reservations/:id
func (h *HotelHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_reservation_id")
	if !ok {
		return
	}
	res, err := h.hotel.GetReservation(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, "get_reservation_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"reservation": res})
}

// PUT /api/hotel/reservations/:id
// Owners may only cancel; staff drive the rest of the lifecycle.
func (h *HotelHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_reservation_id")
	if !ok {
		return
	}
	var req struct {
		Status *types.ReservationStatus `json:"status"`
		Notes  *string                  `json:"notes"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.hotel.UpdateReservation(c.Request.Context(), id, services.UpdateReservationInput{
		Status: req.Status,
		Notes:  req.Notes,
	})
	if err != nil {
		response.RespondServiceError(c, "update_reservation_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"reservation": res})
}

// GET /api/admin/hotel/rooms
func (h *HotelHandler) ListAllRooms(c *gin.Context) {
	rooms, err := h.hotel.ListAllRooms(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, "list_rooms_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"rooms": rooms})
}

// POST /api/admin/hotel/rooms
func (h *HotelHandler) CreateRoom(c *gin.Context) {
	var req struct {
		Number           string         `json:"number"`
		Kind             types.RoomKind `json:"kind"`
		NightlyRateCents int64          `json:"nightly_rate_cents"`
		Notes            string         `json:"notes"`
	}
	if !bindJSON(c, &req) {
		return
	}
	room, err := h.hotel.CreateRoom(c.Request.Context(), services.RoomInput{
		Number:           req.Number,
		Kind:             req.Kind,
		NightlyRateCents: req.NightlyRateCents,
		Notes:            req.Notes,
	})
	if err != nil {
		response.RespondServiceError(c, "create_room_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"room": room})
}

// PUT /api/admin/hotel/rooms/:id
// body: { "maintenance": true } takes the room out of service.
func (h *HotelHandler) UpdateRoom(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_room_id")
	if !ok {
		return
	}
	var req struct {
		Kind             *types.RoomKind `json:"kind"`
		NightlyRateCents *int64          `json:"nightly_rate_cents"`
		Notes            *string         `json:"notes"`
		Maintenance      *bool           `json:"maintenance"`
	}
	if !bindJSON(c, &req) {
		return
	}
	room, err := h.hotel.UpdateRoom(c.Request.Context(), id, services.RoomPatch{
		Kind:             req.Kind,
		NightlyRateCents: req.NightlyRateCents,
		Notes:            req.Notes,
		Maintenance:      req.Maintenance,
	})
	if err != nil {
		response.RespondServiceError(c, "update_room_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"room": room})
}

// parseDay accepts YYYY-MM-DD or a full RFC3339 timestamp.
func parseDay(raw string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func errFirst(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
