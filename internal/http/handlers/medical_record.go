package handlers

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/pawclinic-backend/internal/domain"
	"github.com/yungbote/pawclinic-backend/internal/http/response"
	"github.com/yungbote/pawclinic-backend/internal/services"
)

type MedicalRecordHandler struct {
	records services.MedicalRecordService
}

func NewMedicalRecordHandler(records services.MedicalRecordService) *MedicalRecordHandler {
	return &MedicalRecordHandler{records: records}
}

// POST /api/staff/pets/:id/records
func (h *MedicalRecordHandler) Create(c *gin.Context) {
	petID, ok := uuidParam(c, "id", "invalid_pet_id")
	if !ok {
		return
	}
	var req struct {
		VetID     *uuid.UUID       `json:"vet_id"`
		Kind      types.RecordKind `json:"kind"`
		Title     string           `json:"title"`
		Diagnosis string           `json:"diagnosis"`
		Treatment string           `json:"treatment"`
		Notes     string           `json:"notes"`
		Vitals    json.RawMessage  `json:"vitals"`
		VisitedAt *time.Time       `json:"visited_at"`
		NextDueAt *time.Time       `json:"next_due_at"`
	}
	if !bindJSON(c, &req) {
		return
	}
	rec, err := h.records.CreateRecord(c.Request.Context(), petID, services.RecordInput{
		VetID:     req.VetID,
		Kind:      req.Kind,
		Title:     req.Title,
		Diagnosis: req.Diagnosis,
		Treatment: req.Treatment,
		Notes:     req.Notes,
		Vitals:    req.Vitals,
		VisitedAt: req.VisitedAt,
		NextDueAt: req.NextDueAt,
	})
	if err != nil {
		response.RespondServiceError(c, "create_record_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"record": rec})
}

// PUT /api/staff/records/:id
func (h *MedicalRecordHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_record_id")
	if !ok {
		return
	}
	var req struct {
		Kind      *types.RecordKind `json:"kind"`
		Title     *string           `json:"title"`
		Diagnosis *string           `json:"diagnosis"`
		Treatment *string           `json:"treatment"`
		Notes     *string           `json:"notes"`
		Vitals    json.RawMessage   `json:"vitals"`
		VisitedAt *time.Time        `json:"visited_at"`
		NextDueAt *time.Time        `json:"next_due_at"`
	}
	if !bindJSON(c, &req) {
		return
	}
	rec, err := h.records.UpdateRecord(c.Request.Context(), id, services.RecordPatch{
		Kind:      req.Kind,
		Title:     req.Title,
		Diagnosis: req.Diagnosis,
		Treatment: req.Treatment,
		Notes:     req.Notes,
		Vitals:    req.Vitals,
		VisitedAt: req.VisitedAt,
		NextDueAt: req.NextDueAt,
	})
	if err != nil {
		response.RespondServiceError(c, "update_record_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"record": rec})
}

// DELETE /api/staff/records/:id
func (h *MedicalRecordHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_record_id")
	if !ok {
		return
	}
	if err := h.records.DeleteRecord(c.Request.Context(), id); err != nil {
		response.RespondServiceError(c, "delete_record_failed", err)
		return
	}
	response.RespondNoContent(c)
}
