package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/pawclinic-backend/internal/domain"
	"github.com/yungbote/pawclinic-backend/internal/http/response"
	"github.com/yungbote/pawclinic-backend/internal/services"
)

type PetHandler struct {
	pets    services.PetService
	records services.MedicalRecordService
}

func NewPetHandler(pets services.PetService, records services.MedicalRecordService) *PetHandler {
	return &PetHandler{pets: pets, records: records}
}

// GET /api/pets
func (h *PetHandler) ListMine(c *gin.Context) {
	pets, err := h.pets.ListMyPets(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, "list_pets_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"pets": pets})
}

// POST /api/pets
func (h *PetHandler) Create(c *gin.Context) {
	var req struct {
		Name        string        `json:"name"`
		Species     types.Species `json:"species"`
		Breed       string        `json:"breed"`
		Sex         string        `json:"sex"`
		BirthDate   *time.Time    `json:"birth_date"`
		WeightKg    float64       `json:"weight_kg"`
		AvatarColor string        `json:"avatar_color"`
		Notes       string        `json:"notes"`
	}
	if !bindJSON(c, &req) {
		return
	}
	pet, err := h.pets.CreatePet(c.Request.Context(), services.PetInput{
		Name:        req.Name,
		Species:     req.Species,
		Breed:       req.Breed,
		Sex:         req.Sex,
		BirthDate:   req.BirthDate,
		WeightKg:    req.WeightKg,
		AvatarColor: req.AvatarColor,
		Notes:       req.Notes,
	})
	if err != nil {
		response.RespondServiceError(c, "create_pet_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"pet": pet})
}

// GET /api/pets/:id and GET /api/staff/pets/:id
func (h *PetHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_pet_id")
	if !ok {
		return
	}
	pet, err := h.pets.GetPet(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, "get_pet_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"pet": pet})
}

// PUT /api/pets/:id
func (h *PetHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_pet_id")
	if !ok {
		return
	}
	var req struct {
		Name      *string        `json:"name"`
		Species   *types.Species `json:"species"`
		Breed     *string        `json:"breed"`
		Sex       *string        `json:"sex"`
		BirthDate *time.Time     `json:"birth_date"`
		WeightKg  *float64       `json:"weight_kg"`
		Notes     *string        `json:"notes"`
	}
	if !bindJSON(c, &req) {
		return
	}
	pet, err := h.pets.UpdatePet(c.Request.Context(), id, services.PetPatch{
		Name:      req.Name,
		Species:   req.Species,
		Breed:     req.Breed,
		Sex:       req.Sex,
		BirthDate: req.BirthDate,
		WeightKg:  req.WeightKg,
		Notes:     req.Notes,
	})
	if err != nil {
		response.RespondServiceError(c, "update_pet_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"pet": pet})
}

// DELETE /api/pets/:id
func (h *PetHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_pet_id")
	if !ok {
		return
	}
	if err := h.pets.DeletePet(c.Request.Context(), id); err != nil {
		response.RespondServiceError(c, "delete_pet_failed", err)
		return
	}
	response.RespondNoContent(c)
}

// POST /api/pets/:id/photo
func (h *PetHandler) UploadPhoto(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_pet_id")
	if !ok {
		return
	}
	raw, ok := readImage(c)
	if !ok {
		return
	}
	pet, err := h.pets.UploadPetPhoto(c.Request.Context(), id, raw)
	if err != nil {
		response.RespondServiceError(c, "upload_photo_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"pet": pet})
}

// GET /api/pets/:id/records
func (h *PetHandler) ListRecords(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_pet_id")
	if !ok {
		return
	}
	records, err := h.records.ListPetRecords(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, "list_records_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"records": records})
}
