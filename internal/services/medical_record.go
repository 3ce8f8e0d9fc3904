package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/pawclinic-backend/internal/data/repos"
	types "github.com/yungbote/pawclinic-backend/internal/domain"
	"github.com/yungbote/pawclinic-backend/internal/platform/apierr"
	"github.com/yungbote/pawclinic-backend/internal/platform/dbctx"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
)

type RecordInput struct {
	VetID     *uuid.UUID
	Kind      types.RecordKind
	Title     string
	Diagnosis string
	Treatment string
	Notes     string
	Vitals    json.RawMessage
	VisitedAt *time.Time
	NextDueAt *time.Time
}

type RecordPatch struct {
	Kind      *types.RecordKind
	Title     *string
	Diagnosis *string
	Treatment *string
	Notes     *string
	Vitals    json.RawMessage
	VisitedAt *time.Time
	NextDueAt *time.Time
}

type MedicalRecordService interface {
	// ListPetRecords returns a pet's records newest visit first, for its owner or staff.
	ListPetRecords(ctx context.Context, petID uuid.UUID) ([]*types.MedicalRecord, error)
	CreateRecord(ctx context.Context, petID uuid.UUID, in RecordInput) (*types.MedicalRecord, error)
	UpdateRecord(ctx context.Context, id uuid.UUID, in RecordPatch) (*types.MedicalRecord, error)
	DeleteRecord(ctx context.Context, id uuid.UUID) error
}

type medicalRecordService struct {
	db         *gorm.DB
	log        *logger.Logger
	petRepo    repos.PetRepo
	recordRepo repos.MedicalRecordRepo
	userRepo   repos.UserRepo
	clock      Clock
}

func NewMedicalRecordService(
	db *gorm.DB,
	log *logger.Logger,
	petRepo repos.PetRepo,
	recordRepo repos.MedicalRecordRepo,
	userRepo repos.UserRepo,
) MedicalRecordService {
	return &medicalRecordService{
		db:         db,
		log:        log.With("service", "MedicalRecordService"),
		petRepo:    petRepo,
		recordRepo: recordRepo,
		userRepo:   userRepo,
	}
}

func (ms *medicalRecordService) ListPetRecords(ctx context.Context, petID uuid.UUID) ([]*types.MedicalRecord, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	pet, err := ms.petRepo.GetByID(dbc, petID)
	if err != nil {
		return nil, apierr.Internal("list_records_failed", err)
	}
	if pet == nil || (pet.OwnerID != rd.UserID && !callerIsStaff(rd)) {
		return nil, apierr.NotFound("pet_not_found")
	}
	rows, err := ms.recordRepo.ListByPet(dbc, pet.ID)
	if err != nil {
		return nil, apierr.Internal("list_records_failed", err)
	}
	return rows, nil
}

func (ms *medicalRecordService) CreateRecord(ctx context.Context, petID uuid.UUID, in RecordInput) (*types.MedicalRecord, error) {
	rd, err := requireStaff(ctx)
	if err != nil {
		return nil, err
	}
	vitals, err := jsonColumn(in.Vitals)
	if err != nil {
		return nil, apierr.BadRequest("invalid_record", err)
	}
	visited := ms.clock.now()
	if in.VisitedAt != nil {
		visited = in.VisitedAt.UTC()
	}
	vetID := rd.UserID
	if in.VetID != nil && *in.VetID != uuid.Nil {
		vetID = *in.VetID
	}
	row := &types.MedicalRecord{
		ID:        uuid.New(),
		PetID:     petID,
		VetID:     &vetID,
		Kind:      types.RecordKind(strings.ToLower(strings.TrimSpace(string(in.Kind)))),
		Title:     strings.TrimSpace(in.Title),
		Diagnosis: strings.TrimSpace(in.Diagnosis),
		Treatment: strings.TrimSpace(in.Treatment),
		Notes:     strings.TrimSpace(in.Notes),
		Vitals:    vitals,
		VisitedAt: visited,
		NextDueAt: utcPtr(in.NextDueAt),
	}
	if err := validateRecord(row); err != nil {
		return nil, err
	}

	dbc := dbctx.Context{Ctx: ctx}
	pet, err := ms.petRepo.GetByID(dbc, petID)
	if err != nil {
		return nil, apierr.Internal("create_record_failed", err)
	}
	if pet == nil {
		return nil, apierr.NotFound("pet_not_found")
	}
	if vetID != rd.UserID {
		vet, err := ms.userRepo.GetByID(dbc, vetID)
		if err != nil {
			return nil, apierr.Internal("create_record_failed", err)
		}
		if vet == nil || !vet.Role.IsStaff() {
			return nil, apierr.BadRequest("invalid_vet", fmt.Errorf("vet %s is not clinic staff", vetID))
		}
	}
	if err := ms.recordRepo.Create(dbc, row); err != nil {
		return nil, apierr.Internal("create_record_failed", err)
	}
	ms.log.Info("medical record created", "record_id", row.ID, "pet_id", petID, "kind", row.Kind, "by", rd.UserID)
	return row, nil
}

func (ms *medicalRecordService) UpdateRecord(ctx context.Context, id uuid.UUID, in RecordPatch) (*types.MedicalRecord, error) {
	if _, err := requireStaff(ctx); err != nil {
		return nil, err
	}
	var out *types.MedicalRecord
	err := ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		rec, err := ms.recordRepo.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if rec == nil {
			return apierr.NotFound("record_not_found")
		}
		next := *rec
		if in.Kind != nil {
			next.Kind = types.RecordKind(strings.ToLower(strings.TrimSpace(string(*in.Kind))))
		}
		if v := trimPtr(in.Title); v != nil {
			next.Title = *v
		}
		if v := trimPtr(in.Diagnosis); v != nil {
			next.Diagnosis = *v
		}
		if v := trimPtr(in.Treatment); v != nil {
			next.Treatment = *v
		}
		if v := trimPtr(in.Notes); v != nil {
			next.Notes = *v
		}
		if in.Vitals != nil {
			vitals, err := jsonColumn(in.Vitals)
			if err != nil {
				return apierr.BadRequest("invalid_record", err)
			}
			next.Vitals = vitals
		}
		if in.VisitedAt != nil {
			next.VisitedAt = in.VisitedAt.UTC()
		}
		if in.NextDueAt != nil {
			next.NextDueAt = utcPtr(in.NextDueAt)
		}
		if err := validateRecord(&next); err != nil {
			return err
		}
		if err := ms.recordRepo.Update(dbc, rec.ID, map[string]any{
			"kind":        next.Kind,
			"title":       next.Title,
			"diagnosis":   next.Diagnosis,
			"treatment":   next.Treatment,
			"notes":       next.Notes,
			"vitals":      next.Vitals,
			"visited_at":  next.VisitedAt,
			"next_due_at": next.NextDueAt,
		}); err != nil {
			return err
		}
		out = &next
		return nil
	})
	if err != nil {
		return nil, asAPIError(err, "update_record_failed")
	}
	return out, nil
}

func (ms *medicalRecordService) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	rd, err := requireStaff(ctx)
	if err != nil {
		return err
	}
	dbc := dbctx.Context{Ctx: ctx}
	rec, err := ms.recordRepo.GetByID(dbc, id)
	if err != nil {
		return apierr.Internal("delete_record_failed", err)
	}
	if rec == nil {
		return apierr.NotFound("record_not_found")
	}
	if err := ms.recordRepo.SoftDelete(dbc, id); err != nil {
		return apierr.Internal("delete_record_failed", err)
	}
	ms.log.Info("medical record deleted", "record_id", id, "by", rd.UserID)
	return nil
}

func validateRecord(r *types.MedicalRecord) error {
	if !r.Kind.Valid() {
		return apierr.BadRequest("invalid_record", fmt.Errorf("unknown record kind %q", r.Kind))
	}
	if r.Title == "" {
		return apierr.BadRequest("invalid_record", fmt.Errorf("title is required"))
	}
	if r.NextDueAt != nil && r.NextDueAt.Before(r.VisitedAt) {
		return apierr.BadRequest("invalid_record", fmt.Errorf("next_due_at must not precede visited_at"))
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
