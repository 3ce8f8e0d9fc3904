package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/pawclinic-backend/internal/data/repos"
	types "github.com/yungbote/pawclinic-backend/internal/domain"
	"github.com/yungbote/pawclinic-backend/internal/platform/apierr"
	"github.com/yungbote/pawclinic-backend/internal/platform/ctxutil"
	"github.com/yungbote/pawclinic-backend/internal/platform/dbctx"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
	"github.com/yungbote/pawclinic-backend/internal/platform/storage"
)

type PetInput struct {
	Name        string
	Species     types.Species
	Breed       string
	Sex         string
	BirthDate   *time.Time
	WeightKg    float64
	AvatarColor string
	Notes       string
}

type PetPatch struct {
	Name      *string
	Species   *types.Species
	Breed     *string
	Sex       *string
	BirthDate *time.Time
	WeightKg  *float64
	Notes     *string
}

type PetService interface {
	ListMyPets(ctx context.Context) ([]*types.Pet, error)
	CreatePet(ctx context.Context, in PetInput) (*types.Pet, error)
	// GetPet returns the caller's pet, or any pet for staff.
	GetPet(ctx context.Context, id uuid.UUID) (*types.Pet, error)
	UpdatePet(ctx context.Context, id uuid.UUID, in PetPatch) (*types.Pet, error)
	DeletePet(ctx context.Context, id uuid.UUID) error
	UploadPetPhoto(ctx context.Context, id uuid.UUID, raw []byte) (*types.Pet, error)
}

type petService struct {
	db              *gorm.DB
	log             *logger.Logger
	petRepo         repos.PetRepo
	reservationRepo repos.HotelReservationRepo
	appointmentRepo repos.AppointmentRepo
	bucket          storage.BucketService
	images          ImageProcessor
	clock           Clock
}

func NewPetService(
	db *gorm.DB,
	log *logger.Logger,
	petRepo repos.PetRepo,
	reservationRepo repos.HotelReservationRepo,
	appointmentRepo repos.AppointmentRepo,
	bucket storage.BucketService,
	images ImageProcessor,
) PetService {
	return &petService{
		db:              db,
		log:             log.With("service", "PetService"),
		petRepo:         petRepo,
		reservationRepo: reservationRepo,
		appointmentRepo: appointmentRepo,
		bucket:          bucket,
		images:          images,
	}
}

func (ps *petService) ListMyPets(ctx context.Context) ([]*types.Pet, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := ps.petRepo.ListByOwner(dbctx.Context{Ctx: ctx}, rd.UserID)
	if err != nil {
		return nil, apierr.Internal("list_pets_failed", err)
	}
	return rows, nil
}

func (ps *petService) CreatePet(ctx context.Context, in PetInput) (*types.Pet, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	pet := &types.Pet{
		ID:        uuid.New(),
		OwnerID:   rd.UserID,
		Name:      strings.TrimSpace(in.Name),
		Species:   types.Species(strings.ToLower(strings.TrimSpace(string(in.Species)))),
		Breed:     strings.TrimSpace(in.Breed),
		Sex:       strings.ToLower(strings.TrimSpace(in.Sex)),
		BirthDate: in.BirthDate,
		WeightKg:  in.WeightKg,
		Notes:     strings.TrimSpace(in.Notes),
	}
	if pet.Species == "" {
		pet.Species = "other"
	}
	if err := ps.validate(pet); err != nil {
		return nil, err
	}

	dbc := dbctx.Context{Ctx: ctx}
	if err := ps.petRepo.Create(dbc, pet); err != nil {
		return nil, apierr.Internal("create_pet_failed", err)
	}

	// Avatar failures are logged and the pet is kept.
	png, color, err := ps.images.PetAvatar(pet.Name, in.AvatarColor)
	if err == nil {
		var key, url string
		key, url, err = storedImage(ctx, ps.log, ps.bucket, storage.BucketCategoryPet, pet.ID, "", png)
		if err == nil {
			err = ps.petRepo.Update(dbc, pet.ID, map[string]any{"photo_key": key, "photo_url": url, "avatar_color": color})
			if err == nil {
				pet.PhotoKey, pet.PhotoURL, pet.AvatarColor = key, url, color
			}
		}
	}
	if err != nil {
		ps.log.Warn("pet avatar not stored", "pet_id", pet.ID, "error", err)
	}
	return pet, nil
}

func (ps *petService) GetPet(ctx context.Context, id uuid.UUID) (*types.Pet, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	return ps.visiblePet(dbctx.Context{Ctx: ctx}, rd, id)
}

func (ps *petService) UpdatePet(ctx context.Context, id uuid.UUID, in PetPatch) (*types.Pet, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	var out *types.Pet
	err = ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		pet, err := ps.ownedPet(dbc, rd, id)
		if err != nil {
			return err
		}
		next := *pet
		if v := trimPtr(in.Name); v != nil {
			next.Name = *v
		}
		if in.Species != nil {
			next.Species = types.Species(strings.ToLower(strings.TrimSpace(string(*in.Species))))
		}
		if v := trimPtr(in.Breed); v != nil {
			next.Breed = *v
		}
		if v := trimPtr(in.Sex); v != nil {
			next.Sex = strings.ToLower(*v)
		}
		if in.BirthDate != nil {
			next.BirthDate = in.BirthDate
		}
		if in.WeightKg != nil {
			next.WeightKg = *in.WeightKg
		}
		if v := trimPtr(in.Notes); v != nil {
			next.Notes = *v
		}
		if err := ps.validate(&next); err != nil {
			return err
		}
		if err := ps.petRepo.Update(dbc, pet.ID, map[string]any{
			"name":       next.Name,
			"species":    next.Species,
			"breed":      next.Breed,
			"sex":        next.Sex,
			"birth_date": next.BirthDate,
			"weight_kg":  next.WeightKg,
			"notes":      next.Notes,
		}); err != nil {
			return err
		}
		out = &next
		return nil
	})
	if err != nil {
		return nil, asAPIError(err, "update_pet_failed")
	}
	return out, nil
}

// DeletePet soft-deletes a pet unless it still has an active hotel stay or an upcoming
// appointment.
func (ps *petService) DeletePet(ctx context.Context, id uuid.UUID) error {
	rd, err := caller(ctx)
	if err != nil {
		return err
	}
	err = ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		pet, err := ps.ownedPet(dbc, rd, id)
		if err != nil {
			return err
		}
		stays, err := ps.reservationRepo.CountActiveForPet(dbc, pet.ID)
		if err != nil {
			return err
		}
		if stays > 0 {
			return apierr.Conflict("pet_has_bookings", fmt.Errorf("pet has an active hotel reservation"))
		}
		upcoming, err := ps.appointmentRepo.CountUpcomingForPet(dbc, pet.ID, ps.clock.now())
		if err != nil {
			return err
		}
		if upcoming > 0 {
			return apierr.Conflict("pet_has_bookings", fmt.Errorf("pet has an upcoming appointment"))
		}
		return ps.petRepo.SoftDelete(dbc, pet.ID)
	})
	if err != nil {
		return asAPIError(err, "delete_pet_failed")
	}
	ps.log.Info("pet deleted", "pet_id", id, "owner_id", rd.UserID)
	return nil
}

func (ps *petService) UploadPetPhoto(ctx context.Context, id uuid.UUID, raw []byte) (*types.Pet, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	pet, err := ps.ownedPet(dbc, rd, id)
	if err != nil {
		return nil, asAPIError(err, "upload_photo_failed")
	}
	png, err := ps.images.PetPhoto(raw)
	if err != nil {
		return nil, apierr.BadRequest("invalid_image", err)
	}
	key, url, err := storedImage(ctx, ps.log, ps.bucket, storage.BucketCategoryPet, pet.ID, pet.PhotoKey, png)
	if err != nil {
		return nil, apierr.Internal("upload_photo_failed", err)
	}
	if err := ps.petRepo.Update(dbc, pet.ID, map[string]any{"photo_key": key, "photo_url": url}); err != nil {
		return nil, apierr.Internal("upload_photo_failed", err)
	}
	pet.PhotoKey, pet.PhotoURL = key, url
	return pet, nil
}

func (ps *petService) validate(p *types.Pet) error {
	if p.Name == "" {
		return apierr.BadRequest("invalid_pet", fmt.Errorf("name is required"))
	}
	if !p.Species.Valid() {
		return apierr.BadRequest("invalid_pet", fmt.Errorf("unknown species %q", p.Species))
	}
	switch p.Sex {
	case "", "male", "female", "unknown":
	default:
		return apierr.BadRequest("invalid_pet", fmt.Errorf("sex must be male, female or unknown"))
	}
	if p.WeightKg < 0 {
		return apierr.BadRequest("invalid_pet", fmt.Errorf("weight_kg must be >= 0"))
	}
	if p.BirthDate != nil && p.BirthDate.After(ps.clock.now()) {
		return apierr.BadRequest("invalid_pet", fmt.Errorf("birth_date cannot be in the future"))
	}
	return nil
}

// ownedPet loads a pet the caller owns. Other owners' pets read as missing.
func (ps *petService) ownedPet(dbc dbctx.Context, rd *ctxutil.RequestData, id uuid.UUID) (*types.Pet, error) {
	pet, err := ps.petRepo.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if pet == nil || pet.OwnerID != rd.UserID {
		return nil, apierr.NotFound("pet_not_found")
	}
	return pet, nil
}

func (ps *petService) visiblePet(dbc dbctx.Context, rd *ctxutil.RequestData, id uuid.UUID) (*types.Pet, error) {
	pet, err := ps.petRepo.GetByID(dbc, id)
	if err != nil {
		return nil, apierr.Internal("get_pet_failed", err)
	}
	if pet == nil || (pet.OwnerID != rd.UserID && !callerIsStaff(rd)) {
		return nil, apierr.NotFound("pet_not_found")
	}
	return pet, nil
}
