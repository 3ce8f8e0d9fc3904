package clinic

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/pawclinic-backend/internal/data/repos/testutil"
	types "github.com/yungbote/pawclinic-backend/internal/domain"
	"github.com/yungbote/pawclinic-backend/internal/platform/dbctx"
)

func TestPetAndMedicalRecordRepos(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	log := testutil.Logger(t)
	pets := NewPetRepo(db, log)
	records := NewMedicalRecordRepo(db, log)

	owner := testutil.SeedUser(t, ctx, db, "owner@example.com")
	rex := &types.Pet{OwnerID: owner.ID, Name: "Rex", Species: "dog"}
	require.NoError(t, pets.Create(dbc, rex))
	require.NoError(t, pets.Create(dbc, &types.Pet{OwnerID: owner.ID, Name: "Amber", Species: "cat"}))

	mine, err := pets.ListByOwner(dbc, owner.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	require.Equal(t, "Amber", mine[0].Name)

	older := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, records.Create(dbc, &types.MedicalRecord{PetID: rex.ID, Kind: "exam", Title: "checkup", VisitedAt: older}))
	require.NoError(t, records.Create(dbc, &types.MedicalRecord{PetID: rex.ID, Kind: "vaccination", Title: "rabies", VisitedAt: newer}))

	list, err := records.ListByPet(dbc, rex.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "rabies", list[0].Title)

	require.NoError(t, records.SoftDelete(dbc, list[0].ID))
	list, err = records.ListByPet(dbc, rex.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, pets.Update(dbc, rex.ID, map[string]any{"breed": "beagle"}))
	got, err := pets.GetByID(dbc, rex.ID)
	require.NoError(t, err)
	require.Equal(t, "beagle", got.Breed)

	require.NoError(t, pets.SoftDelete(dbc, rex.ID))
	got, err = pets.GetByID(dbc, rex.ID)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestAppointmentRepoOverlap(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewAppointmentRepo(db, testutil.Logger(t))

	owner := testutil.SeedUser(t, ctx, db, "owner@example.com")
	vet := testutil.SeedUserWithRole(t, ctx, db, "vet@example.com", types.RoleStaff)
	pet := testutil.SeedPet(t, ctx, db, owner.ID, "Rex")
	svc := testutil.SeedClinicService(t, ctx, db, "checkup", 30)

	start := testutil.Day(3).Add(10 * time.Hour)
	a := &types.Appointment{UserID: owner.ID, PetID: pet.ID, VetID: vet.ID, ServiceID: svc.ID, StartsAt: start, EndsAt: start.Add(30 * time.Minute), Status: types.AppointmentScheduled}
	require.NoError(t, repo.Create(dbc, a))
	cancelled := &types.Appointment{UserID: owner.ID, PetID: pet.ID, VetID: vet.ID, ServiceID: svc.ID, StartsAt: start.Add(time.Hour), EndsAt: start.Add(90 * time.Minute), Status: types.AppointmentCancelled}
	require.NoError(t, repo.Create(dbc, cancelled))

	hits, err := repo.ListSlotHolding(dbc, vet.ID, start.Add(15*time.Minute), start.Add(45*time.Minute), uuid.Nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	hits, err = repo.ListSlotHolding(dbc, vet.ID, start.Add(30*time.Minute), start.Add(60*time.Minute), uuid.Nil)
	require.NoError(t, err)
	require.Empty(t, hits, "adjacent slots do not overlap")

	hits, err = repo.ListSlotHolding(dbc, vet.ID, start.Add(time.Hour), start.Add(90*time.Minute), uuid.Nil)
	require.NoError(t, err)
	require.Empty(t, hits, "cancelled appointments free the slot")

	hits, err = repo.ListSlotHolding(dbc, vet.ID, start, start.Add(30*time.Minute), a.ID)
	require.NoError(t, err)
	require.Empty(t, hits)

	n, err := repo.CountUpcomingForPet(dbc, pet.ID, time.Now().UTC())
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	got, err := repo.GetByID(dbc, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Pet)
	require.NotNil(t, got.Service)
}
