package services

import (
	"context"
	"errors"
	"image/color"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/pawclinic-backend/internal/data/repos/testutil"
	types "github.com/yungbote/pawclinic-backend/internal/domain"
	domainagg "github.com/yungbote/pawclinic-backend/internal/domain/aggregates"
)

func newPetForTest(t *testing.T, env *testEnv) PetService {
	t.Helper()
	images, err := NewImageProcessor()
	require.NoError(t, err)
	return NewPetService(env.db, env.log, env.repos.Pets, env.repos.Reservations, env.repos.Appointments, env.bucket, images)
}

func TestCreatePetStoresAvatar(t *testing.T) {
	env := newTestEnv(t)
	svc := newPetForTest(t, env)
	owner := env.user(t, "owner@example.com", types.RoleCustomer)

	pet, err := svc.CreatePet(as(owner), PetInput{Name: " Biscuit ", Species: "DOG", Sex: "Male", AvatarColor: "#7A62C4"})
	require.NoError(t, err)
	assert.Equal(t, "Biscuit", pet.Name)
	assert.Equal(t, types.Species("dog"), pet.Species)
	assert.Equal(t, "male", pet.Sex)
	assert.Equal(t, "#7A62C4", pet.AvatarColor)
	require.NotEmpty(t, pet.PhotoKey)
	assert.Equal(t, 1, env.bucket.count())

	other, err := svc.CreatePet(as(owner), PetInput{Name: "Mystery"})
	require.NoError(t, err)
	assert.Equal(t, types.Species("other"), other.Species)

	mine, err := svc.ListMyPets(as(owner))
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestCreatePetKeepsPetWhenAvatarUploadFails(t *testing.T) {
	env := newTestEnv(t)
	env.bucket.fail = errors.New("bucket offline")
	svc := newPetForTest(t, env)
	owner := env.user(t, "owner@example.com", types.RoleCustomer)

	pet, err := svc.CreatePet(as(owner), PetInput{Name: "Luna", Species: "cat"})
	require.NoError(t, err)
	assert.Empty(t, pet.PhotoKey)

	got, err := svc.GetPet(as(owner), pet.ID)
	require.NoError(t, err)
	assert.Equal(t, "Luna", got.Name)
}

func TestCreatePetValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := newPetForTest(t, env)
	owner := env.user(t, "owner@example.com", types.RoleCustomer)
	future := time.Now().Add(72 * time.Hour)

	cases := []struct {
		name string
		in   PetInput
	}{
		{"missing name", PetInput{Name: " "}},
		{"unknown species", PetInput{Name: "Rex", Species: "dragon"}},
		{"bad sex", PetInput{Name: "Rex", Sex: "both"}},
		{"negative weight", PetInput{Name: "Rex", WeightKg: -1}},
		{"born in future", PetInput{Name: "Rex", BirthDate: &future}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreatePet(as(owner), tc.in)
			requireAPIError(t, err, http.StatusBadRequest, "invalid_pet")
		})
	}
	_, err := svc.CreatePet(context.Background(), PetInput{Name: "Rex"})
	requireAPIError(t, err, http.StatusUnauthorized, "unauthorized")
}

func TestPetVisibility(t *testing.T) {
	env := newTestEnv(t)
	svc := newPetForTest(t, env)
	owner := env.user(t, "owner@example.com", types.RoleCustomer)
	stranger := env.user(t, "other@example.com", types.RoleCustomer)
	vet := env.user(t, "vet@example.com", types.RoleStaff)
	pet := testutil.SeedPet(t, context.Background(), env.db, owner.ID, "Rex")

	_, err := svc.GetPet(as(stranger), pet.ID)
	requireAPIError(t, err, http.StatusNotFound, "pet_not_found")

	got, err := svc.GetPet(as(vet), pet.ID)
	require.NoError(t, err)
	assert.Equal(t, pet.ID, got.ID)

	name := "Rexy"
	_, err = svc.UpdatePet(as(stranger), pet.ID, PetPatch{Name: &name})
	requireAPIError(t, err, http.StatusNotFound, "pet_not_found")
	_, err = svc.UpdatePet(as(vet), pet.ID, PetPatch{Name: &name})
	requireAPIError(t, err, http.StatusNotFound, "pet_not_found")

	weight := 12.5
	updated, err := svc.UpdatePet(as(owner), pet.ID, PetPatch{Name: &name, WeightKg: &weight})
	require.NoError(t, err)
	assert.Equal(t, "Rexy", updated.Name)
	assert.Equal(t, 12.5, updated.WeightKg)
	assert.Equal(t, types.Species("dog"), updated.Species)
}

func TestUploadPetPhotoReplacesAvatar(t *testing.T) {
	env := newTestEnv(t)
	svc := newPetForTest(t, env)
	owner := env.user(t, "owner@example.com", types.RoleCustomer)

	pet, err := svc.CreatePet(as(owner), PetInput{Name: "Biscuit"})
	require.NoError(t, err)
	avatarKey := pet.PhotoKey

	updated, err := svc.UploadPetPhoto(as(owner), pet.ID, solidPNG(t, 100, 80, color.NRGBA{G: 120, A: 255}))
	require.NoError(t, err)
	assert.NotEqual(t, avatarKey, updated.PhotoKey)
	assert.Equal(t, 1, env.bucket.count())

	_, err = svc.UploadPetPhoto(as(owner), pet.ID, []byte("nope"))
	requireAPIError(t, err, http.StatusBadRequest, "invalid_image")
	_, err = svc.UploadPetPhoto(as(owner), uuid.New(), solidPNG(t, 10, 10, color.White))
	requireAPIError(t, err, http.StatusNotFound, "pet_not_found")
}

func TestDeletePetBlockedByActiveBookings(t *testing.T) {
	env := newTestEnv(t)
	svc := newPetForTest(t, env)
	owner := env.user(t, "owner@example.com", types.RoleCustomer)
	pet := testutil.SeedPet(t, context.Background(), env.db, owner.ID, "Rex")
	room := testutil.SeedRoom(t, context.Background(), env.db, "101", 4000)

	res, err := env.reservations.Reserve(context.Background(), domainagg.ReserveInput{
		UserID: owner.ID, PetID: pet.ID, RoomID: room.ID, CheckIn: testutil.Day(2), CheckOut: testutil.Day(4),
	})
	require.NoError(t, err)

	err = svc.DeletePet(as(owner), pet.ID)
	requireAPIError(t, err, http.StatusConflict, "pet_has_bookings")

	_, err = env.reservations.TransitionStatus(context.Background(), domainagg.ReservationTransitionInput{
		ReservationID: res.ID, To: types.ReservationCancelled,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeletePet(as(owner), pet.ID))
	_, err = svc.GetPet(as(owner), pet.ID)
	requireAPIError(t, err, http.StatusNotFound, "pet_not_found")
}

func TestDeletePetBlockedByUpcomingAppointment(t *testing.T) {
	env := newTestEnv(t)
	svc := newPetForTest(t, env)
	owner := env.user(t, "owner@example.com", types.RoleCustomer)
	vet := env.user(t, "vet@example.com", types.RoleStaff)
	pet := testutil.SeedPet(t, context.Background(), env.db, owner.ID, "Rex")
	checkup := testutil.SeedClinicService(t, context.Background(), env.db, "checkup", 30)

	start := testutil.Day(3).Add(10 * time.Hour)
	_, err := env.appointments.Book(context.Background(), domainagg.BookAppointmentInput{
		UserID: owner.ID, PetID: pet.ID, VetID: vet.ID, ServiceID: checkup.ID,
		StartsAt: start, EndsAt: start.Add(30 * time.Minute),
	})
	require.NoError(t, err)

	err = svc.DeletePet(as(owner), pet.ID)
	requireAPIError(t, err, http.StatusConflict, "pet_has_bookings")
}
