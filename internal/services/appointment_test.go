package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/pawclinic-backend/internal/data/repos/testutil"
	types "github.com/yungbote/pawclinic-backend/internal/domain"
)

var apptNow = time.Date(2030, 6, 3, 8, 0, 0, 0, time.UTC)

type apptFixture struct {
	env     *testEnv
	svc     *appointmentService
	owner   *types.User
	vet     *types.User
	admin   *types.User
	pet     *types.Pet
	checkup *types.ClinicService
}

func newApptFixture(t *testing.T) *apptFixture {
	t.Helper()
	env := newTestEnv(t)
	svc := NewAppointmentService(env.db, env.log, env.repos.Users, env.repos.Pets, env.repos.Services,
		env.repos.Appointments, env.appointments, env.notifier, ClinicHours{}, fixedClock(apptNow))
	owner := env.user(t, "owner@example.com", types.RoleCustomer)
	return &apptFixture{
		env:     env,
		svc:     svc.(*appointmentService),
		owner:   owner,
		vet:     env.user(t, "vet@example.com", types.RoleStaff),
		admin:   env.user(t, "admin@example.com", types.RoleAdmin),
		pet:     testutil.SeedPet(t, context.Background(), env.db, owner.ID, "Rex"),
		checkup: testutil.SeedClinicService(t, context.Background(), env.db, "checkup", 30),
	}
}

func at(day, hour, minute int) time.Time {
	return time.Date(2030, 6, day, hour, minute, 0, 0, time.UTC)
}

func (f *apptFixture) book(t *testing.T, start time.Time) *types.Appointment {
	t.Helper()
	appt, err := f.svc.Book(as(f.owner), BookInput{PetID: f.pet.ID, VetID: f.vet.ID, ServiceID: f.checkup.ID, StartsAt: start})
	require.NoError(t, err)
	return appt
}

func TestBookAppointment(t *testing.T) {
	f := newApptFixture(t)

	appt := f.book(t, at(4, 10, 0))
	assert.Equal(t, types.AppointmentScheduled, appt.Status)
	assert.Equal(t, at(4, 10, 30), appt.EndsAt)
	assert.Equal(t, []string{"appointment_booked"}, f.env.notifier.kinds())

	mine, err := f.svc.ListMyAppointments(as(f.owner))
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestBookRejectsOverlapForSameVet(t *testing.T) {
	f := newApptFixture(t)
	long := testutil.SeedClinicService(t, context.Background(), f.env.db, "dental", 90)
	f.book(t, at(4, 11, 0))

	_, err := f.svc.Book(as(f.owner), BookInput{PetID: f.pet.ID, VetID: f.vet.ID, ServiceID: long.ID, StartsAt: at(4, 10, 0)})
	requireAPIError(t, err, http.StatusConflict, "slot_taken")

	otherVet := f.env.user(t, "vet2@example.com", types.RoleStaff)
	_, err = f.svc.Book(as(f.owner), BookInput{PetID: f.pet.ID, VetID: otherVet.ID, ServiceID: long.ID, StartsAt: at(4, 10, 0)})
	require.NoError(t, err)

	// Back-to-back slots do not overlap.
	f.book(t, at(4, 11, 30))
}

func TestBookSlotRules(t *testing.T) {
	f := newApptFixture(t)
	cases := []struct {
		name  string
		start time.Time
		code  string
	}{
		{"past", at(2, 10, 0), "slot_in_past"},
		{"before opening", at(4, 8, 30), "outside_clinic_hours"},
		{"runs past closing", at(4, 16, 45), "outside_clinic_hours"},
		{"off grid", at(4, 10, 10), "off_grid"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Book(as(f.owner), BookInput{PetID: f.pet.ID, VetID: f.vet.ID, ServiceID: f.checkup.ID, StartsAt: tc.start})
			requireAPIError(t, err, http.StatusBadRequest, tc.code)
		})
	}
}

func TestBookReferenceChecks(t *testing.T) {
	f := newApptFixture(t)
	stranger := f.env.user(t, "other@example.com", types.RoleCustomer)
	start := at(4, 10, 0)

	_, err := f.svc.Book(as(stranger), BookInput{PetID: f.pet.ID, VetID: f.vet.ID, ServiceID: f.checkup.ID, StartsAt: start})
	requireAPIError(t, err, http.StatusNotFound, "pet_not_found")

	_, err = f.svc.Book(as(f.owner), BookInput{PetID: f.pet.ID, VetID: f.vet.ID, ServiceID: uuid.New(), StartsAt: start})
	requireAPIError(t, err, http.StatusNotFound, "service_not_found")

	_, err = f.svc.Book(as(f.owner), BookInput{PetID: f.pet.ID, VetID: uuid.New(), ServiceID: f.checkup.ID, StartsAt: start})
	requireAPIError(t, err, http.StatusNotFound, "vet_not_found")

	_, err = f.svc.Book(as(f.owner), BookInput{PetID: f.pet.ID, VetID: stranger.ID, ServiceID: f.checkup.ID, StartsAt: start})
	requireAPIError(t, err, http.StatusBadRequest, "invalid_vet")
}

func TestAvailabilitySkipsBookedSlots(t *testing.T) {
	f := newApptFixture(t)
	hour := testutil.SeedClinicService(t, context.Background(), f.env.db, "vaccines", 60)
	f.book(t, at(4, 10, 0))

	slots, err := f.svc.Availability(context.Background(), f.vet.ID, "2030-06-04", hour.ID)
	require.NoError(t, err)
	require.Len(t, slots, 13)
	assert.Equal(t, at(4, 9, 0), slots[0])
	assert.Equal(t, at(4, 10, 30), slots[1])
	assert.Equal(t, at(4, 16, 0), slots[len(slots)-1])

	today, err := f.svc.Availability(context.Background(), f.vet.ID, "2030-06-02", hour.ID)
	require.NoError(t, err)
	assert.Empty(t, today, "past days have no slots")

	_, err = f.svc.Availability(context.Background(), f.vet.ID, "06/04/2030", hour.ID)
	requireAPIError(t, err, http.StatusBadRequest, "invalid_date")
	_, err = f.svc.Availability(context.Background(), f.owner.ID, "2030-06-04", hour.ID)
	requireAPIError(t, err, http.StatusNotFound, "vet_not_found")
}

func TestAvailabilityUsesClinicTimeZone(t *testing.T) {
	env := newTestEnv(t)
	loc := time.FixedZone("UTC-3", -3*3600)
	svc := NewAppointmentService(env.db, env.log, env.repos.Users, env.repos.Pets, env.repos.Services,
		env.repos.Appointments, env.appointments, env.notifier,
		ClinicHours{Location: loc, OpenHour: 9, CloseHour: 10, SlotMinutes: 30}, fixedClock(apptNow))
	vet := env.user(t, "vet@example.com", types.RoleStaff)
	checkup := testutil.SeedClinicService(t, context.Background(), env.db, "checkup", 30)

	slots, err := svc.Availability(context.Background(), vet.ID, "2030-06-04", checkup.ID)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{at(4, 12, 0), at(4, 12, 30)}, slots)
}

func TestCancelMyAppointment(t *testing.T) {
	f := newApptFixture(t)
	stranger := f.env.user(t, "other@example.com", types.RoleCustomer)
	appt := f.book(t, at(4, 10, 0))

	_, err := f.svc.CancelMyAppointment(as(stranger), appt.ID)
	requireAPIError(t, err, http.StatusNotFound, "appointment_not_found")

	out, err := f.svc.CancelMyAppointment(as(f.owner), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, types.AppointmentCancelled, out.Status)
	assert.Equal(t, []string{"appointment_booked", "appointment_cancelled"}, f.env.notifier.kinds())

	// The freed slot can be booked again.
	f.book(t, at(4, 10, 0))
}

func TestCancelAfterStartIsRejected(t *testing.T) {
	f := newApptFixture(t)
	appt := f.book(t, at(4, 10, 0))

	f.svc.clock = fixedClock(at(4, 10, 5))
	_, err := f.svc.CancelMyAppointment(as(f.owner), appt.ID)
	requireAPIError(t, err, http.StatusConflict, "appointment_started")
}

func TestStaffStatusUpdates(t *testing.T) {
	f := newApptFixture(t)
	appt := f.book(t, at(4, 10, 0))

	_, err := f.svc.UpdateAppointmentStatus(as(f.owner), appt.ID, types.AppointmentConfirmed, nil)
	requireAPIError(t, err, http.StatusForbidden, "forbidden")

	notes := " Bring vaccination card "
	out, err := f.svc.UpdateAppointmentStatus(as(f.vet), appt.ID, types.AppointmentConfirmed, &notes)
	require.NoError(t, err)
	assert.Equal(t, types.AppointmentConfirmed, out.Status)
	assert.Equal(t, "Bring vaccination card", out.Notes)

	_, err = f.svc.UpdateAppointmentStatus(as(f.vet), appt.ID, types.AppointmentCancelled, nil)
	require.NoError(t, err)
	f.book(t, at(4, 10, 0))

	_, err = f.svc.UpdateAppointmentStatus(as(f.vet), appt.ID, types.AppointmentScheduled, nil)
	requireAPIError(t, err, http.StatusConflict, "slot_taken")

	_, err = f.svc.UpdateAppointmentStatus(as(f.vet), appt.ID, types.AppointmentStatus("teleported"), nil)
	requireAPIError(t, err, http.StatusBadRequest, "invalid_status")

	from, to := at(4, 0, 0), at(5, 0, 0)
	rows, err := f.svc.ListAppointments(as(f.vet), AppointmentQuery{From: &from, To: &to, VetID: &f.vet.ID})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	rows, err = f.svc.ListAppointments(as(f.vet), AppointmentQuery{Status: types.AppointmentCancelled})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	_, err = f.svc.ListAppointments(as(f.vet), AppointmentQuery{From: &to, To: &from})
	requireAPIError(t, err, http.StatusBadRequest, "invalid_range")
}

func TestServiceCatalogue(t *testing.T) {
	f := newApptFixture(t)

	svc, err := f.svc.CreateService(as(f.admin), ServiceInput{Name: "Dental Cleaning", DurationMinutes: 60, PriceCents: 9000})
	require.NoError(t, err)
	assert.Equal(t, "dental-cleaning", svc.Slug)

	_, err = f.svc.CreateService(as(f.admin), ServiceInput{Name: "Dental cleaning", DurationMinutes: 60})
	requireAPIError(t, err, http.StatusConflict, "slug_taken")
	_, err = f.svc.CreateService(as(f.admin), ServiceInput{Name: "Marathon", DurationMinutes: 600})
	requireAPIError(t, err, http.StatusBadRequest, "invalid_service")
	_, err = f.svc.CreateService(as(f.vet), ServiceInput{Name: "Nope", DurationMinutes: 30})
	requireAPIError(t, err, http.StatusForbidden, "forbidden")

	inactive := false
	_, err = f.svc.UpdateService(as(f.admin), svc.ID, ServicePatch{Active: &inactive})
	require.NoError(t, err)

	list, err := f.svc.ListServices(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "checkup", list[0].Slug)

	_, err = f.svc.Book(as(f.owner), BookInput{PetID: f.pet.ID, VetID: f.vet.ID, ServiceID: svc.ID, StartsAt: at(4, 10, 0)})
	requireAPIError(t, err, http.StatusNotFound, "service_not_found")
}
