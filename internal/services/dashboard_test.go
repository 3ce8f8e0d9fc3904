package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/pawclinic-backend/internal/data/repos/testutil"
	types "github.com/yungbote/pawclinic-backend/internal/domain"
	domainagg "github.com/yungbote/pawclinic-backend/internal/domain/aggregates"
)

func TestDashboardSummarisesTheClinic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	orders := newOrderForTest(env)
	dash := NewDashboardService(env.log, env.repos.Orders, env.repos.Products, env.repos.Appointments,
		env.repos.Rooms, env.repos.Users, time.UTC, nil)

	owner := env.user(t, "owner@example.com", types.RoleCustomer)
	env.user(t, "second@example.com", types.RoleCustomer)
	vet := env.user(t, "vet@example.com", types.RoleStaff)
	admin := env.user(t, "admin@example.com", types.RoleAdmin)

	food := testutil.SeedProduct(t, ctx, env.db, "food", 1000, 6)
	testutil.SeedProduct(t, ctx, env.db, "toy", 300, 40)
	kept, err := orders.Checkout(as(owner), CheckoutInput{Lines: []CheckoutLine{{ProductID: food.ID, Quantity: 2}}})
	require.NoError(t, err)
	dropped, err := orders.Checkout(as(owner), CheckoutInput{Lines: []CheckoutLine{{ProductID: food.ID, Quantity: 1}}})
	require.NoError(t, err)
	_, err = orders.CancelMyOrder(as(owner), dropped.ID)
	require.NoError(t, err)

	pet := testutil.SeedPet(t, ctx, env.db, owner.ID, "Rex")
	checkup := testutil.SeedClinicService(t, ctx, env.db, "checkup", 30)
	start := testutil.Day(0).Add(23 * time.Hour)
	_, err = env.appointments.Book(ctx, domainagg.BookAppointmentInput{
		UserID: owner.ID, PetID: pet.ID, VetID: vet.ID, ServiceID: checkup.ID,
		StartsAt: start, EndsAt: start.Add(30 * time.Minute),
	})
	require.NoError(t, err)

	room := testutil.SeedRoom(t, ctx, env.db, "101", 4000)
	testutil.SeedRoom(t, ctx, env.db, "102", 4000)
	_, err = env.reservations.Reserve(ctx, domainagg.ReserveInput{
		UserID: owner.ID, PetID: pet.ID, RoomID: room.ID, CheckIn: testutil.Day(2), CheckOut: testutil.Day(4),
	})
	require.NoError(t, err)

	_, err = dash.Dashboard(as(vet))
	requireAPIError(t, err, http.StatusForbidden, "forbidden")

	d, err := dash.Dashboard(as(admin))
	require.NoError(t, err)
	assert.EqualValues(t, 1, d.OrdersByStatus[types.OrderPending])
	assert.EqualValues(t, 1, d.OrdersByStatus[types.OrderCancelled])
	assert.Contains(t, d.OrdersByStatus, types.OrderShipped)
	assert.EqualValues(t, 2, d.OrdersLast7Days)
	assert.Equal(t, kept.TotalCents, d.RevenueCents)
	require.Len(t, d.LowStock, 1)
	assert.Equal(t, "food", d.LowStock[0].Slug)
	assert.EqualValues(t, 1, d.AppointmentsToday)
	assert.EqualValues(t, 1, d.RoomsByStatus[types.RoomReserved])
	assert.EqualValues(t, 1, d.RoomsByStatus[types.RoomAvailable])
	assert.EqualValues(t, 2, d.Customers)
}
