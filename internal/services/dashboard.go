package services

import (
	"context"
	"time"

	"github.com/yungbote/pawclinic-backend/internal/data/repos"
	types "github.com/yungbote/pawclinic-backend/internal/domain"
	"github.com/yungbote/pawclinic-backend/internal/platform/apierr"
	"github.com/yungbote/pawclinic-backend/internal/platform/dbctx"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
)

const (
	lowStockThreshold = 5
	lowStockLimit     = 20
)

type Dashboard struct {
	OrdersByStatus    map[types.OrderStatus]int64 `json:"orders_by_status"`
	OrdersLast7Days   int64                       `json:"orders_last_7_days"`
	RevenueCents      int64                       `json:"revenue_cents"`
	LowStock          []*types.Product            `json:"low_stock"`
	AppointmentsToday int64                       `json:"appointments_today"`
	RoomsByStatus     map[types.RoomStatus]int64  `json:"rooms_by_status"`
	Customers         int64                       `json:"customers"`
}

type DashboardService interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
}

type dashboardService struct {
	log             *logger.Logger
	orderRepo       repos.OrderRepo
	productRepo     repos.ProductRepo
	appointmentRepo repos.AppointmentRepo
	roomRepo        repos.HotelRoomRepo
	userRepo        repos.UserRepo
	location        *time.Location
	clock           Clock
}

func NewDashboardService(
	log *logger.Logger,
	orderRepo repos.OrderRepo,
	productRepo repos.ProductRepo,
	appointmentRepo repos.AppointmentRepo,
	roomRepo repos.HotelRoomRepo,
	userRepo repos.UserRepo,
	location *time.Location,
	clock Clock,
) DashboardService {
	if location == nil {
		location = time.UTC
	}
	return &dashboardService{
		log:             log.With("service", "DashboardService"),
		orderRepo:       orderRepo,
		productRepo:     productRepo,
		appointmentRepo: appointmentRepo,
		roomRepo:        roomRepo,
		userRepo:        userRepo,
		location:        location,
		clock:           clock,
	}
}

func (ds *dashboardService) Dashboard(ctx context.Context) (*Dashboard, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	now := ds.clock.now()
	out := &Dashboard{
		OrdersByStatus: map[types.OrderStatus]int64{},
		RoomsByStatus:  map[types.RoomStatus]int64{},
	}
	for _, s := range []types.OrderStatus{types.OrderPending, types.OrderPaid, types.OrderShipped, types.OrderDelivered, types.OrderCancelled} {
		out.OrdersByStatus[s] = 0
	}

	orderCounts, err := ds.orderRepo.CountByStatus(dbc)
	if err != nil {
		return nil, apierr.Internal("dashboard_failed", err)
	}
	for _, c := range orderCounts {
		out.OrdersByStatus[c.Status] = c.Count
	}
	if out.OrdersLast7Days, err = ds.orderRepo.CountSince(dbc, now.AddDate(0, 0, -7)); err != nil {
		return nil, apierr.Internal("dashboard_failed", err)
	}
	if out.RevenueCents, err = ds.orderRepo.SumRevenueCents(dbc); err != nil {
		return nil, apierr.Internal("dashboard_failed", err)
	}
	if out.LowStock, err = ds.productRepo.ListLowStock(dbc, lowStockThreshold, lowStockLimit); err != nil {
		return nil, apierr.Internal("dashboard_failed", err)
	}
	if out.LowStock == nil {
		out.LowStock = []*types.Product{}
	}

	local := now.In(ds.location)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, ds.location)
	if out.AppointmentsToday, err = ds.appointmentRepo.CountBetween(dbc, dayStart, dayStart.AddDate(0, 0, 1)); err != nil {
		return nil, apierr.Internal("dashboard_failed", err)
	}

	roomCounts, err := ds.roomRepo.CountByStatus(dbc)
	if err != nil {
		return nil, apierr.Internal("dashboard_failed", err)
	}
	for _, c := range roomCounts {
		out.RoomsByStatus[c.Status] = c.Count
	}
	if out.Customers, err = ds.userRepo.CountByRole(dbc, types.RoleCustomer); err != nil {
		return nil, apierr.Internal("dashboard_failed", err)
	}
	return out, nil
}
