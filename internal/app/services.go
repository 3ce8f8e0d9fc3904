package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/pawclinic-backend/internal/data/aggregates"
	"github.com/yungbote/pawclinic-backend/internal/data/repos"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
	"github.com/yungbote/pawclinic-backend/internal/services"
)

type Services struct {
	Auth         services.AuthService
	User         services.UserService
	Catalog      services.CatalogService
	Orders       services.OrderService
	Pets         services.PetService
	Records      services.MedicalRecordService
	Appointments services.AppointmentService
	Hotel        services.HotelService
	Dashboard    services.DashboardService
	Notifier     services.Notifier
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r repos.Set, clients Clients) Services {
	log.Info("Wiring services...")

	base := aggregates.BaseDeps{
		DB:    db,
		Log:   log,
		Hooks: aggregates.NewObservabilityHooks(clients.Metrics),
	}
	orderAgg := aggregates.NewOrderAggregate(aggregates.OrderAggregateDeps{
		Base:     base,
		Orders:   r.Orders,
		Products: r.Products,
	})
	appointmentAgg := aggregates.NewAppointmentAggregate(aggregates.AppointmentAggregateDeps{
		Base:         base,
		Users:        r.Users,
		Appointments: r.Appointments,
	})
	reservationAgg := aggregates.NewHotelReservationAggregate(aggregates.HotelReservationAggregateDeps{
		Base:         base,
		Rooms:        r.Rooms,
		Reservations: r.Reservations,
	})

	notifier := services.NewNotifier(log, r.Users, clients.Mailer, clients.Metrics)
	loc := cfg.Location()

	return Services{
		Auth: services.NewAuthService(db, log, r.Users, r.UserTokens, clients.Limiter, clients.Metrics, services.AuthConfig{
			JWTSecretKey: cfg.JWTSecretKey,
			AccessTTL:    cfg.AccessTokenTTL,
			RefreshTTL:   cfg.RefreshTokenTTL,
		}),
		User:    services.NewUserService(db, log, r.Users),
		Catalog: services.NewCatalogService(db, log, r.Categories, r.Products, clients.Bucket, clients.Images),
		Orders:  services.NewOrderService(db, log, r.Orders, orderAgg, notifier, clients.Metrics),
		Pets:    services.NewPetService(db, log, r.Pets, r.Reservations, r.Appointments, clients.Bucket, clients.Images),
		Records: services.NewMedicalRecordService(db, log, r.Pets, r.Records, r.Users),
		Appointments: services.NewAppointmentService(db, log, r.Users, r.Pets, r.Services, r.Appointments,
			appointmentAgg, notifier, services.ClinicHours{
				Location:    loc,
				OpenHour:    cfg.Clinic.OpenHour,
				CloseHour:   cfg.Clinic.CloseHour,
				SlotMinutes: cfg.Clinic.SlotMinutes,
			}, nil),
		Hotel:     services.NewHotelService(db, log, r.Pets, r.Rooms, r.Reservations, reservationAgg, notifier, nil),
		Dashboard: services.NewDashboardService(log, r.Orders, r.Products, r.Appointments, r.Rooms, r.Users, loc, nil),
		Notifier:  notifier,
	}
}
