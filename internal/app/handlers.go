package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/pawclinic-backend/internal/http/handlers"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
)

type Handlers struct {
	Auth          *httpH.AuthHandler
	User          *httpH.UserHandler
	Catalog       *httpH.CatalogHandler
	Order         *httpH.OrderHandler
	Pet           *httpH.PetHandler
	MedicalRecord *httpH.MedicalRecordHandler
	Appointment   *httpH.AppointmentHandler
	Hotel         *httpH.HotelHandler
	Admin         *httpH.AdminHandler
	Web           *httpH.WebHandler
	Health        *httpH.HealthHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, cfg Config, svc Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:          httpH.NewAuthHandler(svc.Auth),
		User:          httpH.NewUserHandler(svc.User),
		Catalog:       httpH.NewCatalogHandler(svc.Catalog),
		Order:         httpH.NewOrderHandler(svc.Orders),
		Pet:           httpH.NewPetHandler(svc.Pets, svc.Records),
		MedicalRecord: httpH.NewMedicalRecordHandler(svc.Records),
		Appointment:   httpH.NewAppointmentHandler(svc.Appointments),
		Hotel:         httpH.NewHotelHandler(svc.Hotel),
		Admin:         httpH.NewAdminHandler(svc.Dashboard),
		Web: httpH.NewWebHandler(httpH.WebHandlerDeps{
			Log:          log,
			Auth:         svc.Auth,
			Users:        svc.User,
			Catalog:      svc.Catalog,
			Orders:       svc.Orders,
			Pets:         svc.Pets,
			Appointments: svc.Appointments,
			Hotel:        svc.Hotel,
			CookieSecure: cfg.CookieSecure,
		}),
		Health: httpH.NewHealthHandler(db),
	}
}
