package app

import (
	"fmt"

	apphttp "github.com/yungbote/pawclinic-backend/internal/http"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
	"github.com/yungbote/pawclinic-backend/internal/platform/storage"
	"github.com/yungbote/pawclinic-backend/internal/web"
)

func wireRouterConfig(log *logger.Logger, cfg Config, clients Clients, h Handlers, mw Middleware) (apphttp.RouterConfig, error) {
	tmpl, err := web.Templates()
	if err != nil {
		return apphttp.RouterConfig{}, fmt.Errorf("parse templates: %w", err)
	}
	mediaDir := ""
	if clients.StorageConfig.Mode == storage.ModeLocal {
		mediaDir = clients.StorageConfig.LocalDir
	}
	return apphttp.RouterConfig{
		Log:            log,
		Metrics:        clients.Metrics,
		Templates:      tmpl,
		CORSOrigins:    cfg.CORSOrigins,
		TracingEnabled: cfg.Otel.Enabled,
		ServiceName:    cfg.Otel.ServiceName,
		MediaDir:       mediaDir,

		AuthMiddleware: mw.Auth,

		AuthHandler:          h.Auth,
		UserHandler:          h.User,
		CatalogHandler:       h.Catalog,
		OrderHandler:         h.Order,
		PetHandler:           h.Pet,
		MedicalRecordHandler: h.MedicalRecord,
		AppointmentHandler:   h.Appointment,
		HotelHandler:         h.Hotel,
		AdminHandler:         h.Admin,
		WebHandler:           h.Web,
		HealthHandler:        h.Health,
	}, nil
}
