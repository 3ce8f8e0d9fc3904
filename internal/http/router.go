package http

import (
	"html/template"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	types "github.com/yungbote/pawclinic-backend/internal/domain"
	httpH "github.com/yungbote/pawclinic-backend/internal/http/handlers"
	httpMW "github.com/yungbote/pawclinic-backend/internal/http/middleware"
	"github.com/yungbote/pawclinic-backend/internal/observability"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	Templates      *template.Template
	CORSOrigins    []string
	TracingEnabled bool
	ServiceName    string
	// MediaDir is served under /media when local storage is used.
	MediaDir string

	AuthMiddleware *httpMW.AuthMiddleware

	AuthHandler          *httpH.AuthHandler
	UserHandler          *httpH.UserHandler
	CatalogHandler       *httpH.CatalogHandler
	OrderHandler         *httpH.OrderHandler
	PetHandler           *httpH.PetHandler
	MedicalRecordHandler *httpH.MedicalRecordHandler
	AppointmentHandler   *httpH.AppointmentHandler
	HotelHandler         *httpH.HotelHandler
	AdminHandler         *httpH.AdminHandler
	WebHandler           *httpH.WebHandler
	HealthHandler        *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		name := cfg.ServiceName
		if name == "" {
			name = "pawclinic"
		}
		r.Use(otelgin.Middleware(name))
	}
	r.Use(httpMW.RequestContext())
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.Use(httpMW.AccessLog(cfg.Log, "/healthcheck", "/readyz", "/metrics", "/media/*filepath"))
	r.Use(httpMW.Metrics(cfg.Metrics, "/metrics"))
	if cfg.Templates != nil {
		r.SetHTMLTemplate(cfg.Templates)
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}
	if cfg.MediaDir != "" {
		r.Static("/media", cfg.MediaDir)
	}

	// Pages
	if cfg.WebHandler != nil && cfg.AuthMiddleware != nil {
		pages := r.Group("/", cfg.AuthMiddleware.OptionalAuth())
		pages.GET("/", cfg.WebHandler.Home)
		pages.GET("/shop", cfg.WebHandler.Shop)
		pages.GET("/shop/:slug", cfg.WebHandler.Product)
		pages.GET("/login", cfg.WebHandler.LoginPage)
		pages.POST("/login", cfg.WebHandler.Login)
		pages.POST("/logout", cfg.WebHandler.Logout)
		pages.GET("/account", cfg.WebHandler.Account)
	}

	api := r.Group("/api")
	{
		// Public
		if cfg.AuthHandler != nil {
			api.POST("/auth/register", cfg.AuthHandler.Register)
			api.POST("/auth/login", cfg.AuthHandler.Login)
		}
		if cfg.CatalogHandler != nil {
			api.GET("/categories", cfg.CatalogHandler.ListCategories)
			api.GET("/products", cfg.CatalogHandler.ListProducts)
			api.GET("/products/:slug", cfg.CatalogHandler.GetProduct)
		}
		if cfg.AppointmentHandler != nil {
			api.GET("/services", cfg.AppointmentHandler.ListServices)
		}
		if cfg.UserHandler != nil {
			api.GET("/vets", cfg.UserHandler.ListVets)
		}
		if cfg.HotelHandler != nil {
			api.GET("/hotel/rooms", cfg.HotelHandler.ListRooms)
		}
	}
	if cfg.AuthMiddleware == nil {
		return r
	}

	// Refresh must keep working after the access token has expired. A still
	// valid bearer is attached so the token pair can be checked against it.
	if cfg.AuthHandler != nil {
		api.POST("/auth/refresh", cfg.AuthMiddleware.OptionalAuth(), cfg.AuthHandler.Refresh)
	}

	protected := api.Group("/", cfg.AuthMiddleware.RequireAuth())
	{
		if cfg.AuthHandler != nil {
			protected.POST("/auth/logout", cfg.AuthHandler.Logout)
			protected.POST("/auth/logout-all", cfg.AuthHandler.LogoutEverywhere)
		}
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
			protected.PATCH("/me", cfg.UserHandler.UpdateMe)
		}
		if cfg.OrderHandler != nil {
			protected.POST("/orders", cfg.OrderHandler.Checkout)
			protected.GET("/orders", cfg.OrderHandler.ListMine)
			protected.GET("/orders/:id", cfg.OrderHandler.GetMine)
			protected.POST("/orders/:id/cancel", cfg.OrderHandler.CancelMine)
		}
		if cfg.PetHandler != nil {
			protected.GET("/pets", cfg.PetHandler.ListMine)
			protected.POST("/pets", cfg.PetHandler.Create)
			protected.GET("/pets/:id", cfg.PetHandler.Get)
			protected.PUT("/pets/:id", cfg.PetHandler.Update)
			protected.DELETE("/pets/:id", cfg.PetHandler.Delete)
			protected.POST("/pets/:id/photo", cfg.PetHandler.UploadPhoto)
			protected.GET("/pets/:id/records", cfg.PetHandler.ListRecords)
		}
		if cfg.AppointmentHandler != nil {
			protected.GET("/appointments/availability", cfg.AppointmentHandler.Availability)
			protected.POST("/appointments", cfg.AppointmentHandler.Book)
			protected.GET("/appointments", cfg.AppointmentHandler.ListMine)
			protected.POST("/appointments/:id/cancel", cfg.AppointmentHandler.CancelMine)
		}
		if cfg.HotelHandler != nil {
			protected.POST("/hotel/reservations", cfg.HotelHandler.Reserve)
			protected.GET("/hotel/reservations", cfg.HotelHandler.ListMine)
			protected.GET("/hotel/reservations/:id", cfg.HotelHandler.Get)
			protected.PUT("/hotel/reservations/:id", cfg.HotelHandler.Update)
		}
	}

	staff := protected.Group("/staff", httpMW.RequireRole(types.RoleStaff, types.RoleAdmin))
	{
		if cfg.MedicalRecordHandler != nil {
			staff.POST("/pets/:id/records", cfg.MedicalRecordHandler.Create)
			staff.PUT("/records/:id", cfg.MedicalRecordHandler.Update)
			staff.DELETE("/records/:id", cfg.MedicalRecordHandler.Delete)
		}
		if cfg.PetHandler != nil {
			staff.GET("/pets/:id", cfg.PetHandler.Get)
		}
		if cfg.AppointmentHandler != nil {
			staff.GET("/appointments", cfg.AppointmentHandler.List)
			staff.PUT("/appointments/:id", cfg.AppointmentHandler.UpdateStatus)
		}
	}

	admin := protected.Group("/admin", httpMW.RequireRole(types.RoleAdmin))
	{
		if cfg.AdminHandler != nil {
			admin.GET("/dashboard", cfg.AdminHandler.Dashboard)
		}
		if cfg.CatalogHandler != nil {
			admin.POST("/categories", cfg.CatalogHandler.CreateCategory)
			admin.POST("/products", cfg.CatalogHandler.CreateProduct)
			admin.PUT("/products/:id", cfg.CatalogHandler.UpdateProduct)
			admin.DELETE("/products/:id", cfg.CatalogHandler.DeleteProduct)
			admin.POST("/products/:id/stock", cfg.CatalogHandler.AdjustStock)
			admin.POST("/products/:id/image", cfg.CatalogHandler.UploadImage)
		}
		if cfg.OrderHandler != nil {
			admin.GET("/orders", cfg.OrderHandler.List)
			admin.GET("/orders/:id", cfg.OrderHandler.Get)
			admin.PUT("/orders/:id", cfg.OrderHandler.UpdateStatus)
		}
		if cfg.AppointmentHandler != nil {
			admin.POST("/services", cfg.AppointmentHandler.CreateService)
			admin.PUT("/services/:id", cfg.AppointmentHandler.UpdateService)
		}
		if cfg.HotelHandler != nil {
			admin.GET("/hotel/rooms", cfg.HotelHandler.ListAllRooms)
			admin.POST("/hotel/rooms", cfg.HotelHandler.CreateRoom)
			admin.PUT("/hotel/rooms/:id", cfg.HotelHandler.UpdateRoom)
		}
		if cfg.UserHandler != nil {
			admin.GET("/users", cfg.UserHandler.ListUsers)
			admin.PUT("/users/:id/role", cfg.UserHandler.SetRole)
		}
	}

	return r
}
