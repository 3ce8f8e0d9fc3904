package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/pawclinic-backend/internal/data/repos/auth"
	"github.com/yungbote/pawclinic-backend/internal/data/repos/catalog"
	"github.com/yungbote/pawclinic-backend/internal/data/repos/clinic"
	"github.com/yungbote/pawclinic-backend/internal/data/repos/hotel"
	"github.com/yungbote/pawclinic-backend/internal/data/repos/orders"
	"github.com/yungbote/pawclinic-backend/internal/data/repos/user"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserListFilter = user.ListFilter
type UserTokenRepo = auth.UserTokenRepo

type ProductCategoryRepo = catalog.ProductCategoryRepo
type ProductRepo = catalog.ProductRepo
type ProductFilter = catalog.ProductFilter

type OrderRepo = orders.OrderRepo
type OrderListFilter = orders.ListFilter
type OrderStatusCount = orders.StatusCount

type PetRepo = clinic.PetRepo
type MedicalRecordRepo = clinic.MedicalRecordRepo
type ClinicServiceRepo = clinic.ClinicServiceRepo
type AppointmentRepo = clinic.AppointmentRepo
type AppointmentFilter = clinic.AppointmentFilter

type HotelRoomRepo = hotel.HotelRoomRepo
type HotelReservationRepo = hotel.HotelReservationRepo
type ReservationFilter = hotel.ReservationFilter
type RoomStatusCount = hotel.RoomStatusCount

// Set bundles every table repo so wiring code and tests can build them in one call.
type Set struct {
	Users        UserRepo
	UserTokens   UserTokenRepo
	Categories   ProductCategoryRepo
	Products     ProductRepo
	Orders       OrderRepo
	Pets         PetRepo
	Records      MedicalRecordRepo
	Services     ClinicServiceRepo
	Appointments AppointmentRepo
	Rooms        HotelRoomRepo
	Reservations HotelReservationRepo
}

func NewSet(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		Users:        user.NewUserRepo(db, log),
		UserTokens:   auth.NewUserTokenRepo(db, log),
		Categories:   catalog.NewProductCategoryRepo(db, log),
		Products:     catalog.NewProductRepo(db, log),
		Orders:       orders.NewOrderRepo(db, log),
		Pets:         clinic.NewPetRepo(db, log),
		Records:      clinic.NewMedicalRecordRepo(db, log),
		Services:     clinic.NewClinicServiceRepo(db, log),
		Appointments: clinic.NewAppointmentRepo(db, log),
		Rooms:        hotel.NewHotelRoomRepo(db, log),
		Reservations: hotel.NewHotelReservationRepo(db, log),
	}
}
