package domain

import (
	"github.com/yungbote/pawclinic-backend/internal/domain/auth"
	"github.com/yungbote/pawclinic-backend/internal/domain/catalog"
	"github.com/yungbote/pawclinic-backend/internal/domain/clinic"
	"github.com/yungbote/pawclinic-backend/internal/domain/hotel"
	"github.com/yungbote/pawclinic-backend/internal/domain/orders"
	"github.com/yungbote/pawclinic-backend/internal/domain/user"
)

type (
	User = user.User
	Role = user.Role

	UserToken = auth.UserToken

	ProductCategory = catalog.ProductCategory
	Product         = catalog.Product

	Order       = orders.Order
	OrderItem   = orders.OrderItem
	OrderStatus = orders.Status

	Pet               = clinic.Pet
	Species           = clinic.Species
	MedicalRecord     = clinic.MedicalRecord
	RecordKind        = clinic.RecordKind
	ClinicService     = clinic.ClinicService
	Appointment       = clinic.Appointment
	AppointmentStatus = clinic.AppointmentStatus

	HotelRoom         = hotel.HotelRoom
	RoomKind          = hotel.RoomKind
	RoomStatus        = hotel.RoomStatus
	HotelReservation  = hotel.HotelReservation
	ReservationStatus = hotel.ReservationStatus
)

const (
	RoleCustomer = user.RoleCustomer
	RoleStaff    = user.RoleStaff
	RoleAdmin    = user.RoleAdmin

	OrderPending   = orders.StatusPending
	OrderPaid      = orders.StatusPaid
	OrderShipped   = orders.StatusShipped
	OrderDelivered = orders.StatusDelivered
	OrderCancelled = orders.StatusCancelled

	AppointmentScheduled = clinic.AppointmentScheduled
	AppointmentConfirmed = clinic.AppointmentConfirmed
	AppointmentCompleted = clinic.AppointmentCompleted
	AppointmentCancelled = clinic.AppointmentCancelled
	AppointmentNoShow    = clinic.AppointmentNoShow

	RoomAvailable   = hotel.RoomAvailable
	RoomReserved    = hotel.RoomReserved
	RoomOccupied    = hotel.RoomOccupied
	RoomMaintenance = hotel.RoomMaintenance

	ReservationPending    = hotel.ReservationPending
	ReservationConfirmed  = hotel.ReservationConfirmed
	ReservationCheckedIn  = hotel.ReservationCheckedIn
	ReservationCheckedOut = hotel.ReservationCheckedOut
	ReservationCancelled  = hotel.ReservationCancelled
)

// AllModels lists every persisted model in migration order.
func AllModels() []any {
	return []any{
		&User{},
		&UserToken{},
		&ProductCategory{},
		&Product{},
		&Order{},
		&OrderItem{},
		&Pet{},
		&MedicalRecord{},
		&ClinicService{},
		&Appointment{},
		&HotelRoom{},
		&HotelReservation{},
	}
}
