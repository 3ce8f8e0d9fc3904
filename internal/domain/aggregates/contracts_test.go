package aggregates

import (
	"errors"
	"testing"

	"github.com/yungbote/pawclinic-backend/internal/domain/hotel"
)

func TestContractsOwnDisjointTables(t *testing.T) {
	seen := map[string]string{}
	for _, c := range Contracts() {
		if len(c.Writes) == 0 {
			t.Fatalf("%s writes nothing", c.Name)
		}
		for _, table := range c.Writes {
			if prev, ok := seen[table]; ok {
				t.Fatalf("%s owned by both %s and %s", table, prev, c.Name)
			}
			seen[table] = c.Name
		}
	}
	if c, ok := OwnerOf("hotel_reservation"); !ok || c.Name != HotelReservationAggregateContract.Name {
		t.Fatalf("hotel_reservation owner: %+v %v", c, ok)
	}
	if _, ok := OwnerOf("medical_record"); ok {
		t.Fatalf("medical_record has no aggregate owner")
	}
}

func TestContractGuardsDerivedTables(t *testing.T) {
	if !OrderAggregateContract.Guards("product") {
		t.Fatalf("order aggregate derives product.stock")
	}
	if OrderAggregateContract.Owns("product") {
		t.Fatalf("order aggregate does not own product rows")
	}
	if AppointmentAggregateContract.Guards("user") {
		t.Fatalf("locking user rows is not guarding them")
	}
	if OrderAggregateContract.Guards("prod") {
		t.Fatalf("table prefix must match a whole name")
	}
}

func TestDeriveRoomStatus(t *testing.T) {
	cases := []struct {
		name    string
		current hotel.RoomStatus
		in      []hotel.ReservationStatus
		want    hotel.RoomStatus
	}{
		{"empty", hotel.RoomReserved, nil, hotel.RoomAvailable},
		{"only cancelled", hotel.RoomReserved, []hotel.ReservationStatus{hotel.ReservationCancelled, hotel.ReservationCheckedOut}, hotel.RoomAvailable},
		{"pending holds", hotel.RoomAvailable, []hotel.ReservationStatus{hotel.ReservationCancelled, hotel.ReservationPending}, hotel.RoomReserved},
		{"checked in wins", hotel.RoomAvailable, []hotel.ReservationStatus{hotel.ReservationConfirmed, hotel.ReservationCheckedIn}, hotel.RoomOccupied},
		{"maintenance sticky", hotel.RoomMaintenance, []hotel.ReservationStatus{hotel.ReservationCheckedIn}, hotel.RoomMaintenance},
	}
	for _, tc := range cases {
		if got := DeriveRoomStatus(tc.current, tc.in); got != tc.want {
			t.Fatalf("%s: got %s want %s", tc.name, got, tc.want)
		}
	}
}

func TestReasonOf(t *testing.T) {
	err := NewReasonError(CodeConflict, "op", ReasonSlotTaken, "taken")
	wrapped := errors.Join(errors.New("outer"), err)
	if ReasonOf(wrapped) != ReasonSlotTaken || CodeOf(wrapped) != CodeConflict {
		t.Fatalf("unexpected reason/code: %q %q", ReasonOf(wrapped), CodeOf(wrapped))
	}
	if !errors.Is(wrapped, &Error{Code: CodeConflict, Reason: ReasonSlotTaken}) || !errors.Is(wrapped, &Error{Code: CodeConflict}) {
		t.Fatalf("errors.Is should match by code and reason")
	}
	if errors.Is(wrapped, &Error{Code: CodeConflict, Reason: ReasonRoomUnavailable}) {
		t.Fatalf("errors.Is matched the wrong reason")
	}
	if got := err.Error(); got != "op: taken [conflict/slot_taken]" {
		t.Fatalf("message: %q", got)
	}
	if ReasonOf(errors.New("plain")) != "" {
		t.Fatalf("plain error should have no reason")
	}
}
