package aggregates

import (
	"slices"
	"strings"
)

// Contract describes the rows an aggregate is the single writer for.
type Contract struct {
	Name string
	// Locks lists tables whose rows are locked, in acquisition order.
	Locks []string
	// Writes lists tables only this aggregate may insert into or update.
	Writes []string
	// Derived lists table.column values recomputed inside every write.
	Derived []string
}

// Aggregate is implemented by every write-owning aggregate.
type Aggregate interface {
	Contract() Contract
}

// Owns reports whether writes to table must go through this aggregate.
func (c Contract) Owns(table string) bool {
	return slices.Contains(c.Writes, table)
}

// Guards reports whether the aggregate writes table or derives one of its columns.
func (c Contract) Guards(table string) bool {
	if c.Owns(table) {
		return true
	}
	return slices.ContainsFunc(c.Derived, func(col string) bool {
		return strings.HasPrefix(col, table+".")
	})
}

// Contracts returns the contract of every aggregate.
func Contracts() []Contract {
	return []Contract{
		OrderAggregateContract,
		HotelReservationAggregateContract,
		AppointmentAggregateContract,
	}
}

// OwnerOf returns the aggregate that owns writes to table.
func OwnerOf(table string) (Contract, bool) {
	for _, c := range Contracts() {
		if c.Owns(table) {
			return c, true
		}
	}
	return Contract{}, false
}
