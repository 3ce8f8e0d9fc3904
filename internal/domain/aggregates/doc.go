// Package aggregates defines domain-facing aggregate contracts.
//
// Aggregates own the write paths whose invariants span several tables: order status and
// product stock, hotel reservations and room status, and appointments against a vet's
// calendar. Implementations live in internal/data/aggregates.
package aggregates
