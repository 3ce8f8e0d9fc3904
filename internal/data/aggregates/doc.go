// Package aggregates implements the write paths whose invariants span tables:
// checkout and order status against product stock, hotel reservations against
// the derived room status, and appointments against a vet's calendar.
//
// Every write runs through executeWrite, so it is a single transaction that is
// retried on lock contention and reported to the metrics hooks. Services read
// through internal/data/repos directly and only write these tables through here.
package aggregates
