// Package storage persists the canonical dataset. The memory
// implementation backs tests, sqlite backs local inspection, and
// postgres is the production sink behind the app.
package storage

import (
	"kltransit.dev/pipeline/model"
)

type Storage interface {
	// Upserts the canonical stop set.
	WriteStops(stops []model.Stop) error

	// Replaces the service table. Services have no natural key
	// that survives resequencing, so writes are destructive.
	WriteServices(services []model.Service) error

	// Upserts routes, trips included.
	WriteRoutes(routes []model.Route) error

	Stops() ([]model.Stop, error)
	Services() ([]model.Service, error)
	Routes() ([]model.Route, error)

	// Deletes routes whose short name the predicate rejects.
	// Keeps the sink clean of routes that have since been
	// excluded upstream.
	DeleteRoutesWhere(exclude func(shortName string) bool) (int, error)

	Close() error
}
