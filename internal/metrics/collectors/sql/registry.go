// Package sql holds collectors that read the PostgreSQL export rather than
// the in-memory chain. They are only served by `tally apply postgres`.
package sql

import (
	"database/sql"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// SqlCollectorFactory builds a collector over the export database.
type SqlCollectorFactory func(db *sql.DB, extraParams ...interface{}) (prometheus.Collector, error)

// SqlRegistry lists the export collectors. Collectors register a factory
// from init; the postgres command instantiates them once the pool is open.
type SqlRegistry struct {
	factories []SqlCollectorFactory
}

func NewSqlRegistry() *SqlRegistry {
	return &SqlRegistry{}
}

func (r *SqlRegistry) Register(factory SqlCollectorFactory) {
	r.factories = append(r.factories, factory)
}

// CreateSqlCollectors builds one collector per registered factory, in
// registration order. A nil db is an error.
func (r *SqlRegistry) CreateSqlCollectors(db *sql.DB, extraParams ...interface{}) ([]prometheus.Collector, error) {
	if db == nil {
		return nil, errors.New("export database is nil")
	}

	built := make([]prometheus.Collector, len(r.factories))
	for i, factory := range r.factories {
		c, err := factory(db, extraParams...)
		if err != nil {
			return nil, err
		}
		built[i] = c
	}
	return built, nil
}

// DefaultSqlRegistry is filled by the collectors of this package.
var DefaultSqlRegistry = NewSqlRegistry()

func RegisterCollectorFactory(factory SqlCollectorFactory) {
	DefaultSqlRegistry.Register(factory)
}
