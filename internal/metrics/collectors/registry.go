package collectors

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/liftedinit/tally/internal/ledger"
)

// Ledger is the read-only view of the chain the ledger collectors scrape.
type Ledger interface {
	Height() int
	Accounts() map[ledger.AccountID]ledger.Account
	TotalSupply() ledger.Amount
	PendingTransactions() []*ledger.Transaction
}

// CollectorFactory is a function type that creates a collector with provided parameters
type CollectorFactory func(l Ledger, extraParams ...interface{}) (prometheus.Collector, error)

type Registry struct {
	factories []CollectorFactory
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make([]CollectorFactory, 0),
	}
}

func (r *Registry) Register(factory CollectorFactory) {
	r.factories = append(r.factories, factory)
}

// CreateCollectors instantiates all collectors using the provided parameters
func (r *Registry) CreateCollectors(l Ledger, extraParams ...interface{}) ([]prometheus.Collector, error) {
	if l == nil {
		return nil, errors.New("ledger is nil")
	}

	collectors := make([]prometheus.Collector, 0, len(r.factories))
	for _, factory := range r.factories {
		collector, err := factory(l, extraParams...)
		if err != nil {
			return nil, err
		}
		collectors = append(collectors, collector)
	}
	return collectors, nil
}

var DefaultRegistry = NewRegistry()

func RegisterCollectorFactory(factory CollectorFactory) {
	DefaultRegistry.Register(factory)
}
