// Package jsonstore persists entities as one JSON array file per entity
// under a data directory. It backs the standalone import tool and small
// single-host deployments where a database server is not wanted; every write
// rewrites the whole file through a temp-and-rename so readers never observe
// a torn array.
package jsonstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	customerdomain "github.com/user7217/oxygentracker/internal/customer/domain"
	cylinderdomain "github.com/user7217/oxygentracker/internal/cylinder/domain"
	"github.com/user7217/oxygentracker/internal/importer"
	historydomain "github.com/user7217/oxygentracker/internal/rentalhistory/domain"
)

const (
	customersFile    = "customers.json"
	cylindersFile    = "cylinders.json"
	historyFile      = "rental_history.json"
	transactionsFile = "transactions.json"
)

// Store holds all four entity collections of one data directory. Loads are
// lazy per file; all mutations hold the store lock for the full
// read-modify-rewrite so concurrent appends cannot drop each other's rows.
type Store struct {
	dir string
	mu  sync.Mutex

	customers    *collection[customerdomain.Customer]
	cylinders    *collection[cylinderdomain.Cylinder]
	history      *collection[historydomain.RentalHistoryRecord]
	transactions *collection[importer.RentalTransaction]
}

func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &Store{
		dir:          dir,
		customers:    &collection[customerdomain.Customer]{path: filepath.Join(dir, customersFile)},
		cylinders:    &collection[cylinderdomain.Cylinder]{path: filepath.Join(dir, cylindersFile)},
		history:      &collection[historydomain.RentalHistoryRecord]{path: filepath.Join(dir, historyFile)},
		transactions: &collection[importer.RentalTransaction]{path: filepath.Join(dir, transactionsFile)},
	}, nil
}

// Stores exposes the directory through the import pipeline's interfaces.
func (s *Store) Stores() importer.Stores {
	return importer.Stores{
		Customers:    &customerStore{s},
		Cylinders:    &cylinderStore{s},
		History:      &historyStore{s},
		Transactions: &transactionStore{s},
	}
}

// collection is one JSON array file held in memory after first load.
type collection[T any] struct {
	path   string
	loaded bool
	items  []T
}

func (c *collection[T]) load() error {
	if c.loaded {
		return nil
	}
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		c.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", c.path, err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &c.items); err != nil {
			return fmt.Errorf("decode %s: %w", c.path, err)
		}
	}
	c.loaded = true
	return nil
}

func (c *collection[T]) flush() error {
	data, err := json.MarshalIndent(c.items, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.path)
}

func (c *collection[T]) all() ([]T, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out, nil
}

func (c *collection[T]) append(item T) error {
	if err := c.load(); err != nil {
		return err
	}
	c.items = append(c.items, item)
	return c.flush()
}

// replace swaps the first item matched by eq; appends when none matches.
func (c *collection[T]) replace(item T, eq func(T) bool) error {
	if err := c.load(); err != nil {
		return err
	}
	found := false
	for i := range c.items {
		if eq(c.items[i]) {
			c.items[i] = item
			found = true
			break
		}
	}
	if !found {
		c.items = append(c.items, item)
	}
	return c.flush()
}

type customerStore struct{ s *Store }

func (cs *customerStore) All(_ context.Context) ([]customerdomain.Customer, error) {
	cs.s.mu.Lock()
	defer cs.s.mu.Unlock()
	return cs.s.customers.all()
}

func (cs *customerStore) Append(_ context.Context, customer *customerdomain.Customer) error {
	cs.s.mu.Lock()
	defer cs.s.mu.Unlock()
	return cs.s.customers.append(*customer)
}

type cylinderStore struct{ s *Store }

func (cs *cylinderStore) All(_ context.Context) ([]cylinderdomain.Cylinder, error) {
	cs.s.mu.Lock()
	defer cs.s.mu.Unlock()
	return cs.s.cylinders.all()
}

func (cs *cylinderStore) Append(_ context.Context, cylinder *cylinderdomain.Cylinder) error {
	cs.s.mu.Lock()
	defer cs.s.mu.Unlock()
	return cs.s.cylinders.append(*cylinder)
}

func (cs *cylinderStore) Save(_ context.Context, cylinder *cylinderdomain.Cylinder) error {
	cs.s.mu.Lock()
	defer cs.s.mu.Unlock()
	id := cylinder.ID
	return cs.s.cylinders.replace(*cylinder, func(c cylinderdomain.Cylinder) bool {
		return c.ID == id
	})
}

type historyStore struct{ s *Store }

func (hs *historyStore) All(_ context.Context) ([]historydomain.RentalHistoryRecord, error) {
	hs.s.mu.Lock()
	defer hs.s.mu.Unlock()
	return hs.s.history.all()
}

func (hs *historyStore) Append(_ context.Context, record *historydomain.RentalHistoryRecord) error {
	hs.s.mu.Lock()
	defer hs.s.mu.Unlock()
	return hs.s.history.append(*record)
}

type transactionStore struct{ s *Store }

func (ts *transactionStore) Append(_ context.Context, txn *importer.RentalTransaction) error {
	ts.s.mu.Lock()
	defer ts.s.mu.Unlock()
	return ts.s.transactions.append(*txn)
}
