package main

import (
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// Legacy record layout of the pre-GORM registry. Records were written to a
// badger database as msgpack, keyed "<kind>:<id>".
type legacyEntity struct {
	ID                 string `msgpack:"id"`
	Domain             string `msgpack:"domain"`
	Name               string `msgpack:"name"`
	Tier               int    `msgpack:"tier"`
	VerificationMethod string `msgpack:"verification_method"`
	VerifiedAt         int64  `msgpack:"verified_at"`
	ReverificationDue  int64  `msgpack:"reverification_due"`
	RegistryNumber     string `msgpack:"registry_number"`
}

type legacyParticipant struct {
	Domain       string `msgpack:"domain"`
	Name         string `msgpack:"name"`
	Role         string `msgpack:"role"`
	AuthorizedBy string `msgpack:"authorized_by"`
	AuthorizedAt int64  `msgpack:"authorized_at"`
	Removed      bool   `msgpack:"removed"`
}

type legacyOrchestration struct {
	OrderReference     string              `msgpack:"order_reference"`
	OrchestratorDomain string              `msgpack:"orchestrator_domain"`
	OrchestratorName   string              `msgpack:"orchestrator_name"`
	CustomerDomain     string              `msgpack:"customer_domain"`
	CustomerName       string              `msgpack:"customer_name"`
	BusinessKeys       map[string]string   `msgpack:"business_keys"`
	Status             string              `msgpack:"status"`
	Type               string              `msgpack:"type"`
	Participants       []legacyParticipant `msgpack:"participants"`
}

// BadgerStorage reads the legacy badger database.
type BadgerStorage struct {
	*badger.DB
}

// OpenBadgerStorage opens the legacy badger database read-only.
func OpenBadgerStorage(path string) (*BadgerStorage, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithReadOnly(true).WithLogger(nil))
	if err != nil {
		return nil, err
	}
	return &BadgerStorage{DB: db}, nil
}

// readKind iterates all records with the given key prefix and decodes each
// into a fresh value produced by newValue, handing it to handle.
func (store *BadgerStorage) readKind(kind string, handle func(key string, raw []byte) error) error {
	prefix := []byte(kind + ":")
	return store.View(
		func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			it := txn.NewIterator(opts)
			defer it.Close()
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				item := it.Item()
				key := strings.TrimPrefix(string(item.Key()), kind+":")
				if err := item.Value(
					func(v []byte) error {
						return handle(key, v)
					},
				); err != nil {
					return err
				}
			}
			return nil
		},
	)
}

// Entities returns all legacy entity records.
func (store *BadgerStorage) Entities() ([]legacyEntity, error) {
	var entities []legacyEntity
	err := store.readKind(
		"entity", func(_ string, raw []byte) error {
			var e legacyEntity
			if err := msgpack.Unmarshal(raw, &e); err != nil {
				return err
			}
			entities = append(entities, e)
			return nil
		},
	)
	return entities, err
}

// Orchestrations returns all legacy orchestration records.
func (store *BadgerStorage) Orchestrations() ([]legacyOrchestration, error) {
	var orchestrations []legacyOrchestration
	err := store.readKind(
		"orchestration", func(_ string, raw []byte) error {
			var o legacyOrchestration
			if err := msgpack.Unmarshal(raw, &o); err != nil {
				return err
			}
			orchestrations = append(orchestrations, o)
			return nil
		},
	)
	return orchestrations, err
}
