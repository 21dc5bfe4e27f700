package store

import (
	"consultly/model"
	storePostgres "consultly/model/store/postgres"
)

var store model.Model

// GetStore - Should decide on which model implementation to use by
// configuration and return the store.
func GetStore() model.Model {
	if store == nil {
		store = &storePostgres.Postgres{}
	}
	return store
}

// SetStore overrides the store implementation. Used by tests.
func SetStore(s model.Model) {
	store = s
}
