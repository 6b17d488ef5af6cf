package inmemdb

import (
	"sync"

	"github.com/trezcool/kumbukumbu/core/school"
)

// DB is a process-local store; everything is lost on exit.
type DB struct {
	sync.RWMutex
	reg *school.Registry
}

func Open() *DB {
	return &DB{reg: school.NewRegistry()}
}

// Reset drops every record.
func (db *DB) Reset() {
	db.Lock()
	defer db.Unlock()
	db.reg = school.NewRegistry()
}
