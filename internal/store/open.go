package store

import (
	"fmt"

	"github.com/fyrsmithlabs/voicetask/internal/config"
	"github.com/fyrsmithlabs/voicetask/internal/task"
)

// SinkCloser is a task.Sink that holds resources.
type SinkCloser interface {
	task.Sink
	Close() error
}

// Open returns the sink selected by cfg.Driver.
func Open(cfg config.StoreConfig) (SinkCloser, error) {
	switch cfg.Driver {
	case "", config.StoreMemory:
		return NewMemoryStore(), nil
	case config.StoreSQLite:
		return OpenSQLite(cfg.SQLitePath)
	case config.StoreNATS:
		nc, err := ConnectNATS(cfg.NATSURL)
		if err != nil {
			return nil, err
		}
		sink, err := NewNATSSink(nc, cfg.NATSSubject, cfg.NATSTimeout)
		if err != nil {
			nc.Close()
			return nil, err
		}
		sink.ownConn = true
		return sink, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// OpenStore returns a readable store for the memory and sqlite drivers.
func OpenStore(cfg config.StoreConfig) (task.Store, error) {
	switch cfg.Driver {
	case "", config.StoreMemory:
		return NewMemoryStore(), nil
	case config.StoreSQLite:
		return OpenSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("store driver %q cannot be read back", cfg.Driver)
	}
}
