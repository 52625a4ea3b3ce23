package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/voicetask/internal/config"
	"github.com/fyrsmithlabs/voicetask/internal/extraction"
	"github.com/fyrsmithlabs/voicetask/internal/task"
)

func sampleDraft() task.Draft {
	due := time.Date(2026, 3, 11, 15, 0, 0, 0, time.UTC)
	return task.Draft{
		Title:         "Call John",
		Description:   "Call John tomorrow at 3pm",
		Priority:      extraction.PriorityMedium,
		Category:      extraction.CategoryGeneral,
		DueDate:       &due,
		ContactPerson: "John",
	}
}

// storeContract runs the same checks against every readable driver.
func storeContract(t *testing.T, st task.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		d := sampleDraft()
		rec, err := st.Create(ctx, "alice", d)
		require.NoError(t, err)
		assert.NotEmpty(t, rec.ID)
		assert.Equal(t, "alice", rec.UserID)
		assert.False(t, rec.CreatedAt.IsZero())

		got, err := st.Get(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, d.Title, got.Title)
		assert.Equal(t, d.Priority, got.Priority)
		assert.Equal(t, "John", got.ContactPerson)
		require.NotNil(t, got.DueDate)
		assert.True(t, d.DueDate.Equal(*got.DueDate))
	})

	t.Run("no due date", func(t *testing.T) {
		d := sampleDraft()
		d.DueDate = nil
		d.ContactPerson = ""
		rec, err := st.Create(ctx, "alice", d)
		require.NoError(t, err)

		got, err := st.Get(ctx, rec.ID)
		require.NoError(t, err)
		assert.Nil(t, got.DueDate)
		assert.Empty(t, got.ContactPerson)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := st.Create(ctx, "", sampleDraft())
		assert.ErrorIs(t, err, ErrMissingUser)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := st.Get(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list scoped to user", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			_, err := st.Create(ctx, "bob", sampleDraft())
			require.NoError(t, err)
		}
		all, err := st.List(ctx, "bob", 0)
		require.NoError(t, err)
		assert.Len(t, all, 3)
		for _, r := range all {
			assert.Equal(t, "bob", r.UserID)
		}

		limited, err := st.List(ctx, "bob", 2)
		require.NoError(t, err)
		assert.Len(t, limited, 2)

		none, err := st.List(ctx, "carol", 10)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestMemoryStore(t *testing.T) {
	st := NewMemoryStore()
	storeContract(t, st)
	assert.NoError(t, st.Close())
}

func TestMemoryStore_CopiesDueDate(t *testing.T) {
	st := NewMemoryStore()
	d := sampleDraft()
	rec, err := st.Create(context.Background(), "alice", d)
	require.NoError(t, err)

	*d.DueDate = d.DueDate.Add(48 * time.Hour)
	got, err := st.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 11, got.DueDate.Day())
}

func TestMemoryStore_ConcurrentCreate(t *testing.T) {
	st := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := st.Create(context.Background(), "alice", sampleDraft())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, st.Len())
}

func TestSQLiteStore(t *testing.T) {
	st, err := OpenSQLite(filepath.Join(t.TempDir(), "data", "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	storeContract(t, st)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.db")
	st, err := OpenSQLite(path)
	require.NoError(t, err)
	rec, err := st.Create(context.Background(), "alice", sampleDraft())
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st, err = OpenSQLite(path)
	require.NoError(t, err)
	defer st.Close()
	got, err := st.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Title, got.Title)
}

func TestSQLiteStore_RejectsTraversal(t *testing.T) {
	_, err := OpenSQLite("../escape/tasks.db")
	require.Error(t, err)
}

func TestSQLiteStore_RejectsInvalidPriority(t *testing.T) {
	st, err := OpenSQLite(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	defer st.Close()

	d := sampleDraft()
	d.Priority = "Urgent"
	_, err = st.Create(context.Background(), "alice", d)
	assert.Error(t, err)
}

func startTestNATSServer(t *testing.T) *natsserver.Server {
	opts := &natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1, // Random port
		NoLog:  true,
		NoSigs: true,
	}

	server, err := natsserver.NewServer(opts)
	require.NoError(t, err)

	go server.Start()

	if !server.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}

	t.Cleanup(func() {
		server.Shutdown()
		server.WaitForShutdown()
	})

	return server
}

func TestNATSSink_RoundTrip(t *testing.T) {
	server := startTestNATSServer(t)

	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	backing := NewMemoryStore()
	resp, err := ServeNATS(nc, "tasks.create", backing, nil)
	require.NoError(t, err)
	defer resp.Close()

	sink, err := NewNATSSink(nc, "tasks.create", time.Second)
	require.NoError(t, err)

	rec, err := sink.Create(context.Background(), "alice@example.com", sampleDraft())
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", rec.UserID)
	assert.Equal(t, "John", rec.ContactPerson)
	require.NotNil(t, rec.DueDate)

	stored, err := backing.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Title, stored.Title)
}

func TestNATSSink_NoResponder(t *testing.T) {
	server := startTestNATSServer(t)

	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	sink, err := NewNATSSink(nc, "tasks.create", 200*time.Millisecond)
	require.NoError(t, err)

	_, err = sink.Create(context.Background(), "alice", sampleDraft())
	require.Error(t, err)
}

func TestNATSSink_RemoteError(t *testing.T) {
	server := startTestNATSServer(t)

	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	// A sqlite store rejects unknown priorities, which surfaces as a remote error.
	backing, err := OpenSQLite(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	defer backing.Close()

	resp, err := ServeNATS(nc, "tasks.create", backing, nil)
	require.NoError(t, err)
	defer resp.Close()

	sink, err := NewNATSSink(nc, "tasks.create", time.Second)
	require.NoError(t, err)

	d := sampleDraft()
	d.Priority = "Urgent"
	_, err = sink.Create(context.Background(), "alice", d)
	assert.ErrorIs(t, err, ErrRemote)
}

func TestNATSResponder_RejectsMismatchedSubject(t *testing.T) {
	server := startTestNATSServer(t)

	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	backing := NewMemoryStore()
	resp, err := ServeNATS(nc, "tasks.create", backing, nil)
	require.NoError(t, err)
	defer resp.Close()

	msg, err := nc.Request("tasks.create.mallory", []byte(`{"userId":"alice","draft":{}}`), time.Second)
	require.NoError(t, err)
	assert.Contains(t, string(msg.Data), "subject does not match user")
	assert.Zero(t, backing.Len())
}

func TestNewNATSSink_Validation(t *testing.T) {
	_, err := NewNATSSink(nil, "tasks.create", 0)
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	sink, err := Open(config.StoreConfig{Driver: config.StoreMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, sink)

	sink, err = Open(config.StoreConfig{Driver: config.StoreSQLite, SQLitePath: filepath.Join(t.TempDir(), "t.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, sink)
	require.NoError(t, sink.Close())

	_, err = Open(config.StoreConfig{Driver: "postgres"})
	assert.Error(t, err)

	_, err = OpenStore(config.StoreConfig{Driver: config.StoreNATS})
	assert.Error(t, err)
}
