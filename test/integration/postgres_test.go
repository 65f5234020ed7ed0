package integration

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/vorrat-dev/vorrat/pkg/prefs"
	"github.com/vorrat-dev/vorrat/pkg/storage"
	"github.com/vorrat-dev/vorrat/pkg/storage/memory"
	"github.com/vorrat-dev/vorrat/pkg/storage/postgres"
)

func init() {
	// Configure testcontainers to use podman.
	// Detect the podman socket from `podman machine inspect`.
	if os.Getenv("DOCKER_HOST") == "" {
		out, err := exec.Command("podman", "machine", "inspect", "--format", "{{.ConnectionInfo.PodmanSocket.Path}}").Output()
		if err == nil {
			sock := strings.TrimSpace(string(out))
			if sock != "" {
				os.Setenv("DOCKER_HOST", "unix://"+sock)
			}
		}
	}
	// Ryuk needs privileged mode with podman.
	if os.Getenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED") == "" {
		os.Setenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED", "true")
	}
}

// startPostgres starts a PostgreSQL container and returns its DSN. Tests
// are skipped if no container runtime is available.
func startPostgres(t *testing.T) string {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true, skipping PostgreSQL integration tests")
	}
	if _, err := exec.LookPath("podman"); err != nil {
		t.Skip("podman not found, skipping integration tests")
	}

	ctx := context.Background()

	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("vorrat_itest"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container (is podman running?): %v", err)
	}

	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}
	return dsn
}

// openPostgresStore builds a preference store with a PostgreSQL device
// backend and a fresh in-memory session backend, the production durable
// configuration.
func openPostgresStore(t *testing.T, dsn string) *prefs.Store {
	t.Helper()

	device, err := postgres.New(context.Background(), postgres.Config{
		DSN:            dsn,
		MaxConns:       5,
		MinConns:       1,
		MigrateOnStart: true,
	})
	if err != nil {
		t.Fatalf("creating postgres backend: %v", err)
	}
	return prefs.New(device, memory.New(memory.Options{}))
}

func TestPostgresDeviceScopeSurvivesReopen(t *testing.T) {
	dsn := startPostgres(t)
	ctx := storage.SetActor(context.Background(), storage.Actor{
		UserID:    "tg:8800001",
		SessionID: "ses_itest_pg_1",
	})

	store := openPostgresStore(t, dsn)
	if _, err := store.Put(ctx, prefs.ScopeDevice, "kcalTarget", []byte(`1800`)); err != nil {
		t.Fatalf("device Put: %v", err)
	}
	if _, err := store.Put(ctx, prefs.ScopeSession, "activeTab", []byte(`"meals"`)); err != nil {
		t.Fatalf("session Put: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("closing store: %v", err)
	}

	// Reopening simulates a process restart: the durable scope comes back
	// from PostgreSQL, the ephemeral scope started in memory and is gone.
	reopened := openPostgresStore(t, dsn)
	defer reopened.Close()

	pref, err := reopened.Lookup(ctx, prefs.ScopeDevice, "kcalTarget")
	if err != nil {
		t.Fatalf("device Lookup after reopen: %v", err)
	}
	if string(pref.Value) != `1800` {
		t.Errorf("device value = %s, want 1800", pref.Value)
	}

	if _, err := reopened.Lookup(ctx, prefs.ScopeSession, "activeTab"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("session Lookup after reopen = %v, want ErrNotFound", err)
	}
}

func TestPostgresKeyspacesStayDisjoint(t *testing.T) {
	dsn := startPostgres(t)
	store := openPostgresStore(t, dsn)
	defer store.Close()

	alice := storage.SetActor(context.Background(), storage.Actor{UserID: "tg:8800002", SessionID: "ses_a"})
	bob := storage.SetActor(context.Background(), storage.Actor{UserID: "tg:8800003", SessionID: "ses_b"})

	if _, err := store.Put(alice, prefs.ScopeDevice, "theme", []byte(`"dark"`)); err != nil {
		t.Fatalf("alice Put: %v", err)
	}
	if _, err := store.Put(bob, prefs.ScopeDevice, "theme", []byte(`"light"`)); err != nil {
		t.Fatalf("bob Put: %v", err)
	}

	got, err := store.Lookup(alice, prefs.ScopeDevice, "theme")
	if err != nil {
		t.Fatalf("alice Lookup: %v", err)
	}
	if string(got.Value) != `"dark"` {
		t.Errorf("alice theme = %s, want \"dark\"", got.Value)
	}

	list, err := store.List(bob, prefs.ScopeDevice, "", 0)
	if err != nil {
		t.Fatalf("bob List: %v", err)
	}
	if len(list.Data) != 1 || string(list.Data[0].Value) != `"light"` {
		t.Errorf("bob sees %+v, want only his own light theme", list.Data)
	}
}
