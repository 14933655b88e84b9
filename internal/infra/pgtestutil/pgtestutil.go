// Package pgtestutil provisions throwaway, migrated Postgres databases for
// integration tests.
//
// When PG_TEST_DSN is set, every test gets a fresh database created on that
// server. Otherwise a disposable postgres container is started per test
// with testcontainers.
package pgtestutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/fnv"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/file"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fastprodman/payments-engine/internal/infra/pgutils"
)

const (
	EnvTestDSN    = "PG_TEST_DSN"
	postgresImage = "postgres:16-alpine"
	migrationsDir = "cmd/migrator/migrations"
)

// NewTestDB returns a migrated database that is dropped when the test ends.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv(EnvTestDSN)
	if dsn == "" {
		dsn = startContainer(t)
	} else {
		dsn = createDatabase(t, dsn)
	}

	db, err := sql.Open(pgutils.DriverName, dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	db.SetConnMaxIdleTime(100 * time.Millisecond)
	db.SetConnMaxLifetime(30 * time.Second)

	// Registered after createDatabase's drop, so it runs first.
	t.Cleanup(func() { _ = db.Close() })

	err = migrateUp(db)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}

func startContainer(t *testing.T) string {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		postgresImage,
		tcpostgres.WithDatabase("payments"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	t.Cleanup(func() {
		terr := container.Terminate(context.Background())
		if terr != nil {
			t.Logf("terminate postgres container: %v", terr)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("container dsn: %v", err)
	}

	return dsn
}

// createDatabase creates a uniquely named database on the server behind
// baseDSN and returns a DSN pointing at it.
func createDatabase(t *testing.T, baseDSN string) string {
	t.Helper()

	adminDSN, err := ReplaceDBInDSN(baseDSN, "postgres")
	if err != nil {
		t.Fatalf("admin dsn: %v", err)
	}

	admin, err := sql.Open(pgutils.DriverName, adminDSN)
	if err != nil {
		t.Fatalf("open admin: %v", err)
	}

	dbName := sanitizeForPgIdent(uniqueDBName("testdb", t.Name()))

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	const maxAttempts = 5
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		_, err = admin.ExecContext(ctx,
			fmt.Sprintf(`CREATE DATABASE "%s" WITH TEMPLATE template0 ENCODING 'UTF8'`, dbName))
		if err == nil {
			break
		}

		if !pgutils.IsUniqueViolation(err) || attempt == maxAttempts {
			_ = admin.Close()
			t.Fatalf("create database: %v", err)
		}

		dbName = sanitizeForPgIdent(uniqueDBName("testdb", t.Name()))
	}

	t.Cleanup(func() {
		dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer dcancel()

		_, derr := admin.ExecContext(dctx,
			fmt.Sprintf(`DROP DATABASE IF EXISTS "%s" WITH (FORCE)`, dbName))
		if derr != nil {
			t.Logf("drop database %s: %v", dbName, derr)
		}

		_ = admin.Close()
	})

	testDSN, err := ReplaceDBInDSN(baseDSN, dbName)
	if err != nil {
		t.Fatalf("test dsn: %v", err)
	}

	return testDSN
}

func migrateUp(db *sql.DB) error {
	absPath, err := migrationsAbsPath()
	if err != nil {
		return err
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("postgres driver: %w", err)
	}

	src, err := (&file.File{}).Open(absPath)
	if err != nil {
		return fmt.Errorf("open migrations dir: %w", err)
	}

	m, err := migrate.NewWithInstance("file", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}

	return nil
}

// ReplaceDBInDSN swaps the database name in a URL-form Postgres DSN.
func ReplaceDBInDSN(dsn, newDB string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}

	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("unsupported dsn scheme %q", u.Scheme)
	}

	u.Path = "/" + newDB

	return u.String(), nil
}

func migrationsAbsPath() (string, error) {
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		return "", errors.New("runtime.Caller failed")
	}

	// internal/infra/pgtestutil -> repo root
	repoRoot := filepath.Join(filepath.Dir(thisFile), "..", "..", "..")

	abs, err := filepath.Abs(filepath.Join(repoRoot, migrationsDir))
	if err != nil {
		return "", fmt.Errorf("abs migrations path: %w", err)
	}

	return abs, nil
}

func uniqueDBName(prefix, testName string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(testName))

	var rnd [6]byte
	_, _ = rand.Read(rnd[:])

	return fmt.Sprintf("%s_%08x_%s", prefix, h.Sum32(), hex.EncodeToString(rnd[:]))
}

func sanitizeForPgIdent(s string) string {
	s = strings.ToLower(s)
	repl := strings.NewReplacer("/", "_", "\\", "_", " ", "_", ":", "_", "-", "_")
	s = repl.Replace(s)

	if len(s) <= 63 {
		return s
	}

	return s[:31] + "_" + s[len(s)-31:]
}
