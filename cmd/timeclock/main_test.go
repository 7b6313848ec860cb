package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-timeclock/internal/app"
	"go-timeclock/internal/config"
)

func startAPI(t *testing.T) string {
	t.Helper()

	application, err := app.New(&config.Config{
		RequestTimeout:         5 * time.Second,
		ShutdownTimeout:        time.Second,
		StorageDriver:          config.StorageMemory,
		JWTAccessSecret:        "cli-access",
		JWTRefreshSecret:       "cli-refresh",
		JWTAccessTTL:           time.Minute,
		JWTRefreshTTL:          time.Hour,
		BcryptCost:             4,
		SessionSweepEvery:      time.Hour,
		BootstrapAdminEmail:    "admin_prototype@employee.com",
		BootstrapAdminPassword: "admin123",
		LedgerTimezone:         "UTC",
		RateLimitRPM:           -1,
		AuthRateLimitRPM:       10000,
	})
	require.NoError(t, err)

	server := httptest.NewServer(application.Handler())
	t.Cleanup(func() {
		server.Close()
		_ = application.Shutdown()
	})
	return server.URL
}

func TestCLIWorkday(t *testing.T) {
	t.Parallel()

	url := startAPI(t)
	dir := t.TempDir()
	ctx := context.Background()

	cli := func(credentials string, args ...string) (string, error) {
		var out bytes.Buffer
		full := append([]string{"--server", url, "--credentials", filepath.Join(dir, credentials)}, args...)
		err := run(ctx, full, &out)
		return out.String(), err
	}

	out, err := cli("admin.json", "login", "--email", "admin_prototype@employee.com", "--password", "admin123")
	require.NoError(t, err)
	require.Contains(t, out, "logged in as admin_prototype@employee.com (id 1)")

	out, err = cli("admin.json", "managers")
	require.NoError(t, err)
	require.Contains(t, out, "1\tprototype admin\tadmin_prototype@employee.com")

	_, err = cli("worker.json", "register", "--email", "worker@example.com", "--password", "secret1",
		"--first-name", "Wes", "--last-name", "Worker", "--manager-id", "1")
	require.NoError(t, err)

	_, err = cli("worker.json", "login", "--email", "worker@example.com", "--password", "secret1")
	require.NoError(t, err)

	out, err = cli("worker.json", "status")
	require.NoError(t, err)
	require.Equal(t, "not clocked in\n", out)

	out, err = cli("worker.json", "clock-in", "-n", "on site")
	require.NoError(t, err)
	require.Contains(t, out, "(record 1)")

	_, err = cli("worker.json", "clock-in")
	require.ErrorContains(t, err, "STATE_CONFLICT")

	_, err = cli("worker.json", "clock-out", "--note", "done")
	require.NoError(t, err)

	out, err = cli("admin.json", "team")
	require.NoError(t, err)
	require.Contains(t, out, "Wes Worker")
	require.Contains(t, out, "pending")

	out, err = cli("admin.json", "reject", "--note", "missing break", "1")
	require.NoError(t, err)
	require.Equal(t, "record 1 rejected\n", out)

	out, err = cli("worker.json", "records")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(strings.TrimSpace(out), "rejected"))

	out, err = cli("worker.json", "logout")
	require.NoError(t, err)
	require.Equal(t, "logged out\n", out)

	_, err = cli("worker.json", "status")
	require.Error(t, err)
}

func TestCLIUsage(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), nil, &out))
	require.Contains(t, out.String(), "clock-in")

	err := run(context.Background(), []string{"--credentials", filepath.Join(t.TempDir(), "c.json"), "dance"}, &out)
	require.ErrorContains(t, err, "unknown command")

	_, err = recordID([]string{"abc"})
	require.Error(t, err)
}
