//go:build unix

package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dawa-cli/internal/store"
)

func TestRun_InterruptCancelsSync(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = syscall.Kill(os.Getpid(), syscall.SIGINT)
		select {
		case <-r.Context().Done():
		case <-time.After(10 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	dbPath := filepath.Join(t.TempDir(), "dawa.db")
	t.Setenv("DAWA_DAWA_URL", srv.URL)
	t.Setenv("DAWA_STORE_DRIVER", "sqlite")
	t.Setenv("DAWA_STORE_DATABASE_URL", dbPath)
	t.Setenv("DAWA_LOG_LEVEL", "error")

	start := time.Now()
	rootCmd.SetArgs([]string{"sync", "--mode", "insert", "--dry-run=false"})
	assert.Equal(t, 1, run())
	assert.Less(t, time.Since(start), 5*time.Second)

	st, err := store.NewSQLite(dbPath)
	require.NoError(t, err)
	defer st.Close()
	_, err = st.Runs(context.Background(), 1)
	assert.Error(t, err, "sync_log should not exist")
}
