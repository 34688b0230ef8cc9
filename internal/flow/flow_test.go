package flow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/jask/flowforms/internal/database"
	"github.com/jask/flowforms/internal/database/repository"
	"github.com/jask/flowforms/internal/logging"
	"github.com/jask/flowforms/internal/metrics"
)

func TestHTTPSubmitterPostsEvent(t *testing.T) {
	t.Parallel()
	var got Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewHTTPSubmitter(srv.URL, time.Second)
	err := s.SubmitEvent(context.Background(), Event{
		Widget:   WidgetAddons,
		JSONPath: map[string]any{"step": "addons"},
		FormData: map[string]any{"addon_ids": "A,B", "addon_quantities": "2,1"},
	})
	require.NoError(t, err)
	require.Equal(t, "addons", got.JSONPath["step"])
	require.Equal(t, "A,B", got.FormData["addon_ids"])
}

func TestHTTPSubmitterStatusError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "step closed", http.StatusConflict)
	}))
	defer srv.Close()

	err := NewHTTPSubmitter(srv.URL, time.Second).SubmitEvent(context.Background(), Event{})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusConflict, statusErr.Code)
	require.Equal(t, "step closed", statusErr.Body)
}

func TestJournalRecordsOutcome(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	require.NoError(t, database.RunMigrations(dbPath))
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := repository.NewSubmissionRepo(db)
	fail := true
	next := SubmitterFunc(func(ctx context.Context, ev Event) error {
		if fail {
			return errors.New("engine down")
		}
		return nil
	})
	reg := prometheus.NewRegistry()
	j := &Journal{
		Next:        &Instrumented{Next: next, Metrics: metrics.NewSubmissionMetrics(reg)},
		Submissions: repo,
		Log:         logging.Nop(),
	}

	ev := Event{Widget: WidgetBooking, FlowID: "metro", FormData: map[string]any{"provider": "P1"}}
	require.EqualError(t, j.SubmitEvent(ctx, ev), "engine down")
	fail = false
	require.NoError(t, j.SubmitEvent(ctx, ev))

	failed, err := repo.List(ctx, repository.SubmissionFilters{Status: repository.StatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	require.JSONEq(t, `{"provider":"P1"}`, failed[0].Payload)

	accepted, err := repo.List(ctx, repository.SubmissionFilters{Status: repository.StatusAccepted})
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	require.Equal(t, WidgetBooking, accepted[0].Widget)
}
