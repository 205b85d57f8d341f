package history

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SaveLoadRuns(t *testing.T) {
	store := openStore(t)
	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)

	first, err := store.SaveRun(Run{
		ProjectKey: "web",
		Timestamp:  base,
		FileCount:  12,
		ErrorCount: 4,
		WarnCount:  1,
		Duration:   1500 * time.Millisecond,
		RuleCounts: map[string]int{"no-any": 3, "prefer-meta": 2},
	})
	if err != nil {
		t.Fatalf("save first run: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected a generated run id")
	}
	if _, err := store.SaveRun(Run{ProjectKey: "web", Timestamp: base.Add(2 * time.Hour), FileCount: 12, ErrorCount: 1}); err != nil {
		t.Fatalf("save second run: %v", err)
	}

	all, err := store.LoadRuns("web", time.Time{}, 0)
	if err != nil {
		t.Fatalf("load runs: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(all))
	}
	if !all[0].Timestamp.Equal(base) {
		t.Fatalf("expected oldest run first, got %v", all[0].Timestamp)
	}
	if all[0].RuleCounts["no-any"] != 3 || all[0].RuleCounts["prefer-meta"] != 2 {
		t.Fatalf("rule counts did not roundtrip: %+v", all[0].RuleCounts)
	}
	if all[0].Duration != 1500*time.Millisecond {
		t.Fatalf("expected duration to roundtrip, got %v", all[0].Duration)
	}

	recent, err := store.LoadRuns("web", base.Add(time.Hour), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].ErrorCount != 1 {
		t.Fatalf("unexpected since-filtered runs: %+v", recent)
	}

	limited, err := store.LoadRuns("web", time.Time{}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 || limited[0].ErrorCount != 1 {
		t.Fatalf("expected only the latest run, got %+v", limited)
	}
}

func TestStore_ProjectIsolation(t *testing.T) {
	store := openStore(t)
	if _, err := store.SaveRun(Run{ProjectKey: "a", ErrorCount: 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.SaveRun(Run{ProjectKey: "", ErrorCount: 2}); err != nil {
		t.Fatal(err)
	}

	rows, err := store.LoadRuns("a", time.Time{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].ErrorCount != 1 {
		t.Fatalf("unexpected project a rows: %+v", rows)
	}
	rows, err = store.LoadRuns("default", time.Time{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].ErrorCount != 2 {
		t.Fatalf("unexpected default rows: %+v", rows)
	}
}

func TestStore_Prune(t *testing.T) {
	store := openStore(t)
	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := Run{Timestamp: base.Add(time.Duration(i) * 24 * time.Hour), RuleCounts: map[string]int{"no-any": i}}
		if _, err := store.SaveRun(run); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := store.Prune("", base.Add(36*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 pruned runs, got %d", removed)
	}

	var orphans int
	if err := store.db.QueryRow(`SELECT COUNT(*) FROM run_rule_counts WHERE run_id NOT IN (SELECT id FROM runs)`).Scan(&orphans); err != nil {
		t.Fatal(err)
	}
	if orphans != 0 {
		t.Fatalf("expected rule counts to cascade, found %d orphans", orphans)
	}
}

func TestStore_OpenRejectsDirectoryPath(t *testing.T) {
	_, err := Open(t.TempDir())
	if err == nil {
		t.Fatal("expected open error for directory path")
	}
	if !strings.Contains(err.Error(), "is a directory") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStore_OpenCorruptDBPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	if err := os.WriteFile(path, []byte("this is not sqlite"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path)
	if err == nil {
		t.Fatal("expected sqlite open error")
	}
	lower := strings.ToLower(err.Error())
	if !strings.Contains(lower, "not a database") && !strings.Contains(lower, "schema") {
		t.Fatalf("expected schema/open error, got: %v", err)
	}
}

func TestEnsureSchema_DetectsNewerVersionDrift(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if _, err := store.db.Exec(`INSERT OR REPLACE INTO schema_migrations(version) VALUES (?)`, SchemaVersion+1); err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open(driverName, "file:"+path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	err = EnsureSchema(db)
	if err == nil {
		t.Fatal("expected drift error")
	}
	if !strings.Contains(err.Error(), "newer than supported") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBuildTrendReport(t *testing.T) {
	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	runs := []Run{
		{ID: "1", Timestamp: base, ErrorCount: 6, Fingerprint: "a", RuleCounts: map[string]int{"no-any": 4, "prefer-meta": 2}},
		{ID: "2", Timestamp: base.Add(2 * time.Hour), ErrorCount: 2, Fingerprint: "a", RuleCounts: map[string]int{"no-any": 2}},
		{ID: "3", Timestamp: base.Add(30 * time.Hour), ErrorCount: 5, Fingerprint: "b", RuleCounts: map[string]int{"no-any": 5}},
	}

	report, err := BuildTrendReport("web", runs, 24*time.Hour)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if report.RunCount != 3 {
		t.Fatalf("expected run_count=3, got %d", report.RunCount)
	}
	p := report.Points[1]
	if p.DeltaErrors != -4 {
		t.Fatalf("expected delta_errors=-4, got %d", p.DeltaErrors)
	}
	if p.DeltaByRule["no-any"] != -2 || p.DeltaByRule["prefer-meta"] != -2 {
		t.Fatalf("unexpected rule deltas: %+v", p.DeltaByRule)
	}
	if p.AvgErrors != 4 {
		t.Fatalf("expected avg_errors=4, got %v", p.AvgErrors)
	}
	if p.ConfigChanged {
		t.Fatal("same fingerprint must not be flagged")
	}
	if !report.Points[2].ConfigChanged {
		t.Fatal("expected config change on the third run")
	}
	if report.Points[2].AvgErrors != 5 {
		t.Fatalf("expected window to drop older runs, got %v", report.Points[2].AvgErrors)
	}

	if _, err := BuildTrendReport("web", nil, time.Hour); err == nil {
		t.Fatal("expected error for empty history")
	}
}

func TestIsCorruptError(t *testing.T) {
	if !IsCorruptError(errors.New("database disk image is malformed")) {
		t.Fatal("expected malformed sqlite message to be treated as corrupt")
	}
}
