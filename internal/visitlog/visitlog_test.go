package visitlog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"nise/internal/proximity"
)

func TestDataDirXDGEnvOverride(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	dir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir returned error: %v", err)
	}
	if want := filepath.Join(tmp, "nise"); dir != want {
		t.Errorf("dir = %q; want %q", dir, want)
	}
}

func TestDataDirDefaultFallback(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "")

	dir, err := DataDir()
	if err != nil {
		t.Skip("skipping: no user home directory available in test environment")
	}
	if suffix := filepath.Join(".local", "share", "nise"); !strings.HasSuffix(dir, suffix) {
		t.Errorf("dir %q does not end with %q", dir, suffix)
	}
}

func TestFileStoreRecordAndRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "visits.jsonl")
	s := NewFileStore(path)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"projects", "posts", "nise"} {
		err := s.Record(Visit{Timestamp: base.Add(time.Duration(i) * time.Minute), Level: "lobby", Kind: proximity.KindPortal, ID: id})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("visits.jsonl not created: %v", err)
	}
	if lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n"); len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if !strings.Contains(string(data), `"kind":"portal"`) {
		t.Errorf("kind not encoded by name: %q", data)
	}

	got, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 || got[0].ID != "nise" || got[1].ID != "posts" {
		t.Fatalf("Recent(2) = %+v", got)
	}
	if got[0].Kind != proximity.KindPortal {
		t.Errorf("kind = %v", got[0].Kind)
	}
}

func TestFileStoreRecentMissingFile(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "none.jsonl"))
	got, err := s.Recent(10)
	if err != nil || len(got) != 0 {
		t.Fatalf("Recent on missing file = %v, %v", got, err)
	}
}

func TestFileStoreSkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "visits.jsonl")
	if err := os.WriteFile(path, []byte("not json\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewFileStore(path)
	if err := s.Record(Visit{Level: "lobby", Kind: proximity.KindPortal, ID: "posts"}); err != nil {
		t.Fatal(err)
	}
	got, err := s.Recent(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "posts" {
		t.Fatalf("Recent = %+v", got)
	}
}

func TestFromEnvDefaultsToFile(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("DB_TYPE", "")
	t.Setenv("VISITS_FILE", "")
	t.Setenv("XDG_DATA_HOME", tmp)

	st, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	fs, ok := st.(*FileStore)
	if !ok {
		t.Fatalf("store = %T", st)
	}
	if want := filepath.Join(tmp, "nise", "visits.jsonl"); fs.Path() != want {
		t.Errorf("path = %q; want %q", fs.Path(), want)
	}

	t.Setenv("VISITS_FILE", filepath.Join(tmp, "custom.jsonl"))
	st, err = FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if got := st.(*FileStore).Path(); got != filepath.Join(tmp, "custom.jsonl") {
		t.Errorf("VISITS_FILE ignored: %q", got)
	}
}

type memStore struct {
	visits []Visit
	err    error
}

func (m *memStore) Record(v Visit) error {
	if m.err != nil {
		return m.err
	}
	m.visits = append(m.visits, v)
	return nil
}
func (m *memStore) Recent(int) ([]Visit, error) { return m.visits, nil }
func (m *memStore) Close() error                { return nil }

func TestRecorderKeepsPortalsOnly(t *testing.T) {
	st := &memStore{}
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	r := &Recorder{Store: st, Level: "lobby", Client: "ssh", Now: func() time.Time { return now }}

	r.Observe(proximity.Event{Kind: proximity.KindInfo, ID: "about-nise"})
	r.Observe(proximity.Event{})
	r.Observe(proximity.Event{Kind: proximity.KindPortal, ID: "posts"})

	if len(st.visits) != 1 {
		t.Fatalf("recorded %d visits, want 1", len(st.visits))
	}
	want := Visit{Timestamp: now, Level: "lobby", Kind: proximity.KindPortal, ID: "posts", Client: "ssh"}
	if st.visits[0] != want {
		t.Errorf("visit = %+v, want %+v", st.visits[0], want)
	}
}

func TestRecorderSurvivesStoreFailure(t *testing.T) {
	st := &memStore{err: errors.New("disk full")}
	r := &Recorder{Store: st, Level: "lobby"}
	r.Observe(proximity.Event{Kind: proximity.KindPortal, ID: "nise"})

	var nilRec *Recorder
	nilRec.Observe(proximity.Event{Kind: proximity.KindPortal, ID: "nise"})
}
