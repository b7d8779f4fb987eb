package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wfunc/intersplice/game"
	"github.com/wfunc/intersplice/models"
	"github.com/wfunc/intersplice/persistence"
)

// fakeRecorder keeps records in memory and can be blocked or failed.
type fakeRecorder struct {
	mutex   sync.Mutex
	records []models.GameRecord
	gate    chan struct{}
	fail    bool
	closed  bool
}

func (f *fakeRecorder) SaveGameRecord(ctx context.Context, r *models.GameRecord) error {
	if f.gate != nil {
		<-f.gate
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.fail {
		return errors.New("db down")
	}
	r.ID = uint(len(f.records) + 1)
	f.records = append(f.records, *r)
	return nil
}

func (f *fakeRecorder) RecentGameRecords(ctx context.Context, roomID string, limit int) ([]models.GameRecord, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	var out []models.GameRecord
	for i := len(f.records) - 1; i >= 0; i-- {
		if roomID == "" || f.records[i].RoomID == roomID {
			out = append(out, f.records[i])
		}
	}
	return out, nil
}

func (f *fakeRecorder) GameRecord(ctx context.Context, id uint) (models.GameRecord, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	for _, r := range f.records {
		if r.ID == id {
			return r, nil
		}
	}
	return models.GameRecord{}, persistence.ErrRecordNotFound
}

func (f *fakeRecorder) Close() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.closed = true
	return nil
}

func result(room string) game.Result {
	winner := game.Standing{ID: "p1", Name: "Ana", VP: 12, Alive: true}
	return game.Result{
		RoomID:    room,
		Reason:    game.ReasonEndedByHost,
		Round:     9,
		Winner:    &winner,
		Standings: []game.Standing{winner, {ID: "p2", Name: "Ben", VP: 3, Kills: 1, Ascended: true}},
		EndedAt:   time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewRecord(t *testing.T) {
	r := NewRecord(result("alpha"))
	if r.RoomID != "alpha" || r.Rounds != 9 || r.Winner != "Ana" || r.WinnerVP != 12 {
		t.Errorf("Expected alpha/9/Ana/12, got %+v", r)
	}
	if len(r.Standings) != 2 || r.Standings[1].Rank != 2 || r.Standings[1].Alive {
		t.Errorf("Expected ranked standings, got %+v", r.Standings)
	}

	empty := NewRecord(game.Result{RoomID: "beta"})
	if empty.Winner != "" || empty.Standings == nil {
		t.Errorf("Expected no winner and an empty standings list, got %+v", empty)
	}
}

func TestArchiveService_SavesAndCloses(t *testing.T) {
	rec := &fakeRecorder{}
	svc := NewArchiveService(rec, 4)
	if err := svc.Archive(result("alpha")); err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	svc.OnGameOver(result("beta"))
	if err := svc.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if len(rec.records) != 2 || !rec.closed {
		t.Fatalf("Expected 2 records and a closed recorder, got %d (closed %v)", len(rec.records), rec.closed)
	}
	list, _ := svc.Recent(context.Background(), "beta", 10)
	if len(list) != 1 || list[0].RoomID != "beta" {
		t.Errorf("Expected one beta record, got %+v", list)
	}
	got, err := svc.Record(context.Background(), 1)
	if err != nil || got.RoomID != "alpha" {
		t.Errorf("Expected record 1 to be alpha, got %+v (%v)", got, err)
	}
	if err := svc.Archive(result("gamma")); !errors.Is(err, ErrArchiveClosed) {
		t.Errorf("Expected ErrArchiveClosed, got %v", err)
	}
}

func TestArchiveService_FullQueueDrops(t *testing.T) {
	rec := &fakeRecorder{gate: make(chan struct{})}
	svc := NewArchiveService(rec, 1)

	// The worker takes the first record and blocks on the gate; the second
	// fills the queue; the third has nowhere to go.
	_ = svc.Archive(result("a"))
	deadline := time.Now().Add(2 * time.Second)
	var err error
	for time.Now().Before(deadline) {
		if err = svc.Archive(result("b")); err == nil {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if err != nil {
		t.Fatalf("Expected the queue to accept a second record, got %v", err)
	}
	if err := svc.Archive(result("c")); !errors.Is(err, ErrArchiveFull) {
		t.Errorf("Expected ErrArchiveFull, got %v", err)
	}

	close(rec.gate)
	svc.Close()
	if len(rec.records) != 2 {
		t.Errorf("Expected 2 saved records, got %d", len(rec.records))
	}
}

func TestArchiveService_SaveFailureIsLogged(t *testing.T) {
	rec := &fakeRecorder{fail: true}
	svc := NewArchiveService(rec, 2)
	_ = svc.Archive(result("alpha"))
	if err := svc.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if len(rec.records) != 0 {
		t.Errorf("Expected nothing saved, got %d", len(rec.records))
	}
}
