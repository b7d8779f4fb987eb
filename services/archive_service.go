// services/archive_service.go
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wfunc/intersplice/game"
	"github.com/wfunc/intersplice/logger"
	"github.com/wfunc/intersplice/models"
	"github.com/wfunc/intersplice/persistence"
)

var (
	ErrArchiveClosed = errors.New("archive closed")
	ErrArchiveFull   = errors.New("archive queue full")
)

const saveTimeout = 5 * time.Second

// ArchiveService writes finished games to a Recorder off the room
// goroutines. Archive never blocks; a full queue drops the record.
type ArchiveService struct {
	rec    persistence.Recorder
	queue  chan models.GameRecord
	wg     sync.WaitGroup
	mutex  sync.RWMutex
	closed bool
}

func NewArchiveService(rec persistence.Recorder, buffer int) *ArchiveService {
	s := &ArchiveService{
		rec:   rec,
		queue: make(chan models.GameRecord, max(1, buffer)),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

// NewRecord converts an engine result into its archived form.
func NewRecord(res game.Result) models.GameRecord {
	r := models.GameRecord{
		RoomID:    res.RoomID,
		Reason:    res.Reason,
		Rounds:    res.Round,
		Standings: make([]models.Standing, 0, len(res.Standings)),
		EndedAt:   res.EndedAt,
	}
	if res.Winner != nil {
		r.WinnerID = res.Winner.ID
		r.Winner = res.Winner.Name
		r.WinnerVP = res.Winner.VP
	}
	for i, st := range res.Standings {
		r.Standings = append(r.Standings, models.Standing{
			Rank:     i + 1,
			PlayerID: st.ID,
			Name:     st.Name,
			Color:    st.Color,
			VP:       st.VP,
			Kills:    st.Kills,
			Alive:    st.Alive,
		})
	}
	return r
}

// Archive queues res for saving.
func (s *ArchiveService) Archive(res game.Result) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.closed {
		return ErrArchiveClosed
	}
	select {
	case s.queue <- NewRecord(res):
		return nil
	default:
		logger.Log.Warnw("archive queue full, dropping game record", "room", res.RoomID)
		return ErrArchiveFull
	}
}

// OnGameOver is Archive without the error, for use as a room hook.
func (s *ArchiveService) OnGameOver(res game.Result) {
	_ = s.Archive(res)
}

func (s *ArchiveService) run() {
	defer s.wg.Done()
	for rec := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		if err := s.rec.SaveGameRecord(ctx, &rec); err != nil {
			logger.Log.Warnw("failed to archive game", "room", rec.RoomID, "error", err)
		} else {
			logger.Log.Debugw("game archived", "room", rec.RoomID, "id", rec.ID)
		}
		cancel()
	}
}

func (s *ArchiveService) Recent(ctx context.Context, roomID string, limit int) ([]models.GameRecord, error) {
	return s.rec.RecentGameRecords(ctx, roomID, limit)
}

func (s *ArchiveService) Record(ctx context.Context, id uint) (models.GameRecord, error) {
	return s.rec.GameRecord(ctx, id)
}

// Close drains the queue, then closes the recorder.
func (s *ArchiveService) Close() error {
	s.mutex.Lock()
	if s.closed {
		s.mutex.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mutex.Unlock()

	s.wg.Wait()
	return s.rec.Close()
}
