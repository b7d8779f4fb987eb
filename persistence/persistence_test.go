package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/wfunc/intersplice/config"
	"github.com/wfunc/intersplice/models"
)

func TestOpen_DisabledIsNop(t *testing.T) {
	rec, err := Open(config.DatabaseConfig{Enabled: false, Driver: DriverSQL})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, ok := rec.(Nop); !ok {
		t.Fatalf("Expected Nop, got %T", rec)
	}

	ctx := context.Background()
	if err := rec.SaveGameRecord(ctx, &models.GameRecord{RoomID: "r"}); err != nil {
		t.Errorf("Expected Nop save to succeed, got %v", err)
	}
	list, err := rec.RecentGameRecords(ctx, "", 0)
	if err != nil || list == nil || len(list) != 0 {
		t.Errorf("Expected an empty non-nil list, got %v (%v)", list, err)
	}
	if _, err := rec.GameRecord(ctx, 1); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Expected ErrRecordNotFound, got %v", err)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Enabled: true, Driver: "mysql"})
	if !errors.Is(err, ErrUnknownDriver) {
		t.Errorf("Expected ErrUnknownDriver, got %v", err)
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, defaultLimit},
		{-5, defaultLimit},
		{7, 7},
		{10000, maxLimit},
	}
	for _, tt := range tests {
		if got := clampLimit(tt.in); got != tt.want {
			t.Errorf("clampLimit(%d): expected %d, got %d", tt.in, tt.want, got)
		}
	}
}

func TestDSN(t *testing.T) {
	got := dsn("db", 5432, "u", "p", "intersplice")
	want := "host=db port=5432 user=u password=p dbname=intersplice sslmode=disable"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
