package recorder

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRecorder_RecentStatusNewestFirst(t *testing.T) {
	r := openTestRecorder(t)
	base := time.Date(2024, 3, 15, 9, 0, 0, 0, time.Local)
	events := []StatusEvent{
		{Time: base, Status: "pre_market", StatusText: "集合竞价", IsTradeDay: true},
		{Time: base.Add(30 * time.Minute), Status: "trading", StatusText: "交易中", IsTradeDay: true},
		{Time: base.Add(6 * time.Hour), Status: "closed", StatusText: "已收盘", IsTradeDay: true},
	}
	for i := range events {
		if err := r.RecordStatus(&events[i]); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	got, err := r.RecentStatus(2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Status != "closed" || got[1].Status != "trading" {
		t.Errorf("unexpected order: %+v", got)
	}
	if !got[0].Time.Equal(events[2].Time) || !got[0].IsTradeDay {
		t.Errorf("fields not round-tripped: %+v", got[0])
	}
}

func TestSQLiteRecorder_Prune(t *testing.T) {
	r := openTestRecorder(t)
	old := time.Now().AddDate(0, 0, -40)
	recent := time.Now()

	if err := r.RecordStatus(&StatusEvent{Time: old, Status: "closed"}); err != nil {
		t.Fatal(err)
	}
	if err := r.RecordStatus(&StatusEvent{Time: recent, Status: "trading"}); err != nil {
		t.Fatal(err)
	}
	if err := r.RecordSchedule(&ScheduleEvent{Time: old, IsTradeDay: true, PeriodCount: 2, Periods: "[]"}); err != nil {
		t.Fatal(err)
	}

	n, err := r.Prune(time.Now().AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 rows pruned, got %d", n)
	}
	got, err := r.RecentStatus(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Status != "trading" {
		t.Errorf("unexpected remaining history: %+v", got)
	}
}
