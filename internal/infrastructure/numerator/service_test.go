package numerator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "agrichain/internal/core/numerator"
)

// mockRow implements pgx.Row for testing.
type mockRow struct {
	value int64
	err   error
}

func (r *mockRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) > 0 {
		if p, ok := dest[0].(*int64); ok {
			*p = r.value
		}
	}
	return nil
}

// mockQuerier simulates the sys_sequences table.
type mockQuerier struct {
	mu        sync.Mutex
	sequences map[string]int64
	calls     int
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{sequences: make(map[string]int64)}
}

func (q *mockQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls++

	key, _ := args[0].(string)

	switch {
	case strings.Contains(sql, "current_val + 1"):
		q.sequences[key]++
		return &mockRow{value: q.sequences[key]}
	case strings.Contains(sql, "current_val + $2"):
		size, _ := args[1].(int64)
		if _, ok := q.sequences[key]; !ok {
			q.sequences[key] = size
		} else {
			q.sequences[key] += size
		}
		return &mockRow{value: q.sequences[key]}
	default:
		val, _ := args[1].(int64)
		q.sequences[key] = val
		return &mockRow{value: q.sequences[key]}
	}
}

func TestGetNextNumber_Strict(t *testing.T) {
	querier := newMockQuerier()
	svc := New(querier)
	ctx := context.Background()
	period := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	cfg := corenumerator.DefaultConfig("SHP")

	num, err := svc.GetNextNumber(ctx, cfg, corenumerator.DefaultOptions(), period)
	if err != nil {
		t.Fatalf("GetNextNumber: %v", err)
	}
	if num != "SHP-2026-00001" {
		t.Errorf("expected SHP-2026-00001, got %s", num)
	}

	num, err = svc.GetNextNumber(ctx, cfg, corenumerator.DefaultOptions(), period)
	if err != nil {
		t.Fatalf("GetNextNumber: %v", err)
	}
	if num != "SHP-2026-00002" {
		t.Errorf("expected SHP-2026-00002, got %s", num)
	}
}

func TestGetNextNumber_Cached(t *testing.T) {
	querier := newMockQuerier()
	svc := New(querier)
	ctx := context.Background()
	period := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	cfg := corenumerator.DefaultConfig("COR")
	opts := &corenumerator.Options{
		Strategy:  corenumerator.StrategyCached,
		RangeSize: 10,
	}

	// The first call reserves a range; subsequent calls within the range
	// must not hit the querier again.
	for i := 1; i <= 10; i++ {
		num, err := svc.GetNextNumber(ctx, cfg, opts, period)
		if err != nil {
			t.Fatalf("GetNextNumber #%d: %v", i, err)
		}
		want := fmt.Sprintf("COR-2026-%05d", i)
		if num != want {
			t.Errorf("call %d: expected %s, got %s", i, want, num)
		}
	}
	if querier.calls != 1 {
		t.Errorf("expected 1 DB call for 10 cached numbers, got %d", querier.calls)
	}

	// The 11th number requires a second range.
	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	if err != nil {
		t.Fatalf("GetNextNumber #11: %v", err)
	}
	if num != "COR-2026-00011" {
		t.Errorf("expected COR-2026-00011, got %s", num)
	}
	if querier.calls != 2 {
		t.Errorf("expected 2 DB calls after range exhaustion, got %d", querier.calls)
	}
}

func TestGetNextNumber_ResetPeriods(t *testing.T) {
	querier := newMockQuerier()
	svc := New(querier)
	ctx := context.Background()

	monthly := corenumerator.Config{Prefix: "ACT", IncludeYear: true, PadWidth: 5, ResetPeriod: "month"}

	jan := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	num, err := svc.GetNextNumber(ctx, monthly, corenumerator.DefaultOptions(), jan)
	if err != nil {
		t.Fatalf("january: %v", err)
	}
	if num != "ACT-2026-00001" {
		t.Errorf("expected ACT-2026-00001, got %s", num)
	}

	// A new month starts its own sequence.
	num, err = svc.GetNextNumber(ctx, monthly, corenumerator.DefaultOptions(), feb)
	if err != nil {
		t.Fatalf("february: %v", err)
	}
	if num != "ACT-2026-00001" {
		t.Errorf("expected ACT-2026-00001 in new month, got %s", num)
	}
}

func TestSetNextNumber(t *testing.T) {
	querier := newMockQuerier()
	svc := New(querier)
	ctx := context.Background()
	period := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	cfg := corenumerator.DefaultConfig("SHP")

	if err := svc.SetNextNumber(ctx, cfg, period, 100); err != nil {
		t.Fatalf("SetNextNumber: %v", err)
	}

	num, err := svc.GetNextNumber(ctx, cfg, corenumerator.DefaultOptions(), period)
	if err != nil {
		t.Fatalf("GetNextNumber: %v", err)
	}
	if num != "SHP-2026-00101" {
		t.Errorf("expected SHP-2026-00101, got %s", num)
	}
}
