package shipment_repo

import (
	"strings"
	"testing"
	"time"

	"agrichain/internal/core/id"
	"agrichain/internal/domain/shipments"
)

func TestListQuery_CompanyMatch(t *testing.T) {
	repo := NewShipmentRepo(nil)
	companyID := id.New()

	sql, args, err := repo.listQuery(companyID, shipments.ListFilter{}).ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}

	if !strings.Contains(sql, "(source_company_id = $1 OR dest_company_id = $2)") {
		t.Errorf("expected company match on both directions, got: %s", sql)
	}
	if !strings.Contains(sql, "ORDER BY shipped_at DESC, id DESC") {
		t.Errorf("expected newest-first ordering, got: %s", sql)
	}
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}
	if args[0] != companyID || args[1] != companyID {
		t.Errorf("expected company id in both positions, got: %v", args)
	}
}

func TestListQuery_Filters(t *testing.T) {
	repo := NewShipmentRepo(nil)
	companyID := id.New()
	centerID := id.New()
	status := shipments.StatusCompleted
	kind := shipments.KindWholesale
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	sql, args, err := repo.listQuery(companyID, shipments.ListFilter{
		CenterID: &centerID,
		Status:   &status,
		Kind:     &kind,
		FromDate: &from,
		ToDate:   &to,
		Limit:    20,
		Offset:   40,
	}).ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}

	for _, fragment := range []string{
		"(source_center_id = $3 OR dest_center_id = $4)",
		"status = $5",
		"kind = $6",
		"shipped_at >= $7",
		"shipped_at < $8",
		"LIMIT 20",
		"OFFSET 40",
	} {
		if !strings.Contains(sql, fragment) {
			t.Errorf("expected %q in query, got: %s", fragment, sql)
		}
	}

	// The inclusive ToDate becomes an exclusive bound on the next day.
	if args[7] != to.AddDate(0, 0, 1) {
		t.Errorf("expected exclusive upper bound %v, got %v", to.AddDate(0, 0, 1), args[7])
	}
}

func TestDayDeltasSQL_SignsAndGrouping(t *testing.T) {
	// The delta query is raw SQL; pin the load-bearing clauses.
	for _, fragment := range []string{
		"s.status = 'completed'",
		"THEN -i.quantity ELSE i.quantity",
		"AVG(i.unit_price)",
		"GROUP BY i.product_name, i.quality",
	} {
		if !strings.Contains(dayDeltasSQL, fragment) {
			t.Errorf("expected %q in day deltas query", fragment)
		}
	}
}
