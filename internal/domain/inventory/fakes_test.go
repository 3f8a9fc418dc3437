package inventory

import (
	"context"
	"fmt"
	"time"

	"agrichain/internal/core/apperror"
	"agrichain/internal/core/id"
	"agrichain/internal/core/types"
	"agrichain/internal/domain/catalogs/center"
	"agrichain/internal/domain/shipments"
)

// In-memory collaborators for engine tests. They mimic the contracts the
// postgres implementations provide, including Duplicate on double insert.

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeLocker struct {
	acquired int
}

func (l *fakeLocker) AcquireCenterLock(ctx context.Context, companyID, centerID id.ID) error {
	l.acquired++
	return nil
}

func snapKey(companyID, centerID id.ID, day time.Time) string {
	return fmt.Sprintf("%s|%s|%s", companyID, centerID, DateOf(day).Format(time.DateOnly))
}

type fakeStore struct {
	rows    map[string]*Snapshot
	inserts int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]*Snapshot)}
}

func (s *fakeStore) Get(ctx context.Context, companyID, centerID id.ID, day time.Time) (*Snapshot, error) {
	if snap, ok := s.rows[snapKey(companyID, centerID, day)]; ok {
		return snap.Clone(), nil
	}
	return nil, apperror.NewNotFound("snapshot", DateOf(day).Format(time.DateOnly))
}

func (s *fakeStore) LatestFinalized(ctx context.Context, companyID, centerID id.ID, onOrBefore time.Time) (*Snapshot, error) {
	var best *Snapshot
	for _, snap := range s.rows {
		if snap.CompanyID != companyID || snap.CenterID != centerID || !snap.Finalized {
			continue
		}
		if snap.Day.After(DateOf(onOrBefore)) {
			continue
		}
		if best == nil || snap.Day.After(best.Day) {
			best = snap
		}
	}
	if best == nil {
		return nil, apperror.NewNotFound("finalized snapshot", DateOf(onOrBefore).Format(time.DateOnly))
	}
	return best.Clone(), nil
}

func (s *fakeStore) Insert(ctx context.Context, snap *Snapshot) error {
	key := snapKey(snap.CompanyID, snap.CenterID, snap.Day)
	if _, ok := s.rows[key]; ok {
		return apperror.NewDuplicate("snapshot", "date", snap.Day.Format(time.DateOnly))
	}
	s.rows[key] = snap.Clone()
	s.inserts++
	return nil
}

func (s *fakeStore) Replace(ctx context.Context, snap *Snapshot) error {
	key := snapKey(snap.CompanyID, snap.CenterID, snap.Day)
	existing, ok := s.rows[key]
	if !ok {
		return apperror.NewNotFound("snapshot", snap.Day.Format(time.DateOnly))
	}
	replaced := snap.Clone()
	replaced.Finalized = existing.Finalized
	s.rows[key] = replaced
	return nil
}

func (s *fakeStore) SetFinalized(ctx context.Context, snapshotID id.ID) error {
	for _, snap := range s.rows {
		if snap.ID == snapshotID {
			snap.Finalized = true
			return nil
		}
	}
	return apperror.NewNotFound("snapshot", snapshotID)
}

func (s *fakeStore) CentersWithSnapshot(ctx context.Context, companyID id.ID, centerIDs []id.ID, day time.Time) ([]id.ID, error) {
	var out []id.ID
	for _, centerID := range centerIDs {
		if _, ok := s.rows[snapKey(companyID, centerID, day)]; ok {
			out = append(out, centerID)
		}
	}
	return out, nil
}

// fakeShipmentLog implements shipments.Repository over a flat event list.
// DayDeltas matches the SQL contract: completed events only, outflows
// negative, inflows positive, prices averaged per group.
type fakeShipmentLog struct {
	events []*shipments.Shipment
}

func (l *fakeShipmentLog) Create(ctx context.Context, sh *shipments.Shipment) error {
	l.events = append(l.events, sh)
	return nil
}

func (l *fakeShipmentLog) GetByID(ctx context.Context, shipmentID id.ID) (*shipments.Shipment, error) {
	for _, sh := range l.events {
		if sh.ID == shipmentID {
			return sh, nil
		}
	}
	return nil, apperror.NewNotFound("shipment", shipmentID)
}

func (l *fakeShipmentLog) ListByCompany(ctx context.Context, companyID id.ID, filter shipments.ListFilter) ([]*shipments.Shipment, error) {
	var out []*shipments.Shipment
	for _, sh := range l.events {
		if sh.SourceCompanyID == companyID || (sh.DestCompanyID != nil && *sh.DestCompanyID == companyID) {
			out = append(out, sh)
		}
	}
	return out, nil
}

func (l *fakeShipmentLog) DayDeltas(ctx context.Context, companyID, centerID id.ID, day time.Time) ([]shipments.DayDelta, error) {
	day = DateOf(day)
	type group struct {
		qty    int64
		prices []float64
	}
	groups := make(map[string]*group)
	var order []string
	for _, sh := range l.events {
		if sh.Status != shipments.StatusCompleted || !DateOf(sh.ShippedAt).Equal(day) {
			continue
		}
		var sign int64
		switch {
		case sh.SourceCompanyID == companyID && sh.SourceCenterID == centerID:
			sign = -1
		case sh.DestCompanyID != nil && *sh.DestCompanyID == companyID &&
			sh.DestCenterID != nil && *sh.DestCenterID == centerID:
			sign = 1
		default:
			continue
		}
		for _, item := range sh.Items {
			key := item.ProductName + "|" + string(item.Quality)
			g, ok := groups[key]
			if !ok {
				g = &group{}
				groups[key] = g
				order = append(order, key)
			}
			g.qty += sign * item.Quantity.Int64Scaled()
			price, _ := item.UnitPrice.Float64()
			g.prices = append(g.prices, price)
		}
	}

	var out []shipments.DayDelta
	for _, key := range order {
		g := groups[key]
		var sum float64
		for _, p := range g.prices {
			sum += p
		}
		var product, quality string
		for i := 0; i < len(key); i++ {
			if key[i] == '|' {
				product, quality = key[:i], key[i+1:]
				break
			}
		}
		out = append(out, shipments.DayDelta{
			ProductName: product,
			Quality:     shipments.Quality(quality),
			Quantity:    types.Quantity(g.qty),
			UnitPrice:   types.NewMoney(sum / float64(len(g.prices))),
		})
	}
	return out, nil
}

func (l *fakeShipmentLog) EarliestEventDate(ctx context.Context, companyID, centerID id.ID) (*time.Time, error) {
	var earliest *time.Time
	for _, sh := range l.events {
		if sh.Status != shipments.StatusCompleted {
			continue
		}
		touches := (sh.SourceCompanyID == companyID && sh.SourceCenterID == centerID) ||
			(sh.DestCompanyID != nil && *sh.DestCompanyID == companyID &&
				sh.DestCenterID != nil && *sh.DestCenterID == centerID)
		if !touches {
			continue
		}
		d := DateOf(sh.ShippedAt)
		if earliest == nil || d.Before(*earliest) {
			earliest = &d
		}
	}
	return earliest, nil
}

type fakeRecorder struct {
	recorded []*shipments.Shipment
	log      *fakeShipmentLog
}

func (r *fakeRecorder) RecordSynthesized(ctx context.Context, sh *shipments.Shipment) error {
	if err := sh.Validate(ctx); err != nil {
		return err
	}
	sh.Synthesized = true
	sh.Status = shipments.StatusCompleted
	sh.Number = fmt.Sprintf("COR-2025-%05d", len(r.recorded)+1)
	r.recorded = append(r.recorded, sh)
	if r.log != nil {
		return r.log.Create(ctx, sh)
	}
	return nil
}

type fakeCenters struct {
	byCompany map[id.ID][]*center.Center
}

func newFakeCenters() *fakeCenters {
	return &fakeCenters{byCompany: make(map[id.ID][]*center.Center)}
}

func (c *fakeCenters) add(companyID id.ID, name string) *center.Center {
	cent := center.New(companyID, name)
	c.byCompany[companyID] = append(c.byCompany[companyID], cent)
	return cent
}

func (c *fakeCenters) Get(ctx context.Context, companyID, centerID id.ID) (*center.Center, error) {
	for _, cent := range c.byCompany[companyID] {
		if cent.ID == centerID {
			return cent, nil
		}
	}
	return nil, apperror.NewNotFound("center", centerID)
}

func (c *fakeCenters) ListByCompany(ctx context.Context, companyID id.ID) ([]*center.Center, error) {
	return c.byCompany[companyID], nil
}

func (c *fakeCenters) Create(ctx context.Context, cent *center.Center) error {
	c.byCompany[cent.CompanyID] = append(c.byCompany[cent.CompanyID], cent)
	return nil
}

type auditEntry struct {
	entityType string
	entityID   id.ID
	action     string
}

type fakeAudit struct {
	entries []auditEntry
}

func (a *fakeAudit) LogChange(ctx context.Context, entityType string, entityID id.ID, action string, changes any) error {
	a.entries = append(a.entries, auditEntry{entityType: entityType, entityID: entityID, action: action})
	return nil
}

// fixture wires a Service against all in-memory collaborators.
type fixture struct {
	svc      *Service
	store    *fakeStore
	log      *fakeShipmentLog
	recorder *fakeRecorder
	centers  *fakeCenters
	locker   *fakeLocker
	audit    *fakeAudit
}

func newFixture() *fixture {
	log := &fakeShipmentLog{}
	f := &fixture{
		store:    newFakeStore(),
		log:      log,
		recorder: &fakeRecorder{log: log},
		centers:  newFakeCenters(),
		locker:   &fakeLocker{},
		audit:    &fakeAudit{},
	}
	f.svc = NewService(f.store, f.log, f.recorder, f.centers, fakeTxManager{}, f.locker, f.audit, DefaultConfig())
	return f
}

// inbound records a completed shipment landing at the center on the given day.
func (f *fixture) inbound(companyID, centerID id.ID, day time.Time, product string, quality shipments.Quality, qty int64, price float64) {
	other := id.New()
	sh := shipments.New(other, id.New(), shipments.KindWholesale, day)
	sh.Status = shipments.StatusCompleted
	sh.DestCompanyID = &companyID
	sh.DestCenterID = &centerID
	sh.AddItem(product, quality, types.NewQuantityFromInt(qty), types.NewMoney(price))
	f.log.events = append(f.log.events, sh)
}

// outbound records a completed shipment departing the center on the given day.
func (f *fixture) outbound(companyID, centerID id.ID, day time.Time, product string, quality shipments.Quality, qty int64, price float64) {
	sh := shipments.New(companyID, centerID, shipments.KindRetail, day)
	sh.Status = shipments.StatusCompleted
	sh.AddItem(product, quality, types.NewQuantityFromInt(qty), types.NewMoney(price))
	f.log.events = append(f.log.events, sh)
}

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}
