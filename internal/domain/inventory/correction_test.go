package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrichain/internal/core/apperror"
	"agrichain/internal/core/id"
	"agrichain/internal/core/types"
	"agrichain/internal/domain/shipments"
)

func TestCorrectReducesQuantityAndSynthesizesInbound(t *testing.T) {
	f := newFixture()
	companyID := id.New()
	c := f.centers.add(companyID, "main")
	f.inbound(companyID, c.ID, date("2025-01-05"), "rice", shipments.QualityA, 100, 1000)

	_, err := f.svc.Ensure(context.Background(), companyID, c.ID, date("2025-01-05"))
	require.NoError(t, err)

	res, err := f.svc.Correct(context.Background(), companyID, CorrectionRequest{
		Date:     date("2025-01-05"),
		EditorID: "editor-1",
		Centers: []CenterCorrection{{
			CenterID: c.ID,
			Lines: []CorrectionLine{{
				ProductName: "rice",
				Quality:     shipments.QualityA,
				Quantity:    types.NewQuantityFromInt(80),
				UnitPrice:   types.NewMoney(1000),
			}},
		}},
	})
	require.NoError(t, err)

	// delta = 80 - 100 = -20: one retail-direction compensating record.
	require.Len(t, res.Synthesized, 1)
	sh := res.Synthesized[0]
	assert.Equal(t, shipments.KindRetail, sh.Kind)
	assert.True(t, sh.Synthesized)
	assert.Equal(t, shipments.StatusCompleted, sh.Status)
	assert.Equal(t, "editor-1", sh.CreatorID)
	require.Len(t, sh.Items, 1)
	assert.Equal(t, types.NewQuantityFromInt(20), sh.Items[0].Quantity)

	stored, err := f.store.Get(context.Background(), companyID, c.ID, date("2025-01-05"))
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, types.NewQuantityFromInt(80), stored.Items[0].Quantity)
	assert.Equal(t, types.NewQuantityFromInt(80), stored.TotalQuantity)
	assert.True(t, stored.TotalPrice.Equal(types.NewMoney(80000)))

	require.NotNil(t, res.Company)
	assert.Equal(t, types.NewQuantityFromInt(80), res.Company.TotalQuantity)
}

func TestCorrectIncreaseSynthesizesWholesaleDirection(t *testing.T) {
	f := newFixture()
	companyID := id.New()
	c := f.centers.add(companyID, "main")
	f.inbound(companyID, c.ID, date("2025-01-05"), "rice", shipments.QualityA, 100, 1000)

	_, err := f.svc.Ensure(context.Background(), companyID, c.ID, date("2025-01-05"))
	require.NoError(t, err)

	res, err := f.svc.Correct(context.Background(), companyID, CorrectionRequest{
		Date:     date("2025-01-05"),
		EditorID: "editor-1",
		Centers: []CenterCorrection{{
			CenterID: c.ID,
			Lines: []CorrectionLine{{
				ProductName: "rice",
				Quality:     shipments.QualityA,
				Quantity:    types.NewQuantityFromInt(130),
				UnitPrice:   types.NewMoney(1000),
			}},
		}},
	})
	require.NoError(t, err)

	require.Len(t, res.Synthesized, 1)
	assert.Equal(t, shipments.KindWholesale, res.Synthesized[0].Kind)
	require.Len(t, res.Synthesized[0].Items, 1)
	assert.Equal(t, types.NewQuantityFromInt(30), res.Synthesized[0].Items[0].Quantity)
}

func TestCorrectRequiresExistingSnapshot(t *testing.T) {
	f := newFixture()
	companyID := id.New()
	c := f.centers.add(companyID, "main")

	_, err := f.svc.Correct(context.Background(), companyID, CorrectionRequest{
		Date:     date("2025-01-05"),
		EditorID: "editor-1",
		Centers: []CenterCorrection{{
			CenterID: c.ID,
			Lines: []CorrectionLine{{
				ProductName: "rice",
				Quality:     shipments.QualityA,
				Quantity:    types.NewQuantityFromInt(80),
				UnitPrice:   types.NewMoney(1000),
			}},
		}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCorrectDropsUnknownLines(t *testing.T) {
	f := newFixture()
	companyID := id.New()
	c := f.centers.add(companyID, "main")
	f.inbound(companyID, c.ID, date("2025-01-05"), "rice", shipments.QualityA, 100, 1000)

	_, err := f.svc.Ensure(context.Background(), companyID, c.ID, date("2025-01-05"))
	require.NoError(t, err)

	// "wheat" was never shipped: the line is dropped without error and no
	// shipment is synthesized for it.
	res, err := f.svc.Correct(context.Background(), companyID, CorrectionRequest{
		Date:     date("2025-01-05"),
		EditorID: "editor-1",
		Centers: []CenterCorrection{{
			CenterID: c.ID,
			Lines: []CorrectionLine{{
				ProductName: "wheat",
				Quality:     shipments.QualityA,
				Quantity:    types.NewQuantityFromInt(50),
				UnitPrice:   types.NewMoney(700),
			}},
		}},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Synthesized)

	stored, err := f.store.Get(context.Background(), companyID, c.ID, date("2025-01-05"))
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "rice", stored.Items[0].ProductName)
}

func TestCorrectZeroDeltaIsNoOp(t *testing.T) {
	f := newFixture()
	companyID := id.New()
	c := f.centers.add(companyID, "main")
	f.inbound(companyID, c.ID, date("2025-01-05"), "rice", shipments.QualityA, 100, 1000)

	before, err := f.svc.Ensure(context.Background(), companyID, c.ID, date("2025-01-05"))
	require.NoError(t, err)

	res, err := f.svc.Correct(context.Background(), companyID, CorrectionRequest{
		Date:     date("2025-01-05"),
		EditorID: "editor-1",
		Centers: []CenterCorrection{{
			CenterID: c.ID,
			Lines: []CorrectionLine{{
				ProductName: "rice",
				Quality:     shipments.QualityA,
				Quantity:    types.NewQuantityFromInt(100),
				UnitPrice:   types.NewMoney(1000),
			}},
		}},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Synthesized)
	assert.Empty(t, f.audit.entries, "unchanged correction must not audit")

	after, err := f.store.Get(context.Background(), companyID, c.ID, date("2025-01-05"))
	require.NoError(t, err)
	assert.Equal(t, before.TotalQuantity, after.TotalQuantity)
	assert.True(t, before.TotalPrice.Equal(after.TotalPrice))
}

func TestCorrectRoundTripRestoresQuantity(t *testing.T) {
	f := newFixture()
	companyID := id.New()
	c := f.centers.add(companyID, "main")
	f.inbound(companyID, c.ID, date("2025-01-05"), "rice", shipments.QualityA, 100, 1000)

	_, err := f.svc.Ensure(context.Background(), companyID, c.ID, date("2025-01-05"))
	require.NoError(t, err)

	correct := func(qty int64) *CorrectionResult {
		res, err := f.svc.Correct(context.Background(), companyID, CorrectionRequest{
			Date:     date("2025-01-05"),
			EditorID: "editor-1",
			Centers: []CenterCorrection{{
				CenterID: c.ID,
				Lines: []CorrectionLine{{
					ProductName: "rice",
					Quality:     shipments.QualityA,
					Quantity:    types.NewQuantityFromInt(qty),
					UnitPrice:   types.NewMoney(1000),
				}},
			}},
		})
		require.NoError(t, err)
		return res
	}

	correct(130)
	correct(100)

	stored, err := f.store.Get(context.Background(), companyID, c.ID, date("2025-01-05"))
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(100), stored.Items[0].Quantity)
	// Not a true inverse at the ledger level: both edits left records.
	assert.Len(t, f.recorder.recorded, 2)
}

func TestCorrectCascadesIntoCachedFutureDays(t *testing.T) {
	f := newFixture()
	companyID := id.New()
	c := f.centers.add(companyID, "main")
	f.inbound(companyID, c.ID, date("2025-01-05"), "rice", shipments.QualityA, 100, 1000)

	// Materialize the edited day plus three future days.
	_, err := f.svc.Ensure(context.Background(), companyID, c.ID, date("2025-01-08"))
	require.NoError(t, err)

	_, err = f.svc.Correct(context.Background(), companyID, CorrectionRequest{
		Date:     date("2025-01-05"),
		EditorID: "editor-1",
		Centers: []CenterCorrection{{
			CenterID: c.ID,
			Lines: []CorrectionLine{{
				ProductName: "rice",
				Quality:     shipments.QualityA,
				Quantity:    types.NewQuantityFromInt(80),
				UnitPrice:   types.NewMoney(1000),
			}},
		}},
	})
	require.NoError(t, err)

	for _, d := range []string{"2025-01-06", "2025-01-07", "2025-01-08"} {
		snap, err := f.store.Get(context.Background(), companyID, c.ID, date(d))
		require.NoError(t, err)
		assert.Equal(t, types.NewQuantityFromInt(80), snap.TotalQuantity, "day %s", d)
	}
}

func TestCorrectCascadeStopsAtFinalizedDay(t *testing.T) {
	f := newFixture()
	companyID := id.New()
	c := f.centers.add(companyID, "main")
	f.inbound(companyID, c.ID, date("2025-01-05"), "rice", shipments.QualityA, 100, 1000)

	_, err := f.svc.Ensure(context.Background(), companyID, c.ID, date("2025-01-08"))
	require.NoError(t, err)
	_, err = f.svc.Finalize(context.Background(), companyID, c.ID, date("2025-01-07"))
	require.NoError(t, err)

	_, err = f.svc.Correct(context.Background(), companyID, CorrectionRequest{
		Date:     date("2025-01-05"),
		EditorID: "editor-1",
		Centers: []CenterCorrection{{
			CenterID: c.ID,
			Lines: []CorrectionLine{{
				ProductName: "rice",
				Quality:     shipments.QualityA,
				Quantity:    types.NewQuantityFromInt(80),
				UnitPrice:   types.NewMoney(1000),
			}},
		}},
	})
	require.NoError(t, err)

	day6, err := f.store.Get(context.Background(), companyID, c.ID, date("2025-01-06"))
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(80), day6.TotalQuantity)

	// The finalized day and everything behind it stay untouched.
	day7, err := f.store.Get(context.Background(), companyID, c.ID, date("2025-01-07"))
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(100), day7.TotalQuantity)
	day8, err := f.store.Get(context.Background(), companyID, c.ID, date("2025-01-08"))
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(100), day8.TotalQuantity)
}

func TestCorrectCascadeStopsAtFirstUncachedDay(t *testing.T) {
	f := newFixture()
	companyID := id.New()
	c := f.centers.add(companyID, "main")
	f.inbound(companyID, c.ID, date("2025-01-05"), "rice", shipments.QualityA, 100, 1000)

	// Materialize days 5 through 7, leave 8 and 9 uncached, then plant a
	// detached day past the gap.
	_, err := f.svc.Ensure(context.Background(), companyID, c.ID, date("2025-01-07"))
	require.NoError(t, err)
	detached := NewSnapshot(companyID, c.ID, date("2025-01-10"))
	detached.Items = []Item{{
		ID:          id.New(),
		SnapshotID:  detached.ID,
		ProductName: "rice",
		Quality:     shipments.QualityA,
		Quantity:    types.NewQuantityFromInt(100),
		UnitPrice:   types.NewMoney(1000),
	}}
	detached.Items[0].Recalc()
	detached.Recompute()
	require.NoError(t, f.store.Insert(context.Background(), detached))

	_, err = f.svc.Correct(context.Background(), companyID, CorrectionRequest{
		Date:     date("2025-01-05"),
		EditorID: "editor-1",
		Centers: []CenterCorrection{{
			CenterID: c.ID,
			Lines: []CorrectionLine{{
				ProductName: "rice",
				Quality:     shipments.QualityA,
				Quantity:    types.NewQuantityFromInt(80),
				UnitPrice:   types.NewMoney(1000),
			}},
		}},
	})
	require.NoError(t, err)

	for _, d := range []string{"2025-01-06", "2025-01-07"} {
		snap, err := f.store.Get(context.Background(), companyID, c.ID, date(d))
		require.NoError(t, err)
		assert.Equal(t, types.NewQuantityFromInt(80), snap.TotalQuantity, "day %s", d)
	}

	// The walk ends at the first uncached day, so anything past the gap is
	// not regenerated here.
	past, err := f.store.Get(context.Background(), companyID, c.ID, date("2025-01-10"))
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(100), past.TotalQuantity)
}

func TestCorrectForeignCenterRejected(t *testing.T) {
	f := newFixture()
	companyID := id.New()
	c1 := f.centers.add(companyID, "north")
	f.inbound(companyID, c1.ID, date("2025-01-05"), "rice", shipments.QualityA, 100, 1000)
	_, err := f.svc.Ensure(context.Background(), companyID, c1.ID, date("2025-01-05"))
	require.NoError(t, err)

	// Second center belongs to another company: no snapshot is materialized
	// for it under this company and the whole edit errors out.
	foreign := f.centers.add(id.New(), "foreign")

	_, err = f.svc.Correct(context.Background(), companyID, CorrectionRequest{
		Date:     date("2025-01-05"),
		EditorID: "editor-1",
		Centers: []CenterCorrection{
			{
				CenterID: c1.ID,
				Lines: []CorrectionLine{{
					ProductName: "rice",
					Quality:     shipments.QualityA,
					Quantity:    types.NewQuantityFromInt(80),
					UnitPrice:   types.NewMoney(1000),
				}},
			},
			{
				CenterID: foreign.ID,
				Lines: []CorrectionLine{{
					ProductName: "rice",
					Quality:     shipments.QualityA,
					Quantity:    types.NewQuantityFromInt(10),
					UnitPrice:   types.NewMoney(1000),
				}},
			},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCorrectValidation(t *testing.T) {
	f := newFixture()
	companyID := id.New()
	c := f.centers.add(companyID, "main")

	cases := []struct {
		name string
		req  CorrectionRequest
	}{
		{
			name: "no centers",
			req:  CorrectionRequest{Date: date("2025-01-05"), EditorID: "e"},
		},
		{
			name: "unknown quality",
			req: CorrectionRequest{
				Date:     date("2025-01-05"),
				EditorID: "e",
				Centers: []CenterCorrection{{
					CenterID: c.ID,
					Lines: []CorrectionLine{{
						ProductName: "rice",
						Quality:     shipments.Quality("Z"),
						Quantity:    types.NewQuantityFromInt(10),
						UnitPrice:   types.NewMoney(1000),
					}},
				}},
			},
		},
		{
			name: "negative quantity",
			req: CorrectionRequest{
				Date:     date("2025-01-05"),
				EditorID: "e",
				Centers: []CenterCorrection{{
					CenterID: c.ID,
					Lines: []CorrectionLine{{
						ProductName: "rice",
						Quality:     shipments.QualityA,
						Quantity:    types.NewQuantityFromInt(-10),
						UnitPrice:   types.NewMoney(1000),
					}},
				}},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Correct(context.Background(), companyID, tc.req)
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
		})
	}
}
