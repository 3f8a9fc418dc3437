package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrichain/internal/core/id"
	"agrichain/internal/core/types"
	"agrichain/internal/domain/shipments"
)

func TestDateOf(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kathmandu")
	require.NoError(t, err)

	in := time.Date(2025, 1, 5, 2, 30, 0, 0, loc)
	got := DateOf(in)

	// 02:30 in UTC+5:45 is still the previous UTC day.
	assert.Equal(t, time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC), got)
}

func TestApplyDeltasStickyPrice(t *testing.T) {
	snap := NewSnapshot(id.New(), id.New(), date("2025-01-05"))
	snap.ApplyDeltas([]shipments.DayDelta{
		{ProductName: "rice", Quality: shipments.QualityA, Quantity: types.NewQuantityFromInt(100), UnitPrice: types.NewMoney(1000)},
	})

	// Same key again within the day: quantity moves, price stays.
	snap.ApplyDeltas([]shipments.DayDelta{
		{ProductName: "rice", Quality: shipments.QualityA, Quantity: types.NewQuantityFromInt(-30), UnitPrice: types.NewMoney(1200)},
	})

	item := snap.Item("rice", shipments.QualityA)
	require.NotNil(t, item)
	assert.Equal(t, types.NewQuantityFromInt(70), item.Quantity)
	assert.True(t, item.UnitPrice.Equal(types.NewMoney(1000)))
	assert.True(t, item.TotalPrice.Equal(types.NewMoney(70000)))

	// A new key takes the delta group's price.
	snap.ApplyDeltas([]shipments.DayDelta{
		{ProductName: "wheat", Quality: shipments.QualityB, Quantity: types.NewQuantityFromInt(10), UnitPrice: types.NewMoney(800)},
	})
	wheat := snap.Item("wheat", shipments.QualityB)
	require.NotNil(t, wheat)
	assert.True(t, wheat.UnitPrice.Equal(types.NewMoney(800)))
}

func TestRecomputeRestoresInvariants(t *testing.T) {
	snap := NewSnapshot(id.New(), id.New(), date("2025-01-05"))
	snap.ApplyDeltas([]shipments.DayDelta{
		{ProductName: "rice", Quality: shipments.QualityA, Quantity: types.NewQuantityFromInt(100), UnitPrice: types.NewMoney(1000)},
		{ProductName: "wheat", Quality: shipments.QualityB, Quantity: types.NewQuantityFromInt(50), UnitPrice: types.NewMoney(800)},
	})
	snap.Recompute()

	assert.Equal(t, types.NewQuantityFromInt(150), snap.TotalQuantity)
	assert.True(t, snap.TotalPrice.Equal(types.NewMoney(140000)))

	// Mutate one item and recompute again.
	snap.Items[0].Quantity = types.NewQuantityFromInt(10)
	snap.Recompute()
	assert.Equal(t, types.NewQuantityFromInt(60), snap.TotalQuantity)
	assert.True(t, snap.TotalPrice.Equal(types.NewMoney(50000)))
}

func TestCopyItemsFromGivesFreshIdentity(t *testing.T) {
	prev := NewSnapshot(id.New(), id.New(), date("2025-01-05"))
	prev.ApplyDeltas([]shipments.DayDelta{
		{ProductName: "rice", Quality: shipments.QualityA, Quantity: types.NewQuantityFromInt(100), UnitPrice: types.NewMoney(1000)},
	})

	next := NewSnapshot(prev.CompanyID, prev.CenterID, date("2025-01-06"))
	next.CopyItemsFrom(prev)

	require.Len(t, next.Items, 1)
	assert.Equal(t, prev.Items[0].Quantity, next.Items[0].Quantity)
	assert.True(t, next.Items[0].UnitPrice.Equal(prev.Items[0].UnitPrice))
	assert.NotEqual(t, prev.Items[0].ID, next.Items[0].ID)
	assert.Equal(t, next.ID, next.Items[0].SnapshotID)
}

func TestSnapshotCloneDoesNotAlias(t *testing.T) {
	snap := NewSnapshot(id.New(), id.New(), date("2025-01-05"))
	snap.ApplyDeltas([]shipments.DayDelta{
		{ProductName: "rice", Quality: shipments.QualityA, Quantity: types.NewQuantityFromInt(100), UnitPrice: types.NewMoney(1000)},
	})

	clone := snap.Clone()
	clone.Items[0].Quantity = types.NewQuantityFromInt(1)

	assert.Equal(t, types.NewQuantityFromInt(100), snap.Items[0].Quantity)
}
