package deliveries

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/molinosur/fulfillment/internal/shared"
)

type lineKey struct {
	orderID, productID, presentationID int64
}

type mockStore struct {
	nextID     int64
	orders     map[int64]bool
	orderLines map[lineKey]float64
	deliveries map[lineKey]*Delivery
}

func newMockStore() *mockStore {
	return &mockStore{
		nextID:     1,
		orders:     map[int64]bool{},
		orderLines: map[lineKey]float64{},
		deliveries: map[lineKey]*Delivery{},
	}
}

func (m *mockStore) addLine(orderID, productID, presentationID int64, requested float64) {
	m.orders[orderID] = true
	m.orderLines[lineKey{orderID, productID, presentationID}] = requested
}

func (m *mockStore) Upsert(_ context.Context, d Delivery) (int64, bool, error) {
	key := lineKey{d.OrderID, d.ProductID, d.PresentationID}
	if existing, ok := m.deliveries[key]; ok {
		d.ID = existing.ID
		m.deliveries[key] = &d
		return d.ID, true, nil
	}
	d.ID = m.nextID
	m.nextID++
	m.deliveries[key] = &d
	return d.ID, false, nil
}

func (m *mockStore) OrderExists(_ context.Context, orderID int64) (bool, error) {
	return m.orders[orderID], nil
}

func (m *mockStore) LineExists(_ context.Context, orderID, productID, presentationID int64) (bool, error) {
	_, ok := m.orderLines[lineKey{orderID, productID, presentationID}]
	return ok, nil
}

func (m *mockStore) ListByOrder(_ context.Context, orderID int64) ([]Delivery, error) {
	var out []Delivery
	for key, d := range m.deliveries {
		if key.orderID == orderID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *mockStore) LineFulfillments(_ context.Context, orderID int64) ([]LineFulfillment, error) {
	var out []LineFulfillment
	for key, requested := range m.orderLines {
		if key.orderID != orderID {
			continue
		}
		var delivered float64
		var hasRecord bool
		if d, ok := m.deliveries[key]; ok {
			delivered = d.Quantity
			hasRecord = true
		}
		out = append(out, LineFulfillment{
			ProductID:      key.productID,
			PresentationID: key.presentationID,
			Requested:      requested,
			Delivered:      delivered,
			HasRecord:      hasRecord,
			State:          Classify(requested, delivered, hasRecord),
		})
	}
	return out, nil
}

func (m *mockStore) AllLinesHaveDeliveryRecords(_ context.Context, orderID int64) (bool, error) {
	found := false
	for key := range m.orderLines {
		if key.orderID != orderID {
			continue
		}
		found = true
		if _, ok := m.deliveries[key]; !ok {
			return false, nil
		}
	}
	return found, nil
}

var courier = shared.Actor{ID: 3, Role: shared.RoleDelivery}

func TestRecordCreatesThenUpdates(t *testing.T) {
	store := newMockStore()
	store.addLine(1, 10, 1, 5)
	svc := NewService(store)

	resp, err := svc.Record(context.Background(), 1, RecordRequest{ProductID: 10, PresentationID: 1, Quantity: 2}, courier)
	require.NoError(t, err)
	assert.False(t, resp.WasUpdate)

	// Same key again replaces the quantity, it does not accumulate.
	resp, err = svc.Record(context.Background(), 1, RecordRequest{ProductID: 10, PresentationID: 1, Quantity: 4}, courier)
	require.NoError(t, err)
	assert.True(t, resp.WasUpdate)

	recs, err := svc.ListByOrder(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 4.0, recs[0].Quantity)
}

func TestRecordZeroQuantityIsValid(t *testing.T) {
	store := newMockStore()
	store.addLine(1, 10, 1, 5)
	svc := NewService(store)

	resp, err := svc.Record(context.Background(), 1, RecordRequest{ProductID: 10, PresentationID: 1, Quantity: 0}, courier)
	require.NoError(t, err)
	assert.False(t, resp.WasUpdate)

	// A zero record still counts as recorded, the line just stays pending.
	ful, err := svc.Fulfillment(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, ful.Lines, 1)
	assert.True(t, ful.Lines[0].HasRecord)
	assert.Equal(t, FulfillmentPending, ful.Lines[0].State)
	assert.True(t, ful.AllLinesRecorded)
}

func TestRecordRejectsNegativeQuantity(t *testing.T) {
	store := newMockStore()
	store.addLine(1, 10, 1, 5)
	svc := NewService(store)

	_, err := svc.Record(context.Background(), 1, RecordRequest{ProductID: 10, PresentationID: 1, Quantity: -1}, courier)
	assert.ErrorIs(t, err, ErrNegativeQuantity)
}

func TestRecordRejectsUnknownOrderAndLine(t *testing.T) {
	store := newMockStore()
	store.addLine(1, 10, 1, 5)
	svc := NewService(store)

	_, err := svc.Record(context.Background(), 99, RecordRequest{ProductID: 10, PresentationID: 1, Quantity: 1}, courier)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = svc.Record(context.Background(), 1, RecordRequest{ProductID: 77, PresentationID: 1, Quantity: 1}, courier)
	assert.ErrorIs(t, err, ErrLineNotFound)
}

func TestRecordRejectsClientRole(t *testing.T) {
	store := newMockStore()
	store.addLine(1, 10, 1, 5)
	svc := NewService(store)

	_, err := svc.Record(context.Background(), 1, RecordRequest{ProductID: 10, PresentationID: 1, Quantity: 1},
		shared.Actor{ID: 9, Role: shared.RoleClient})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestRecordDistinguishesPresentationsOfSameProduct(t *testing.T) {
	store := newMockStore()
	store.addLine(1, 10, 1, 5)
	store.addLine(1, 10, 2, 3)
	svc := NewService(store)

	_, err := svc.Record(context.Background(), 1, RecordRequest{ProductID: 10, PresentationID: 1, Quantity: 5}, courier)
	require.NoError(t, err)

	ful, err := svc.Fulfillment(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, ful.Lines, 2)

	states := map[int64]Fulfillment{}
	for _, line := range ful.Lines {
		states[line.PresentationID] = line.State
	}
	assert.Equal(t, FulfillmentComplete, states[1])
	assert.Equal(t, FulfillmentPending, states[2])
	assert.False(t, ful.AllLinesRecorded)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		requested float64
		delivered float64
		hasRecord bool
		want      Fulfillment
	}{
		{5, 5, true, FulfillmentComplete},
		{5, 7, true, FulfillmentComplete},
		{5, 3, true, FulfillmentPartial},
		{5, 0.01, true, FulfillmentPartial},
		{5, 0, true, FulfillmentPending},
		{5, 0, false, FulfillmentPending},
	}
	for _, tc := range cases {
		got := Classify(tc.requested, tc.delivered, tc.hasRecord)
		assert.Equal(t, tc.want, got, "requested=%v delivered=%v hasRecord=%v", tc.requested, tc.delivered, tc.hasRecord)
	}
}

func TestFulfillmentPartialMix(t *testing.T) {
	store := newMockStore()
	store.addLine(1, 10, 1, 5)
	store.addLine(1, 11, 2, 2)
	svc := NewService(store)

	_, err := svc.Record(context.Background(), 1, RecordRequest{ProductID: 10, PresentationID: 1, Quantity: 3}, courier)
	require.NoError(t, err)
	_, err = svc.Record(context.Background(), 1, RecordRequest{ProductID: 11, PresentationID: 2, Quantity: 2}, courier)
	require.NoError(t, err)

	ful, err := svc.Fulfillment(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, ful.AllLinesRecorded)

	states := map[int64]Fulfillment{}
	for _, line := range ful.Lines {
		states[line.ProductID] = line.State
	}
	assert.Equal(t, FulfillmentPartial, states[10])
	assert.Equal(t, FulfillmentComplete, states[11])
}

func TestFulfillmentEmptyOrderNotReady(t *testing.T) {
	store := newMockStore()
	store.orders[1] = true
	svc := NewService(store)

	ful, err := svc.Fulfillment(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, ful.Lines)
	assert.False(t, ful.AllLinesRecorded)
}
