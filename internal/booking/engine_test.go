package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestEngine() (*Engine, *memStore) {
	st := newMemStore()
	e := &Engine{
		Store:       st,
		Window:      30 * time.Minute,
		ServiceName: "test",
		Log:         zap.NewNop(),
		Now:         func() time.Time { return testNow },
	}
	st.addGarage(Garage{ID: "g1", Name: "Bengkel Jaya", IsActive: true, AcceptingBookings: true})
	st.addVehicle(Vehicle{ID: "car1", UserID: "u1", Plate: "B 1234 XY"})
	st.addItem(ServiceItem{ID: "oil", GarageID: "g1", Name: "Ganti oli", PriceCents: 15000, IsActive: true})
	st.addItem(ServiceItem{ID: "brake", GarageID: "g1", Name: "Cek rem", PriceCents: 10000, IsActive: true})
	return e, st
}

func validReq(start time.Time) CreateRequest {
	return CreateRequest{
		GarageID:       "g1",
		VehicleID:      "car1",
		UserID:         "u1",
		StartTime:      start,
		ServiceItemIDs: []string{"oil", "brake"},
	}
}

func TestCreate_Success(t *testing.T) {
	e, _ := newTestEngine()

	rec, err := e.Create(context.Background(), validReq(testNow.Add(2*time.Hour)))
	require.NoError(t, err)

	assert.Equal(t, RecordPending, rec.Status)
	assert.Equal(t, 25000, rec.TotalCents)
	assert.Nil(t, rec.EndTime)
	require.Len(t, rec.Items, 2)
	assert.Equal(t, "Ganti oli", rec.Items[0].Name)
}

func TestCreate_GarageNotAccepting(t *testing.T) {
	e, st := newTestEngine()
	st.addGarage(Garage{ID: "g2", IsActive: true, AcceptingBookings: false})

	req := validReq(testNow.Add(time.Hour))
	req.GarageID = "g2"
	_, err := e.Create(context.Background(), req)
	assert.ErrorIs(t, err, ErrGarageUnavailable)
}

func TestCreate_VehicleNotOwned(t *testing.T) {
	e, st := newTestEngine()
	st.addVehicle(Vehicle{ID: "car2", UserID: "someone-else"})

	req := validReq(testNow.Add(time.Hour))
	req.VehicleID = "car2"
	_, err := e.Create(context.Background(), req)
	assert.ErrorIs(t, err, ErrVehicleNotOwned)
}

func TestCreate_UnknownServiceItem(t *testing.T) {
	e, _ := newTestEngine()

	req := validReq(testNow.Add(time.Hour))
	req.ServiceItemIDs = []string{"oil", "detailing"}
	_, err := e.Create(context.Background(), req)

	var sie *ServiceItemError
	require.ErrorAs(t, err, &sie)
	assert.Equal(t, "detailing", sie.ItemID)
}

func TestCreate_ItemFromOtherGarageRejected(t *testing.T) {
	e, st := newTestEngine()
	st.addGarage(Garage{ID: "g2", IsActive: true, AcceptingBookings: true})
	st.addItem(ServiceItem{ID: "tune", GarageID: "g2", Name: "Tune up", PriceCents: 50000, IsActive: true})

	req := validReq(testNow.Add(time.Hour))
	req.ServiceItemIDs = []string{"tune"}
	_, err := e.Create(context.Background(), req)

	var sie *ServiceItemError
	assert.ErrorAs(t, err, &sie)
}

func TestCreate_NoServiceItems(t *testing.T) {
	e, _ := newTestEngine()

	req := validReq(testNow.Add(time.Hour))
	req.ServiceItemIDs = nil
	_, err := e.Create(context.Background(), req)
	assert.ErrorIs(t, err, ErrNoServiceItems)
}

func TestCreate_StartInPast(t *testing.T) {
	e, _ := newTestEngine()

	_, err := e.Create(context.Background(), validReq(testNow.Add(-time.Minute)))
	assert.ErrorIs(t, err, ErrStartInPast)
}

func TestCreate_ConflictWindow(t *testing.T) {
	e, _ := newTestEngine()
	base := testNow.Add(2 * time.Hour)

	_, err := e.Create(context.Background(), validReq(base))
	require.NoError(t, err)

	// 29 menit: bentrok
	_, err = e.Create(context.Background(), validReq(base.Add(29*time.Minute)))
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "g1", ce.GarageID)
	assert.Equal(t, base, ce.ConflictingStart)

	// 31 menit: aman
	_, err = e.Create(context.Background(), validReq(base.Add(31*time.Minute)))
	assert.NoError(t, err)
}

func TestCreate_CancelledBookingFreesSlot(t *testing.T) {
	e, _ := newTestEngine()
	base := testNow.Add(2 * time.Hour)

	rec, err := e.Create(context.Background(), validReq(base))
	require.NoError(t, err)

	_, err = e.Cancel(context.Background(), rec.ID, "u1")
	require.NoError(t, err)

	// slot yang tadinya bentrok sekarang bebas
	_, err = e.Create(context.Background(), validReq(base.Add(10*time.Minute)))
	assert.NoError(t, err)
}

func TestCreate_PriceFrozenAgainstCatalogEdits(t *testing.T) {
	e, st := newTestEngine()

	rec, err := e.Create(context.Background(), validReq(testNow.Add(time.Hour)))
	require.NoError(t, err)
	require.Equal(t, 25000, rec.TotalCents)

	// harga katalog berubah setelah booking dibuat
	st.setItemPrice("oil", 99999)

	got, err := e.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 25000, got.TotalCents)
	assert.Equal(t, 15000, got.Items[0].PriceCents)
}

func TestAcceptCompleteFlow(t *testing.T) {
	e, _ := newTestEngine()
	rec, err := e.Create(context.Background(), validReq(testNow.Add(time.Hour)))
	require.NoError(t, err)

	est := testNow.Add(3 * time.Hour)
	rec, err = e.Accept(context.Background(), rec.ID, "g1", est)
	require.NoError(t, err)
	assert.Equal(t, RecordInProgress, rec.Status)
	require.NotNil(t, rec.EndTime)
	assert.Equal(t, est, *rec.EndTime)

	actual := testNow.Add(4 * time.Hour)
	rec, err = e.Complete(context.Background(), rec.ID, "g1", actual)
	require.NoError(t, err)
	assert.Equal(t, RecordCompleted, rec.Status)
	assert.Equal(t, actual, *rec.EndTime)
}

func TestAccept_WrongGarage(t *testing.T) {
	e, st := newTestEngine()
	st.addGarage(Garage{ID: "g2", IsActive: true, AcceptingBookings: true})
	rec, err := e.Create(context.Background(), validReq(testNow.Add(time.Hour)))
	require.NoError(t, err)

	_, err = e.Accept(context.Background(), rec.ID, "g2", testNow.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrWrongGarage)
}

func TestAccept_TwiceRejected(t *testing.T) {
	e, _ := newTestEngine()
	rec, err := e.Create(context.Background(), validReq(testNow.Add(time.Hour)))
	require.NoError(t, err)

	_, err = e.Accept(context.Background(), rec.ID, "g1", testNow.Add(2*time.Hour))
	require.NoError(t, err)

	_, err = e.Accept(context.Background(), rec.ID, "g1", testNow.Add(2*time.Hour))
	var ite *InvalidTransitionError
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, RecordInProgress, ite.From)
}

func TestCancel_NotOwner(t *testing.T) {
	e, _ := newTestEngine()
	rec, err := e.Create(context.Background(), validReq(testNow.Add(time.Hour)))
	require.NoError(t, err)

	_, err = e.Cancel(context.Background(), rec.ID, "intruder")
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestCancel_CompletedRejected(t *testing.T) {
	e, _ := newTestEngine()
	rec, err := e.Create(context.Background(), validReq(testNow.Add(time.Hour)))
	require.NoError(t, err)

	_, err = e.Accept(context.Background(), rec.ID, "g1", testNow.Add(2*time.Hour))
	require.NoError(t, err)
	_, err = e.Complete(context.Background(), rec.ID, "g1", testNow.Add(2*time.Hour))
	require.NoError(t, err)

	_, err = e.Cancel(context.Background(), rec.ID, "u1")
	var ite *InvalidTransitionError
	assert.ErrorAs(t, err, &ite)
}

func TestCancel_FromInProgressAllowed(t *testing.T) {
	e, _ := newTestEngine()
	rec, err := e.Create(context.Background(), validReq(testNow.Add(time.Hour)))
	require.NoError(t, err)

	_, err = e.Accept(context.Background(), rec.ID, "g1", testNow.Add(2*time.Hour))
	require.NoError(t, err)

	rec, err = e.Cancel(context.Background(), rec.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, RecordCancelled, rec.Status)
}
