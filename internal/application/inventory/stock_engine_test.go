package inventory_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/vendstock-api/internal/application/inventory"
	"github.com/jhoicas/vendstock-api/internal/domain"
	"github.com/jhoicas/vendstock-api/internal/domain/entity"
	"github.com/jhoicas/vendstock-api/internal/domain/repository"
	"github.com/jhoicas/vendstock-api/internal/infrastructure/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type countingNotifier struct {
	mu    sync.Mutex
	calls int
}

func (n *countingNotifier) InventoryChanged(context.Context, string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
}

type recordingRecorder struct {
	mu   sync.Mutex
	ops  []string
	errs []error
}

func (r *recordingRecorder) ObserveMutation(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
	r.errs = append(r.errs, err)
}

type fixture struct {
	ctx       context.Context
	store     *memory.Store
	engine    *inventory.StockEngine
	clock     *fakeClock
	notifier  *countingNotifier
	recorder  *recordingRecorder
	companyID string
	whID      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	companyID := uuid.New().String()
	wh := &entity.Warehouse{ID: uuid.New().String(), CompanyID: companyID, Code: "BOG-01", Name: "Bodega Norte"}
	require.NoError(t, store.Warehouses().Create(ctx, wh))

	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	notifier := &countingNotifier{}
	recorder := &recordingRecorder{}
	engine := inventory.NewStockEngine(store, store.Warehouses(),
		inventory.WithClock(clock.Now),
		inventory.WithNotifier(notifier),
		inventory.WithRecorder(recorder),
	)
	return &fixture{
		ctx: ctx, store: store, engine: engine, clock: clock,
		notifier: notifier, recorder: recorder,
		companyID: companyID, whID: wh.ID,
	}
}

func int64Ptr(v int64) *int64 { return &v }

func (f *fixture) receive(t *testing.T, sku, batch string, qty int64, opts ...func(*inventory.ReceiveInput)) *entity.InventoryRecord {
	t.Helper()
	in := inventory.ReceiveInput{
		CompanyID:   f.companyID,
		SKU:         sku,
		ProductName: "Producto " + sku,
		BatchID:     batch,
		WarehouseID: f.whID,
		Quantity:    qty,
		Location:    entity.Location{Zone: "A", Aisle: "1", Rack: "R1", Bin: "B1"},
	}
	for _, o := range opts {
		o(&in)
	}
	rec, _, err := f.engine.Receive(f.ctx, in)
	require.NoError(t, err)
	return rec
}

func (f *fixture) get(t *testing.T, id string) *entity.InventoryRecord {
	t.Helper()
	rec, err := f.engine.Get(f.ctx, f.companyID, id)
	require.NoError(t, err)
	return rec
}

func withThresholds(min, max int64) func(*inventory.ReceiveInput) {
	return func(in *inventory.ReceiveInput) {
		in.MinStockLevel = int64Ptr(min)
		in.MaxStockLevel = int64Ptr(max)
	}
}

func withExpiry(t time.Time) func(*inventory.ReceiveInput) {
	return func(in *inventory.ReceiveInput) { in.ExpiryDate = &t }
}

func TestReceive_EsAditivoSobreLaMismaClave(t *testing.T) {
	f := newFixture(t)
	in := inventory.ReceiveInput{
		CompanyID: f.companyID, SKU: "A1", BatchID: "BATCH1", WarehouseID: f.whID, Quantity: 20,
		Location: entity.Location{Zone: "A"},
	}

	first, created, err := f.engine.Receive(f.ctx, in)
	require.NoError(t, err)
	assert.True(t, created)
	assert.EqualValues(t, 20, first.Quantity)
	assert.EqualValues(t, entity.DefaultMinStockLevel, first.MinStockLevel)
	assert.EqualValues(t, entity.DefaultMaxStockLevel, first.MaxStockLevel)
	assert.Equal(t, 0, first.Age)
	assert.Equal(t, entity.StatusActive, first.Status)

	in.Location = entity.Location{Zone: "B"}
	second, created, err := f.engine.Receive(f.ctx, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.EqualValues(t, 40, second.Quantity)
	assert.Equal(t, "B", second.Location.Zone)

	movs, err := f.engine.Movements(f.ctx, repository.MovementFilter{CompanyID: f.companyID, Type: entity.MovementTypeReceive})
	require.NoError(t, err)
	assert.Len(t, movs, 2)
	assert.Equal(t, 2, f.notifier.calls)
}

func TestReceive_EntradasInvalidas(t *testing.T) {
	f := newFixture(t)
	base := inventory.ReceiveInput{CompanyID: f.companyID, SKU: "A1", BatchID: "B1", WarehouseID: f.whID, Quantity: 5}

	bad := base
	bad.WarehouseID = "bodega-1"
	_, _, err := f.engine.Receive(f.ctx, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)

	bad = base
	bad.Quantity = -1
	_, _, err = f.engine.Receive(f.ctx, bad)
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)

	bad = base
	bad.Quantity = 0
	_, _, err = f.engine.Receive(f.ctx, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	bad = base
	bad.MinStockLevel, bad.MaxStockLevel = int64Ptr(50), int64Ptr(50)
	_, _, err = f.engine.Receive(f.ctx, bad)
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)

	bad = base
	bad.WarehouseID = uuid.New().String()
	_, _, err = f.engine.Receive(f.ctx, bad)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReduceBySKU_TodoONada(t *testing.T) {
	f := newFixture(t)
	a1 := f.receive(t, "A1", "B1", 50)
	b2 := f.receive(t, "B2", "B1", 3)

	_, err := f.engine.ReduceBySKU(f.ctx, inventory.ReduceInput{
		CompanyID:   f.companyID,
		WarehouseID: f.whID,
		Items:       []inventory.StockItem{{SKU: "A1", Quantity: 5}, {SKU: "B2", Quantity: 1000}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var insufficient *domain.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, "B2", insufficient.SKU)
	assert.EqualValues(t, 3, insufficient.Available)
	assert.EqualValues(t, 1000, insufficient.Requested)

	assert.EqualValues(t, 50, f.get(t, a1.ID).Quantity)
	assert.EqualValues(t, 3, f.get(t, b2.ID).Quantity)
}

func TestReduceBySKU_ConsumeLotesEnOrdenFEFO(t *testing.T) {
	f := newFixture(t)
	now := f.clock.Now()
	early := f.receive(t, "A1", "B-EARLY", 5, withExpiry(now.Add(10*24*time.Hour)))
	late := f.receive(t, "A1", "B-LATE", 10, withExpiry(now.Add(20*24*time.Hour)))

	allocs, err := f.engine.ReduceBySKU(f.ctx, inventory.ReduceInput{
		CompanyID:   f.companyID,
		WarehouseID: f.whID,
		Items:       []inventory.StockItem{{SKU: "A1", Quantity: 8}},
		Reference:   "DSP-TEST",
	})
	require.NoError(t, err)
	require.Len(t, allocs, 2)
	assert.Equal(t, "B-EARLY", allocs[0].BatchID)
	assert.EqualValues(t, 5, allocs[0].Quantity)
	assert.Equal(t, "B-LATE", allocs[1].BatchID)
	assert.EqualValues(t, 3, allocs[1].Quantity)

	earlyAfter := f.get(t, early.ID)
	assert.EqualValues(t, 0, earlyAfter.Quantity)
	assert.Equal(t, entity.StatusLowStock, earlyAfter.Status, "el estado se recalcula tras descontar")
	assert.EqualValues(t, 7, f.get(t, late.ID).Quantity)
}

func TestReduceBySKU_NuncaDejaStockNegativo(t *testing.T) {
	f := newFixture(t)
	rec := f.receive(t, "A1", "B1", 10)

	for i := 0; i < 4; i++ {
		_, err := f.engine.ReduceBySKU(f.ctx, inventory.ReduceInput{
			CompanyID: f.companyID, WarehouseID: f.whID,
			Items: []inventory.StockItem{{SKU: "A1", Quantity: 3}},
		})
		if i < 3 {
			require.NoError(t, err)
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		}
		assert.GreaterOrEqual(t, f.get(t, rec.ID).Quantity, int64(0))
	}
	assert.EqualValues(t, 1, f.get(t, rec.ID).Quantity)
}

func TestReduceBySKU_CantidadNegativaEsViolacionDeInvariante(t *testing.T) {
	f := newFixture(t)
	f.receive(t, "A1", "B1", 10)
	_, err := f.engine.ReduceBySKU(f.ctx, inventory.ReduceInput{
		CompanyID: f.companyID, WarehouseID: f.whID,
		Items: []inventory.StockItem{{SKU: "A1", Quantity: -2}},
	})
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
}

func TestValidateSufficiency_SumaLotesYExcluyeArchivados(t *testing.T) {
	f := newFixture(t)
	f.receive(t, "A1", "B1", 4)
	f.receive(t, "A1", "B2", 4)
	archived := f.receive(t, "A1", "B3", 100)
	_, err := f.engine.Archive(f.ctx, f.companyID, archived.ID)
	require.NoError(t, err)

	err = f.engine.ValidateSufficiency(f.ctx, f.companyID, f.whID, []inventory.StockItem{{SKU: "A1", Quantity: 8}})
	assert.NoError(t, err)

	err = f.engine.ValidateSufficiency(f.ctx, f.companyID, f.whID, []inventory.StockItem{{SKU: "A1", Quantity: 9}})
	var insufficient *domain.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.EqualValues(t, 8, insufficient.Available)
}

func TestManualEdit_RecalculaEstadoConValoresResultantes(t *testing.T) {
	f := newFixture(t)
	rec := f.receive(t, "A1", "B1", 50)

	res, err := f.engine.ManualEdit(f.ctx, f.companyID, rec.ID, inventory.EditInput{
		Quantity:      int64Ptr(5),
		MinStockLevel: int64Ptr(10),
		MaxStockLevel: int64Ptr(100),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 50, res.Previous.Quantity)
	assert.Equal(t, entity.StatusLowStock, res.Record.Status)

	res, err = f.engine.ManualEdit(f.ctx, f.companyID, rec.ID, inventory.EditInput{Quantity: int64Ptr(95)})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusOverstock, res.Record.Status)

	yesterday := f.clock.Now().Add(-24 * time.Hour)
	res, err = f.engine.ManualEdit(f.ctx, f.companyID, rec.ID, inventory.EditInput{ExpiryDate: &yesterday})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusExpired, res.Record.Status)

	movs, err := f.engine.Movements(f.ctx, repository.MovementFilter{CompanyID: f.companyID, Type: entity.MovementTypeAdjustment})
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.EqualValues(t, -45, movs[0].Quantity)
	assert.EqualValues(t, 90, movs[1].Quantity)
}

func TestManualEdit_RecalculaEdad(t *testing.T) {
	f := newFixture(t)
	rec := f.receive(t, "A1", "B1", 50)
	f.clock.Advance(3*24*time.Hour + time.Hour)

	res, err := f.engine.ManualEdit(f.ctx, f.companyID, rec.ID, inventory.EditInput{ProductName: strPtr("Agua 600ml")})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Record.Age)
	assert.Equal(t, "Agua 600ml", res.Record.ProductName)
}

func TestManualEdit_RechazaInvariantesSinPersistir(t *testing.T) {
	f := newFixture(t)
	rec := f.receive(t, "A1", "B1", 50)

	_, err := f.engine.ManualEdit(f.ctx, f.companyID, rec.ID, inventory.EditInput{Quantity: int64Ptr(-1)})
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)

	_, err = f.engine.ManualEdit(f.ctx, f.companyID, rec.ID, inventory.EditInput{MinStockLevel: int64Ptr(2000)})
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)

	got := f.get(t, rec.ID)
	assert.EqualValues(t, 50, got.Quantity)
	assert.EqualValues(t, 0, got.MinStockLevel)
}

func TestManualEdit_NoEncontradoEIdentificadorInvalido(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.ManualEdit(f.ctx, f.companyID, uuid.New().String(), inventory.EditInput{Quantity: int64Ptr(1)})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.engine.ManualEdit(f.ctx, f.companyID, "no-es-un-id", inventory.EditInput{Quantity: int64Ptr(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)
}

func TestArchive_FuerzaEstadoArchivadoYReportaEstadoPrevio(t *testing.T) {
	f := newFixture(t)
	rec := f.receive(t, "A1", "B1", 5, withThresholds(10, 100))
	assert.Equal(t, entity.StatusLowStock, rec.Status)

	res, err := f.engine.Archive(f.ctx, f.companyID, rec.ID)
	require.NoError(t, err)
	assert.False(t, res.WasArchived)
	assert.True(t, res.Record.IsArchived)
	assert.Equal(t, entity.StatusArchived, res.Record.Status)
	require.NotNil(t, res.Record.ArchivedAt)

	again, err := f.engine.Archive(f.ctx, f.companyID, rec.ID)
	require.NoError(t, err)
	assert.True(t, again.WasArchived)
	assert.Equal(t, entity.StatusArchived, again.Record.Status)

	un, err := f.engine.Unarchive(f.ctx, f.companyID, rec.ID)
	require.NoError(t, err)
	assert.True(t, un.WasArchived)
	assert.False(t, un.Record.IsArchived)
	assert.Nil(t, un.Record.ArchivedAt)
	assert.Equal(t, entity.StatusLowStock, f.get(t, rec.ID).Status)
}

func TestUnarchive_RecalculaVencimientoOcurridoMientrasArchivado(t *testing.T) {
	f := newFixture(t)
	rec := f.receive(t, "A1", "B1", 50, withExpiry(f.clock.Now().Add(24*time.Hour)))
	assert.Equal(t, entity.StatusActive, rec.Status)

	_, err := f.engine.Archive(f.ctx, f.companyID, rec.ID)
	require.NoError(t, err)
	f.clock.Advance(48 * time.Hour)

	_, err = f.engine.Unarchive(f.ctx, f.companyID, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusExpired, f.get(t, rec.ID).Status)
}

func TestArchive_ExcluyeDeListadoActivo(t *testing.T) {
	f := newFixture(t)
	keep := f.receive(t, "A1", "B1", 5)
	gone := f.receive(t, "A1", "B2", 5)
	_, err := f.engine.Archive(f.ctx, f.companyID, gone.ID)
	require.NoError(t, err)

	active, err := f.engine.List(f.ctx, repository.RecordFilter{CompanyID: f.companyID, WarehouseID: f.whID})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, keep.ID, active[0].ID)

	all, err := f.engine.List(f.ctx, repository.RecordFilter{CompanyID: f.companyID, IncludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestBulkArchive_AislaFallosParciales(t *testing.T) {
	f := newFixture(t)
	r1 := f.receive(t, "A1", "B1", 5)
	r2 := f.receive(t, "A2", "B1", 5)

	res, err := f.engine.BulkArchive(f.ctx, f.companyID, []string{r1.ID, "bogus", r2.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, res.SucceededCount)
	assert.Equal(t, 1, res.FailedCount)
	assert.Equal(t, []string{"bogus"}, res.FailedIDs)
	assert.Equal(t, inventory.BulkReasonInvalidID, res.Failures["bogus"])
	assert.True(t, f.get(t, r1.ID).IsArchived)
	assert.True(t, f.get(t, r2.ID).IsArchived)
}

func TestBulkArchive_YaArchivadoYNoEncontrado(t *testing.T) {
	f := newFixture(t)
	r1 := f.receive(t, "A1", "B1", 5)
	_, err := f.engine.Archive(f.ctx, f.companyID, r1.ID)
	require.NoError(t, err)
	missing := uuid.New().String()

	res, err := f.engine.BulkArchive(f.ctx, f.companyID, []string{r1.ID, missing})
	require.NoError(t, err)
	assert.Equal(t, 0, res.SucceededCount)
	assert.Equal(t, 2, res.FailedCount)
	assert.Equal(t, inventory.BulkReasonAlreadyArchived, res.Failures[r1.ID])
	assert.Equal(t, inventory.BulkReasonNotFound, res.Failures[missing])

	un, err := f.engine.BulkUnarchive(f.ctx, f.companyID, []string{r1.ID, r1.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, un.SucceededCount)
	assert.Equal(t, inventory.BulkReasonNotArchived, un.Failures[r1.ID])
}

func TestQuarantine_SobreviveMutacionesHastaLiberar(t *testing.T) {
	f := newFixture(t)
	rec := f.receive(t, "A1", "B1", 50)

	q, err := f.engine.Quarantine(f.ctx, f.companyID, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusQuarantine, q.Status)
	assert.True(t, q.StatusPinned)

	f.receive(t, "A1", "B1", 10)
	_, err = f.engine.ManualEdit(f.ctx, f.companyID, rec.ID, inventory.EditInput{Quantity: int64Ptr(1)})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusQuarantine, f.get(t, rec.ID).Status)

	err = f.engine.ValidateSufficiency(f.ctx, f.companyID, f.whID, []inventory.StockItem{{SKU: "A1", Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock, "un lote en cuarentena no es despachable")

	_, err = f.engine.Quarantine(f.ctx, f.companyID, rec.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	released, err := f.engine.ReleaseQuarantine(f.ctx, f.companyID, rec.ID)
	require.NoError(t, err)
	assert.False(t, released.StatusPinned)
	assert.Equal(t, entity.StatusActive, released.Status)
}

func TestArchive_LiberaCuarentena(t *testing.T) {
	f := newFixture(t)
	rec := f.receive(t, "A1", "B1", 50)
	_, err := f.engine.Quarantine(f.ctx, f.companyID, rec.ID)
	require.NoError(t, err)

	_, err = f.engine.Archive(f.ctx, f.companyID, rec.ID)
	require.NoError(t, err)
	_, err = f.engine.Unarchive(f.ctx, f.companyID, rec.ID)
	require.NoError(t, err)

	got := f.get(t, rec.ID)
	assert.False(t, got.StatusPinned)
	assert.Equal(t, entity.StatusActive, got.Status)
}

func TestEngine_RegistraMetricasPorOperacion(t *testing.T) {
	f := newFixture(t)
	f.receive(t, "A1", "B1", 5)
	_, _ = f.engine.ReduceBySKU(f.ctx, inventory.ReduceInput{
		CompanyID: f.companyID, WarehouseID: f.whID,
		Items: []inventory.StockItem{{SKU: "A1", Quantity: 50}},
	})

	require.Len(t, f.recorder.ops, 2)
	assert.Equal(t, inventory.OpReceive, f.recorder.ops[0])
	assert.NoError(t, f.recorder.errs[0])
	assert.Equal(t, inventory.OpReduce, f.recorder.ops[1])
	assert.ErrorIs(t, f.recorder.errs[1], domain.ErrInsufficientStock)
}

func TestCheckReturnCoverage(t *testing.T) {
	assert.EqualValues(t, 0, inventory.CheckReturnCoverage(10, 4))
	assert.EqualValues(t, 0, inventory.CheckReturnCoverage(4, 4))
	assert.EqualValues(t, 3, inventory.CheckReturnCoverage(2, 5))
	assert.EqualValues(t, 5, inventory.CheckReturnCoverage(-1, 5))
}

func strPtr(s string) *string { return &s }

func TestReceive_LoteArchivadoSeRechaza(t *testing.T) {
	f := newFixture(t)
	rec := f.receive(t, "A1", "B1", 5)
	_, err := f.engine.Archive(f.ctx, f.companyID, rec.ID)
	require.NoError(t, err)

	_, _, err = f.engine.Receive(f.ctx, inventory.ReceiveInput{
		CompanyID: f.companyID, SKU: "A1", BatchID: "B1", WarehouseID: f.whID, Quantity: 20,
	})
	assert.ErrorIs(t, err, domain.ErrRecordArchived)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	after := f.get(t, rec.ID)
	assert.EqualValues(t, 5, after.Quantity)
	assert.True(t, after.IsArchived)

	movs, err := f.engine.Movements(f.ctx, repository.MovementFilter{CompanyID: f.companyID, Type: entity.MovementTypeReceive})
	require.NoError(t, err)
	assert.Len(t, movs, 1, "la recepción rechazada no deja movimiento")

	// desarchivado vuelve a recibir
	_, err = f.engine.Unarchive(f.ctx, f.companyID, rec.ID)
	require.NoError(t, err)
	again, created, err := f.engine.Receive(f.ctx, inventory.ReceiveInput{
		CompanyID: f.companyID, SKU: "A1", BatchID: "B1", WarehouseID: f.whID, Quantity: 20,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.EqualValues(t, 25, again.Quantity)
}

func TestReduceBySKU_LineasRepetidasQueDesbordanSeRechazan(t *testing.T) {
	f := newFixture(t)
	rec := f.receive(t, "A1", "B1", 5)

	_, err := f.engine.ReduceBySKU(f.ctx, inventory.ReduceInput{
		CompanyID:   f.companyID,
		WarehouseID: f.whID,
		Items:       []inventory.StockItem{{SKU: "A1", Quantity: math.MaxInt64}, {SKU: "A1", Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
	assert.EqualValues(t, 5, f.get(t, rec.ID).Quantity)

	err = f.engine.ValidateSufficiency(f.ctx, f.companyID, f.whID,
		[]inventory.StockItem{{SKU: "A1", Quantity: math.MaxInt64}, {SKU: "A1", Quantity: math.MaxInt64}})
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
}

func TestReduceBySKU_ConcurrenteSinActualizacionesPerdidas(t *testing.T) {
	f := newFixture(t)
	rec := f.receive(t, "A1", "B1", 50)
	uc := inventory.NewDispatchUseCase(f.engine, nil)

	const workers = 80
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		failures []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			items := []inventory.StockItem{{SKU: "A1", Quantity: 1}}
			var err error
			if i%2 == 0 {
				_, err = f.engine.ReduceBySKU(f.ctx, inventory.ReduceInput{CompanyID: f.companyID, WarehouseID: f.whID, Items: items})
			} else {
				_, err = uc.Create(f.ctx, inventory.CreateDispatchInput{CompanyID: f.companyID, WarehouseID: f.whID, Destination: "Ruta 1", Items: items})
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			ok++
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, ok)
	assert.Len(t, failures, workers-50)
	for _, err := range failures {
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	}
	assert.EqualValues(t, 0, f.get(t, rec.ID).Quantity)

	movs, err := f.engine.Movements(f.ctx, repository.MovementFilter{CompanyID: f.companyID, Type: entity.MovementTypeDispatch})
	require.NoError(t, err)
	var moved int64
	for _, m := range movs {
		moved += m.Quantity
	}
	assert.EqualValues(t, -50, moved)
}

func TestIdentificadoresNoCanonicosSeRechazanSinTocarElStore(t *testing.T) {
	f := newFixture(t)
	rec := f.receive(t, "A1", "B1", 5)

	_, err := f.engine.Get(f.ctx, f.companyID, "urn:uuid:"+rec.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)

	_, err = f.engine.Archive(f.ctx, f.companyID, "{"+rec.ID+"}")
	assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)

	_, err = f.engine.ReduceBySKU(f.ctx, inventory.ReduceInput{
		CompanyID:   f.companyID,
		WarehouseID: "urn:uuid:" + f.whID,
		Items:       []inventory.StockItem{{SKU: "A1", Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)
	assert.EqualValues(t, 5, f.get(t, rec.ID).Quantity)
}
