package inventory_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/vendstock-api/internal/application/idgen"
	"github.com/jhoicas/vendstock-api/internal/application/inventory"
	"github.com/jhoicas/vendstock-api/internal/domain"
	"github.com/jhoicas/vendstock-api/internal/domain/entity"
	"github.com/jhoicas/vendstock-api/internal/domain/repository"
)

func (f *fixture) createReturn(t *testing.T, uc *inventory.ReturnUseCase, sku, batch string, qty int64) *entity.ReturnOrder {
	t.Helper()
	ret, err := uc.Create(f.ctx, inventory.CreateReturnInput{
		CompanyID:   f.companyID,
		WarehouseID: f.whID,
		SKU:         sku,
		BatchID:     batch,
		Quantity:    qty,
		Reason:      "producto dañado",
	})
	require.NoError(t, err)
	return ret
}

func TestReturnCreate_QuedaPendienteSinTocarInventario(t *testing.T) {
	f := newFixture(t)
	rec := f.receive(t, "A1", "B1", 10)
	uc := inventory.NewReturnUseCase(f.engine, nil)

	ret := f.createReturn(t, uc, "A1", "B1", 4)
	assert.True(t, strings.HasPrefix(ret.Code, idgen.PrefixReturn+"-"))
	assert.Equal(t, entity.ReturnStatusPending, ret.Status)
	assert.EqualValues(t, 10, f.get(t, rec.ID).Quantity)
}

func TestReturnApprove_DescuentaDelLote(t *testing.T) {
	f := newFixture(t)
	rec := f.receive(t, "A1", "B1", 10)
	uc := inventory.NewReturnUseCase(f.engine, nil)
	ret := f.createReturn(t, uc, "A1", "B1", 4)
	reviewer := uuid.New().String()

	approved, err := uc.Approve(f.ctx, f.companyID, ret.ID, nil, reviewer)
	require.NoError(t, err)
	assert.Equal(t, entity.ReturnStatusApproved, approved.Status)
	assert.EqualValues(t, 4, approved.ApprovedQuantity)
	assert.EqualValues(t, 0, approved.Shortfall)
	assert.Equal(t, reviewer, approved.ReviewedBy)
	assert.EqualValues(t, 6, f.get(t, rec.ID).Quantity)

	movs, err := f.engine.Movements(f.ctx, repository.MovementFilter{CompanyID: f.companyID, Type: entity.MovementTypeReturn})
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.EqualValues(t, -4, movs[0].Quantity)
	assert.Equal(t, ret.Code, movs[0].Reference)

	_, err = uc.Approve(f.ctx, f.companyID, ret.ID, nil, reviewer)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestReturnApprove_CantidadParcial(t *testing.T) {
	f := newFixture(t)
	rec := f.receive(t, "A1", "B1", 10)
	uc := inventory.NewReturnUseCase(f.engine, nil)
	ret := f.createReturn(t, uc, "A1", "B1", 4)

	_, err := uc.Approve(f.ctx, f.companyID, ret.ID, int64Ptr(5), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "no se aprueba más de lo declarado")

	approved, err := uc.Approve(f.ctx, f.companyID, ret.ID, int64Ptr(2), "")
	require.NoError(t, err)
	assert.EqualValues(t, 2, approved.ApprovedQuantity)
	assert.EqualValues(t, 8, f.get(t, rec.ID).Quantity)
}

func TestReturnApprove_FaltanteSeSenalaSinBloquear(t *testing.T) {
	f := newFixture(t)
	rec := f.receive(t, "A1", "B1", 3)
	uc := inventory.NewReturnUseCase(f.engine, nil)
	ret := f.createReturn(t, uc, "A1", "B1", 5)

	approved, err := uc.Approve(f.ctx, f.companyID, ret.ID, nil, "")
	require.NoError(t, err)
	assert.Equal(t, entity.ReturnStatusApproved, approved.Status)
	assert.EqualValues(t, 2, approved.Shortfall)
	assert.EqualValues(t, 0, f.get(t, rec.ID).Quantity)
}

func TestReturnApprove_LoteInexistenteQuedaComoFaltante(t *testing.T) {
	f := newFixture(t)
	uc := inventory.NewReturnUseCase(f.engine, nil)
	ret := f.createReturn(t, uc, "ZZ", "NOPE", 5)

	approved, err := uc.Approve(f.ctx, f.companyID, ret.ID, nil, "")
	require.NoError(t, err)
	assert.EqualValues(t, 5, approved.Shortfall)
}

func TestReturnReject_NoTocaInventario(t *testing.T) {
	f := newFixture(t)
	rec := f.receive(t, "A1", "B1", 10)
	uc := inventory.NewReturnUseCase(f.engine, nil)
	ret := f.createReturn(t, uc, "A1", "B1", 4)

	rejected, err := uc.Reject(f.ctx, f.companyID, ret.ID, "")
	require.NoError(t, err)
	assert.Equal(t, entity.ReturnStatusRejected, rejected.Status)
	assert.EqualValues(t, 10, f.get(t, rec.ID).Quantity)

	_, err = uc.Approve(f.ctx, f.companyID, ret.ID, nil, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestReturnCreate_EntradasInvalidas(t *testing.T) {
	f := newFixture(t)
	uc := inventory.NewReturnUseCase(f.engine, nil)

	_, err := uc.Create(f.ctx, inventory.CreateReturnInput{CompanyID: f.companyID, WarehouseID: f.whID, SKU: "A1", BatchID: "B1", Quantity: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(f.ctx, inventory.CreateReturnInput{CompanyID: f.companyID, WarehouseID: f.whID, DispatchID: "dsp", SKU: "A1", BatchID: "B1", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)

	_, err = uc.Create(f.ctx, inventory.CreateReturnInput{CompanyID: f.companyID, WarehouseID: f.whID, DispatchID: uuid.New().String(), SKU: "A1", BatchID: "B1", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
