package http

import (
	"github.com/jhoicas/vendstock-api/internal/application/dto"
	"github.com/jhoicas/vendstock-api/internal/application/inventory"
	"github.com/jhoicas/vendstock-api/internal/domain/entity"
)

func toRecordResponse(r *entity.InventoryRecord) dto.InventoryRecordResponse {
	return dto.InventoryRecordResponse{
		ID:            r.ID,
		SKU:           r.SKU,
		ProductName:   r.ProductName,
		Category:      r.Category,
		BatchID:       r.BatchID,
		WarehouseID:   r.WarehouseID,
		Quantity:      r.Quantity,
		MinStockLevel: r.MinStockLevel,
		MaxStockLevel: r.MaxStockLevel,
		Age:           r.Age,
		ExpiryDate:    r.ExpiryDate,
		Location:      toLocationDTO(r.Location),
		Status:        r.Status,
		StatusPinned:  r.StatusPinned,
		IsArchived:    r.IsArchived,
		ArchivedAt:    r.ArchivedAt,
		CreatedBy:     r.CreatedBy,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func toRecordResponses(list []*entity.InventoryRecord) []dto.InventoryRecordResponse {
	out := make([]dto.InventoryRecordResponse, 0, len(list))
	for _, r := range list {
		out = append(out, toRecordResponse(r))
	}
	return out
}

func toLocationDTO(l entity.Location) dto.LocationDTO {
	return dto.LocationDTO{Zone: l.Zone, Aisle: l.Aisle, Rack: l.Rack, Bin: l.Bin}
}

func toLocation(l dto.LocationDTO) entity.Location {
	return entity.Location{Zone: l.Zone, Aisle: l.Aisle, Rack: l.Rack, Bin: l.Bin}
}

func toMovementResponses(list []*entity.StockMovement) []dto.StockMovementResponse {
	out := make([]dto.StockMovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, dto.StockMovementResponse{
			ID:          m.ID,
			RecordID:    m.RecordID,
			SKU:         m.SKU,
			BatchID:     m.BatchID,
			WarehouseID: m.WarehouseID,
			Type:        m.Type,
			Quantity:    m.Quantity,
			Reference:   m.Reference,
			CreatedBy:   m.CreatedBy,
			CreatedAt:   m.CreatedAt,
		})
	}
	return out
}

func toStockItems(items []dto.StockItemDTO) []inventory.StockItem {
	out := make([]inventory.StockItem, 0, len(items))
	for _, it := range items {
		out = append(out, inventory.StockItem{SKU: it.SKU, Quantity: it.Quantity})
	}
	return out
}

func toBulkResponse(r *inventory.BulkResult) dto.BulkArchiveResponse {
	failedIDs := r.FailedIDs
	if failedIDs == nil {
		failedIDs = []string{}
	}
	failures := r.Failures
	if failures == nil {
		failures = map[string]string{}
	}
	return dto.BulkArchiveResponse{
		SucceededCount: r.SucceededCount,
		FailedCount:    r.FailedCount,
		FailedIDs:      failedIDs,
		Failures:       failures,
	}
}

func toDispatchResponse(d *entity.DispatchOrder) dto.DispatchResponse {
	items := make([]dto.StockItemDTO, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, dto.StockItemDTO{SKU: it.SKU, Quantity: it.Quantity})
	}
	allocs := make([]dto.DispatchAllocationDTO, 0, len(d.Allocations))
	for _, a := range d.Allocations {
		allocs = append(allocs, dto.DispatchAllocationDTO{RecordID: a.RecordID, SKU: a.SKU, BatchID: a.BatchID, Quantity: a.Quantity})
	}
	return dto.DispatchResponse{
		ID:          d.ID,
		Code:        d.Code,
		WarehouseID: d.WarehouseID,
		Destination: d.Destination,
		AgentID:     d.AgentID,
		Status:      d.Status,
		Items:       items,
		Allocations: allocs,
		CreatedBy:   d.CreatedBy,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		DeliveredAt: d.DeliveredAt,
		CancelledAt: d.CancelledAt,
	}
}

func toReturnResponse(r *entity.ReturnOrder) dto.ReturnResponse {
	return dto.ReturnResponse{
		ID:               r.ID,
		Code:             r.Code,
		WarehouseID:      r.WarehouseID,
		DispatchID:       r.DispatchID,
		SKU:              r.SKU,
		BatchID:          r.BatchID,
		Quantity:         r.Quantity,
		ApprovedQuantity: r.ApprovedQuantity,
		Shortfall:        r.Shortfall,
		Reason:           r.Reason,
		Status:           r.Status,
		CreatedBy:        r.CreatedBy,
		ReviewedBy:       r.ReviewedBy,
		CreatedAt:        r.CreatedAt,
		ReviewedAt:       r.ReviewedAt,
	}
}
