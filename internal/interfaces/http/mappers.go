package http

import (
	"github.com/jhoicas/inventario-lotes/internal/application/dto"
	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

func toItemInputs(items []dto.ItemRequest) []inventory.ItemInput {
	out := make([]inventory.ItemInput, 0, len(items))
	for _, it := range items {
		out = append(out, inventory.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity, UnitID: it.UnitID})
	}
	return out
}

func toTransferResponse(t *entity.Transfer) dto.TransferResponse {
	resp := dto.TransferResponse{
		ID:                 t.ID,
		TransferNumber:     t.TransferNumber,
		SourceStoreID:      t.SourceStoreID,
		DestinationStoreID: t.DestinationStoreID,
		TransferDate:       t.TransferDate,
		Status:             t.Status,
		Notes:              t.Notes,
		CreatedBy:          t.CreatedBy,
		Items:              make([]dto.TransferItemResponse, 0, len(t.Items)),
	}
	for _, it := range t.Items {
		resp.Items = append(resp.Items, dto.TransferItemResponse{
			ID:               it.ID,
			ProductID:        it.ProductID,
			Quantity:         it.Quantity,
			Cost:             it.Cost,
			UnitID:           it.UnitID,
			SourceLotID:      it.SourceLotID,
			DestinationLotID: it.DestinationLotID,
		})
	}
	return resp
}

func toPurchaseOrderResponse(o *entity.PurchaseOrder) dto.PurchaseOrderResponse {
	resp := dto.PurchaseOrderResponse{
		ID:          o.ID,
		StoreID:     o.StoreID,
		SupplierID:  o.SupplierID,
		ImportDate:  o.ImportDate,
		TotalAmount: o.TotalAmount,
		Status:      o.Status,
		Notes:       o.Notes,
		CreatedAt:   o.CreatedAt,
		Items:       make([]dto.PurchaseOrderItemResponse, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, dto.PurchaseOrderItemResponse{
			ID:           it.ID,
			ProductID:    it.ProductID,
			Quantity:     it.Quantity,
			Cost:         it.Cost,
			UnitID:       it.UnitID,
			BaseQuantity: it.BaseQuantity,
			BaseCost:     it.BaseCost,
			BaseUnitID:   it.BaseUnitID,
			LotID:        it.LotID,
		})
	}
	return resp
}

func toLotResponse(l *entity.Lot) dto.LotResponse {
	return dto.LotResponse{
		ID:                l.ID,
		ProductID:         l.ProductID,
		StoreID:           l.StoreID,
		ImportDate:        l.ImportDate,
		Quantity:          l.Quantity,
		RemainingQuantity: l.RemainingQuantity,
		Cost:              l.Cost,
		UnitID:            l.UnitID,
		Source:            l.Source(),
		PurchaseOrderID:   l.PurchaseOrderID,
		TransferID:        l.TransferID,
	}
}

func toUnitResponse(u *entity.Unit) dto.UnitResponse {
	return dto.UnitResponse{
		ID:               u.ID,
		StoreID:          u.StoreID,
		Name:             u.Name,
		BaseUnitID:       u.BaseUnitID,
		ConversionFactor: u.Factor(),
		IsBase:           u.IsBase(),
	}
}
