package repository

// Repositories agrupa los repositorios atados a una misma transacción (o al pool).
// El TxRunner lo construye y lo presta al callback; no debe retenerse fuera de él.
type Repositories struct {
	Units           UnitRepository
	UnitConfigs     ProductUnitConfigRepository
	Lots            LotRepository
	Stock           StockAggregateRepository
	Transfers       TransferRepository
	PurchaseOrders  PurchaseOrderRepository
	SaleAllocations SaleAllocationRepository
	Cancellations   OrderCancellationRepository
	Stores          StoreRepository
	Products        ProductRepository
}
