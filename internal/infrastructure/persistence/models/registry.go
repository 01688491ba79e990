package models

// All returns every persistence model in dependency order.
// Migrations own the production schema; this list drives AutoMigrate in tests.
func All() []any {
	return []any{
		&ProductModel{},
		&UnitModel{},
		&BatchModel{},
		&StockLineModel{},
		&StockMovementModel{},
		&StockReservationModel{},
		&RequestModel{},
		&RequestItemModel{},
		&StockHoldingModel{},
		&HoldingItemModel{},
		&StockCorrectionModel{},
		&CorrectionItemModel{},
	}
}
