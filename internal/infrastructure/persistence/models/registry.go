package models

// All lists every model of the engine, parents before children.
// Tests use it with AutoMigrate; production schemas come from the SQL migrations.
func All() []any {
	return []any{
		&ProductBranchStockModel{},
		&DrawerSessionModel{},
		&CashMovementModel{},
		&CreditAccountModel{},
		&FiscalSequenceModel{},
		&SaleModel{},
		&SaleLineModel{},
		&OrderModel{},
		&OrderLineModel{},
	}
}
