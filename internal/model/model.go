package model

// All lists the tables owned by the order core in dependency order.
func All() []interface{} {
	return []interface{}{
		&Product{},
		&PriceTier{},
		&Order{},
		&OrderItem{},
		&PointAccount{},
		&PointLedgerEntry{},
		&ClickEvent{},
		&WeeklyRanking{},
	}
}
