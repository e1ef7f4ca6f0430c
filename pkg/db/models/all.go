package models

// All lists every persisted model, in dependency order, for sqlite
// auto-migration in tests and local runs.
func All() []any {
	return []any{
		&Product{},
		&ProductVariant{},
		&ShippingMethod{},
		&PaymentMethod{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&OrderStatusHistory{},
		&OrderShipping{},
		&Payment{},
		&Refund{},
		&Notification{},
		&OutboxEvent{},
	}
}
