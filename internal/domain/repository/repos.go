package repository

// Repos agrupa los repositorios atados a una misma transacción.
type Repos struct {
	Products  ProductRepository
	Movements StockMovementRepository
	Orders    OrderRepository
}
