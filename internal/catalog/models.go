package catalog

// Product as stored in the shared catalog subtree. Ids are assigned at
// creation and stable; every client copy is a cache of the last observed
// snapshot, never authoritative.
type Product struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Price int    `json:"price"`
	Icon  string `json:"icon"`
	Stock int    `json:"stock"`
}

// DefaultStock is the per-product quantity used by the first-run seed and
// by bulk resets.
const DefaultStock = 10

// DefaultProducts seeds an empty catalog on first run.
func DefaultProducts() []Product {
	return []Product{
		{ID: 1, Name: "Chocolate", Price: 600, Icon: "🍫", Stock: DefaultStock},
		{ID: 2, Name: "Oreo", Price: 600, Icon: "🍪", Stock: DefaultStock},
		{ID: 3, Name: "Manjarate", Price: 700, Icon: "🍯", Stock: DefaultStock},
		{ID: 4, Name: "Prestigio", Price: 700, Icon: "🥥", Stock: DefaultStock},
		{ID: 5, Name: "Plátano con Leche", Price: 600, Icon: "🍌", Stock: DefaultStock},
	}
}
