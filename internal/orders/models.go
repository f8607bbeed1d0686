package orders

// Item is one line of an order: a snapshot of the product at submission
// time plus the requested quantity. The product id is advisory only; the
// captured name, price and icon stay authoritative for the order even if
// the product is later repriced or deleted.
type Item struct {
	ProductID int    `json:"productId"`
	Name      string `json:"name"`
	Price     int    `json:"price"`
	Icon      string `json:"icon"`
	Quantity  int    `json:"quantity"`
}

// Order as stored in the shared order queue subtree. The id is the
// provider-generated child key. Only Status ever changes after creation.
type Order struct {
	ID           string `json:"id"`
	CustomerName string `json:"customerName"`
	Items        []Item `json:"items"`
	Total        int    `json:"total"`
	Status       Status `json:"status"`
	Timestamp    int64  `json:"timestamp"` // epoch millis, ordering
	CreatedAt    string `json:"createdAt"` // ISO-8601, display
}

// CartItemInput is what a browsing session submits: product references
// plus quantities. The server captures the product snapshot at submit
// time.
type CartItemInput struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}
