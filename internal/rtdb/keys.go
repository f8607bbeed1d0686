package rtdb

const (
	// Root of the product catalog: single JSON array of products.
	RootStock = "stock"

	// Root of the order queue: hash of order JSON by generated key.
	RootOrders = "orders"
)

// Channel carrying full-subtree snapshots for a root: rtdb:{root}
const channelPrefix = "rtdb:"

func channelFor(root string) string { return channelPrefix + root }
