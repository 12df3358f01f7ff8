package types

// OrderContext is a read-only snapshot of the order an incident refers to,
// fetched once per run and handed to the policy guard.
type OrderContext struct {
	OrderID           string            `json:"orderId"`
	LineItems         []LineItem        `json:"lineItems,omitempty"`
	Customer          Customer          `json:"customer,omitempty"`
	ResolutionHistory []ResolutionEntry `json:"resolutionHistory,omitempty"`
	Shopify           ShopifyRef        `json:"shopify,omitempty"`
}

type LineItem struct {
	SKU      string  `json:"sku,omitempty"`
	Title    string  `json:"title,omitempty"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

type Customer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ResolutionEntry records a past remediation on the same order.
type ResolutionEntry struct {
	Type        string `json:"type"`
	CompletedAt string `json:"completedAt"`
}

type ShopifyRef struct {
	ID string `json:"id,omitempty"`
}

const ResolutionReshipment = "reshipment"
