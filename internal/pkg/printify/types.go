package printify

// Product is the product detail returned by GET /shops/{shop}/products/{id}.json
type Product struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Tags            []string  `json:"tags"`
	Options         []Option  `json:"options"`
	Variants        []Variant `json:"variants"`
	Images          []Image   `json:"images"`
	CreatedAt       string    `json:"created_at"`
	UpdatedAt       string    `json:"updated_at"`
	Visible         bool      `json:"visible"`
	IsLocked        bool      `json:"is_locked"`
	BlueprintID     int64     `json:"blueprint_id"`
	PrintProviderID int64     `json:"print_provider_id"`
	ShopID          int64     `json:"shop_id"`
	External        *External `json:"external,omitempty"`
}

type Option struct {
	Name   string        `json:"name"`
	Type   string        `json:"type"`
	Values []OptionValue `json:"values"`
}

type OptionValue struct {
	ID     int64    `json:"id"`
	Title  string   `json:"title"`
	Colors []string `json:"colors,omitempty"`
}

// Variant prices are in minor currency units.
type Variant struct {
	ID          int64   `json:"id"`
	SKU         string  `json:"sku"`
	Cost        int64   `json:"cost"`
	Price       int64   `json:"price"`
	Title       string  `json:"title"`
	Grams       int     `json:"grams"`
	IsEnabled   bool    `json:"is_enabled"`
	IsDefault   bool    `json:"is_default"`
	IsAvailable bool    `json:"is_available"`
	Options     []int64 `json:"options"`
}

type Image struct {
	Src        string  `json:"src"`
	VariantIDs []int64 `json:"variant_ids"`
	Position   string  `json:"position"`
	IsDefault  bool    `json:"is_default"`
}

// External is the storefront identity reported back to Printify after publishing.
type External struct {
	ID     string `json:"id"`
	Handle string `json:"handle"`
}

// ProductPage is one page of GET /shops/{shop}/products.json
type ProductPage struct {
	CurrentPage int       `json:"current_page"`
	LastPage    int       `json:"last_page"`
	PerPage     int       `json:"per_page"`
	Total       int       `json:"total"`
	Data        []Product `json:"data"`
}

// Webhook is a webhook subscription on the shop
type Webhook struct {
	ID     string `json:"id"`
	Topic  string `json:"topic"`
	URL    string `json:"url"`
	ShopID string `json:"shop_id"`
}

// Topics subscribed by default when registering the storefront endpoint.
var DefaultTopics = []string{
	"product:publish:started",
	"product:deleted",
	"order:created",
	"order:updated",
}
