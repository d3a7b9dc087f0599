package domain

type Shop struct {
	ID      int64  `db:"id" json:"id"`
	Name    string `db:"name" json:"name"`
	URL     string `db:"url" json:"url"`
	Address string `db:"address" json:"address"`
	State   bool   `db:"state" json:"state"`
	OwnerID *int64 `db:"user_id" json:"owner_id,omitempty"`
}

type Category struct {
	ID    int64   `db:"id" json:"id"`
	Name  string  `db:"name" json:"name"`
	Shops []int64 `db:"-" json:"shops"`
}

type Product struct {
	ID         int64  `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	CategoryID int64  `db:"category_id" json:"category"`
}

// Offer is a shop's listing of a product (product_infos row).
type Offer struct {
	ID          int64  `db:"id"`
	ProductID   int64  `db:"product_id"`
	ShopID      int64  `db:"shop_id"`
	Model       string `db:"model"`
	Description string `db:"description"`
	Quantity    int64  `db:"quantity"`
	Price       int64  `db:"price"`
	PriceRRC    int64  `db:"price_rrc"`
	Active      bool   `db:"active"`
}

type Parameter struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

type ParameterValue struct {
	Parameter string `db:"parameter" json:"parameter"`
	Value     string `db:"value" json:"value"`
}

type ShopRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	State bool   `json:"state"`
}

// OfferView is an offer expanded with its product, shop and parameters.
type OfferView struct {
	ID          int64            `json:"id"`
	Model       string           `json:"model"`
	Description string           `json:"description"`
	Quantity    int64            `json:"quantity"`
	Price       int64            `json:"price"`
	PriceRRC    int64            `json:"price_rrc"`
	Product     Product          `json:"product"`
	Shop        ShopRef          `json:"shop"`
	Parameters  []ParameterValue `json:"product_parameters"`
}
