package cart

// Line is one entry in a user's cart.
type Line struct {
	CartItemID string `json:"cart_item_id"`
	MenuItemID string `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
}

// NewLine is the add-to-cart payload.
type NewLine struct {
	MenuItemID string `json:"menuItemId" validate:"required"`
	Quantity   int    `json:"quantity" validate:"required,min=1"`
}

// DisplayLine is a cart line resolved against the menu for display.
type DisplayLine struct {
	CartItemID string `json:"cart_item_id"`
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	Price      int64  `json:"price"`
	FoodImage  string `json:"foodImage"`
	InStock    bool   `json:"inStock"`
	Quantity   int    `json:"quantity"`
}
