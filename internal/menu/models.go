package menu

import "time"

// Categories a menu item may belong to.
var Categories = []string{"Snacks", "Drinks", "Meals", "Desserts"}

// ValidCategory reports whether c is one of Categories.
func ValidCategory(c string) bool {
	for _, cat := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

// Item is one dish on the menu. Price is in paise.
type Item struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Category    string    `json:"category"`
	FoodImage   string    `json:"foodImage"`
	InStock     bool      `json:"inStock"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewItem is the create/update payload.
type NewItem struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	Price       int64  `json:"price" validate:"required,min=1"`
	Category    string `json:"category" validate:"required"`
	FoodImage   string `json:"foodImage"`
	InStock     *bool  `json:"inStock"`
}
