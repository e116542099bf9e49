package handlers

import (
	"strings"
	"testing"

	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/menu"
)

func TestValidateMenuItem(t *testing.T) {
	h := NewHandler(nil, nil, nil, nil, nil, nil)

	valid := menu.NewItem{
		Name:        "Masala Dosa",
		Description: "Crispy rice crepe with potato filling",
		Price:       12000,
		Category:    "Meals",
	}

	t.Run("valid item passes", func(t *testing.T) {
		if msg, ok := h.validateMenuItem(valid); !ok {
			t.Fatalf("valid item rejected: %s", msg)
		}
	})

	t.Run("category outside the whitelist is rejected", func(t *testing.T) {
		item := valid
		item.Category = "Sides"
		msg, ok := h.validateMenuItem(item)
		if ok {
			t.Fatalf("unknown category accepted")
		}
		// The message lists the allowed categories.
		for _, cat := range menu.Categories {
			if !strings.Contains(msg, cat) {
				t.Errorf("message %q missing category %q", msg, cat)
			}
		}
	})

	t.Run("missing name is rejected", func(t *testing.T) {
		item := valid
		item.Name = ""
		if _, ok := h.validateMenuItem(item); ok {
			t.Fatalf("item without a name accepted")
		}
	})
}
