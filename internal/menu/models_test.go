package menu

import "testing"

func TestValidCategory(t *testing.T) {
	for _, cat := range Categories {
		if !ValidCategory(cat) {
			t.Errorf("ValidCategory(%q) = false, want true", cat)
		}
	}
	for _, bad := range []string{"", "snacks", "Sides", "Snacks "} {
		if ValidCategory(bad) {
			t.Errorf("ValidCategory(%q) = true, want false", bad)
		}
	}
}
