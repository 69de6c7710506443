package arabic

import "testing"

func TestNormalizeDigits(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"all glyphs", "٠١٢٣٤٥٦٧٨٩", "0123456789"},
		{"mixed text", "رقم اللجنة: ٢٠", "رقم اللجنة: 20"},
		{"ascii passthrough", "committee 20", "committee 20"},
		{"empty", "", ""},
		{"glyphs inside latin", "a١b٢c", "a1b2c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDigits(tt.in); got != tt.want {
				t.Errorf("NormalizeDigits(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeDigits_Idempotent(t *testing.T) {
	once := NormalizeDigits("٧٨٨١")
	twice := NormalizeDigits(once)
	if once != twice {
		t.Errorf("normalization not idempotent: %q then %q", once, twice)
	}
	if once != "7881" {
		t.Errorf("got %q, want 7881", once)
	}
}
