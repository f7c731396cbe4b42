package database

import "testing"

func TestContains(t *testing.T) {
	tests := []struct{ in, want string }{
		{"cable", "%cable%"},
		{"50%", `%50\%%`},
		{"po_1", `%po\_1%`},
		{`a\b`, `%a\\b%`},
	}
	for _, tt := range tests {
		if got := Contains(tt.in); got != tt.want {
			t.Errorf("Contains(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
