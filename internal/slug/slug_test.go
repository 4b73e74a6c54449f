package slug

import "testing"

func TestMake(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple title", "My Talk", "my-talk"},
		{"already lowercase", "simple", "simple"},
		{"punctuation", "Go: A Love Story!", "go-a-love-story"},
		{"accented characters", "Cafés & Code", "cafes-code"},
		{"multiple spaces", "spaced   out   title", "spaced-out-title"},
		{"leading and trailing junk", "  --Hello World--  ", "hello-world"},
		{"numbers kept", "Top 10 Go Talks 2016", "top-10-go-talks-2016"},
		{"non-ascii dropped", "你好 Go", "go"},
		{"empty", "", ""},
		{"only punctuation", "!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Make(tt.input); got != tt.expected {
				t.Errorf("Make(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
