package cmd

import "testing"

func TestParseCategories(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"tech", []string{"tech"}},
		{"tech,business", []string{"tech", "business"}},
		{" Tech , SPORT ", []string{"tech", "sport"}},
		{"tech,,business,", []string{"tech", "business"}},
		{"", nil},
	}
	for _, tt := range tests {
		got := parseCategories(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("parseCategories(%q) = %v, want %v", tt.input, got, tt.want)
			continue
		}
		for i := range got {
			if string(got[i]) != tt.want[i] {
				t.Errorf("parseCategories(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
			}
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.input); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
