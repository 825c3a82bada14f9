package handlers

import "testing"

func TestParseRating(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   int
		ok     bool
	}{
		{"valid low", []string{"1"}, 1, true},
		{"valid high", []string{"5"}, 5, true},
		{"zero", []string{"0"}, 0, false},
		{"out of range", []string{"6"}, 0, false},
		{"not a number", []string{"five"}, 0, false},
		{"empty", nil, 0, false},
		{"multiple values", []string{"3", "4"}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseRating(tt.values)
			if got != tt.want || ok != tt.ok {
				t.Errorf("parseRating(%v) = (%d, %v), want (%d, %v)", tt.values, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestNormalizeComment(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", noCommentPlaceholder},
		{"   ", noCommentPlaceholder},
		{"no", noCommentPlaceholder},
		{"NO", noCommentPlaceholder},
		{" No ", noCommentPlaceholder},
		{"nothing to add", "nothing to add"},
		{"great support!", "great support!"},
	}

	for _, tt := range tests {
		if got := normalizeComment(tt.in); got != tt.want {
			t.Errorf("normalizeComment(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
