package tools

import "testing"

func TestSelectRetrieval(t *testing.T) {
	tests := []struct {
		name     string
		lastn    int
		hasLastn bool
		limit    int
		hasLimit bool
		cursor   int
		want     Retrieval
	}{
		{
			name: "no arguments retrieves everything",
			want: All{},
		},
		{
			name:     "lastn alone",
			lastn:    5,
			hasLastn: true,
			want:     Recent{N: 5},
		},
		{
			name:     "limit and cursor page",
			limit:    20,
			hasLimit: true,
			cursor:   40,
			want:     Paged{Limit: 20, Cursor: 40},
		},
		{
			name:     "limit with zero cursor",
			limit:    10,
			hasLimit: true,
			want:     Paged{Limit: 10, Cursor: 0},
		},
		{
			name:     "lastn wins over limit and cursor",
			lastn:    3,
			hasLastn: true,
			limit:    20,
			hasLimit: true,
			cursor:   40,
			want:     Recent{N: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectRetrieval(tt.lastn, tt.hasLastn, tt.limit, tt.hasLimit, tt.cursor)
			if got != tt.want {
				t.Errorf("SelectRetrieval() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestValidContextMode(t *testing.T) {
	for _, mode := range ContextModes {
		if !ValidContextMode(mode) {
			t.Errorf("ValidContextMode(%q) = false, want true", mode)
		}
	}
	for _, mode := range []string{"", "turbo", "SUMMARY"} {
		if ValidContextMode(mode) {
			t.Errorf("ValidContextMode(%q) = true, want false", mode)
		}
	}
}
