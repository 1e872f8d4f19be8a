package utils

import "testing"

func TestMergeLabel(t *testing.T) {
	tests := []struct {
		name     string
		existing Label
		incoming Label
		want     Label
	}{
		{
			name:     "both present",
			existing: Label{Value: "itemcf", Source: "recall"},
			incoming: Label{Value: "content", Source: "recall"},
			want:     Label{Value: "itemcf|content", Source: "recall,recall"},
		},
		{
			name:     "empty existing",
			existing: Label{},
			incoming: Label{Value: "mf", Source: "recall"},
			want:     Label{Value: "mf", Source: "recall"},
		},
		{
			name:     "empty incoming",
			existing: Label{Value: "popular", Source: "recall"},
			incoming: Label{},
			want:     Label{Value: "popular", Source: "recall"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MergeLabel(tt.existing, tt.incoming); got != tt.want {
				t.Fatalf("MergeLabel() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
