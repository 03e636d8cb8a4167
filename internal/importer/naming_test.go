package importer

import "testing"

func TestUniqueProjectName(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		existing []string
		want     string
	}{
		{
			name: "no collision",
			base: "Interview Study", existing: []string{"Other"},
			want: "Interview Study",
		},
		{
			name: "base taken",
			base: "Interview Study", existing: []string{"Interview Study"},
			want: "Interview Study (2)",
		},
		{
			name: "base and (2) taken",
			base: "Interview Study", existing: []string{"Interview Study", "Interview Study (2)"},
			want: "Interview Study (3)",
		},
		{
			name: "gap is reused",
			base: "P", existing: []string{"P", "P (3)"},
			want: "P (2)",
		},
		{
			name: "suffix present but base free",
			base: "P", existing: []string{"P (2)"},
			want: "P",
		},
		{
			name: "unrelated suffix ignored",
			base: "P", existing: []string{"P", "P (two)", "P (1)"},
			want: "P (2)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UniqueProjectName(tt.base, tt.existing); got != tt.want {
				t.Errorf("UniqueProjectName(%q, %v) = %q, want %q", tt.base, tt.existing, got, tt.want)
			}
		})
	}
}
