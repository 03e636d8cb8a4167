package codec

import (
	"reflect"
	"testing"
)

func TestJoinIDs(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		want string
	}{
		{name: "empty", ids: nil, want: ""},
		{name: "single", ids: []string{"a"}, want: "a"},
		{name: "multiple", ids: []string{"a", "b", "c"}, want: "a;b;c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := JoinIDs(tt.ids); got != tt.want {
				t.Errorf("JoinIDs(%v) = %q, want %q", tt.ids, got, tt.want)
			}
		})
	}
}

func TestSplitIDs(t *testing.T) {
	tests := []struct {
		name string
		s    string
		want []string
	}{
		{name: "empty string yields empty list", s: "", want: []string{}},
		{name: "single", s: "a", want: []string{"a"}},
		{name: "multiple", s: "a;b;c", want: []string{"a", "b", "c"}},
		{name: "stray separators dropped", s: "a;;b;", want: []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitIDs(tt.s); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitIDs(%q) = %v, want %v", tt.s, got, tt.want)
			}
		})
	}
}

func TestJoinSplitRoundTrip(t *testing.T) {
	ids := []string{"11111111-1111-1111-1111-111111111111", "22222222-2222-2222-2222-222222222222"}
	if got := SplitIDs(JoinIDs(ids)); !reflect.DeepEqual(got, ids) {
		t.Errorf("round trip = %v, want %v", got, ids)
	}
}
