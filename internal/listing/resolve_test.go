package listing

import "testing"

func testRecord() map[string]any {
	return map[string]any{
		"formatted_address": "123 Main St, Springfield",
		"bedrooms":          float64(3),
		"agents": map[string]any{
			"listing_agent": map[string]any{
				"name":  "Jane Smith",
				"phone": "555-0100",
			},
		},
		"photos": []any{
			map[string]any{"large": "http://img/0"},
			map[string]any{"large": "http://img/1"},
		},
		"hero": map[string]any{"large": "http://img/hero"},
	}
}

func TestResolve_TopLevelKey(t *testing.T) {
	v, ok := Resolve(testRecord(), "formatted_address")
	if !ok || v != "123 Main St, Springfield" {
		t.Fatalf("got (%v, %v)", v, ok)
	}
}

func TestResolve_NestedPath(t *testing.T) {
	v, ok := Resolve(testRecord(), "agents.listing_agent.name")
	if !ok || v != "Jane Smith" {
		t.Fatalf("got (%v, %v)", v, ok)
	}
}

func TestResolve_SequenceIndex(t *testing.T) {
	v, ok := Resolve(testRecord(), "photos.1.large")
	if !ok || v != "http://img/1" {
		t.Fatalf("got (%v, %v)", v, ok)
	}
}

func TestResolve_TotalFunction(t *testing.T) {
	// Any record and any path must yield a value or absent, never a
	// panic or error.
	cases := []struct {
		name string
		rec  any
		path string
	}{
		{"missing key", testRecord(), "no_such_key"},
		{"missing nested key", testRecord(), "agents.selling_agent.name"},
		{"index out of range", testRecord(), "photos.9.large"},
		{"negative index", testRecord(), "photos.-1.large"},
		{"non-numeric index", testRecord(), "photos.first.large"},
		{"descend into scalar", testRecord(), "formatted_address.street"},
		{"empty path", testRecord(), ""},
		{"dots only", testRecord(), "..."},
		{"nil record", nil, "anything"},
		{"scalar record", "just a string", "key"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, ok := Resolve(tc.rec, tc.path)
			if ok {
				t.Fatalf("expected absent, got %v", v)
			}
		})
	}
}
