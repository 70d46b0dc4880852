package tree

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCloneDetachesNestedValues(t *testing.T) {
	original := map[string]any{
		"a": map[string]any{"b": []any{1, map[string]any{"c": "x"}}},
		"n": nil,
	}
	cloned := Clone(original)
	if diff := cmp.Diff(original, cloned); diff != "" {
		t.Fatalf("clone mismatch (-want +got):\n%s", diff)
	}

	cloned["a"].(map[string]any)["b"].([]any)[0] = 99
	if original["a"].(map[string]any)["b"].([]any)[0] != 1 {
		t.Fatalf("expected original slice untouched")
	}
}

func TestCloneNilInterface(t *testing.T) {
	var value any
	if got := Clone(value); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestMergeStrongestFirst(t *testing.T) {
	strong := map[string]any{"a": map[string]any{"x": 1}, "list": []any{"s"}}
	weak := map[string]any{"a": map[string]any{"x": 0, "y": 2}, "list": []any{"w", "w"}, "z": true}

	got := Merge(strong, weak)
	want := map[string]any{
		"a":    map[string]any{"x": 1, "y": 2},
		"list": []any{"s"},
		"z":    true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}
}

func TestSetInSharesSiblings(t *testing.T) {
	sibling := map[string]any{"keep": 1}
	root := map[string]any{
		"a": map[string]any{"b": map[string]any{"c": 0}, "s": sibling},
	}

	updated := SetIn(root, []string{"a", "b", "c"}, 5)

	if v, _ := Lookup(root, []string{"a", "b", "c"}); v != 0 {
		t.Fatalf("expected original untouched, got %v", v)
	}
	if v, _ := Lookup(updated, []string{"a", "b", "c"}); v != 5 {
		t.Fatalf("expected updated leaf 5, got %v", v)
	}
	gotSibling := updated["a"].(map[string]any)["s"].(map[string]any)
	gotSibling["keep"] = 2
	if sibling["keep"] != 2 {
		t.Fatalf("expected sibling shared by reference")
	}
}

func TestSetInCreatesMissingIntermediates(t *testing.T) {
	updated := SetIn(map[string]any{"a": 1}, []string{"a", "b"}, "x")
	if diff := cmp.Diff(map[string]any{"a": map[string]any{"b": "x"}}, updated); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteIn(t *testing.T) {
	root := map[string]any{"a": map[string]any{"b": 1, "c": 2}, "d": 3}
	got := DeleteIn(root, []string{"a", "b"})
	if diff := cmp.Diff(map[string]any{"a": map[string]any{"c": 2}, "d": 3}, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if _, ok := Lookup(root, []string{"a", "b"}); !ok {
		t.Fatalf("expected original to keep a.b")
	}
	if diff := cmp.Diff(root, DeleteIn(root, []string{"missing", "x"})); diff != "" {
		t.Fatalf("expected no-op for missing path:\n%s", diff)
	}
}

func TestLookupMissing(t *testing.T) {
	root := map[string]any{"a": map[string]any{"b": nil}, "s": "str"}
	if v, ok := Lookup(root, []string{"a", "b"}); !ok || v != nil {
		t.Fatalf("expected present nil, got %v %v", v, ok)
	}
	if _, ok := Lookup(root, []string{"a", "x"}); ok {
		t.Fatalf("expected missing key")
	}
	if _, ok := Lookup(root, []string{"s", "x"}); ok {
		t.Fatalf("expected lookup through scalar to fail")
	}
}

func TestEqual(t *testing.T) {
	cases := []struct {
		name string
		a, b any
		want bool
	}{
		{"ints", 1, 1, true},
		{"int vs float", 1, 1.0, false},
		{"nil vs nil", nil, nil, true},
		{"nil vs zero", nil, 0, false},
		{"slices", []any{1, "a"}, []any{1, "a"}, true},
		{"slices differ", []any{1}, []any{2}, false},
		{"maps", map[string]any{"a": 1}, map[string]any{"a": 1}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Equal(tc.a, tc.b); got != tc.want {
				t.Fatalf("Equal(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}
