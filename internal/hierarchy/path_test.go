package hierarchy

import (
	"slices"
	"testing"
)

func TestDepth(t *testing.T) {
	t.Run("counts_segments", func(t *testing.T) {
		if d := Depth("Food/Market/Fruit"); d != 3 {
			t.Errorf("expected depth 3, got %d", d)
		}
		if d := Depth("Food"); d != 1 {
			t.Errorf("expected depth 1, got %d", d)
		}
	})

	t.Run("blank_path_is_zero", func(t *testing.T) {
		if d := Depth(""); d != 0 {
			t.Errorf("expected depth 0, got %d", d)
		}
		if d := Depth("   "); d != 0 {
			t.Errorf("expected depth 0 for whitespace, got %d", d)
		}
	})

	t.Run("ignores_doubled_separators", func(t *testing.T) {
		if d := Depth("Food//Market/"); d != 2 {
			t.Errorf("expected depth 2, got %d", d)
		}
	})
}

func TestChildPath(t *testing.T) {
	if p := ChildPath("", "Food"); p != "Food" {
		t.Errorf("expected root path Food, got %q", p)
	}
	if p := ChildPath("Food", "Market"); p != "Food/Market" {
		t.Errorf("expected Food/Market, got %q", p)
	}
}

func TestLastSegmentAndPrefix(t *testing.T) {
	if s := LastSegment("Food/Market"); s != "Market" {
		t.Errorf("expected Market, got %q", s)
	}
	if s := LastSegment("Food"); s != "Food" {
		t.Errorf("expected Food, got %q", s)
	}
	if p := PrefixOf("Food/Market"); p != "Food/" {
		t.Errorf("expected Food/, got %q", p)
	}
	if p := PrefixOf("Food"); p != "" {
		t.Errorf("expected empty prefix for root, got %q", p)
	}
}

func TestIsDescendantOrSelf(t *testing.T) {
	t.Run("self", func(t *testing.T) {
		if !IsDescendantOrSelf("A", "A") {
			t.Error("a path is its own descendant-or-self")
		}
	})

	t.Run("descendant", func(t *testing.T) {
		if !IsDescendantOrSelf("A", "A/B/C") {
			t.Error("A/B/C should be under A")
		}
	})

	t.Run("shared_name_prefix_is_not_descendant", func(t *testing.T) {
		if IsDescendantOrSelf("Food", "Foodstuff/Bread") {
			t.Error("Foodstuff is a sibling of Food, not a child")
		}
	})
}

func TestRebase(t *testing.T) {
	if p := Rebase("Food/Market/Fruit", "Food/", "Meals/"); p != "Meals/Market/Fruit" {
		t.Errorf("expected Meals/Market/Fruit, got %q", p)
	}
	if p := Rebase("Travel/Bus", "Food/", "Meals/"); p != "Travel/Bus" {
		t.Errorf("unrelated path should not change, got %q", p)
	}
}

func TestComparePaths(t *testing.T) {
	paths := []string{"Food Court", "Food/Market", "Bills", "Food", "Bills/Power", "Food/Bakery"}
	slices.SortFunc(paths, ComparePaths)

	want := []string{"Bills", "Bills/Power", "Food", "Food/Bakery", "Food/Market", "Food Court"}
	if !slices.Equal(paths, want) {
		t.Errorf("expected pre-order %v, got %v", want, paths)
	}
}

func TestRuneLen(t *testing.T) {
	if n := RuneLen("Alimentação/"); n != 12 {
		t.Errorf("expected 12 characters, got %d", n)
	}
}
