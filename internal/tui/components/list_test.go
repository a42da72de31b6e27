package components

import "testing"

func TestListCursorStaysInRange(t *testing.T) {
	l := NewList()
	l.SetHeight(5)
	l.SetCount(20)

	l.HandleKey("G")
	if l.Cursor() != 19 {
		t.Fatalf("Cursor() = %d after G, want 19", l.Cursor())
	}
	if start, end := l.Window(); start != 15 || end != 20 {
		t.Errorf("Window() = %d,%d, want 15,20", start, end)
	}

	l.SetCount(3)
	if l.Cursor() != 2 {
		t.Errorf("Cursor() = %d after shrink, want 2", l.Cursor())
	}
	if start, end := l.Window(); start != 0 || end != 3 {
		t.Errorf("Window() = %d,%d after shrink, want 0,3", start, end)
	}

	l.HandleKey("k")
	l.HandleKey("k")
	l.HandleKey("k")
	if l.Cursor() != 0 {
		t.Errorf("Cursor() = %d, want 0", l.Cursor())
	}
}

func TestListPaging(t *testing.T) {
	l := NewList()
	l.SetHeight(10)
	l.SetCount(100)

	tests := []struct {
		key  string
		want int
	}{
		{"ctrl+d", 5},
		{"pgdown", 15},
		{"j", 16},
		{"ctrl+u", 11},
		{"pgup", 1},
		{"g", 0},
		{"end", 99},
	}
	for _, tt := range tests {
		if !l.HandleKey(tt.key) {
			t.Fatalf("HandleKey(%q) not handled", tt.key)
		}
		if l.Cursor() != tt.want {
			t.Errorf("after %q Cursor() = %d, want %d", tt.key, l.Cursor(), tt.want)
		}
	}
	if l.HandleKey("x") {
		t.Error("HandleKey(x) reported a movement")
	}
}

func TestListEmpty(t *testing.T) {
	l := NewList()
	l.HandleKey("j")
	if l.Cursor() != 0 {
		t.Errorf("Cursor() = %d on empty list", l.Cursor())
	}
	if start, end := l.Window(); start != 0 || end != 0 {
		t.Errorf("Window() = %d,%d on empty list", start, end)
	}
}

func TestListFilterQueryOnlyWhileActive(t *testing.T) {
	l := NewList()
	l.StartFilter()
	l.filterInput.SetValue("heat")
	if l.FilterQuery() != "heat" || !l.FilterTyping() {
		t.Fatalf("FilterQuery() = %q typing=%v", l.FilterQuery(), l.FilterTyping())
	}
	l.ClearFilter()
	if l.FilterQuery() != "" || l.FilterActive() {
		t.Errorf("filter still active after clear")
	}
}
