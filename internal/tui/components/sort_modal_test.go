package components

import (
	"testing"

	"github.com/mmcdole/arrdeck/internal/library"
)

func TestSortModalSelectsField(t *testing.T) {
	m := NewSortModal()
	m.Show(library.MovieSortOptions(), library.NewSort(library.SortTitle))

	m.HandleKey("j") // Year
	handled, spec := m.HandleKey("enter")
	if !handled || spec == nil {
		t.Fatal("enter did not confirm")
	}
	if spec.Field != library.SortYear || spec.Direction != library.DefaultDirection(library.SortYear) {
		t.Errorf("selection = %+v", *spec)
	}
	if m.IsVisible() {
		t.Error("modal still visible")
	}
}

func TestSortModalTogglesActiveDirection(t *testing.T) {
	m := NewSortModal()
	m.Show(library.MovieSortOptions(), library.SortSpec{Field: library.SortSize, Direction: library.SortDesc})

	_, spec := m.HandleKey("enter")
	if spec == nil || spec.Field != library.SortSize || spec.Direction != library.SortAsc {
		t.Errorf("selection = %+v, want size ascending", spec)
	}
}

func TestSortModalConsumesKeys(t *testing.T) {
	m := NewSortModal()
	if handled, _ := m.HandleKey("j"); handled {
		t.Error("hidden modal handled a key")
	}

	m.Show(library.SeriesSortOptions(), library.NewSort(library.SortTitle))
	if handled, spec := m.HandleKey("q"); !handled || spec != nil {
		t.Errorf("HandleKey(q) = %v, %v", handled, spec)
	}
	if handled, spec := m.HandleKey("esc"); !handled || spec != nil || m.IsVisible() {
		t.Errorf("esc did not dismiss")
	}
}
