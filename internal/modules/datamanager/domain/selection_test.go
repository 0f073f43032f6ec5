package domain

import (
	"reflect"
	"testing"
)

func TestSelection_ToggleIsAnInvolution(t *testing.T) {
	t.Parallel()

	selection := NewSelection()
	selection.Toggle(4)
	selection.Toggle(2)
	selection.Toggle(4)

	if got := selection.IDs(); !reflect.DeepEqual(got, []int64{2}) {
		t.Fatalf("expected [2], got %v", got)
	}
	if selection.Contains(4) {
		t.Fatal("expected 4 to be unselected")
	}
}

func TestSelection_TogglePage(t *testing.T) {
	t.Parallel()

	selection := NewSelection()
	selection.Toggle(99)
	page := []int64{1, 2, 3}

	selection.Toggle(2)
	selection.TogglePage(page)
	if got := selection.IDs(); !reflect.DeepEqual(got, []int64{1, 2, 3, 99}) {
		t.Fatalf("expected partial page to be completed, got %v", got)
	}

	selection.TogglePage(page)
	if got := selection.IDs(); !reflect.DeepEqual(got, []int64{99}) {
		t.Fatalf("expected page to be cleared and other ids kept, got %v", got)
	}
}

func TestSelection_EmptyPage(t *testing.T) {
	t.Parallel()

	selection := NewSelection()
	selection.TogglePage(nil)
	if selection.Len() != 0 {
		t.Fatalf("expected empty selection, got %v", selection.IDs())
	}
	if selection.ContainsAll(nil) {
		t.Fatal("an empty page is never all selected")
	}
}

func TestSelection_Clear(t *testing.T) {
	t.Parallel()

	selection := NewSelection()
	selection.TogglePage([]int64{5, 6})
	selection.Clear()
	if selection.Len() != 0 {
		t.Fatalf("expected cleared selection, got %v", selection.IDs())
	}
}
