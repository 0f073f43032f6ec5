package domain

import "sort"

// Selection is the set of ids checked for a bulk action. It is never pruned against the
// current data, so it may hold ids that no longer exist.
type Selection struct {
	ids map[int64]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[int64]struct{})}
}

// Toggle flips the membership of one id.
func (s *Selection) Toggle(id int64) {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return
	}
	s.ids[id] = struct{}{}
}

// TogglePage removes every id of the visible page when all are already selected and
// adds them otherwise. Ids of other pages are left alone.
func (s *Selection) TogglePage(pageIDs []int64) {
	if len(pageIDs) == 0 {
		return
	}
	if s.ContainsAll(pageIDs) {
		for _, id := range pageIDs {
			delete(s.ids, id)
		}
		return
	}
	for _, id := range pageIDs {
		s.ids[id] = struct{}{}
	}
}

// ContainsAll reports whether every id is selected. An empty list is never "all selected".
func (s *Selection) ContainsAll(ids []int64) bool {
	if len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		if _, ok := s.ids[id]; !ok {
			return false
		}
	}
	return true
}

func (s *Selection) Contains(id int64) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Selection) Clear() {
	s.ids = make(map[int64]struct{})
}

func (s *Selection) Len() int {
	return len(s.ids)
}

// IDs returns the selected ids in ascending order.
func (s *Selection) IDs() []int64 {
	ids := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
