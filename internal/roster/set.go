package roster

import "sort"

// Set хранит множество идентификаторов оценщиков без порядка.
type Set map[EvaluatorID]struct{}

// NewSet строит множество из списка, дубли схлопываются.
func NewSet(ids ...EvaluatorID) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has сообщает, входит ли id во множество.
func (s Set) Has(id EvaluatorID) bool {
	_, ok := s[id]
	return ok
}

// Len возвращает мощность множества.
func (s Set) Len() int {
	return len(s)
}

// Add добавляет идентификатор.
func (s Set) Add(id EvaluatorID) {
	s[id] = struct{}{}
}

// Remove удаляет идентификатор.
func (s Set) Remove(id EvaluatorID) {
	delete(s, id)
}

// Clone возвращает независимую копию.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Minus возвращает s \ other.
func (s Set) Minus(other Set) Set {
	out := make(Set)
	for id := range s {
		if !other.Has(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

// Union возвращает s ∪ other.
func (s Set) Union(other Set) Set {
	out := s.Clone()
	for id := range other {
		out[id] = struct{}{}
	}
	return out
}

// Equal сравнивает множества поэлементно.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if !other.Has(id) {
			return false
		}
	}
	return true
}

// Sorted возвращает элементы по возрастанию.
func (s Set) Sorted() []EvaluatorID {
	out := make([]EvaluatorID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
