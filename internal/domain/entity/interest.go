package entity

import "sort"

type Interest struct {
	ID       string `json:"id" firestore:"id"`
	Name     string `json:"name" firestore:"name"`
	Category string `json:"category" firestore:"cat"`
}

// NormalizeInterests drops empty and duplicate ids and returns the rest sorted.
func NormalizeInterests(interests []string) []string {
	seen := make(map[string]struct{}, len(interests))
	out := make([]string, 0, len(interests))
	for _, id := range interests {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// SharedInterests returns the sorted intersection of a and b.
func SharedInterests(a, b []string) []string {
	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	shared := make([]string, 0)
	for _, id := range NormalizeInterests(b) {
		if _, ok := set[id]; ok {
			shared = append(shared, id)
		}
	}
	return shared
}

// SameInterests reports whether a and b hold the same set of ids.
func SameInterests(a, b []string) bool {
	na, nb := NormalizeInterests(a), NormalizeInterests(b)
	if len(na) != len(nb) {
		return false
	}
	for i := range na {
		if na[i] != nb[i] {
			return false
		}
	}
	return true
}
