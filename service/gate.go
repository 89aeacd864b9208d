package service

import "sort"

// gate is the fixed admin allow-list read at startup.
type gate struct {
	admins map[int64]struct{}
}

func newGate(ids []int64) *gate {
	g := &gate{admins: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		g.admins[id] = struct{}{}
	}
	return g
}

func (g *gate) isAdmin(id int64) bool {
	_, ok := g.admins[id]
	return ok
}

func (g *gate) check(id int64) error {
	if !g.isAdmin(id) {
		return ErrForbidden
	}
	return nil
}

func (g *gate) ids() []int64 {
	out := make([]int64, 0, len(g.admins))
	for id := range g.admins {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
