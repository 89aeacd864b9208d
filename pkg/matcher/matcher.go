// Package matcher picks the walkers an order is broadcast to.
package matcher

import (
	"context"
	"strings"

	"dogbot/pkg/models"
)

// Matcher picks the walkers in roster that serve area. roster holds the
// approved walkers only.
type Matcher interface {
	Match(ctx context.Context, area string, roster []*models.WalkerProfile) ([]int64, error)
}

// Roster lists every approved walker. It is the fallback audience when a
// Matcher finds nobody.
type Roster interface {
	ListApproved(ctx context.Context) ([]*models.WalkerProfile, error)
}

// Substring matches when the walker's free-text areas contain the order
// area, ignoring case. Comparison is done in Go so Cyrillic folds correctly
// on every storage backend.
type Substring struct{}

func NewSubstring() *Substring {
	return &Substring{}
}

func (m *Substring) Match(_ context.Context, area string, roster []*models.WalkerProfile) ([]int64, error) {
	needle := strings.ToLower(strings.TrimSpace(area))
	if needle == "" {
		return nil, nil
	}
	var ids []int64
	for _, w := range roster {
		if strings.Contains(strings.ToLower(w.Areas), needle) {
			ids = append(ids, w.WalkerID)
		}
	}
	return ids, nil
}

// Recipients returns the matched walkers or, when nobody matches, the whole
// approved roster. The roster is read once so the match and the fallback see
// the same walkers. fallback reports which of the two was used.
func Recipients(ctx context.Context, m Matcher, roster Roster, area string) (ids []int64, fallback bool, err error) {
	walkers, err := roster.ListApproved(ctx)
	if err != nil {
		return nil, false, err
	}
	ids, err = m.Match(ctx, area, walkers)
	if err != nil {
		return nil, false, err
	}
	if len(ids) > 0 {
		return ids, false, nil
	}
	ids = make([]int64, 0, len(walkers))
	for _, w := range walkers {
		ids = append(ids, w.WalkerID)
	}
	return ids, true, nil
}
