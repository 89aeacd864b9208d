package matcher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dogbot/pkg/models"
)

type fakeRoster struct {
	walkers []*models.WalkerProfile
	err     error
	calls   int
}

func (f *fakeRoster) ListApproved(context.Context) ([]*models.WalkerProfile, error) {
	f.calls++
	return f.walkers, f.err
}

func walkers() []*models.WalkerProfile {
	return []*models.WalkerProfile{
		{WalkerID: 1, Areas: "Центр, Купчино", IsApproved: true},
		{WalkerID: 2, Areas: "Петроградка", IsApproved: true},
		{WalkerID: 3, Areas: "купчино-2, Васильевский", IsApproved: true},
	}
}

func TestSubstringMatch(t *testing.T) {
	ctx := context.Background()
	m := NewSubstring()
	roster := walkers()[:2]

	ids, err := m.Match(ctx, "Купчино", roster)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)

	ids, err = m.Match(ctx, "  ПЕТРОГРАДКА ", roster)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids)

	ids, err = m.Match(ctx, "Автово", roster)
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = m.Match(ctx, "   ", roster)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSubstringIsCaseInsensitiveForCyrillic(t *testing.T) {
	ids, err := NewSubstring().Match(context.Background(), "КУПЧИНО", walkers())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids)
}

func TestRecipientsFallback(t *testing.T) {
	ctx := context.Background()
	r := &fakeRoster{walkers: walkers()}

	ids, fallback, err := Recipients(ctx, NewSubstring(), r, "Петроградка")
	require.NoError(t, err)
	assert.False(t, fallback)
	assert.Equal(t, []int64{2}, ids)

	ids, fallback, err = Recipients(ctx, NewSubstring(), r, "Автово")
	require.NoError(t, err)
	assert.True(t, fallback)
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestRecipientsReadsRosterOnce(t *testing.T) {
	r := &fakeRoster{walkers: walkers()}
	_, fallback, err := Recipients(context.Background(), NewSubstring(), r, "Автово")
	require.NoError(t, err)
	assert.True(t, fallback)
	assert.Equal(t, 1, r.calls)
}

type failingMatcher struct{ err error }

func (f failingMatcher) Match(context.Context, string, []*models.WalkerProfile) ([]int64, error) {
	return nil, f.err
}

func TestRecipientsErrors(t *testing.T) {
	boom := errors.New("db down")
	_, _, err := Recipients(context.Background(), NewSubstring(), &fakeRoster{err: boom}, "Центр")
	assert.ErrorIs(t, err, boom)

	geo := errors.New("geo lookup failed")
	_, _, err = Recipients(context.Background(), failingMatcher{err: geo}, &fakeRoster{walkers: walkers()}, "Центр")
	assert.ErrorIs(t, err, geo)
}
