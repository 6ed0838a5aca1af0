package rating

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRatingRange(t *testing.T) {
	for _, score := range []int{1, 3, 5} {
		r, err := NewRating(1, 2, score, "  不错  ")
		require.NoError(t, err)
		assert.Equal(t, score, r.Score)
		assert.Equal(t, "不错", r.Review)
	}

	for _, score := range []int{-1, 0, 6} {
		_, err := NewRating(1, 2, score, "")
		assert.ErrorIs(t, err, ErrInvalidRating, "score=%d", score)
	}

	_, err := NewRating(1, 2, 4, strings.Repeat("好", MaxReviewLength+1))
	assert.ErrorIs(t, err, ErrReviewTooLong)
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 5.0, Mean([]int{5}))
	assert.InDelta(t, 3.6667, Mean([]int{5, 3, 3}), 1e-4)
}

func TestSummarize(t *testing.T) {
	s := Summarize(9, []int{5, 5, 1})
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 11.0/3, s.AverageRating, 1e-9)
	assert.Equal(t, map[int]int{1: 1, 2: 0, 3: 0, 4: 0, 5: 2}, s.Distribution)

	empty := Summarize(9, nil)
	assert.Zero(t, empty.AverageRating)
	assert.Len(t, empty.Distribution, 5)
}
