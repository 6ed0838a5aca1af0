package memstore

import (
	"context"
	"sort"

	"github.com/xiebiao/storefront/internal/domain/rating"
)

// RatingRepo 实现rating.Repository
type RatingRepo struct{ s *Store }

// Ratings 评分仓储
func (s *Store) Ratings() *RatingRepo { return &RatingRepo{s: s} }

func (r *RatingRepo) Upsert(ctx context.Context, in *rating.Rating) (*rating.Rating, error) {
	var out rating.Rating
	err := r.s.write(ctx, OpRatingUpsert, func(d *state) error {
		key := ratingKey{in.UserID, in.ProductID}
		now := r.s.now()
		existing, ok := d.ratings[key]
		if ok {
			existing.Score = in.Score
			existing.Review = in.Review
			existing.UpdatedAt = now
		} else {
			existing = *in
			existing.ID = d.nextID()
			existing.CreatedAt = now
			existing.UpdatedAt = now
		}
		d.ratings[key] = existing
		out = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *RatingRepo) FindByUserAndProduct(ctx context.Context, userID, productID uint) (*rating.Rating, error) {
	var out rating.Rating
	err := r.s.read("", func(d *state) error {
		v, ok := d.ratings[ratingKey{userID, productID}]
		if !ok {
			return rating.ErrRatingNotFound
		}
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *RatingRepo) Delete(ctx context.Context, userID, productID uint) error {
	return r.s.write(ctx, OpRatingDelete, func(d *state) error {
		key := ratingKey{userID, productID}
		if _, ok := d.ratings[key]; !ok {
			return rating.ErrRatingNotFound
		}
		delete(d.ratings, key)
		return nil
	})
}

func (r *RatingRepo) ScoresByProduct(ctx context.Context, productID uint) ([]int, error) {
	var scores []int
	err := r.s.read(OpRatingScoresByProduct, func(d *state) error {
		for k, v := range d.ratings {
			if k.productID == productID {
				scores = append(scores, v.Score)
			}
		}
		return nil
	})
	return scores, err
}

func (r *RatingRepo) ListByProduct(ctx context.Context, productID uint, page, pageSize int) ([]*rating.Rating, int64, error) {
	return r.list(page, pageSize, func(k ratingKey) bool { return k.productID == productID })
}

func (r *RatingRepo) ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]*rating.Rating, int64, error) {
	return r.list(page, pageSize, func(k ratingKey) bool { return k.userID == userID })
}

func (r *RatingRepo) list(page, pageSize int, keep func(ratingKey) bool) ([]*rating.Rating, int64, error) {
	var matched []rating.Rating
	_ = r.s.read("", func(d *state) error {
		for k, v := range d.ratings {
			if keep(k) {
				matched = append(matched, v)
			}
		}
		return nil
	})

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	start, end := paginate(len(matched), page, pageSize)
	out := make([]*rating.Rating, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, &matched[i])
	}
	return out, int64(len(matched)), nil
}
