package rating

import (
	"context"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appevent "github.com/xiebiao/storefront/internal/application/event"
	"github.com/xiebiao/storefront/internal/domain/event"
	"github.com/xiebiao/storefront/internal/domain/product"
	"github.com/xiebiao/storefront/internal/domain/rating"
	"github.com/xiebiao/storefront/internal/testutil/memstore"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
	"github.com/xiebiao/storefront/pkg/logger"
	"github.com/xiebiao/storefront/pkg/metrics"
)

func TestMain(m *testing.M) {
	metrics.InitMetrics()
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type fixture struct {
	store  *memstore.Store
	cache  *memstore.SummaryCache
	pub    *memstore.Publisher
	submit *SubmitRatingUseCase
	remove *DeleteRatingUseCase
	query  *QueryUseCase
	pid    uint
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	cache := memstore.NewSummaryCache()
	pub := memstore.NewPublisher()
	dispatcher := appevent.NewDispatcher(pub)

	return &fixture{
		store:  store,
		cache:  cache,
		pub:    pub,
		submit: NewSubmitRatingUseCase(store.Products(), store.Ratings(), cache, store, dispatcher),
		remove: NewDeleteRatingUseCase(store.Products(), store.Ratings(), cache, store, dispatcher),
		query:  NewQueryUseCase(store.Products(), store.Ratings(), cache),
		pid:    store.SeedProduct(product.Product{Name: "蓝牙耳机", Price: 19900, Stock: 10}).ID,
	}
}

func (f *fixture) rate(t *testing.T, userID uint, score int) *RatingView {
	t.Helper()
	v, err := f.submit.Execute(context.Background(), SubmitRatingRequest{UserID: userID, ProductID: f.pid, Rating: score})
	require.NoError(t, err)
	return v
}

func (f *fixture) average(t *testing.T) float64 {
	t.Helper()
	p, err := f.store.Products().FindByID(context.Background(), f.pid)
	require.NoError(t, err)
	return p.AverageRating
}

func TestRateUpdateDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v := f.rate(t, 1, 5)
	assert.Equal(t, 5.0, v.AverageRating)
	assert.Equal(t, 5.0, f.average(t))

	// 同一用户再次提交覆盖旧值,不产生第二条
	v = f.rate(t, 1, 3)
	assert.Equal(t, 3.0, v.AverageRating)
	assert.Len(t, f.store.Snapshot().Ratings, 1)

	f.rate(t, 2, 4)
	assert.Equal(t, 3.5, f.average(t))

	avg, err := f.remove.Execute(ctx, 1, f.pid)
	require.NoError(t, err)
	assert.Equal(t, 4.0, avg)
	assert.Equal(t, 4.0, f.average(t))

	avg, err = f.remove.Execute(ctx, 2, f.pid)
	require.NoError(t, err)
	assert.Equal(t, 0.0, avg)
	assert.Equal(t, 0.0, f.average(t))
}

func TestSubmitSameRatingIsIdempotent(t *testing.T) {
	f := newFixture(t)

	f.rate(t, 1, 4)
	f.rate(t, 2, 2)
	first := f.store.Snapshot()

	f.rate(t, 1, 4)
	second := f.store.Snapshot()

	require.Len(t, second.Ratings, 2)
	assert.Equal(t, first.Ratings[0].Score, second.Ratings[0].Score)
	assert.Equal(t, first.Products[f.pid].AverageRating, second.Products[f.pid].AverageRating)
	assert.Equal(t, 3.0, f.average(t))
}

func TestSubmitRejectsOutOfRange(t *testing.T) {
	f := newFixture(t)
	f.rate(t, 1, 4)
	before := f.store.Snapshot()

	for _, score := range []int{0, 6, -1} {
		_, err := f.submit.Execute(context.Background(), SubmitRatingRequest{UserID: 1, ProductID: f.pid, Rating: score})
		require.ErrorIs(t, err, rating.ErrInvalidRating)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(apperrors.GetAppError(err).Code))
	}
	assert.Equal(t, before, f.store.Snapshot())
}

func TestSubmitUnknownProduct(t *testing.T) {
	f := newFixture(t)

	_, err := f.submit.Execute(context.Background(), SubmitRatingRequest{UserID: 1, ProductID: 999, Rating: 3})
	assert.ErrorIs(t, err, product.ErrProductNotFound)

	deleted := f.store.SeedProduct(product.Product{Name: "停售", Price: 100, Status: product.StatusDeleted}).ID
	_, err = f.submit.Execute(context.Background(), SubmitRatingRequest{UserID: 1, ProductID: deleted, Rating: 3})
	assert.ErrorIs(t, err, product.ErrProductNotFound)
}

func TestDeleteMissingRating(t *testing.T) {
	f := newFixture(t)
	f.rate(t, 1, 5)

	_, err := f.remove.Execute(context.Background(), 2, f.pid)
	assert.ErrorIs(t, err, rating.ErrRatingNotFound)

	_, err = f.remove.Execute(context.Background(), 1, 999)
	assert.ErrorIs(t, err, rating.ErrRatingNotFound)

	assert.Equal(t, 5.0, f.average(t))
}

func TestRecomputeFailureRollsBackUpsert(t *testing.T) {
	f := newFixture(t)
	f.rate(t, 1, 5)
	before := f.store.Snapshot()

	f.store.FailOn(memstore.OpProductUpdateRating, apperrors.ErrDatabaseError)
	_, err := f.submit.Execute(context.Background(), SubmitRatingRequest{UserID: 2, ProductID: f.pid, Rating: 1})
	require.ErrorIs(t, err, apperrors.ErrDatabaseError)
	assert.Equal(t, before, f.store.Snapshot())

	f.store.FailOn(memstore.OpRatingScoresByProduct, apperrors.ErrDatabaseError)
	_, err = f.remove.Execute(context.Background(), 1, f.pid)
	require.Error(t, err)
	assert.Equal(t, before, f.store.Snapshot())
}

func TestConcurrentRatersAggregateCorrectly(t *testing.T) {
	f := newFixture(t)
	scores := []int{5, 4, 3, 5, 1, 2, 4, 4, 5, 3}

	var wg sync.WaitGroup
	for i, s := range scores {
		wg.Add(1)
		go func(uid uint, score int) {
			defer wg.Done()
			_, err := f.submit.Execute(context.Background(), SubmitRatingRequest{UserID: uid, ProductID: f.pid, Rating: score})
			assert.NoError(t, err)
		}(uint(i+1), s)
	}
	wg.Wait()

	assert.InDelta(t, rating.Mean(scores), f.average(t), 1e-9)
}

func TestMutationsInvalidateSummaryAndPublish(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.rate(t, 1, 4)
	page, err := f.query.ListProductRatings(ctx, f.pid, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Summary.Count)
	assert.Equal(t, 4.0, page.Summary.AverageRating)

	f.rate(t, 2, 2)
	page, err = f.query.ListProductRatings(ctx, f.pid, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Summary.Count)
	assert.Equal(t, 3.0, page.Summary.AverageRating)
	assert.Equal(t, 1, page.Summary.Distribution[2])
	assert.Equal(t, int64(2), page.Total)

	_, err = f.remove.Execute(ctx, 2, f.pid)
	require.NoError(t, err)

	assert.Equal(t, []uint{f.pid, f.pid, f.pid}, f.cache.Invalidated())
	assert.Equal(t, []event.Type{event.RatingChanged, event.RatingChanged, event.RatingChanged}, f.pub.Types())

	var payload event.RatingPayload
	require.NoError(t, f.pub.Events()[2].Decode(&payload))
	assert.True(t, payload.Deleted)
	assert.Equal(t, 4.0, payload.AverageRating)
}

func TestListProductRatingsUnknownProduct(t *testing.T) {
	f := newFixture(t)

	_, err := f.query.ListProductRatings(context.Background(), 999, 1, 10)
	assert.ErrorIs(t, err, product.ErrProductNotFound)
}

func TestListMyRatings(t *testing.T) {
	f := newFixture(t)
	other := f.store.SeedProduct(product.Product{Name: "充电器", Price: 4900, Stock: 3}).ID

	f.rate(t, 1, 5)
	_, err := f.submit.Execute(context.Background(), SubmitRatingRequest{UserID: 1, ProductID: other, Rating: 2, Review: "  一般  "})
	require.NoError(t, err)
	f.rate(t, 2, 3)

	mine, err := f.query.ListMyRatings(context.Background(), 1, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), mine.Total)
	assert.Len(t, mine.Ratings, 2)

	var review string
	for _, r := range mine.Ratings {
		if r.ProductID == other {
			review = r.Review
		}
	}
	assert.Equal(t, "一般", review)
}

// scoresHook 在读取分值之后执行一次hook,模拟读与回填之间插入的评分
type scoresHook struct {
	rating.Repository
	once sync.Once
	hook func()
}

func (r *scoresHook) ScoresByProduct(ctx context.Context, productID uint) ([]int, error) {
	scores, err := r.Repository.ScoresByProduct(ctx, productID)
	r.once.Do(r.hook)
	return scores, err
}

func TestSummaryNotPoisonedBySubmitDuringRefill(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.rate(t, 1, 5)

	ratings := &scoresHook{Repository: f.store.Ratings()}
	ratings.hook = func() { f.rate(t, 2, 1) }
	query := NewQueryUseCase(f.store.Products(), ratings, f.cache)

	_, err := query.ListProductRatings(ctx, f.pid, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 3.0, f.average(t))

	page, err := query.ListProductRatings(ctx, f.pid, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 3.0, page.Summary.AverageRating)
	assert.Equal(t, 2, page.Summary.Count)
	assert.Equal(t, int64(2), page.Total)

	cached, ok, err := f.cache.Get(ctx, f.pid)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3.0, cached.AverageRating)
}

func TestStaleCachedSummaryIsRecomputed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.rate(t, 1, 5)
	f.rate(t, 2, 2)

	stale := rating.Summarize(f.pid, []int{5})
	require.NoError(t, f.cache.Set(ctx, &stale))

	page, err := f.query.ListProductRatings(ctx, f.pid, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 3.5, page.Summary.AverageRating)
	assert.Equal(t, 2, page.Summary.Count)
	assert.Equal(t, 1, page.Summary.Distribution[2])
}
