package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"voyago/internal/cache"
	"voyago/internal/domain/bookings"
	"voyago/internal/domain/reviews"
	"voyago/internal/stats"
)

const (
	cachePrefix = "dashboard:"

	// DefaultTop is the length of the ranked lists on the overview.
	DefaultTop = 5
	// RecentLimit is how many of the newest bookings the overview shows.
	RecentLimit = 5
)

// RecentBookings is the slice of bookings.Store the overview needs.
type RecentBookings interface {
	Recent(ctx context.Context, limit int) ([]bookings.Booking, error)
}

// ReviewSummary is the slice of reviews.Store the review statistics need.
type ReviewSummary interface {
	Stats(ctx context.Context) (*reviews.Stats, error)
}

// NameLookup resolves display names for a set of ids; unknown ids are absent
// from the result.
type NameLookup interface {
	Names(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

// Names holds the lookups used to label ranked destinations and guides.
type Names struct {
	Destinations NameLookup
	Guides       NameLookup
}

// Service assembles dashboard payloads from concurrent aggregate queries
// and caches them for a short time.
type Service struct {
	store   Store
	recent  RecentBookings
	reviews ReviewSummary
	names   Names
	cache   cache.Cache
	ttl     time.Duration
	logger  *zap.SugaredLogger
	now     func() time.Time
}

func NewService(store Store, recent RecentBookings, rs ReviewSummary, names Names, c cache.Cache, ttl time.Duration, logger *zap.SugaredLogger) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	return &Service{
		store:   store,
		recent:  recent,
		reviews: rs,
		names:   names,
		cache:   c,
		ttl:     ttl,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Now is the service clock.
func (s *Service) Now() time.Time {
	return s.now()
}

// cached serves key from the cache or computes, stores and returns it.
// Cache errors are logged and otherwise ignored.
func cached[T any](ctx context.Context, s *Service, key string, compute func(ctx context.Context) (*T, error)) (*T, error) {
	var hit T
	found, err := s.cache.Get(ctx, cachePrefix+key, &hit)
	if err != nil {
		s.logger.Warnw("stats cache read failed", "key", key, "error", err)
	}
	if found {
		return &hit, nil
	}

	v, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cachePrefix+key, v, s.ttl); err != nil {
		s.logger.Warnw("stats cache write failed", "key", key, "error", err)
	}
	return v, nil
}

// Invalidate drops every cached dashboard payload. It is called after writes
// to bookings, destinations, guides and reviews.
func (s *Service) Invalidate(ctx context.Context) {
	if err := s.cache.DeletePrefix(ctx, cachePrefix); err != nil {
		s.logger.Warnw("stats cache invalidation failed", "error", err)
	}
}

func (s *Service) Overview(ctx context.Context, year int) (*Overview, error) {
	return cached(ctx, s, fmt.Sprintf("overview:%d", year), func(ctx context.Context) (*Overview, error) {
		return s.overview(ctx, year)
	})
}

func (s *Service) overview(ctx context.Context, year int) (*Overview, error) {
	cur, prev := stats.MonthBounds(s.now())
	next := cur.AddDate(0, 1, 0)

	var (
		totals            BookingTotals
		current, previous PeriodTotals
		byStatus          map[string]int64
		destCounts        []stats.GroupCount
		guideCounts       []stats.GroupCount
		monthly           []stats.MonthBucket
		dests, guides     []stats.RatedItem
		reviewCount       int64
		recent            []bookings.Booking
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { totals, err = s.store.BookingTotals(gctx); return })
	g.Go(func() (err error) { current, err = s.store.PeriodTotals(gctx, cur, next); return })
	g.Go(func() (err error) { previous, err = s.store.PeriodTotals(gctx, prev, cur); return })
	g.Go(func() (err error) { byStatus, err = s.store.StatusCounts(gctx); return })
	g.Go(func() (err error) { destCounts, err = s.store.DestinationCounts(gctx); return })
	g.Go(func() (err error) { guideCounts, err = s.store.GuideCounts(gctx); return })
	g.Go(func() (err error) { monthly, err = s.store.Monthly(gctx, year); return })
	g.Go(func() (err error) { dests, err = s.store.Destinations(gctx); return })
	g.Go(func() (err error) { guides, err = s.store.Guides(gctx); return })
	g.Go(func() (err error) { reviewCount, err = s.store.ReviewCount(gctx); return })
	g.Go(func() (err error) { recent, err = s.recent.Recent(gctx, RecentLimit); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	destSummary := stats.Summarize(dests)
	guideSummary := stats.Summarize(guides)

	if recent == nil {
		recent = []bookings.Booking{}
	}

	return &Overview{
		Totals: Totals{
			Bookings:             totals.Bookings,
			PendingBookings:      totals.Pending,
			Destinations:         destSummary.Total,
			FeaturedDestinations: destSummary.Flagged,
			Guides:               guideSummary.Total,
			AvailableGuides:      guideSummary.Flagged,
			Reviews:              reviewCount,
			Revenue:              stats.Round(totals.Revenue, 2),
			Travelers:            totals.Travelers,
		},
		Averages: Averages{
			DestinationRating: destSummary.AverageRating,
			GuideRating:       guideSummary.AverageRating,
			BookingValue:      stats.Round(stats.SafeDiv(totals.Revenue, float64(totals.Paid)), 2),
		},
		Growth:          growthOf(current, previous),
		ByStatus:        stats.ZeroFill(byStatus, bookings.Statuses),
		TopDestinations: stats.TopN(destCounts, DefaultTop, stats.Names(dests)),
		TopGuides:       stats.TopN(guideCounts, DefaultTop, stats.Names(guides)),
		Year:            year,
		Monthly:         stats.MonthlySeries(monthly),
		RecentBookings:  recent,
		GeneratedAt:     s.now(),
	}, nil
}

func growthOf(current, previous PeriodTotals) Growth {
	return Growth{
		Bookings:  stats.GrowthRate(float64(current.Bookings), float64(previous.Bookings)),
		Revenue:   stats.GrowthRate(current.Revenue, previous.Revenue),
		Travelers: stats.GrowthRate(float64(current.Travelers), float64(previous.Travelers)),
	}
}

// BookingStats is the booking page summary for the given chart year.
func (s *Service) BookingStats(ctx context.Context, year int) (*BookingStats, error) {
	return cached(ctx, s, fmt.Sprintf("bookings:%d", year), func(ctx context.Context) (*BookingStats, error) {
		cur, prev := stats.MonthBounds(s.now())
		next := cur.AddDate(0, 1, 0)

		var (
			totals            BookingTotals
			current, previous PeriodTotals
			byStatus          map[string]int64
			destCounts        []stats.GroupCount
			guideCounts       []stats.GroupCount
			monthly           []stats.MonthBucket
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) { totals, err = s.store.BookingTotals(gctx); return })
		g.Go(func() (err error) { current, err = s.store.PeriodTotals(gctx, cur, next); return })
		g.Go(func() (err error) { previous, err = s.store.PeriodTotals(gctx, prev, cur); return })
		g.Go(func() (err error) { byStatus, err = s.store.StatusCounts(gctx); return })
		g.Go(func() (err error) { destCounts, err = s.store.DestinationCounts(gctx); return })
		g.Go(func() (err error) { guideCounts, err = s.store.GuideCounts(gctx); return })
		g.Go(func() (err error) { monthly, err = s.store.Monthly(gctx, year); return })
		if err := g.Wait(); err != nil {
			return nil, err
		}

		var topDests, topGuides []stats.Ranked
		g, gctx = errgroup.WithContext(ctx)
		g.Go(func() (err error) { topDests, err = rank(gctx, destCounts, DefaultTop, s.names.Destinations); return })
		g.Go(func() (err error) { topGuides, err = rank(gctx, guideCounts, DefaultTop, s.names.Guides); return })
		if err := g.Wait(); err != nil {
			return nil, err
		}

		return &BookingStats{
			Total:           totals.Bookings,
			Revenue:         stats.Round(totals.Revenue, 2),
			Travelers:       totals.Travelers,
			AverageValue:    stats.Round(stats.SafeDiv(totals.Revenue, float64(totals.Paid)), 2),
			ByStatus:        stats.ZeroFill(byStatus, bookings.Statuses),
			Growth:          growthOf(current, previous),
			Year:            year,
			Monthly:         stats.MonthlySeries(monthly),
			TopDestinations: topDests,
			TopGuides:       topGuides,
		}, nil
	})
}

// rank picks the top n groups and names only those.
func rank(ctx context.Context, counts []stats.GroupCount, n int, lookup NameLookup) ([]stats.Ranked, error) {
	top := stats.TopN(counts, n, nil)
	if lookup == nil || len(top) == 0 {
		return top, nil
	}

	ids := make([]uuid.UUID, len(top))
	for i, r := range top {
		ids[i] = r.ID
	}
	names, err := lookup.Names(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("rank names: %w", err)
	}
	return stats.TopN(counts, n, names), nil
}

// DestinationStats summarises the catalogue and ranks the top destinations
// by bookings.
func (s *Service) DestinationStats(ctx context.Context, top int) (*DestinationStats, error) {
	return cached(ctx, s, fmt.Sprintf("destinations:%d", top), func(ctx context.Context) (*DestinationStats, error) {
		items, counts, err := s.catalog(ctx, s.store.Destinations, s.store.DestinationCounts)
		if err != nil {
			return nil, err
		}
		sum := stats.Summarize(items)
		return &DestinationStats{
			Total:         sum.Total,
			Featured:      sum.Flagged,
			AverageRating: sum.AverageRating,
			TopByBookings: stats.TopN(counts, top, stats.Names(items)),
		}, nil
	})
}

func (s *Service) GuideStats(ctx context.Context, top int) (*GuideStats, error) {
	return cached(ctx, s, fmt.Sprintf("guides:%d", top), func(ctx context.Context) (*GuideStats, error) {
		items, counts, err := s.catalog(ctx, s.store.Guides, s.store.GuideCounts)
		if err != nil {
			return nil, err
		}
		sum := stats.Summarize(items)
		return &GuideStats{
			Total:         sum.Total,
			Available:     sum.Flagged,
			AverageRating: sum.AverageRating,
			TopByBookings: stats.TopN(counts, top, stats.Names(items)),
		}, nil
	})
}

func (s *Service) catalog(
	ctx context.Context,
	items func(context.Context) ([]stats.RatedItem, error),
	counts func(context.Context) ([]stats.GroupCount, error),
) ([]stats.RatedItem, []stats.GroupCount, error) {
	var (
		rated  []stats.RatedItem
		groups []stats.GroupCount
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { rated, err = items(gctx); return })
	g.Go(func() (err error) { groups, err = counts(gctx); return })
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return rated, groups, nil
}

func (s *Service) ReviewStats(ctx context.Context) (*ReviewStats, error) {
	return cached(ctx, s, "reviews", func(ctx context.Context) (*ReviewStats, error) {
		return s.reviews.Stats(ctx)
	})
}
