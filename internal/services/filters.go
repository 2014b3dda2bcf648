package services

import (
	"math"
	"sort"

	"github.com/kindlr/kindlr/internal/config"
	"github.com/kindlr/kindlr/internal/store"
	"github.com/kindlr/kindlr/pkg/models"
)

// Filter kinds. Dealbreakers exclude; preference and ranking filters shape
// ordering downstream and never remove candidates here.
const (
	FilterKindDealbreaker = "Dealbreaker"
	FilterKindPreference  = "Preference"
	FilterKindRanking     = "Ranking"
)

// FilterContext bundles everything a filter may consult. SwipedIDs and
// BlockedIDs come from the swipe and safety services before the pipeline
// runs; filters never call out themselves.
type FilterContext struct {
	Requester  *models.Profile
	SwipedIDs  []int64
	BlockedIDs []int64
	Options    *config.CandidatesConfig
}

// CandidateFilter extends the candidate query in place. Apply must only
// append store-side predicates; enumerating rows inside a filter is a bug.
type CandidateFilter interface {
	Name() string
	Order() int
	Kind() string
	Apply(q *store.CandidateQuery, fc *FilterContext) *store.CandidateQuery
}

// FilterPipeline composes registered filters sorted once by ascending order
// and materializes the result with a single limited query.
type FilterPipeline struct {
	filters []CandidateFilter
}

func NewFilterPipeline(filters ...CandidateFilter) *FilterPipeline {
	sorted := make([]CandidateFilter, len(filters))
	copy(sorted, filters)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order() < sorted[j].Order() })
	return &FilterPipeline{filters: sorted}
}

// DefaultFilters returns the full pipeline in registration order.
func DefaultFilters() []CandidateFilter {
	return []CandidateFilter{
		SelfExclusionFilter{},
		ActiveFilter{},
		GenderFilter{},
		AgeRangeFilter{},
		ExcludeSwipedFilter{},
		ExcludeBlockedFilter{},
		DistanceFilter{},
	}
}

// Compose builds the query without executing it.
func (p *FilterPipeline) Compose(fc *FilterContext, limit int) *store.CandidateQuery {
	q := store.NewCandidateQuery()
	for _, f := range p.filters {
		q = f.Apply(q, fc)
	}
	return q.Limit(limit)
}

// Trace reports the execution order for observability.
func (p *FilterPipeline) Trace() []models.FilterTrace {
	trace := make([]models.FilterTrace, 0, len(p.filters))
	for _, f := range p.filters {
		trace = append(trace, models.FilterTrace{Name: f.Name(), Kind: f.Kind(), Order: f.Order()})
	}
	return trace
}

type SelfExclusionFilter struct{}

func (SelfExclusionFilter) Name() string { return "self_exclusion" }
func (SelfExclusionFilter) Order() int   { return 0 }
func (SelfExclusionFilter) Kind() string { return FilterKindDealbreaker }
func (SelfExclusionFilter) Apply(q *store.CandidateQuery, fc *FilterContext) *store.CandidateQuery {
	return q.Where("p.user_id <> ?", fc.Requester.UserID)
}

type ActiveFilter struct{}

func (ActiveFilter) Name() string { return "active" }
func (ActiveFilter) Order() int   { return 10 }
func (ActiveFilter) Kind() string { return FilterKindDealbreaker }
func (ActiveFilter) Apply(q *store.CandidateQuery, fc *FilterContext) *store.CandidateQuery {
	return q.Where("p.is_active = true")
}

// GenderFilter is bidirectional: the requester's preference must admit the
// candidate AND the candidate's preference must admit the requester. An
// "everyone" synonym on either side relaxes that side.
type GenderFilter struct{}

func (GenderFilter) Name() string { return "gender" }
func (GenderFilter) Order() int   { return 20 }
func (GenderFilter) Kind() string { return FilterKindDealbreaker }
func (GenderFilter) Apply(q *store.CandidateQuery, fc *FilterContext) *store.CandidateQuery {
	r := fc.Requester
	if !r.WantsEveryone() {
		q = q.Where("p.gender = ?", r.PreferredGender)
	}
	return q.Where(
		"(p.preferred_gender = ? OR p.preferred_gender IN ('Everyone', 'All', 'Any', ''))",
		r.Gender)
}

// AgeRangeFilter is bidirectional: the candidate must be inside the
// requester's range and vice versa.
type AgeRangeFilter struct{}

func (AgeRangeFilter) Name() string { return "age_range" }
func (AgeRangeFilter) Order() int   { return 30 }
func (AgeRangeFilter) Kind() string { return FilterKindDealbreaker }
func (AgeRangeFilter) Apply(q *store.CandidateQuery, fc *FilterContext) *store.CandidateQuery {
	r := fc.Requester
	return q.
		Where("p.age BETWEEN ? AND ?", r.MinAge, r.MaxAge).
		Where("? BETWEEN p.min_age AND p.max_age", r.Age)
}

type ExcludeSwipedFilter struct{}

func (ExcludeSwipedFilter) Name() string { return "exclude_swiped" }
func (ExcludeSwipedFilter) Order() int   { return 40 }
func (ExcludeSwipedFilter) Kind() string { return FilterKindDealbreaker }
func (ExcludeSwipedFilter) Apply(q *store.CandidateQuery, fc *FilterContext) *store.CandidateQuery {
	if len(fc.SwipedIDs) == 0 {
		return q
	}
	return q.Where("p.user_id <> ALL(?)", fc.SwipedIDs)
}

type ExcludeBlockedFilter struct{}

func (ExcludeBlockedFilter) Name() string { return "exclude_blocked" }
func (ExcludeBlockedFilter) Order() int   { return 50 }
func (ExcludeBlockedFilter) Kind() string { return FilterKindDealbreaker }
func (ExcludeBlockedFilter) Apply(q *store.CandidateQuery, fc *FilterContext) *store.CandidateQuery {
	if len(fc.BlockedIDs) == 0 {
		return q
	}
	return q.Where("p.user_id <> ALL(?)", fc.BlockedIDs)
}

// DistanceFilter restricts to a lat/lon bounding box derived from the
// requester's max distance. Exact haversine ranking happens later in the
// scorer; the box keeps the predicate store-side and index-friendly.
type DistanceFilter struct{}

func (DistanceFilter) Name() string { return "distance" }
func (DistanceFilter) Order() int   { return 60 }
func (DistanceFilter) Kind() string { return FilterKindDealbreaker }
func (DistanceFilter) Apply(q *store.CandidateQuery, fc *FilterContext) *store.CandidateQuery {
	r := fc.Requester
	if r.MaxDistanceKm <= 0 {
		return q
	}
	latDelta := r.MaxDistanceKm / 111.0
	lonDelta := r.MaxDistanceKm / (111.0 * math.Cos(r.Latitude*math.Pi/180.0))
	return q.
		Where("p.latitude BETWEEN ? AND ?", r.Latitude-latDelta, r.Latitude+latDelta).
		Where("p.longitude BETWEEN ? AND ?", r.Longitude-lonDelta, r.Longitude+lonDelta)
}
