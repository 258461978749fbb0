// Package memory holds map-backed repository implementations used by unit
// tests and the simulator. They interpret the same specification values the
// GORM repositories do, so services can run unchanged against either.
package memory

import (
	"sort"
	"strings"
	"time"

	"ai-conversations-be/internal/repository/specification"

	"github.com/google/uuid"
)

// parsedSpecs is the flattened form of a specification list: equality filters
// keyed by column name, optional ordering and pagination.
type parsedSpecs struct {
	filters   map[string]interface{}
	orderBy   string
	orderDesc bool
	limit     int
	offset    int
	hasLimit  bool
}

func parseSpecs(specs []specification.Specification) parsedSpecs {
	p := parsedSpecs{filters: map[string]interface{}{}}
	for _, s := range specs {
		switch v := s.(type) {
		case specification.ByID:
			p.filters["id"] = v.ID
		case specification.FilterBy:
			p.filters[v.Field] = v.Value
		case specification.ByJobType:
			p.filters["type"] = v.Type
		case specification.ByJobStatus:
			p.filters["status"] = v.Status
		case specification.ByClientId:
			p.filters["client_id"] = v.ClientId
		case specification.ByConversationId:
			p.filters["conversation_id"] = v.ConversationId
		case specification.ByCreatedByJobId:
			p.filters["created_by_job_id"] = v.JobId
		case specification.OrderBy:
			p.orderBy = v.Field
			p.orderDesc = v.Desc
		case specification.Pagination:
			p.limit = v.Limit
			p.offset = v.Offset
			p.hasLimit = true
		}
	}
	return p
}

// fieldGetter resolves a column name to a comparable value for one record.
type fieldGetter[T any] func(rec T, field string) (interface{}, bool)

func match[T any](rec T, p parsedSpecs, get fieldGetter[T]) bool {
	for field, want := range p.filters {
		got, ok := get(rec, field)
		if !ok {
			return false
		}
		if !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

func valuesEqual(got, want interface{}) bool {
	if gu, ok := got.(uuid.UUID); ok {
		switch wv := want.(type) {
		case uuid.UUID:
			return gu == wv
		case string:
			return strings.EqualFold(gu.String(), wv)
		}
	}
	if gs, ok := got.(string); ok {
		if ws, ok := want.(string); ok {
			return gs == ws
		}
	}
	return got == want
}

func applyOrderAndPage[T any](recs []T, p parsedSpecs, get fieldGetter[T]) []T {
	if p.orderBy != "" {
		sort.SliceStable(recs, func(i, j int) bool {
			a, _ := get(recs[i], p.orderBy)
			b, _ := get(recs[j], p.orderBy)
			less := valueLess(a, b)
			if p.orderDesc {
				return !less && !valuesEqual(a, b)
			}
			return less
		})
	}
	if p.offset > 0 {
		if p.offset >= len(recs) {
			return nil
		}
		recs = recs[p.offset:]
	}
	if p.hasLimit && p.limit > 0 && p.limit < len(recs) {
		recs = recs[:p.limit]
	}
	return recs
}

func valueLess(a, b interface{}) bool {
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Before(bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			return av < bv
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return av < bv
		}
	case int:
		if bv, ok := b.(int); ok {
			return av < bv
		}
	case uuid.UUID:
		if bv, ok := b.(uuid.UUID); ok {
			return av.String() < bv.String()
		}
	}
	return false
}
