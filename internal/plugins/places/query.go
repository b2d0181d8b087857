package places

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/keyxmakerx/placekit/internal/tagging"
)

// FacetQuery holds the raw listing facets as received from the request.
// Every field is optional and untrusted; BuildQuery turns it into a safe
// Query and never fails.
type FacetQuery struct {
	Text          string
	District      string
	Category      string
	Status        string
	MinPrice      string
	MaxPrice      string
	Active        string
	Featured      string
	TagFacets     map[tagging.Category]string
	SortField     string
	SortDirection string
	Page          string
	Limit         string
}

// FacetQueryFromValues reads facets from URL query parameters. Tag facets
// use the category keys as parameter names (?mood=chill,lãng mạn).
func FacetQueryFromValues(v url.Values) FacetQuery {
	q := FacetQuery{
		Text:          v.Get("q"),
		District:      v.Get("district"),
		Category:      v.Get("category"),
		Status:        v.Get("status"),
		MinPrice:      v.Get("minPrice"),
		MaxPrice:      v.Get("maxPrice"),
		Active:        v.Get("isActive"),
		Featured:      v.Get("featured"),
		SortField:     v.Get("sortBy"),
		SortDirection: v.Get("sortOrder"),
		Page:          v.Get("page"),
		Limit:         v.Get("limit"),
	}
	for _, c := range tagging.Categories {
		if raw := v.Get(c.String()); raw != "" {
			if q.TagFacets == nil {
				q.TagFacets = make(map[tagging.Category]string)
			}
			q.TagFacets[c] = raw
		}
	}
	return q
}

// Limits bounds page sizes.
type Limits struct {
	Default int
	Max     int
}

// DefaultLimits returns the stock page size bounds.
func DefaultLimits() Limits {
	return Limits{Default: 20, Max: 100}
}

func (l Limits) normalized() Limits {
	if l.Max < 1 {
		l.Max = DefaultLimits().Max
	}
	if l.Default < 1 {
		l.Default = DefaultLimits().Default
	}
	if l.Default > l.Max {
		l.Default = l.Max
	}
	return l
}

// Filter is a conjunction of SQL predicates over the places table (alias p)
// with their positional arguments.
type Filter struct {
	Clauses []string
	Args    []any
}

func (f *Filter) add(clause string, args ...any) {
	f.Clauses = append(f.Clauses, clause)
	f.Args = append(f.Args, args...)
}

// Where renders the filter as a WHERE clause, or "" when empty.
func (f Filter) Where() string {
	if len(f.Clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(f.Clauses, " AND ")
}

// Sort is an allow-listed ORDER BY column and direction.
type Sort struct {
	Field  string
	Column string
	Desc   bool
}

// OrderBy renders the ORDER BY clause. The primary key is appended so that
// rows with equal sort values page deterministically.
func (s Sort) OrderBy() string {
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s, p.id %s", s.Column, dir, dir)
}

// sortColumns is the sort allow-list: request field name to column.
var sortColumns = map[string]string{ //nolint:gochecknoglobals // read-only allow-list
	"updatedAt":     "p.updated_at",
	"createdAt":     "p.created_at",
	"name":          "p.name",
	"averageRating": "p.average_rating",
	"totalReviews":  "p.total_reviews",
	"viewCount":     "p.view_count",
	"priceMin":      "p.price_min",
}

const defaultSortField = "updatedAt"

const maxPage = math.MaxInt32

// Query is a validated listing query.
type Query struct {
	Filter Filter
	Sort   Sort
	Page   int
	Skip   int
	Limit  int
}

// BuildQuery converts raw facets into a Query. Malformed values are dropped
// or replaced by defaults rather than rejected.
func BuildQuery(req FacetQuery, limits Limits) Query {
	limits = limits.normalized()

	// maxPage keeps the offset arithmetic far from overflow.
	page := max(1, min(parseIntOr(req.Page, 1), maxPage))
	limit := parseIntOr(req.Limit, limits.Default)
	limit = max(1, min(limit, limits.Max))

	var f Filter

	if text := strings.TrimSpace(req.Text); text != "" {
		pattern := "%" + escapeLike(text) + "%"
		f.add("(p.name LIKE ? OR p.address LIKE ? OR p.description LIKE ?)", pattern, pattern, pattern)
	}
	if district := strings.TrimSpace(req.District); district != "" {
		f.add("p.district = ?", district)
	}
	if category := strings.TrimSpace(req.Category); category != "" {
		f.add("p.category = ?", category)
	}
	if status := strings.TrimSpace(req.Status); status != "" {
		f.add("p.status = ?", NormalizeStatus(status))
	}
	if active, ok := parseBool(req.Active); ok {
		f.add("p.is_active = ?", active)
	}
	if featured, ok := parseBool(req.Featured); ok {
		f.add("p.featured = ?", featured)
	}
	if minPrice, ok := parsePrice(req.MinPrice); ok {
		f.add("p.price_min >= ?", minPrice)
	}
	if maxPrice, ok := parsePrice(req.MaxPrice); ok {
		f.add("p.price_max <= ?", maxPrice)
	}

	for _, c := range tagging.Categories {
		values := splitList(req.TagFacets[c])
		if len(values) == 0 {
			continue
		}
		path := "$." + c.String()
		parts := make([]string, len(values))
		args := make([]any, len(values))
		for i, v := range values {
			parts[i] = fmt.Sprintf("JSON_CONTAINS(p.ai_tags, JSON_QUOTE(?), '%s')", path)
			args[i] = v
		}
		f.add("("+strings.Join(parts, " OR ")+")", args...)
	}

	return Query{
		Filter: f,
		Sort:   buildSort(req.SortField, req.SortDirection),
		Page:   page,
		Skip:   (page - 1) * limit,
		Limit:  limit,
	}
}

func buildSort(field, direction string) Sort {
	field = strings.TrimSpace(field)
	column, ok := sortColumns[field]
	if !ok {
		return Sort{Field: defaultSortField, Column: sortColumns[defaultSortField], Desc: true}
	}
	return Sort{
		Field:  field,
		Column: column,
		Desc:   !strings.EqualFold(strings.TrimSpace(direction), "asc"),
	}
}

// Pagination describes where a page sits in the full result.
type Pagination struct {
	CurrentPage  int  `json:"currentPage"`
	TotalPages   int  `json:"totalPages"`
	TotalItems   int  `json:"totalItems"`
	ItemsPerPage int  `json:"itemsPerPage"`
	HasNextPage  bool `json:"hasNextPage"`
	HasPrevPage  bool `json:"hasPrevPage"`
}

// BuildPagination computes page metadata for totalItems matches of q.
func BuildPagination(totalItems int, q Query) Pagination {
	totalItems = max(totalItems, 0)
	limit := max(q.Limit, 1)
	page := max(q.Page, 1)

	totalPages := (totalItems + limit - 1) / limit
	return Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   totalItems,
		ItemsPerPage: limit,
		HasNextPage:  page < totalPages,
		HasPrevPage:  page > 1,
	}
}

// --- parsing helpers ---

func parseIntOr(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

// parsePrice parses a price facet. Unparseable, NaN and infinite values are
// dropped; negatives clamp to zero.
func parsePrice(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return math.Max(f, 0), true
}

func parseBool(s string) (bool, bool) {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, false
	}
	return b, true
}

// splitList splits a comma-separated facet, trimming entries and dropping
// empty and repeated ones.
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		out = append(out, part)
	}
	return out
}

// likeEscaper escapes LIKE wildcards and the escape character itself.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`) //nolint:gochecknoglobals // stateless

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
