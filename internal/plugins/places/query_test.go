package places

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyxmakerx/placekit/internal/tagging"
)

func TestBuildQuery_Defaults(t *testing.T) {
	q := BuildQuery(FacetQuery{}, DefaultLimits())

	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 20, q.Limit)
	assert.Equal(t, 0, q.Skip)
	assert.Empty(t, q.Filter.Clauses)
	assert.Empty(t, q.Filter.Where())
	assert.Equal(t, "ORDER BY p.updated_at DESC, p.id DESC", q.Sort.OrderBy())
}

func TestBuildQuery_PageAndLimit(t *testing.T) {
	tests := []struct {
		name      string
		page      string
		limit     string
		wantPage  int
		wantLimit int
		wantSkip  int
	}{
		{"explicit", "3", "10", 3, 10, 20},
		{"zero page", "0", "10", 1, 10, 0},
		{"negative page", "-4", "10", 1, 10, 0},
		{"garbage page", "abc", "10", 1, 10, 0},
		{"zero limit", "1", "0", 1, 1, 0},
		{"negative limit", "2", "-5", 2, 1, 1},
		{"limit above max", "1", "1000", 1, 100, 0},
		{"garbage limit", "2", "lots", 2, 20, 20},
		{"overflowing page", "99999999999999999999", "100", 1, 100, 0},
		{"page above cap", "99999999999999999", "100", maxPage, 100, (maxPage - 1) * 100},
		{"page at cap", "2147483647", "100", maxPage, 100, (maxPage - 1) * 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := BuildQuery(FacetQuery{Page: tt.page, Limit: tt.limit}, DefaultLimits())
			assert.Equal(t, tt.wantPage, q.Page)
			assert.Equal(t, tt.wantLimit, q.Limit)
			assert.Equal(t, tt.wantSkip, q.Skip)
		})
	}
}

func TestBuildQuery_CustomLimits(t *testing.T) {
	q := BuildQuery(FacetQuery{Limit: "80"}, Limits{Default: 10, Max: 50})
	assert.Equal(t, 50, q.Limit)

	q = BuildQuery(FacetQuery{}, Limits{Default: 10, Max: 50})
	assert.Equal(t, 10, q.Limit)

	// Unset limits fall back to the stock bounds.
	q = BuildQuery(FacetQuery{Limit: "500"}, Limits{})
	assert.Equal(t, 100, q.Limit)
}

func TestBuildQuery_TextSearch(t *testing.T) {
	q := BuildQuery(FacetQuery{Text: "  50%_off\\ "}, DefaultLimits())

	require.Len(t, q.Filter.Clauses, 1)
	assert.Equal(t, "(p.name LIKE ? OR p.address LIKE ? OR p.description LIKE ?)", q.Filter.Clauses[0])
	want := `%50\%\_off\\%`
	assert.Equal(t, []any{want, want, want}, q.Filter.Args)
}

func TestBuildQuery_EqualityFacets(t *testing.T) {
	q := BuildQuery(FacetQuery{
		District: " Hoàn Kiếm ",
		Category: "Cafe",
		Status:   "published",
	}, DefaultLimits())

	assert.Equal(t, []string{"p.district = ?", "p.category = ?", "p.status = ?"}, q.Filter.Clauses)
	assert.Equal(t, []any{"Hoàn Kiếm", "Cafe", StatusPublished}, q.Filter.Args)
	assert.Equal(t, "WHERE p.district = ? AND p.category = ? AND p.status = ?", q.Filter.Where())
}

func TestBuildQuery_BooleanFacets(t *testing.T) {
	q := BuildQuery(FacetQuery{Active: "true", Featured: "0"}, DefaultLimits())
	assert.Equal(t, []string{"p.is_active = ?", "p.featured = ?"}, q.Filter.Clauses)
	assert.Equal(t, []any{true, false}, q.Filter.Args)

	q = BuildQuery(FacetQuery{Active: "maybe", Featured: ""}, DefaultLimits())
	assert.Empty(t, q.Filter.Clauses)
}

func TestBuildQuery_PriceFacets(t *testing.T) {
	tests := []struct {
		name        string
		min, max    string
		wantClauses []string
		wantArgs    []any
	}{
		{"both", "50000", "200000.5", []string{"p.price_min >= ?", "p.price_max <= ?"}, []any{50000.0, 200000.5}},
		{"negative clamps to zero", "-10", "", []string{"p.price_min >= ?"}, []any{0.0}},
		{"unparseable dropped", "cheap", "NaN", nil, nil},
		{"infinity dropped", "Inf", "-Inf", nil, nil},
		{"whitespace trimmed", " 10 ", "", []string{"p.price_min >= ?"}, []any{10.0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := BuildQuery(FacetQuery{MinPrice: tt.min, MaxPrice: tt.max}, DefaultLimits())
			assert.Equal(t, tt.wantClauses, q.Filter.Clauses)
			assert.Equal(t, tt.wantArgs, q.Filter.Args)
		})
	}
}

func TestBuildQuery_TagFacets(t *testing.T) {
	q := BuildQuery(FacetQuery{TagFacets: map[tagging.Category]string{
		tagging.Parking: "xe máy",
		tagging.Mood:    "chill, lãng mạn,,chill",
		tagging.Music:   " , ",
	}}, DefaultLimits())

	// Categories render in canonical order regardless of map order.
	require.Len(t, q.Filter.Clauses, 2)
	assert.Equal(t,
		"(JSON_CONTAINS(p.ai_tags, JSON_QUOTE(?), '$.mood') OR JSON_CONTAINS(p.ai_tags, JSON_QUOTE(?), '$.mood'))",
		q.Filter.Clauses[0])
	assert.Equal(t, "(JSON_CONTAINS(p.ai_tags, JSON_QUOTE(?), '$.parking'))", q.Filter.Clauses[1])
	assert.Equal(t, []any{"chill", "lãng mạn", "xe máy"}, q.Filter.Args)
}

func TestBuildQuery_ArgsMatchPlaceholders(t *testing.T) {
	q := BuildQuery(FacetQuery{
		Text:      "phở",
		District:  "Ba Đình",
		MinPrice:  "1",
		Active:    "1",
		TagFacets: map[tagging.Category]string{tagging.Space: "rooftop,sân vườn"},
	}, DefaultLimits())

	placeholders := 0
	for _, c := range q.Filter.Clauses {
		for _, r := range c {
			if r == '?' {
				placeholders++
			}
		}
	}
	assert.Equal(t, placeholders, len(q.Filter.Args))
}

func TestBuildQuery_Sort(t *testing.T) {
	tests := []struct {
		field, dir string
		want       string
	}{
		{"name", "asc", "ORDER BY p.name ASC, p.id ASC"},
		{"name", "ASC", "ORDER BY p.name ASC, p.id ASC"},
		{"averageRating", "desc", "ORDER BY p.average_rating DESC, p.id DESC"},
		{"priceMin", "sideways", "ORDER BY p.price_min DESC, p.id DESC"},
		{"viewCount", "", "ORDER BY p.view_count DESC, p.id DESC"},
		{"password; DROP TABLE places", "asc", "ORDER BY p.updated_at DESC, p.id DESC"},
		{"", "asc", "ORDER BY p.updated_at DESC, p.id DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.field+"/"+tt.dir, func(t *testing.T) {
			q := BuildQuery(FacetQuery{SortField: tt.field, SortDirection: tt.dir}, DefaultLimits())
			assert.Equal(t, tt.want, q.Sort.OrderBy())
		})
	}
}

func TestBuildPagination(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		page       int
		limit      int
		wantPages  int
		wantNext   bool
		wantPrev   bool
		wantPerPge int
	}{
		{"empty", 0, 1, 20, 0, false, false, 20},
		{"single partial page", 5, 1, 20, 1, false, false, 20},
		{"exact pages", 40, 1, 20, 2, true, false, 20},
		{"middle page", 45, 2, 20, 3, true, true, 20},
		{"last page", 45, 3, 20, 3, false, true, 20},
		{"past the end", 45, 9, 20, 3, false, true, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := BuildPagination(tt.total, Query{Page: tt.page, Limit: tt.limit})
			assert.Equal(t, tt.page, p.CurrentPage)
			assert.Equal(t, tt.total, p.TotalItems)
			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.Equal(t, tt.wantNext, p.HasNextPage)
			assert.Equal(t, tt.wantPrev, p.HasPrevPage)
			assert.Equal(t, tt.wantPerPge, p.ItemsPerPage)
		})
	}
}

func TestFacetQueryFromValues(t *testing.T) {
	v := url.Values{}
	v.Set("q", "bún chả")
	v.Set("district", "Tây Hồ")
	v.Set("sortBy", "name")
	v.Set("sortOrder", "asc")
	v.Set("page", "2")
	v.Set("limit", "5")
	v.Set("isActive", "true")
	v.Set("specialFeatures", "wifi")
	v.Set("unknownFacet", "x")

	q := FacetQueryFromValues(v)
	assert.Equal(t, "bún chả", q.Text)
	assert.Equal(t, "Tây Hồ", q.District)
	assert.Equal(t, "name", q.SortField)
	assert.Equal(t, "asc", q.SortDirection)
	assert.Equal(t, "2", q.Page)
	assert.Equal(t, "5", q.Limit)
	assert.Equal(t, "true", q.Active)
	assert.Equal(t, map[tagging.Category]string{tagging.SpecialFeatures: "wifi"}, q.TagFacets)

	assert.Nil(t, FacetQueryFromValues(url.Values{}).TagFacets)
}
