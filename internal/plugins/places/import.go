package places

import (
	"encoding/json"
	"strings"

	"github.com/keyxmakerx/placekit/internal/hours"
	"github.com/keyxmakerx/placekit/internal/sanitize"
	"github.com/keyxmakerx/placekit/internal/tagging"
)

// ProviderPayload is the raw place record from a scraping provider (Google
// Places via Apify, Goong). Only the fields used for tagging and opening
// hours are decoded; the full payload is stored as-is.
type ProviderPayload struct {
	AdditionalInfo map[string]any       `json:"additionalInfo,omitempty"`
	Reviews        []tagging.Review     `json:"reviews,omitempty"`
	Category       string               `json:"category,omitempty"`
	CategoryName   string               `json:"categoryName,omitempty"`
	OpeningHours   []hours.RawHourEntry `json:"openingHours,omitempty"`
	Rating         float64              `json:"totalScore,omitempty"`
	ReviewsCount   int                  `json:"reviewsCount,omitempty"`

	// raw is the payload exactly as decoded, unknown fields included.
	raw json.RawMessage
}

// UnmarshalJSON decodes the known fields and keeps the raw bytes.
func (p *ProviderPayload) UnmarshalJSON(b []byte) error {
	type known ProviderPayload
	var v known
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = ProviderPayload(v)
	p.raw = append(json.RawMessage(nil), b...)
	return nil
}

// Raw returns the payload as received, or the encoding of its known fields
// when it was not decoded from JSON.
func (p *ProviderPayload) Raw() (json.RawMessage, error) {
	if len(p.raw) > 0 {
		return p.raw, nil
	}
	return json.Marshal(p)
}

// Empty reports whether the payload carries nothing to classify or
// normalize.
func (p *ProviderPayload) Empty() bool {
	return p == nil ||
		(len(p.AdditionalInfo) == 0 && len(p.Reviews) == 0 &&
			p.label() == "" && len(p.OpeningHours) == 0)
}

func (p *ProviderPayload) label() string {
	if c := strings.TrimSpace(p.Category); c != "" {
		return c
	}
	return strings.TrimSpace(p.CategoryName)
}

// TagSource converts the payload into classifier input. Reviews nested in
// additionalInfo.reviews are used when the top-level list is empty. Review
// text is stripped of markup.
func (p *ProviderPayload) TagSource() *tagging.Source {
	if p == nil {
		return nil
	}

	reviews := p.Reviews
	if len(reviews) == 0 {
		reviews = nestedReviews(p.AdditionalInfo)
	}

	clean := make([]tagging.Review, 0, len(reviews))
	for _, r := range reviews {
		clean = append(clean, tagging.Review{
			Text:    sanitize.Text(r.Text),
			Snippet: sanitize.Text(r.Snippet),
		})
	}

	return &tagging.Source{
		AdditionalInfo: p.AdditionalInfo,
		Reviews:        clean,
		Category:       p.label(),
	}
}

// HourEntries returns the opening hours with English provider day names
// translated to the Vietnamese labels the normalizer understands. Only the
// day names are translated: 12-hour times ("7:00 AM – 10:00 PM") are not
// parsed and normalize to a closed day.
func (p *ProviderPayload) HourEntries() []hours.RawHourEntry {
	if p == nil {
		return nil
	}
	out := make([]hours.RawHourEntry, 0, len(p.OpeningHours))
	for _, e := range p.OpeningHours {
		out = append(out, hours.RawHourEntry{Day: LocalizeDay(e.Day), Hours: e.Hours})
	}
	return out
}

// nestedReviews extracts reviews stored under additionalInfo.reviews, a
// shape some provider exports use.
func nestedReviews(info map[string]any) []tagging.Review {
	items, ok := info["reviews"].([]any)
	if !ok {
		return nil
	}
	var out []tagging.Review
	for _, item := range items {
		switch v := item.(type) {
		case string:
			out = append(out, tagging.Review{Text: v})
		case map[string]any:
			text, _ := v["text"].(string)
			snippet, _ := v["snippet"].(string)
			out = append(out, tagging.Review{Text: text, Snippet: snippet})
		}
	}
	return out
}

// englishDays maps provider English weekday names to Vietnamese labels.
var englishDays = map[string]string{ //nolint:gochecknoglobals // read-only lookup table
	"monday":    "Thứ Hai",
	"tuesday":   "Thứ Ba",
	"wednesday": "Thứ Tư",
	"thursday":  "Thứ Năm",
	"friday":    "Thứ Sáu",
	"saturday":  "Thứ Bảy",
	"sunday":    "Chủ Nhật",
}

// LocalizeDay translates an English weekday name ("Monday") to its
// Vietnamese label ("Thứ Hai"). Other values are returned unchanged.
func LocalizeDay(day string) string {
	if vi, ok := englishDays[strings.ToLower(strings.TrimSpace(day))]; ok {
		return vi
	}
	return day
}

// Districts returns the Hanoi urban districts places are filed under.
func Districts() []string {
	return []string{
		"Ba Đình", "Hoàn Kiếm", "Tây Hồ", "Long Biên", "Cầu Giấy", "Đống Đa",
		"Thanh Xuân", "Nam Từ Liêm", "Bắc Từ Liêm", "Hà Đông", "Hoàng Mai", "Hai Bà Trưng",
	}
}
