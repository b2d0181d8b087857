package tagging

import "sync"

var (
	defaultTable     *RuleTable
	defaultTableOnce sync.Once
)

// DefaultRuleTable returns the built-in rule table. Triggers cover the
// amenity keys of the Google Places and Goong payloads in Vietnamese and
// English plus common review phrasing. The table is built once and shared.
func DefaultRuleTable() *RuleTable {
	defaultTableOnce.Do(func() {
		t, err := NewRuleTable(defaultRules(), defaultHeuristics())
		if err != nil {
			panic("tagging: invalid built-in rule table: " + err.Error())
		}
		defaultTable = t
	})
	return defaultTable
}

func defaultRules() []Rule {
	return []Rule{
		// Space.
		{Space, []string{"ấm cúng", "cozy", "cosy"}, "ấm cúng"},
		{Space, []string{"rộng rãi", "không gian rộng", "spacious"}, "rộng rãi"},
		{Space, []string{"riêng tư", "phòng riêng", "private room"}, "riêng tư"},
		{Space, []string{"thoáng đãng", "thoáng mát", "airy"}, "thoáng đãng"},
		{Space, []string{"yên tĩnh", "quiet"}, "yên tĩnh"},
		{Space, []string{"chỗ ngồi ngoài trời", "ngoài trời", "outdoor seating", "outdoor"}, "ngoài trời"},
		{Space, []string{"sân thượng", "rooftop"}, "rooftop"},
		{Space, []string{"hiện đại", "thời thượng", "trendy", "modern"}, "hiện đại"},
		{Space, []string{"cổ điển", "classic"}, "cổ điển"},
		{Space, []string{"vintage", "hoài cổ"}, "vintage"},

		// Mood.
		{Mood, []string{"lãng mạn", "romantic"}, "lãng mạn"},
		{Mood, []string{"chill"}, "chill"},
		{Mood, []string{"thư giãn", "relaxing"}, "thư giãn"},
		{Mood, []string{"sôi động", "náo nhiệt", "lively"}, "sôi động"},
		{Mood, []string{"vui vẻ", "fun atmosphere"}, "vui vẻ"},
		{Mood, []string{"yên bình", "peaceful"}, "yên bình"},

		// Suitability.
		{Suitability, []string{"hẹn hò", "buổi hẹn", "date night"}, "hẹn hò"},
		{Suitability, []string{"phù hợp với gia đình", "gia đình", "family-friendly", "family"}, "gia đình"},
		{Suitability, []string{"bạn bè", "friends"}, "bạn bè"},
		{Suitability, []string{"nhóm", "groups"}, "nhóm lớn"},
		{Suitability, []string{"làm việc", "laptop"}, "công việc"},
		{Suitability, []string{"học bài", "sinh viên", "ôn thi"}, "học bài"},
		{Suitability, []string{"ăn một mình", "một mình", "solo dining"}, "một mình"},
		{Suitability, []string{"sinh nhật", "birthday"}, "sinh nhật"},

		// Crowd level.
		{CrowdLevel, []string{"thường có thời gian chờ", "đông đúc", "đông khách", "crowded"}, "đông đúc"},
		{CrowdLevel, []string{"ít người", "vắng khách"}, "ít người"},
		{CrowdLevel, []string{"rất đông", "chật kín"}, "rất đông"},

		// Music.
		{Music, []string{"nhạc sống", "live music", "acoustic"}, "live music"},
		{Music, []string{"nhạc nhẹ", "nhạc không lời"}, "nhạc nhẹ"},
		{Music, []string{"karaoke"}, "karaoke"},
		{Music, []string{"nhạc sôi động", "nhạc edm", "nhạc to"}, "nhạc sôi động"},

		// Parking.
		{Parking, []string{"bãi đỗ xe miễn phí", "bãi đậu xe miễn phí", "gửi xe miễn phí", "free parking"}, "gửi xe miễn phí"},
		{Parking, []string{"bãi đỗ xe có thu phí", "bãi đậu xe có tính phí", "gửi xe có phí", "paid parking"}, "gửi xe có phí"},
		{Parking, []string{"bãi đỗ xe", "bãi đậu xe", "chỗ đậu xe", "chỗ để xe", "parking"}, "có chỗ đậu xe"},
		{Parking, []string{"khó đỗ xe", "khó đậu xe", "đỗ xe trên đường"}, "khó đậu xe"},

		// Special features.
		{SpecialFeatures, []string{"wi-fi miễn phí", "wifi miễn phí", "free wi-fi", "free wifi"}, "wifi miễn phí"},
		{SpecialFeatures, []string{"điều hòa", "điều hoà", "máy lạnh", "air conditioning"}, "điều hòa"},
		{SpecialFeatures, []string{"có cảnh đẹp", "view đẹp", "great view"}, "view đẹp"},
		{SpecialFeatures, []string{"mở cửa 24 giờ", "phục vụ 24h", "open 24 hours"}, "phục vụ 24h"},
		{SpecialFeatures, []string{"giao hàng", "delivery"}, "delivery"},
		{SpecialFeatures, []string{"cho phép mang chó", "thú cưng", "pet friendly", "dogs allowed"}, "pet friendly"},
		{SpecialFeatures, []string{"khu vui chơi", "sân chơi", "playground"}, "có khu vui chơi trẻ em"},
	}
}

func defaultHeuristics() []LabelHeuristic {
	return []LabelHeuristic{
		{
			Markers: []string{"cà phê", "cafe"},
			Adds: []Assignment{
				{Suitability, "học bài"},
				{Suitability, "một mình"},
				{Mood, "thư giãn"},
			},
		},
		{
			Markers: []string{"nhà hàng", "restaurant"},
			Adds: []Assignment{
				{Suitability, "gia đình"},
				{Suitability, "bạn bè"},
			},
		},
		{
			Markers: []string{"bar", "pub"},
			Adds: []Assignment{
				{Mood, "sôi động"},
				{Suitability, "bạn bè"},
			},
		},
		{
			Markers: []string{"bakery", "tiệm bánh"},
			Adds: []Assignment{
				{Suitability, "hẹn hò"},
			},
		},
	}
}

// Vocabulary returns the controlled tag vocabulary offered to editors for
// each category.
func Vocabulary() TagSet {
	var v TagSet
	v[Space] = []string{"ấm cúng", "rộng rãi", "riêng tư", "thoáng đãng", "yên tĩnh", "sôi động", "hiện đại", "cổ điển", "ngoài trời", "rooftop", "vintage"}
	v[Mood] = []string{"chill", "lãng mạn", "sôi động", "thư giãn", "năng động", "chuyên nghiệp", "vui vẻ", "yên bình", "phiêu lưu", "ấm cúng"}
	v[Suitability] = []string{"hẹn hò", "gia đình", "bạn bè", "công việc", "một mình", "nhóm lớn", "học bài", "tụ tập", "họp mặt", "sinh nhật", "thư giãn"}
	v[CrowdLevel] = []string{"ít người", "vừa phải", "đông đúc", "rất đông"}
	v[Music] = []string{"nhạc nhẹ", "nhạc sôi động", "không có nhạc", "karaoke", "live music"}
	v[Parking] = []string{"có chỗ đậu xe", "khó đậu xe", "gửi xe miễn phí", "gửi xe có phí"}
	v[SpecialFeatures] = []string{"wifi miễn phí", "điều hòa", "view đẹp", "phục vụ 24h", "delivery", "pet friendly", "có khu vui chơi trẻ em"}
	return v
}
