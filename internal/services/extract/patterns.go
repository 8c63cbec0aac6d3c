package extract

import "regexp"

// number matches a positive decimal value.
const number = `(\d+(?:\.\d+)?)`

// Year-scoped consensus segments. A match opens a window in which the
// labeled statistics are read; the first hit per field per year wins.
var (
	epsSegmentPattern     = regexp.MustCompile(`(20\d{2})\s*年?\s*(?:的)?\s*EPS`)
	revenueSegmentPattern = regexp.MustCompile(`(20\d{2})\s*年?\s*(?:的)?\s*營收`)
)

// Labeled statistics within a consensus segment, in priority order.
var statPatterns = map[string]*regexp.Regexp{
	"high":   regexp.MustCompile(`最高(?:值)?\s*(?:為|[:：])?\s*` + number),
	"low":    regexp.MustCompile(`最低(?:值)?\s*(?:為|[:：])?\s*` + number),
	"avg":    regexp.MustCompile(`平均(?:值)?\s*(?:為|[:：])?\s*` + number),
	"median": regexp.MustCompile(`中位數\s*(?:為|[:：])?\s*` + number),
}

// Consensus tables: a header row naming the forecast years, followed by
// labeled rows with one value column per year.
var (
	tableHeaderPattern = regexp.MustCompile(`\|[^|\n]*\|\s*2025\s*年?[^|\n]*\|\s*2026\s*年?[^|\n]*\|\s*2027\s*年?[^|\n]*\|`)
	tableRowPattern    = regexp.MustCompile(`\|\s*(最高值|最低值|平均值|中位數)\s*[^|\n]*\|\s*` + number + `\s*\|\s*` + number + `\s*\|\s*` + number + `\s*\|`)
)

// Target price, e.g. 目標價: 850 元. Values must fall in (0, 10000).
var targetPricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`目標價\s*[:：為]\s*` + number + `\s*元`),
	regexp.MustCompile(`目標價\s*` + number + `\s*元`),
}

// Analyst count, e.g. 共 30 位分析師. Values must fall in (0, 1000).
var analystCountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`共\s*(\d+)\s*位分析師`),
	regexp.MustCompile(`(\d+)\s*位分析師`),
	regexp.MustCompile(`(\d+)\s+analysts`),
}

// rowFields maps table row labels to stat names.
var rowFields = map[string]string{
	"最高值": "high",
	"最低值": "low",
	"平均值": "avg",
	"中位數": "median",
}
