package search

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tbchen/factwatch/internal/models"
)

// Domain whitelist scores. FactSet itself outranks the wires, which
// outrank the Taiwanese finance portals.
var domainScores = map[string]int{
	"factset.com":        10,
	"bloomberg.com":      8,
	"reuters.com":        8,
	"cnyes.com":          6,
	"news.cnyes.com":     6,
	"moneydj.com":        6,
	"ctee.com.tw":        6,
	"money.udn.com":      6,
	"tw.stock.yahoo.com": 6,
	"wantgoo.com":        5,
	"goodinfo.tw":        5,
}

// factsetTerms and financialTerms weight title/snippet content.
var factsetTerms = []string{"factset"}

var financialTerms = []string{"eps", "analyst consensus", "target price", "目標價", "分析師"}

var taiwanIndicators = []string{"-tw", "台股", "台灣", "tpe:"}

// RankResults scores and sorts raw hits by descending relevance. The sort
// is stable so equal scores keep API order.
func RankResults(items []models.RawSearchItem, now time.Time) []models.SearchResult {
	results := make([]models.SearchResult, 0, len(items))
	for _, item := range items {
		result := models.SearchResult{
			Title:   item.Title,
			URL:     item.Link,
			Snippet: item.Snippet,
			Domain:  domainOf(item),
		}

		text := strings.ToLower(item.Title + " " + item.Snippet)

		score := scoreDomain(result.Domain)
		for _, term := range factsetTerms {
			if strings.Contains(text, term) {
				score += 5
				result.HasFactsetContent = true
			}
		}
		for _, term := range financialTerms {
			if strings.Contains(text, term) {
				score += 3
				result.HasFinancialContent = true
			}
		}
		for _, term := range taiwanIndicators {
			if strings.Contains(text, term) {
				score += 2
				break
			}
		}
		// Recency hint: mention of the current or next year.
		for _, year := range []int{now.Year(), now.Year() + 1} {
			if strings.Contains(text, strconv.Itoa(year)) {
				score++
				break
			}
		}

		result.RelevanceScore = score
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})

	return results
}

func domainOf(item models.RawSearchItem) string {
	if item.DisplayLink != "" {
		return strings.ToLower(item.DisplayLink)
	}
	if u, err := url.Parse(item.Link); err == nil {
		return strings.ToLower(u.Hostname())
	}
	return ""
}

func scoreDomain(domain string) int {
	if score, ok := domainScores[domain]; ok {
		return score
	}
	// Subdomain fallback: news.cnyes.com matches cnyes.com.
	for known, score := range domainScores {
		if strings.HasSuffix(domain, "."+known) {
			return score
		}
	}
	return 0
}
