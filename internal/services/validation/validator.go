// Package validation decides whether a fetched document is genuinely about
// a requested company or a false positive where the stock code merely
// appears as a price. Four layers run in order; the first decisive layer is
// recorded in the result.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/tbchen/factwatch/internal/models"
)

// titleCodePattern captures stock codes in title forms like (2330-TW).
var titleCodePattern = regexp.MustCompile(`\((\d{4})[-\s]*TW\)`)

// pricePatterns enumerate the contexts where a four-digit number is a
// price, not a stock code. {code} is substituted per call.
var pricePatterns = []string{
	`目標價[為是]\s*%s\s*元`,
	`目標價[:：]\s*%s\s*元`,
	`預估目標價[為是]?\s*%s\s*元`,
	`%s\s*元\s*目標價`,
	`升至\s*%s\s*元`,
	`調升至\s*%s\s*元`,
}

// codeContextPatterns enumerate genuine stock-code contexts.
var codeContextPatterns = []string{
	`%s[-\s]*TW`,
	`\(\s*%s\s*\)`,
	`（\s*%s\s*）`,
	`代號[:：]?\s*%s`,
	`代码[:：]?\s*%s`,
}

// proximityWindow is the maximum rune distance for the layer-4 fallback.
const proximityWindow = 200

// Validator implements the four-layer content check.
type Validator struct {
	logger arbor.ILogger
}

// NewValidator creates a content validator.
func NewValidator(logger arbor.ILogger) *Validator {
	return &Validator{logger: logger}
}

// Validate runs the layers against a fetched body and its title.
func (v *Validator) Validate(body, title, code, name string) models.ContentValidation {
	// Layer 1: a title naming other companies' codes is a hard reject.
	if result, decided := v.checkTitle(body, title, code); decided {
		return result
	}

	// Layer 2: the code appearing only in price contexts is a false positive.
	if result, decided := v.checkPriceOnly(body, code); decided {
		return result
	}

	// Layer 3: stock-code context plus company name.
	if result, decided := v.checkCoOccurrence(body, code, name); decided {
		return result
	}

	// Layer 4: proximity fallback.
	if result, decided := v.checkProximity(body, code, name); decided {
		return result
	}

	return models.ContentValidation{
		IsValid:    false,
		Reason:     fmt.Sprintf("no stock-code context or proximity match for %s %s", code, name),
		Confidence: 0.2,
		Layer:      4,
	}
}

// checkTitle scans the <title> and og:title of HTML bodies, plus the
// caller-provided title, for coded company references.
func (v *Validator) checkTitle(body, title, code string) (models.ContentValidation, bool) {
	titles := []string{title}

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(body)); err == nil {
		if t := doc.Find("title").First().Text(); t != "" {
			titles = append(titles, t)
		}
		if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && og != "" {
			titles = append(titles, og)
		}
	}

	sawCode := false
	for _, t := range titles {
		for _, match := range titleCodePattern.FindAllStringSubmatch(t, -1) {
			sawCode = true
			if match[1] == code {
				return models.ContentValidation{}, false
			}
		}
	}

	if sawCode {
		return models.ContentValidation{
			IsValid:    false,
			Reason:     fmt.Sprintf("title names a different stock code than %s", code),
			Confidence: 0.95,
			Layer:      1,
		}, true
	}
	return models.ContentValidation{}, false
}

// checkPriceOnly rejects when every occurrence of the code sits inside a
// known price context.
func (v *Validator) checkPriceOnly(body, code string) (models.ContentValidation, bool) {
	if !strings.Contains(body, code) {
		return models.ContentValidation{}, false
	}

	stripped := body
	matched := false
	for _, pattern := range pricePatterns {
		re := regexp.MustCompile(fmt.Sprintf(pattern, code))
		if re.MatchString(stripped) {
			matched = true
			stripped = re.ReplaceAllString(stripped, "")
		}
	}

	if matched && !strings.Contains(stripped, code) {
		return models.ContentValidation{
			IsValid:    false,
			Reason:     fmt.Sprintf("code %s appears only as a price", code),
			Confidence: 0.9,
			Layer:      2,
		}, true
	}
	return models.ContentValidation{}, false
}

// checkCoOccurrence requires a genuine stock-code context and the company
// name (or at least half its characters) in the body.
func (v *Validator) checkCoOccurrence(body, code, name string) (models.ContentValidation, bool) {
	inCodeContext := false
	for _, pattern := range codeContextPatterns {
		if regexp.MustCompile(fmt.Sprintf(pattern, code)).MatchString(body) {
			inCodeContext = true
			break
		}
	}
	if !inCodeContext {
		return models.ContentValidation{}, false
	}

	if strings.Contains(body, name) {
		return models.ContentValidation{
			IsValid:    true,
			Reason:     "stock-code context with full company name",
			Confidence: 0.9,
			Layer:      3,
		}, true
	}

	runes := []rune(name)
	found := 0
	for _, r := range runes {
		if strings.ContainsRune(body, r) {
			found++
		}
	}
	// At least ceil(len/2) of the name's characters must appear.
	if found*2 >= len(runes) && len(runes) > 0 {
		return models.ContentValidation{
			IsValid:    true,
			Reason:     fmt.Sprintf("stock-code context with %d/%d name characters", found, len(runes)),
			Confidence: 0.8,
			Layer:      3,
		}, true
	}
	return models.ContentValidation{}, false
}

// checkProximity accepts when code and name occur within the proximity
// window anywhere in the body.
func (v *Validator) checkProximity(body, code, name string) (models.ContentValidation, bool) {
	runes := []rune(body)
	text := string(runes)

	codeIdx := runeIndexes(text, code)
	nameIdx := runeIndexes(text, name)
	for _, ci := range codeIdx {
		for _, ni := range nameIdx {
			distance := ci - ni
			if distance < 0 {
				distance = -distance
			}
			if distance <= proximityWindow {
				return models.ContentValidation{
					IsValid:    true,
					Reason:     fmt.Sprintf("code and name within %d characters", proximityWindow),
					Confidence: 0.6,
					Layer:      4,
				}, true
			}
		}
	}
	return models.ContentValidation{}, false
}

// runeIndexes returns the rune offsets of every occurrence of substr.
func runeIndexes(s, substr string) []int {
	if substr == "" {
		return nil
	}
	var indexes []int
	offset := 0
	rest := s
	for {
		i := strings.Index(rest, substr)
		if i < 0 {
			return indexes
		}
		indexes = append(indexes, offset+len([]rune(rest[:i])))
		advance := i + len(substr)
		offset += len([]rune(rest[:advance]))
		rest = rest[advance:]
	}
}
