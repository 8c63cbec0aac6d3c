package artifacts

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tbchen/factwatch/internal/models"
)

const headerFrame = "---"

var validationLinePattern = regexp.MustCompile(
	`^\{is_valid:\s*(true|false),\s*reason:\s*(.*),\s*confidence:\s*([0-9.]+)\}$`)

// serializeHeader renders the framed header block followed by the body.
// Key order is fixed so identical artifacts serialize byte-identically.
func serializeHeader(artifact *models.Artifact) string {
	var b strings.Builder
	b.WriteString(headerFrame + "\n")
	fmt.Fprintf(&b, "url: %s\n", artifact.URL)
	fmt.Fprintf(&b, "title: %s\n", artifact.Title)
	fmt.Fprintf(&b, "quality_score: %s\n", strconv.FormatFloat(artifact.QualityScore, 'f', 2, 64))
	fmt.Fprintf(&b, "stock_code: %s\n", artifact.StockCode)
	fmt.Fprintf(&b, "company: %s\n", artifact.Company)
	fmt.Fprintf(&b, "md_date: %s\n", artifact.MDDate)
	fmt.Fprintf(&b, "extracted_date: %s\n", artifact.ExtractedDate)
	fmt.Fprintf(&b, "search_query: %s\n", artifact.SearchQuery)
	fmt.Fprintf(&b, "content_validation: {is_valid: %t, reason: %s, confidence: %s}\n",
		artifact.ContentValidation.IsValid,
		artifact.ContentValidation.Reason,
		strconv.FormatFloat(artifact.ContentValidation.Confidence, 'f', 2, 64))
	b.WriteString(headerFrame + "\n")
	b.WriteString(artifact.Body)
	return b.String()
}

// parseHeader splits a serialized artifact into header fields and body.
// Missing header keys default to empty; an unframed file is treated as
// all body.
func parseHeader(content string) *models.Artifact {
	artifact := &models.Artifact{}

	if !strings.HasPrefix(content, headerFrame+"\n") {
		artifact.Body = content
		return artifact
	}
	rest := content[len(headerFrame)+1:]
	end := strings.Index(rest, "\n"+headerFrame+"\n")
	if end < 0 {
		artifact.Body = content
		return artifact
	}

	for _, line := range strings.Split(rest[:end], "\n") {
		key, value, found := strings.Cut(line, ": ")
		if !found {
			key, value, found = strings.Cut(line, ":")
			if !found {
				continue
			}
		}
		value = strings.TrimSpace(value)

		switch key {
		case "url":
			artifact.URL = value
		case "title":
			artifact.Title = value
		case "quality_score":
			if score, err := strconv.ParseFloat(value, 64); err == nil {
				artifact.QualityScore = score
			}
		case "stock_code":
			artifact.StockCode = value
		case "company":
			artifact.Company = value
		case "md_date":
			artifact.MDDate = value
		case "extracted_date":
			artifact.ExtractedDate = value
		case "search_query":
			artifact.SearchQuery = value
		case "content_validation":
			artifact.ContentValidation = parseValidationLine(value)
		}
	}

	artifact.Body = rest[end+len(headerFrame)+2:]
	return artifact
}

func parseValidationLine(value string) models.ContentValidation {
	match := validationLinePattern.FindStringSubmatch(value)
	if match == nil {
		return models.ContentValidation{}
	}
	confidence, _ := strconv.ParseFloat(match[3], 64)
	return models.ContentValidation{
		IsValid:    match[1] == "true",
		Reason:     match[2],
		Confidence: confidence,
	}
}
