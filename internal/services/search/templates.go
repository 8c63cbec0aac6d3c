package search

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog tiers, tried in order. High-signal templates come first.
const (
	TierFactsetDirect    = "factset_direct"
	TierEPSForecast      = "eps_forecast"
	TierFactsetSecondary = "factset_secondary"
)

// Template is one query pattern with {symbol}/{name} substitution tokens.
type Template struct {
	Tier string
	Text string
}

// Build substitutes the company tokens into the template.
func (t Template) Build(code, name string) string {
	query := strings.ReplaceAll(t.Text, "{symbol}", code)
	return strings.ReplaceAll(query, "{name}", name)
}

// Catalog is the ordered set of query templates for one run.
type Catalog struct {
	templates []Template
}

// defaultTemplates is the built-in catalog. The tier partitioning and the
// substitution tokens are fixed; the strings themselves are data and can be
// replaced via a catalog file.
var defaultTemplates = []Template{
	{TierFactsetDirect, `{symbol} {name} FactSet EPS 預估`},
	{TierFactsetDirect, `{name} ({symbol}-TW) FactSet 分析師 目標價`},
	{TierFactsetDirect, `{symbol} {name} FactSet 最新調查 EPS`},
	{TierEPSForecast, `{symbol} {name} EPS 預估 分析師 共識`},
	{TierEPSForecast, `{name} {symbol} 2025 2026 EPS 預估 中位數`},
	{TierEPSForecast, `{symbol} {name} 目標價 分析師 預估`},
	{TierFactsetSecondary, `{name} factset analyst consensus EPS forecast`},
	{TierFactsetSecondary, `{symbol} TW {name} target price analysts`},
	{TierFactsetSecondary, `{name} {symbol} 鉅亨 FactSet`},
}

// NewCatalog returns the built-in catalog.
func NewCatalog() *Catalog {
	return &Catalog{templates: defaultTemplates}
}

// catalogFile is the YAML shape of a catalog override file.
type catalogFile struct {
	Tiers []struct {
		Name      string   `yaml:"name"`
		Templates []string `yaml:"templates"`
	} `yaml:"tiers"`
}

// LoadCatalog reads a catalog override file. Tier order in the file is the
// issue order. Templates without a substitution token are rejected.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}

	var templates []Template
	for _, tier := range file.Tiers {
		for _, text := range tier.Templates {
			if !strings.Contains(text, "{symbol}") && !strings.Contains(text, "{name}") {
				return nil, fmt.Errorf("catalog template %q carries no substitution token", text)
			}
			templates = append(templates, Template{Tier: tier.Name, Text: text})
		}
	}

	if len(templates) == 0 {
		return nil, fmt.Errorf("catalog %s contains no templates", path)
	}

	return &Catalog{templates: templates}, nil
}

// All returns the templates in issue order.
func (c *Catalog) All() []Template {
	return c.templates
}

// Len returns the number of templates.
func (c *Catalog) Len() int {
	return len(c.templates)
}

var noisePattern = regexp.MustCompile(`result_\w*`)

// Normalize maps a concrete query back to its template form by replacing
// company-specific tokens. Normalizing an already-normalized pattern is the
// identity.
func Normalize(query, code, name string) string {
	pattern := query
	if name != "" {
		pattern = strings.ReplaceAll(pattern, name, "{name}")
	}
	if code != "" {
		pattern = strings.ReplaceAll(pattern, code, "{symbol}")
	}
	return strings.Join(strings.Fields(pattern), " ")
}

// IsNoisePattern reports whether a normalized pattern is enumerated noise
// and must be excluded from the pattern report.
func IsNoisePattern(pattern string) bool {
	return noisePattern.MatchString(pattern)
}
