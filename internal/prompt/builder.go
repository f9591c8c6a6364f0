// Package prompt builds every prompt the pipeline sends to the model:
// discovery, dead-URL improvement, candidate validation, code synthesis
// and template optimization. Builders are pure functions over embedded
// templates and a static knowledge base.
package prompt

import (
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"

	"finscout/internal/core/domain"
	"finscout/internal/platform/errors"
	"finscout/internal/platform/urlx"
)

//go:embed knowledge.yaml
var knowledgeYAML []byte

// hint is one entry of the static knowledge base.
type hint struct {
	Match string `yaml:"match"`
	Hint  string `yaml:"hint"`
}

type knowledgeFile struct {
	Hints []hint `yaml:"hints"`
}

// Builder renders prompts for a discovery pipeline.
type Builder struct {
	hints []hint
}

// NewBuilder loads the embedded knowledge base. An empty or unparsable
// template set is a startup configuration error, the only kind this
// pipeline treats as fatal.
func NewBuilder() (*Builder, error) {
	var kf knowledgeFile
	if err := yaml.Unmarshal(knowledgeYAML, &kf); err != nil {
		return nil, errors.Wrap(err, "failed to parse knowledge base")
	}
	if strings.TrimSpace(baseTemplate) == "" || strings.TrimSpace(synthesisTemplate) == "" {
		return nil, errors.New("prompt templates are empty")
	}
	return &Builder{hints: kf.Hints}, nil
}

// CompanyHint returns the static hint for a company, matched
// case-insensitively by substring. First match wins; the knowledge base
// is ordered accordingly. Empty string when nothing matches.
func (b *Builder) CompanyHint(company string) string {
	normalized := strings.ToLower(company)
	for _, h := range b.hints {
		if strings.Contains(normalized, h.Match) {
			return h.Hint
		}
	}
	return ""
}

// Discovery renders the base discovery prompt, enriched with the
// company hint when one exists.
func (b *Builder) Discovery(req domain.DiscoveryRequest) string {
	var extra string
	if info := b.CompanyHint(req.Company); info != "" {
		extra = "\n\nAdditional information: " + info
	}
	return b.FromTemplate(baseTemplate, req, extra)
}

// FromTemplate renders a discovery prompt from an arbitrary template,
// typically a cached model-optimized one. Unknown tokens are left
// untouched so a partially-compliant rewrite still produces something
// usable.
func (b *Builder) FromTemplate(template string, req domain.DiscoveryRequest, extra string) string {
	return strings.NewReplacer(
		PlaceholderCompany, req.Company,
		PlaceholderCategory, req.Category,
		placeholderOptimization, extra,
	).Replace(template)
}

// ImproveDeadURL renders the prompt asking for a replacement after a
// candidate URL probed dead.
func (b *Builder) ImproveDeadURL(req domain.DiscoveryRequest, deadURL string) string {
	return strings.NewReplacer(
		placeholderURL, deadURL,
		PlaceholderCompany, req.Company,
	).Replace(improveTemplate)
}

// Validation renders the judgment prompt over a candidate.
func (b *Builder) Validation(req domain.DiscoveryRequest, c *domain.CandidateResult) string {
	return strings.NewReplacer(
		PlaceholderCompany, req.Company,
		PlaceholderCategory, req.Category,
		"{url}", c.URL,
		"{year}", c.Year,
		"{source_description}", c.SourceDescription,
		"{confidence}", string(c.Confidence),
	).Replace(validationTemplate)
}

// Synthesis renders the prompt asking for a complete retrieval
// routine, seeded with domain guesses built from the company name
// tokens so the routine tries the likely official site first.
func (b *Builder) Synthesis(req domain.DiscoveryRequest) string {
	p := strings.NewReplacer(
		PlaceholderCompany, req.Company,
		PlaceholderCategory, req.Category,
	).Replace(synthesisTemplate)

	tokens := urlx.TokenizeCompanyName(req.Company)
	if len(tokens) == 0 {
		return p
	}
	guess := tokens[0]
	if len(tokens) > 1 {
		guess += tokens[1]
	}
	return p + "\n\nStart with direct candidates such as https://www." + guess + ".com/ and https://www." + tokens[0] + ".com/ before searching more broadly."
}

// keepToken protects the literal placeholder the optimized prompt must
// retain from the company-name substitution below.
const keepToken = "\x00company-placeholder\x00"

// OptimizationRequest renders the prompt asking the model to rewrite
// the current discovery template based on validator feedback and the
// last candidate.
func (b *Builder) OptimizationRequest(company string, verdict domain.ValidationVerdict, currentPrompt string, prior *domain.CandidateResult) string {
	problems := verdict.Feedback
	if problems == "" {
		problems = "No data found or validated"
	}
	suggestions := "N/A"
	if len(verdict.Suggestions) > 0 {
		suggestions = strings.Join(verdict.Suggestions, "; ")
	}

	var scrapingInfo string
	if prior != nil && prior.URL != "" {
		scrapingInfo = "A previous search found the following information:\n" +
			"- URL: " + prior.URL + "\n" +
			"- Year: " + orNotFound(prior.Year) + "\n" +
			"- Source type: " + orNotFound(prior.SourceDescription) + "\n" +
			"- Confidence: " + string(prior.Confidence)
	}

	// Instruction 6 carries the placeholder literally; shield it before
	// substituting the actual company name.
	template := strings.Replace(optimizationRequestTemplate,
		"Keep the literal "+PlaceholderCompany+" placeholder",
		"Keep the literal "+keepToken+" placeholder", 1)

	out := strings.NewReplacer(
		PlaceholderCompany, company,
		"{problems}", problems,
		"{suggestions}", suggestions,
		"{scraping_info}", scrapingInfo,
		"{current_prompt}", currentPrompt,
	).Replace(template)

	return strings.ReplaceAll(out, keepToken, PlaceholderCompany)
}

// ScrapingBased renders the fallback discovery prompt built from a
// prior candidate when optimization is rejected or exhausted. Zero
// model calls involved.
func (b *Builder) ScrapingBased(req domain.DiscoveryRequest, prior *domain.CandidateResult) string {
	if prior == nil || (prior.URL == "" && prior.Year == "" && prior.SourceDescription == "") {
		return b.FromTemplate(baseTemplate, req,
			"Be careful to search thoroughly, previous attempts have not produced valid results.")
	}

	var sb strings.Builder
	sb.WriteString("\nSUGGESTIONS BASED ON PREVIOUS SEARCHES:\n")
	sb.WriteString("- The source type '" + orNotFound(prior.SourceDescription) + "' seems appropriate for this company")
	if domainHint := urlx.RegistrableDomain(prior.URL); domainHint != "" {
		sb.WriteString("\n- Consider the domain " + domainHint + " which seems promising for this search")
	}
	year := prior.Year
	if year == "" {
		// A candidate without a reported year often still carries one
		// in its URL path.
		year = urlx.ExtractYear(prior.URL)
	}
	if year != "" {
		sb.WriteString("\n- The fiscal year " + year + " appears to be available, but check if more recent reports exist")
	}
	sb.WriteString("\n- The previous search had a confidence level of '" + string(prior.Confidence) + "', try to improve it\n")

	category := prior.SourceDescription
	if category == "" {
		category = req.Category
	}
	return b.FromTemplate(baseTemplate, domain.DiscoveryRequest{Company: req.Company, Category: category}, sb.String())
}

// ValidRewrite checks whether a model-produced template is usable: long
// enough to be a real prompt and still carrying the company
// placeholder.
func ValidRewrite(template string) bool {
	return len(template) >= 100 && strings.Contains(template, PlaceholderCompany)
}

func orNotFound(s string) string {
	if s == "" {
		return "Not found"
	}
	return s
}
