package decision

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/echotrust/advisory-backend/model"
)

var placeholderRe = regexp.MustCompile(`\{([a-z_]+)\}`)

// DefaultTemplates maps reason codes to explanation templates. Placeholders
// use {name} syntax and substitute the literal "unknown" when the value is
// missing; rendering never fails.
func DefaultTemplates() map[string]string {
	return map[string]string{
		model.ReasonCSVOverride:      "Marked not applicable by analyst override. Reason: {override_reason}.",
		model.ReasonRegistryRejected: "This advisory has been rejected by the vulnerability registry.",
		model.ReasonUpstreamFix:      "Fixed upstream in version {fixed_version}.",
		model.ReasonNewItem:          "Recently observed advisory with no substantive signals yet. Awaiting upstream data.",
		model.ReasonAwaitingFix:      "No fix currently available upstream. Sources consulted: {sources}.",
		"DEFAULT":                    "State determined by the decision engine.",
	}
}

// Explainer renders human-readable explanations from reason codes and
// evidence values.
type Explainer struct {
	templates map[string]string
}

// NewExplainer creates an explainer. A nil template map uses the defaults.
func NewExplainer(templates map[string]string) *Explainer {
	if templates == nil {
		templates = DefaultTemplates()
	}
	return &Explainer{templates: templates}
}

// Render substitutes placeholder values into the template for a reason
// code. Unknown reason codes fall back to the DEFAULT template; missing or
// empty placeholder values render as "unknown".
func (e *Explainer) Render(reasonCode string, values map[string]interface{}) string {
	template, ok := e.templates[reasonCode]
	if !ok {
		template = e.templates["DEFAULT"]
	}

	rendered := placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		name := strings.Trim(match, "{}")
		v, ok := values[name]
		if !ok || v == nil {
			return "unknown"
		}
		s := strings.TrimSpace(fmt.Sprint(v))
		if s == "" {
			return "unknown"
		}
		return s
	})

	return strings.TrimSpace(rendered)
}
