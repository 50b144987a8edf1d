// Package prompt maps document categories to the analysis prompts sent to
// the summarizer. The registry is read-only after process start; unknown
// categories resolve to the generic prompt instead of failing.
package prompt

import (
	"fmt"

	"github.com/caregrid/docpipeline/internal/core/domain"
)

// MaxTextLength bounds how many characters of extracted text are embedded
// into a prompt. The full text still flows to length grading and previews;
// only the model input is cut.
const MaxTextLength = 4000

const certificationTemplate = `Analyze this certification document and extract:
1. Certification type and issuing organization
2. Issue date and expiration date
3. Certification number
4. Key qualifications granted
5. Any restrictions or limitations

Text: %s`

const backgroundCheckTemplate = `Analyze this background check document and extract:
1. Type of background check performed
2. Date of check
3. Overall result (clear/flagged)
4. Any issues or concerns noted
5. Validity period

Text: %s`

const identificationTemplate = `Analyze this identification document and extract:
1. Document type (driver's license, passport, etc.)
2. Full name
3. Expiration date
4. Issuing authority

Text: %s`

const genericTemplate = `Summarize the key information from this document:

Text: %s`

var templates = map[domain.Category]string{
	domain.CategoryCertification:   certificationTemplate,
	domain.CategoryBackgroundCheck: backgroundCheckTemplate,
	domain.CategoryIdentification:  identificationTemplate,
	domain.CategoryGeneric:         genericTemplate,
}

// TemplateFor returns the prompt template for a category, falling back to
// the generic template for categories the registry does not know.
func TemplateFor(category domain.Category) string {
	if template, ok := templates[category]; ok {
		return template
	}
	return genericTemplate
}

// Render builds the summarization prompt for a category, truncating the
// embedded text to MaxTextLength characters.
func Render(category domain.Category, text string) string {
	runes := []rune(text)
	if len(runes) > MaxTextLength {
		text = string(runes[:MaxTextLength])
	}
	return fmt.Sprintf(TemplateFor(category), text)
}
