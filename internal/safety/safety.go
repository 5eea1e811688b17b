package safety

import "regexp"

// Result is the classifier verdict for a single question.
type Result struct {
	Blocked bool
	Reason  string
}

type rule struct {
	pattern *regexp.Regexp
	reason  string
}

// Ordered: the first matching category wins. This is a deny-on-match word
// filter, not a classifier; the pattern set is fixed and English-only, and
// adversarial phrasing will slip through. That is the accepted contract.
var rules = []rule{
	{regexp.MustCompile(`(?i)\b(sex|sexual|porn|nude)\b`), "adult-content"},
	{regexp.MustCompile(`(?i)\b(address|phone number|email)\b`), "personal-data"},
	{regexp.MustCompile(`(?i)\b(drug|overdose|self harm|suicide)\b`), "harmful-content"},
	{regexp.MustCompile(`(?i)\b(gun|weapon|bomb)\b`), "weapons"},
}

// Evaluate checks a question against the blocklist. Unmatched input passes.
func Evaluate(question string) Result {
	for _, r := range rules {
		if r.pattern.MatchString(question) {
			return Result{Blocked: true, Reason: r.reason}
		}
	}
	return Result{}
}
