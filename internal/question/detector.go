package question

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MinLength is measured on the normalized line; shorter fragments are
	// caption noise, not questions.
	MinLength = 6

	// Cooldown suppresses a second question too soon after an accepted one,
	// whatever its content.
	Cooldown = 5 * time.Second
)

// Candidate is one detected question with the caption lines heard just
// before it, oldest first.
type Candidate struct {
	Question string
	Context  []string
}

// starterPattern matches interrogative and request openers. It is a cheap
// heuristic, not a grammar: misfires are tolerated, crashes are not.
var starterPattern = regexp.MustCompile(`^(what|why|how|when|where|who|which|can you|do you|does|is|are|tell me|define|explain)\b`)

// Detector classifies caption lines as questions and applies the
// dedup/cooldown policy. Not safe for concurrent use; the capture loop calls
// it from a single goroutine.
type Detector struct {
	lastAcceptedAt time.Time
	lastQuestion   string
}

func NewDetector() *Detector { return &Detector{} }

// IsQuestion reports whether a normalized line reads as a question.
func IsQuestion(line string) bool {
	normalized := strings.ToLower(strings.Join(strings.Fields(line), " "))
	if utf8.RuneCountInString(normalized) < MinLength {
		return false
	}
	if strings.HasSuffix(normalized, "?") {
		return true
	}
	return starterPattern.MatchString(normalized)
}

// Scan inspects one buffered line. On acceptance it returns a Candidate
// carrying the original-case line and up to the 3 most recent other buffer
// entries as context. The buffer is expected to contain the line as its last
// entry, the way the capture watcher emits it.
func (d *Detector) Scan(line string, buffer []string, now time.Time) (Candidate, bool) {
	if !IsQuestion(line) {
		return Candidate{}, false
	}

	normalized := strings.ToLower(strings.Join(strings.Fields(line), " "))
	if !d.lastAcceptedAt.IsZero() && now.Sub(d.lastAcceptedAt) < Cooldown {
		return Candidate{}, false
	}
	if normalized == d.lastQuestion {
		return Candidate{}, false
	}

	d.lastAcceptedAt = now
	d.lastQuestion = normalized

	return Candidate{Question: line, Context: contextLines(line, buffer)}, true
}

// contextLines picks up to the last 3 buffer entries preceding the question
// line, oldest first.
func contextLines(line string, buffer []string) []string {
	end := len(buffer)
	if end > 0 && buffer[end-1] == line {
		end--
	}
	start := end - 3
	if start < 0 {
		start = 0
	}
	if start == end {
		return nil
	}
	return append([]string(nil), buffer[start:end]...)
}
