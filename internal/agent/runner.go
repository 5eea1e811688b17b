package agent

import (
	"context"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mllorens/captionpal/internal/protocol"
	"github.com/mllorens/captionpal/internal/question"
)

// fallbackAnswer is shown whenever the exchange fails; the user never sees a
// raw error.
const fallbackAnswer = "I'm not sure."

// AnswerClient is the remote gateway as the agent sees it.
type AnswerClient interface {
	RequestAnswer(ctx context.Context, q string, contextLines []string) (protocol.AnswerResponse, error)
}

// Display receives the three overlay signals.
type Display interface {
	ShowListening()
	ShowQuestion(text string)
	ShowAnswer(text string)
}

// Runner turns caption lines into displayed answers. Each dispatched
// exchange captures a sequence number; a response may touch the display only
// while its number is still the latest, so rapid-fire questions cannot show
// a stale answer. Superseded exchanges are not aborted over the network;
// they complete and are discarded, bounding waste at one extra in-flight
// call per burst.
type Runner struct {
	client   AnswerClient
	display  Display
	detector *question.Detector

	seq atomic.Uint64
	now func() time.Time
}

func NewRunner(client AnswerClient, display Display) *Runner {
	return &Runner{
		client:   client,
		display:  display,
		detector: question.NewDetector(),
		now:      time.Now,
	}
}

// SetClock overrides the detector clock. Tests only.
func (r *Runner) SetClock(now func() time.Time) { r.now = now }

// HandleLine is the capture watcher's line callback: classify, and dispatch
// when a question is accepted.
func (r *Runner) HandleLine(ctx context.Context, line string, buffer []string) {
	cand, ok := r.detector.Scan(line, buffer, r.now())
	if !ok {
		return
	}
	r.Dispatch(ctx, cand)
}

// Dispatch issues one answer exchange for an accepted question.
func (r *Runner) Dispatch(ctx context.Context, cand question.Candidate) {
	id := r.seq.Add(1)
	turnID := uuid.NewString()

	r.display.ShowQuestion(cand.Question)
	log.Printf("agent: question detected (turn %s): %q", turnID, cand.Question)

	go func() {
		res, err := r.client.RequestAnswer(ctx, cand.Question, cand.Context)

		text := strings.TrimSpace(res.Answer)
		if err != nil || text == "" {
			if err != nil {
				log.Printf("agent: answer request failed (turn %s): %v", turnID, err)
			}
			text = fallbackAnswer
		}

		if r.seq.Load() != id {
			// A newer question owns the display now.
			log.Printf("agent: discarding stale answer (turn %s)", turnID)
			return
		}
		if res.Blocked {
			log.Printf("agent: answer blocked (turn %s): %s", turnID, res.Reason)
		}
		r.display.ShowAnswer(text)
	}()
}
