package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mllorens/captionpal/internal/protocol"
	"github.com/mllorens/captionpal/internal/question"
)

type scriptedClient struct {
	mu      sync.Mutex
	pending map[string]chan protocol.AnswerResponse
	errs    map[string]error
}

func newScriptedClient() *scriptedClient {
	return &scriptedClient{
		pending: make(map[string]chan protocol.AnswerResponse),
		errs:    make(map[string]error),
	}
}

func (c *scriptedClient) RequestAnswer(ctx context.Context, q string, _ []string) (protocol.AnswerResponse, error) {
	c.mu.Lock()
	ch, ok := c.pending[q]
	err := c.errs[q]
	c.mu.Unlock()
	if err != nil {
		return protocol.AnswerResponse{}, err
	}
	if !ok {
		return protocol.AnswerResponse{Answer: "immediate answer"}, nil
	}
	select {
	case res := <-ch:
		return res, nil
	case <-ctx.Done():
		return protocol.AnswerResponse{}, ctx.Err()
	}
}

func (c *scriptedClient) hold(q string) chan protocol.AnswerResponse {
	ch := make(chan protocol.AnswerResponse, 1)
	c.mu.Lock()
	c.pending[q] = ch
	c.mu.Unlock()
	return ch
}

func (c *scriptedClient) failWith(q string, err error) {
	c.mu.Lock()
	c.errs[q] = err
	c.mu.Unlock()
}

type recordingDisplay struct {
	mu        sync.Mutex
	questions []string
	answers   []string
}

func (d *recordingDisplay) ShowListening() {}

func (d *recordingDisplay) ShowQuestion(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.questions = append(d.questions, text)
}

func (d *recordingDisplay) ShowAnswer(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.answers = append(d.answers, text)
}

func (d *recordingDisplay) lastAnswer() (string, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.answers) == 0 {
		return "", 0
	}
	return d.answers[len(d.answers)-1], len(d.answers)
}

func waitForAnswers(t *testing.T, d *recordingDisplay, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, n := d.lastAnswer(); n >= want {
			return
		}
		if time.Now().After(deadline) {
			_, n := d.lastAnswer()
			t.Fatalf("answers shown = %d, want %d", n, want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	client := newScriptedClient()
	display := &recordingDisplay{}
	r := NewRunner(client, display)

	first := client.hold("What is gravity")
	second := client.hold("What is inertia")

	ctx := context.Background()
	r.Dispatch(ctx, question.Candidate{Question: "What is gravity"})
	r.Dispatch(ctx, question.Candidate{Question: "What is inertia"})

	// The superseded exchange completes first; nothing may change.
	first <- protocol.AnswerResponse{Answer: "Gravity pulls things down."}
	time.Sleep(50 * time.Millisecond)
	if _, n := display.lastAnswer(); n != 0 {
		t.Fatalf("stale answer reached the display")
	}

	second <- protocol.AnswerResponse{Answer: "Inertia keeps things moving."}
	waitForAnswers(t, display, 1)
	if got, _ := display.lastAnswer(); got != "Inertia keeps things moving." {
		t.Fatalf("displayed answer = %q, want the latest exchange's", got)
	}
}

func TestFailureShowsFallback(t *testing.T) {
	client := newScriptedClient()
	client.failWith("What is a quasar", errors.New("gateway timeout"))
	display := &recordingDisplay{}
	r := NewRunner(client, display)

	r.Dispatch(context.Background(), question.Candidate{Question: "What is a quasar"})
	waitForAnswers(t, display, 1)
	if got, _ := display.lastAnswer(); got != "I'm not sure." {
		t.Fatalf("displayed answer = %q, want fallback", got)
	}
}

func TestFailedStaleResponseStaysHidden(t *testing.T) {
	client := newScriptedClient()
	display := &recordingDisplay{}
	r := NewRunner(client, display)

	first := client.hold("What is a comet")

	ctx := context.Background()
	r.Dispatch(ctx, question.Candidate{Question: "What is a comet"})
	r.Dispatch(ctx, question.Candidate{Question: "What is a meteor"})
	waitForAnswers(t, display, 1) // the immediate second exchange

	// Now the stale first exchange fails; its fallback must not render.
	close(first)
	time.Sleep(50 * time.Millisecond)
	if _, n := display.lastAnswer(); n != 1 {
		t.Fatalf("answers shown = %d, want 1 (stale fallback discarded)", n)
	}
}

func TestHandleLineDetectsAndDispatches(t *testing.T) {
	client := newScriptedClient()
	display := &recordingDisplay{}
	r := NewRunner(client, display)

	base := time.Now()
	r.SetClock(func() time.Time { return base })

	ctx := context.Background()
	r.HandleLine(ctx, "open your books please", []string{"open your books please"})
	r.HandleLine(ctx, "What is photosynthesis", []string{"open your books please", "What is photosynthesis"})

	display.mu.Lock()
	questions := append([]string(nil), display.questions...)
	display.mu.Unlock()
	if len(questions) != 1 || questions[0] != "What is photosynthesis" {
		t.Fatalf("questions shown = %v", questions)
	}
	waitForAnswers(t, display, 1)
}
