package overlay

import (
	"sync"
	"time"
)

// State is the presenter's display mode.
type State string

const (
	StateListening     State = "listening"
	StateQuestionShown State = "question"
	StateAnswerShown   State = "answer"
)

const (
	// RevertDelay returns the overlay to listening after an answer, or after
	// a question that never got one, has been on screen long enough.
	RevertDelay = 4 * time.Second

	listeningStatus = "Listening to captions…"
	questionStatus  = "Question detected…"
	answerStatus    = "Answer:"

	toneListening = "info"
	toneQuestion  = "highlight"
	toneAnswer    = "success"
)

// Surface is the rendering sink. Implementations own widget styling and drag
// behavior; the presenter only decides what text is shown when.
type Surface interface {
	SetStatus(text, tone string)
	SetContent(text string)
}

// Presenter is the 3-state overlay machine. Question and answer signals each
// reset the auto-revert timer; caption activity on its own never changes the
// display.
type Presenter struct {
	surface Surface
	delay   time.Duration

	mu    sync.Mutex
	state State
	timer *time.Timer
}

func NewPresenter(surface Surface) *Presenter {
	return &Presenter{surface: surface, delay: RevertDelay, state: StateListening}
}

// SetRevertDelay overrides the auto-revert delay. Tests only.
func (p *Presenter) SetRevertDelay(d time.Duration) { p.delay = d }

// ShowListening renders the idle state and cancels any pending revert.
func (p *Presenter) ShowListening() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopTimer()
	p.state = StateListening
	p.surface.SetStatus(listeningStatus, toneListening)
	p.surface.SetContent("")
}

// ShowQuestion renders a detected question and arms the revert timer.
func (p *Presenter) ShowQuestion(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = StateQuestionShown
	p.surface.SetStatus(questionStatus, toneQuestion)
	p.surface.SetContent(text)
	p.armTimer()
}

// ShowAnswer renders an answer and re-arms the revert timer.
func (p *Presenter) ShowAnswer(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = StateAnswerShown
	p.surface.SetStatus(answerStatus, toneAnswer)
	p.surface.SetContent(text)
	p.armTimer()
}

// State reports the current display mode.
func (p *Presenter) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Presenter) armTimer() {
	p.stopTimer()
	p.timer = time.AfterFunc(p.delay, p.revert)
}

func (p *Presenter) stopTimer() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

func (p *Presenter) revert() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timer = nil
	p.state = StateListening
	p.surface.SetStatus(listeningStatus, toneListening)
	p.surface.SetContent("")
}
