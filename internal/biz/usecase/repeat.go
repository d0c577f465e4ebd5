package usecase

import "math/rand"

const (
	// RepeatQueueSize bounds how many distinct texts the detector tracks.
	RepeatQueueSize = 32
	// RepeatCountMin is the distinct-sender threshold before an echo draw.
	RepeatCountMin = 2
	// RepeatCountMax tunes the echo probability: the draw span shrinks as
	// more distinct senders post the same text.
	RepeatCountMax = 4
)

// RepeatOutcome is the decision for one observed group message.
type RepeatOutcome int

const (
	// RepeatNoAction means the message needs no intervention.
	RepeatNoAction RepeatOutcome = iota
	// RepeatEcho means the bot should echo the text back to the group.
	RepeatEcho
	// RepeatBanSuggested means the sender keeps spamming an already-echoed
	// text and drew the short straw; the caller applies an escalating mute.
	RepeatBanSuggested
)

// queuedMessage is one tracked text in the sliding window.
type queuedMessage struct {
	text     string
	senders  map[string]struct{} // distinct senders while in the window
	repeated bool                // echo already fired for this entry
}

// RepeatDetector keeps a most-recent-first window of recent distinct
// message texts and decides when cross-user repetition deserves an echo or
// a mute. Only the pipeline goroutine touches it.
type RepeatDetector struct {
	rng   *rand.Rand
	gate  *RandomGate
	queue []*queuedMessage // index 0 is most recent
}

// NewRepeatDetector creates a detector drawing randomness from rng and
// gating mute suggestions through gate.
func NewRepeatDetector(rng *rand.Rand, gate *RandomGate) *RepeatDetector {
	return &RepeatDetector{rng: rng, gate: gate}
}

// Observe records one group message and returns the action to take.
// The entry for text is moved (or inserted) at the front of the window;
// the oldest entry is evicted once capacity is exceeded.
func (d *RepeatDetector) Observe(text, sender string, senderIsAdmin bool) RepeatOutcome {
	msg := d.take(text)
	if msg == nil {
		msg = &queuedMessage{text: text, senders: make(map[string]struct{})}
	}
	msg.senders[sender] = struct{}{}
	count := len(msg.senders)

	d.queue = append([]*queuedMessage{msg}, d.queue...)
	if len(d.queue) > RepeatQueueSize {
		d.queue = d.queue[:RepeatQueueSize]
	}

	if msg.repeated && !senderIsAdmin && d.gate.Next() {
		return RepeatBanSuggested
	}

	if msg.repeated || count < RepeatCountMin {
		return RepeatNoAction
	}
	span := RepeatCountMax - count + 1
	if span < 1 {
		span = 1
	}
	if d.rng.Intn(span) == 0 {
		msg.repeated = true
		return RepeatEcho
	}
	return RepeatNoAction
}

// Len returns the number of tracked texts.
func (d *RepeatDetector) Len() int {
	return len(d.queue)
}

// take removes and returns the tracked entry matching text exactly, if any.
func (d *RepeatDetector) take(text string) *queuedMessage {
	for i, m := range d.queue {
		if m.text == text {
			d.queue = append(d.queue[:i], d.queue[i+1:]...)
			return m
		}
	}
	return nil
}
