package reminder

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zhouzirui/reminder-bot/backend/internal/model/intent"
)

const (
	greetingText = "Greetings, friend! Type <tt>help</tt> to get started."

	helpText = `I am a reminder bot, here to help you get organized. Here are some of the things you can ask me to do:

<ul>
  <li>Add reminders, e.g. <tt>remind me to make dinner in 5 minutes</tt>.</li>
  <li>List reminders, e.g. <tt>show all reminders</tt>.</li>
  <li>Clear reminders, e.g. <tt>clear all reminders</tt> or <tt>clear reminder 3</tt>.</li>
</ul>

At the moment I am not very sophisticated, but maybe you can help make me better!`

	noRemindersText = "You have no reminders."
	clearedAllText  = "Ok, I have cleared all of your reminders."
	unknownText     = "I'm sorry, I don't understand what you mean."
)

var (
	myPattern = regexp.MustCompile(`\bmy\b`)
	mePattern = regexp.MustCompile(`\bme\b`)
)

// Sink receives every outbound line of a session, replies and due
// notifications alike, in order. Send may wait for the transport but must
// not drop a line it accepted.
type Sink interface {
	Send(text string) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(text string) error

func (f SinkFunc) Send(text string) error { return f(text) }

// Reminder is a pending notification owned by a session.
type Reminder struct {
	ID    int       `json:"id"`
	DueAt time.Time `json:"dueAt"`
	Text  string    `json:"text"`

	timer Timer
}

// Session is the per-connection reminder state. All mutation, including
// timer callbacks, happens under mu.
type Session struct {
	id      string
	clock   Clock
	sink    Sink
	logger  *zap.Logger
	metrics *Metrics

	mu        sync.Mutex
	reminders []*Reminder
	nextID    int
	closed    bool
}

func newSession(id string, sink Sink, clock Clock, logger *zap.Logger, metrics *Metrics) *Session {
	return &Session{
		id:      id,
		clock:   clock,
		sink:    sink,
		logger:  logger.With(zap.String("sessionID", id)),
		metrics: metrics,
		nextID:  1,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Receive parses one inbound line, executes it and sends the reply through
// the sink. The reply is queued before any timer scheduled by the line can
// push its notification.
func (s *Session) Receive(line string) error {
	msg := ParseMessage(line)

	s.mu.Lock()
	defer s.mu.Unlock()

	reply := s.execute(msg)
	if err := s.sink.Send(reply); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

// Execute applies msg to the session and returns the reply text.
func (s *Session) Execute(msg intent.Message) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.execute(msg)
}

func (s *Session) execute(msg intent.Message) string {
	s.metrics.observeMessage(msg.Kind())
	s.logger.Debug("executing message", zap.String("kind", string(msg.Kind())))

	switch m := msg.(type) {
	case intent.Help:
		return helpText

	case intent.AddReminder:
		return s.addReminder(m)

	case intent.ListReminders:
		return s.listReminders()

	case intent.ClearAllReminders:
		s.clearAll()
		return clearedAllText

	case intent.ClearReminder:
		r, ok := s.remove(m.ID)
		if !ok {
			return fmt.Sprintf("There is no reminder with id %d.", m.ID)
		}
		r.timer.Stop()
		s.metrics.cancelled(1)
		s.logger.Info("reminder cancelled", zap.Int("reminderID", r.ID))
		return fmt.Sprintf("Ok, I will not remind you to %s.", r.Text)

	default:
		return unknownText
	}
}

func (s *Session) addReminder(m intent.AddReminder) string {
	text := rewritePronouns(m.Text)
	delay := time.Duration(m.Seconds) * time.Second

	id := s.nextID
	s.nextID++

	unit := "seconds"
	if m.Seconds == 1 {
		unit = "second"
	}
	reply := fmt.Sprintf("Ok, I will remind you to %s in %d %s.", text, m.Seconds, unit)

	if s.closed {
		return reply
	}

	r := &Reminder{ID: id, DueAt: s.clock.Now().Add(delay), Text: text}
	r.timer = s.clock.AfterFunc(delay, func() { s.fire(id) })
	s.reminders = append(s.reminders, r)

	s.metrics.scheduled()
	s.logger.Info("reminder scheduled",
		zap.Int("reminderID", id),
		zap.Int("seconds", m.Seconds),
	)
	return reply
}

func (s *Session) listReminders() string {
	if len(s.reminders) == 0 {
		return noRemindersText
	}

	now := s.clock.Now()

	var b strings.Builder
	b.WriteString(`
<table border="1">
  <thead>
    <tr>
      <th>id</th>
      <th>seconds remaining</th>
      <th>text</th>
    </tr>
  </thead>
  <tbody>`)
	for _, r := range s.reminders {
		fmt.Fprintf(&b, `
    <tr>
      <td>%d</td>
      <td>%d</td>
      <td>%s</td>
    </tr>`, r.ID, secondsUntil(now, r.DueAt), r.Text)
	}
	b.WriteString(`
  </tbody>
</table>`)
	return b.String()
}

// fire delivers the due notification unless the reminder was cancelled in
// the meantime.
func (s *Session) fire(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	r, ok := s.remove(id)
	if !ok {
		return
	}

	s.metrics.fired()
	s.logger.Info("reminder due", zap.Int("reminderID", id))

	if err := s.sink.Send(fmt.Sprintf("It is time to %s!", r.Text)); err != nil {
		s.logger.Warn("failed to send due notification", zap.Int("reminderID", id), zap.Error(err))
	}
}

func (s *Session) remove(id int) (*Reminder, bool) {
	for i, r := range s.reminders {
		if r.ID == id {
			s.reminders = append(s.reminders[:i], s.reminders[i+1:]...)
			return r, true
		}
	}
	return nil, false
}

func (s *Session) clearAll() {
	for _, r := range s.reminders {
		r.timer.Stop()
	}
	n := len(s.reminders)
	s.reminders = nil

	s.metrics.cancelled(n)
	if n > 0 {
		s.logger.Info("reminders cleared", zap.Int("count", n))
	}
}

// Close cancels every pending reminder. No notification is sent afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.clearAll()
	s.closed = true
}

// Pending returns a snapshot of the live reminders in insertion order.
func (s *Session) Pending() []Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Reminder, 0, len(s.reminders))
	for _, r := range s.reminders {
		out = append(out, Reminder{ID: r.ID, DueAt: r.DueAt, Text: r.Text})
	}
	return out
}

// NextID returns the id the next reminder will get.
func (s *Session) NextID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextID
}

func rewritePronouns(text string) string {
	text = myPattern.ReplaceAllLiteralString(text, "your")
	return mePattern.ReplaceAllLiteralString(text, "you")
}

// secondsUntil rounds half up, so -2.5 becomes -2. Past due times stay
// negative.
func secondsUntil(now, due time.Time) int {
	return int(math.Floor(due.Sub(now).Seconds() + 0.5))
}
