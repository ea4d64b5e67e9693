package intent

// Kind names a recognised command shape.
type Kind string

const (
	KindHelp              Kind = "help"
	KindAddReminder       Kind = "add-reminder"
	KindListReminders     Kind = "list-reminders"
	KindClearAllReminders Kind = "clear-all-reminders"
	KindClearReminder     Kind = "clear-reminder"
	KindUnknown           Kind = "unknown"
)

// Message is the parsed form of one inbound chat line. The set of
// implementations is closed to this package.
type Message interface {
	Kind() Kind
	isMessage()
}

// Help asks for the list of supported phrasings.
type Help struct{}

// AddReminder schedules Text to be pushed back after Seconds.
type AddReminder struct {
	Text    string `json:"text"`
	Seconds int    `json:"seconds"`
}

// ListReminders asks for the pending reminders of the session.
type ListReminders struct{}

// ClearAllReminders cancels every pending reminder of the session.
type ClearAllReminders struct{}

// ClearReminder cancels the reminder with the given id.
type ClearReminder struct {
	ID int `json:"id"`
}

// Unknown is produced when no intent matched.
type Unknown struct{}

func (Help) Kind() Kind              { return KindHelp }
func (AddReminder) Kind() Kind       { return KindAddReminder }
func (ListReminders) Kind() Kind     { return KindListReminders }
func (ClearAllReminders) Kind() Kind { return KindClearAllReminders }
func (ClearReminder) Kind() Kind     { return KindClearReminder }
func (Unknown) Kind() Kind           { return KindUnknown }

func (Help) isMessage()              {}
func (AddReminder) isMessage()       {}
func (ListReminders) isMessage()     {}
func (ClearAllReminders) isMessage() {}
func (ClearReminder) isMessage()     {}
func (Unknown) isMessage()           {}
