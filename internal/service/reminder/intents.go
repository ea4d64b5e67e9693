package reminder

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/zhouzirui/reminder-bot/backend/internal/model/intent"
	"github.com/zhouzirui/reminder-bot/backend/internal/service/parser"
)

// maxDelaySeconds keeps seconds*time.Second inside a time.Duration.
const maxDelaySeconds = math.MaxInt64 / int64(time.Second)

var messageParser = parser.New[intent.Message](intent.Unknown{},
	parser.Intent[intent.Message]{
		Patterns: []*regexp.Regexp{parser.Pattern(`help\.?`)},
		Build: func(parser.Captures) (intent.Message, bool) {
			return intent.Help{}, true
		},
	},
	parser.Intent[intent.Message]{
		Patterns: []*regexp.Regexp{
			parser.Pattern(`(?:remind|tell) me to (?P<text>.*) in (?P<quantity>\d+|a|an) (?P<unit>(?:second|minute|hour)s?)\.?`),
			parser.Pattern(`in (?P<quantity>\d+|a|an) (?P<unit>(?:second|minute|hour)s?),? (?:remind|tell) me to (?P<text>.*)\.?`),
		},
		Build: buildAddReminder,
	},
	parser.Intent[intent.Message]{
		Patterns: []*regexp.Regexp{parser.Pattern(`(?:list|show|tell) (?:(?:me|all|of|my) )*reminders\.?`)},
		Build: func(parser.Captures) (intent.Message, bool) {
			return intent.ListReminders{}, true
		},
	},
	parser.Intent[intent.Message]{
		Patterns: []*regexp.Regexp{parser.Pattern(`(?:clear|delete|remove|forget) (?:(?:all|of|my) )*reminders\.?`)},
		Build: func(parser.Captures) (intent.Message, bool) {
			return intent.ClearAllReminders{}, true
		},
	},
	parser.Intent[intent.Message]{
		Patterns: []*regexp.Regexp{parser.Pattern(`(?:clear|delete|remove|forget) (?:reminder )?(?P<id>\d+)\.?`)},
		Build: func(c parser.Captures) (intent.Message, bool) {
			id, err := strconv.Atoi(c["id"])
			if err != nil {
				return nil, false
			}
			return intent.ClearReminder{ID: id}, true
		},
	},
)

// ParseMessage classifies one chat line. It never fails: unrecognised input
// yields intent.Unknown.
func ParseMessage(line string) intent.Message {
	return messageParser.Parse(line)
}

func buildAddReminder(c parser.Captures) (intent.Message, bool) {
	quantity := strings.ToLower(c["quantity"])

	var n int64 = 1
	if !strings.HasPrefix(quantity, "a") {
		parsed, err := strconv.ParseInt(quantity, 10, 64)
		if err != nil {
			return nil, false
		}
		n = parsed
	}

	var multiplier int64 = 1
	switch unit := strings.ToLower(c["unit"]); {
	case strings.HasPrefix(unit, "minute"):
		multiplier = 60
	case strings.HasPrefix(unit, "hour"):
		multiplier = 3600
	}

	if n > maxDelaySeconds/multiplier {
		return nil, false
	}

	return intent.AddReminder{Text: c["text"], Seconds: int(n * multiplier)}, true
}
