package render

import (
	"math/rand"
	"strings"
	"time"

	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/contacts"
)

// Markers users can place in a message body. Unknown {{x}} markers pass
// through untouched.
const (
	MarkerName      = "{{name}}"
	MarkerNumber    = "{{number}}"
	MarkerTimeNow   = "{{timeNow}}"
	MarkerSentTime  = "{{sentTime}}"
	MarkerRandomTag = "{{randomTag}}"
)

const timeLayout = "1/2/2006, 3:04:05 PM"

var markers = []string{MarkerName, MarkerNumber, MarkerTimeNow, MarkerSentTime, MarkerRandomTag}

// Render expands every marker occurrence for one recipient. sentTime is the
// scheduled send time for scheduled messages, otherwise the current time.
// The random tag is generated fresh on every call.
func Render(body string, c contacts.Contact, now, sentTime time.Time) string {
	out := strings.ReplaceAll(body, MarkerName, c.Name)
	out = strings.ReplaceAll(out, MarkerNumber, c.PhoneNumber)
	out = strings.ReplaceAll(out, MarkerTimeNow, now.Format(timeLayout))
	out = strings.ReplaceAll(out, MarkerSentTime, sentTime.Format(timeLayout))
	out = strings.ReplaceAll(out, MarkerRandomTag, RandomTag())
	return out
}

// HasVariables reports whether the body contains any known marker, so
// callers can decide between one grouped send and per-recipient sends.
func HasVariables(body string) bool {
	for _, m := range markers {
		if strings.Contains(body, m) {
			return true
		}
	}
	return false
}

const tagAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// RandomTag returns a short alphanumeric token used to make repeated
// messages look distinct.
func RandomTag() string {
	b := make([]byte, 6)
	for i := range b {
		b[i] = tagAlphabet[rand.Intn(len(tagAlphabet))]
	}
	return string(b)
}
