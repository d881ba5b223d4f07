package message

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// Defaults stored when a draft leaves the field unset.
const (
	DefaultSender   = "Anonymous"
	DefaultSourceIP = "0.0.0.0"
)

// ErrMalformedID marks a surface identifier that does not match the
// required msg-<digits> pattern. It is raised before any store access.
var ErrMalformedID = errors.New("malformed message id")

var idPattern = regexp.MustCompile(`^msg-(\d{1,3})$`)

// ParseID extracts the database key from a surface identifier of the
// form msg-<1 to 3 digits>.
func ParseID(id string) (int64, error) {
	m := idPattern.FindStringSubmatch(id)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedID, id)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedID, id)
	}
	return n, nil
}

// FormatID renders a database key as a surface identifier.
func FormatID(key int64) string {
	return "msg-" + strconv.FormatInt(key, 10)
}

// Message is the full record shape returned by Get.
//
// Sender is the author nickname; it may name a registered user or an
// unregistered one, and is nil only for rows whose author column was
// cleared. ReplyTo and Editor are nil when absent.
type Message struct {
	ID          string
	Title       string
	Body        string
	Timestamp   int64
	SourceIP    string
	TimesViewed int
	ReplyTo     *string
	Sender      *string
	Editor      *string
}

// Summary is the reduced projection used for listings.
type Summary struct {
	ID        string
	Title     string
	Timestamp int64
	Sender    *string
}

// Summary projects the full record into its list shape.
func (m *Message) Summary() *Summary {
	return &Summary{ID: m.ID, Title: m.Title, Timestamp: m.Timestamp, Sender: m.Sender}
}

// Draft holds the caller-supplied fields for a new message. Empty Sender
// and SourceIP take the package defaults.
type Draft struct {
	Title    string
	Body     string
	Sender   string
	SourceIP string
	ReplyTo  *string
}

// Filter configures List. The zero value (with Limit -1, Before -1,
// After -1 meaning "no bound") matches every message; Unfiltered returns
// that value. Conditions combine conjunctively and the timestamp bounds
// are strict.
type Filter struct {
	Nickname string
	Limit    int
	Before   int64
	After    int64
}

// Unfiltered matches all messages with no result limit.
func Unfiltered() Filter {
	return Filter{Limit: -1, Before: -1, After: -1}
}
