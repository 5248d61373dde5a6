package hxfaces

import (
	"context"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Severity ranks messages. The zero value is SeverityInfo.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	}
	return "unknown"
}

// Message is feedback for the user, attached to a component by client id or
// to the whole view with the empty client id.
type Message struct {
	Severity Severity
	Summary  string
	Detail   string
}

// ErrorMessage builds a SeverityError message.
func ErrorMessage(summary, detail string) Message {
	return Message{Severity: SeverityError, Summary: summary, Detail: detail}
}

type clientMessage struct {
	clientID string
	msg      Message
}

// AddMessage attaches m to the component with clientID. Use "" for messages
// not tied to a component.
func (c *Context) AddMessage(clientID string, m Message) {
	c.messages = append(c.messages, clientMessage{clientID: clientID, msg: m})
}

// Messages returns the messages of clientID in the order they were added.
func (c *Context) Messages(clientID string) []Message {
	var out []Message
	for _, cm := range c.messages {
		if cm.clientID == clientID {
			out = append(out, cm.msg)
		}
	}
	return out
}

// AllMessages returns every message in the order it was added.
func (c *Context) AllMessages() []Message {
	out := make([]Message, len(c.messages))
	for i, cm := range c.messages {
		out[i] = cm.msg
	}
	return out
}

// ClientIDsWithMessages returns the distinct client ids that have messages.
func (c *Context) ClientIDsWithMessages() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, cm := range c.messages {
		if !seen[cm.clientID] {
			seen[cm.clientID] = true
			ids = append(ids, cm.clientID)
		}
	}
	return ids
}

// MaximumSeverity returns the highest severity of all messages and false if
// there are none.
func (c *Context) MaximumSeverity() (Severity, bool) {
	if len(c.messages) == 0 {
		return SeverityInfo, false
	}
	max := c.messages[0].msg.Severity
	for _, cm := range c.messages[1:] {
		if cm.msg.Severity > max {
			max = cm.msg.Severity
		}
	}
	return max, true
}

// MessagesContainerID is the element id global messages are swapped into.
const MessagesContainerID = "messages"

// RenderMessagesOOB renders messages as an HTMX out-of-band swap that appends
// them to the #messages container. Partial responses use it for messages that
// are not rendered by a component in the response.
//
// The data-auto-dismiss attribute is read by client code that removes the
// message after the given delay in milliseconds.
func RenderMessagesOOB(msgs []Message) string {
	if len(msgs) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(`<div id="` + MessagesContainerID + `" hx-swap-oob="` + string(SwapBeforeEnd) + `">`)
	for _, m := range msgs {
		writeMessage(&sb, m, true)
	}
	sb.WriteString(`</div>`)
	return sb.String()
}

func writeMessage(sb *strings.Builder, m Message, dismiss bool) {
	sb.WriteString(`<div class="message message-`)
	sb.WriteString(m.Severity.String())
	sb.WriteString(`"`)
	if dismiss {
		sb.WriteString(` data-auto-dismiss="3000"`)
	}
	sb.WriteString(`>`)
	sb.WriteString(html.EscapeString(m.Summary))
	if m.Detail != "" && m.Detail != m.Summary {
		sb.WriteString(`<span class="message-detail">`)
		sb.WriteString(html.EscapeString(m.Detail))
		sb.WriteString(`</span>`)
	}
	sb.WriteString(`</div>`)
}

// MessagesContainer returns the container targeted by RenderMessagesOOB,
// filled with msgs. Add it to page layouts.
func MessagesContainer(msgs []Message) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var sb strings.Builder
		sb.WriteString(`<div id="` + MessagesContainerID + `" class="messages">`)
		for _, m := range msgs {
			writeMessage(&sb, m, false)
		}
		sb.WriteString(`</div>`)
		_, err := io.WriteString(w, sb.String())
		return err
	})
}
