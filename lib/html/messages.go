package html

import (
	"strings"

	"github.com/a-h/templ"

	"github.com/pthm/hxfaces"
)

const (
	FamilyMessages = "hxfaces.Messages"
	TypeMessages   = "hxfaces.Messages"
)

// Messages lists the messages queued on the request. With a "for" attribute
// it lists those of one component, found like FindComponent; with
// "globalOnly" set it lists the messages not tied to a component.
type Messages struct {
	*hxfaces.Base
}

func NewMessages() *Messages {
	m := &Messages{}
	m.Base = hxfaces.NewBase(m, FamilyMessages, TypeMessages, MessagesRenderer)
	return m
}

// For sets the id of the component whose messages are listed.
func (m *Messages) For(id string) *Messages {
	m.SetAttr("for", id)
	return m
}

func (m *Messages) selected(ctx *hxfaces.Context) []hxfaces.Message {
	if id, ok := m.Attr("for").(string); ok && id != "" {
		target, err := m.FindComponent(ctx, id)
		if err != nil || target == nil {
			return nil
		}
		return ctx.Messages(target.ClientID(ctx))
	}
	if global, _ := m.Attr("globalOnly").(bool); global {
		return ctx.Messages("")
	}
	return ctx.AllMessages()
}

func messages(ctx *hxfaces.Context, c hxfaces.Component) templ.Component {
	var msgs []hxfaces.Message
	if m, ok := c.(*Messages); ok {
		msgs = m.selected(ctx)
	}

	var sb strings.Builder
	sb.WriteString(`<div id="` + esc(c.ClientID(ctx)) + `" class="messages">`)
	for _, msg := range msgs {
		sb.WriteString(`<div class="message message-` + msg.Severity.String() + `">` + esc(msg.Summary))
		if msg.Detail != "" && msg.Detail != msg.Summary {
			sb.WriteString(`<span class="message-detail">` + esc(msg.Detail) + `</span>`)
		}
		sb.WriteString(`</div>`)
	}
	sb.WriteString(`</div>`)
	return raw(sb.String())
}
