package hxfaces

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestContextMessages(t *testing.T) {
	ctx := NewContext(nil, nil, "test")
	if _, ok := ctx.MaximumSeverity(); ok {
		t.Error("MaximumSeverity() reported a severity without messages")
	}

	ctx.AddMessage("f:name", ErrorMessage("required", ""))
	ctx.AddMessage("", Message{Severity: SeverityInfo, Summary: "saved"})
	ctx.AddMessage("f:name", Message{Severity: SeverityWarn, Summary: "short"})

	if diff := cmp.Diff([]string{"f:name", ""}, ctx.ClientIDsWithMessages()); diff != "" {
		t.Errorf("ClientIDsWithMessages() mismatch (-want +got):\n%s", diff)
	}
	want := []Message{ErrorMessage("required", ""), {Severity: SeverityWarn, Summary: "short"}}
	if diff := cmp.Diff(want, ctx.Messages("f:name")); diff != "" {
		t.Errorf("Messages() mismatch (-want +got):\n%s", diff)
	}
	if n := len(ctx.AllMessages()); n != 3 {
		t.Errorf("len(AllMessages()) = %d, want 3", n)
	}
	if sev, ok := ctx.MaximumSeverity(); !ok || sev != SeverityError {
		t.Errorf("MaximumSeverity() = %v, %t; want error", sev, ok)
	}
}

func TestRenderMessagesOOB(t *testing.T) {
	if got := RenderMessagesOOB(nil); got != "" {
		t.Errorf("RenderMessagesOOB(nil) = %q, want empty", got)
	}
	got := RenderMessagesOOB([]Message{
		{Severity: SeverityInfo, Summary: "Saved <1>"},
		{Severity: SeverityError, Summary: "Failed", Detail: "disk full"},
	})
	want := `<div id="messages" hx-swap-oob="beforeend">` +
		`<div class="message message-info" data-auto-dismiss="3000">Saved &lt;1&gt;</div>` +
		`<div class="message message-error" data-auto-dismiss="3000">Failed<span class="message-detail">disk full</span></div>` +
		`</div>`
	if got != want {
		t.Errorf("RenderMessagesOOB() =\n%s\nwant\n%s", got, want)
	}
}

func TestMessagesContainer(t *testing.T) {
	var sb strings.Builder
	err := MessagesContainer([]Message{{Severity: SeverityWarn, Summary: "Careful"}}).
		Render(context.Background(), &sb)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := `<div id="messages" class="messages"><div class="message message-warn">Careful</div></div>`
	if sb.String() != want {
		t.Errorf("MessagesContainer() = %q, want %q", sb.String(), want)
	}
}

func TestOOBSwap(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		markup string
		want   string
	}{
		{
			name:   "element",
			id:     "f:count",
			markup: `<span id="f:count">1</span>`,
			want:   `<span hx-swap-oob="outerHTML:[id='f:count']" id="f:count">1</span>`,
		},
		{
			name:   "bare tag",
			id:     "x",
			markup: "  <hr>\n",
			want:   `<hr hx-swap-oob="outerHTML:[id='x']">`,
		},
		{
			name:   "empty",
			id:     "gone",
			markup: "",
			want:   `<span id="gone" hx-swap-oob="outerHTML:[id='gone']"></span>`,
		},
		{
			name:   "text",
			id:     "t",
			markup: "plain",
			want:   `<span id="t" hx-swap-oob="outerHTML:[id='t']"></span>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OOBSwap(tt.id, []byte(tt.markup)); got != tt.want {
				t.Errorf("OOBSwap() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSeverityString(t *testing.T) {
	for sev, want := range map[Severity]string{
		SeverityInfo:  "info",
		SeverityWarn:  "warn",
		SeverityError: "error",
		SeverityFatal: "fatal",
		Severity(9):   "unknown",
	} {
		if got := sev.String(); got != want {
			t.Errorf("Severity(%d).String() = %q, want %q", sev, got, want)
		}
	}
}
