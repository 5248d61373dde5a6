package hxfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// TestResult holds the response of a request served through a Registry in
// tests.
//
// Provides convenience methods for asserting on HTML content, headers,
// status codes, events, messages and redirects.
type TestResult struct {
	HTML            string
	StatusCode      int
	Headers         http.Header
	TriggeredEvents []string
	Messages        []Message
	RedirectURL     string
	// StateToken is the view state written into the response. Pass it to
	// TestRequestBuilder.Postback to submit the view again.
	StateToken string
}

// TestRequestBuilder provides a fluent interface for building test requests.
//
//	first, _ := hxfaces.NewTestRequest(http.MethodGet, "/greet").Execute(reg)
//	result, err := hxfaces.NewTestRequest(http.MethodPost, "/greet").
//	    Postback(first.StateToken).
//	    WithParam("f", "f").
//	    WithParam("f:name", "Ada").
//	    Ajax("f:send", "@form", "f:out").
//	    Execute(reg)
type TestRequestBuilder struct {
	method  string
	url     string
	params  url.Values
	headers map[string]string
	ctx     context.Context
}

// NewTestRequest creates a new test request builder.
func NewTestRequest(method, url string) *TestRequestBuilder {
	return &TestRequestBuilder{
		method:  method,
		url:     url,
		params:  make(map[string][]string),
		headers: make(map[string]string),
		ctx:     context.Background(),
	}
}

// WithParam adds a request parameter.
func (b *TestRequestBuilder) WithParam(key, value string) *TestRequestBuilder {
	b.params.Add(key, value)
	return b
}

// WithParams adds several request parameters.
func (b *TestRequestBuilder) WithParams(data map[string]string) *TestRequestBuilder {
	for k, v := range data {
		b.params.Add(k, v)
	}
	return b
}

// WithHeader adds a header to the request.
func (b *TestRequestBuilder) WithHeader(key, value string) *TestRequestBuilder {
	b.headers[key] = value
	return b
}

// WithContext sets the context for the request.
func (b *TestRequestBuilder) WithContext(ctx context.Context) *TestRequestBuilder {
	b.ctx = ctx
	return b
}

// Postback submits the view state token of a previous response.
func (b *TestRequestBuilder) Postback(token string) *TestRequestBuilder {
	b.params.Set(ViewStateParam, token)
	return b
}

// Ajax makes the request an HTMX partial request from source.
func (b *TestRequestBuilder) Ajax(source, execute, render string) *TestRequestBuilder {
	b.headers["HX-Request"] = "true"
	b.headers["HX-Boosted"] = "false"
	b.params.Set(PartialAjaxParam, "true")
	b.params.Set(PartialSourceParam, source)
	if execute != "" {
		b.params.Set(PartialExecuteParam, execute)
	}
	if render != "" {
		b.params.Set(PartialRenderParam, render)
	}
	return b
}

// Execute serves the request through reg.
func (b *TestRequestBuilder) Execute(reg *Registry) (*TestResult, error) {
	var req *http.Request
	if b.method == http.MethodGet || b.method == http.MethodHead {
		target := b.url
		if len(b.params) > 0 {
			target += "?" + b.params.Encode()
		}
		req = httptest.NewRequest(b.method, target, nil)
	} else {
		req = httptest.NewRequest(b.method, b.url, strings.NewReader(b.params.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		// A boosted form submission: a full postback that passes the CSRF
		// check.
		req.Header.Set("HX-Request", "true")
		req.Header.Set("HX-Boosted", "true")
	}
	req = req.WithContext(b.ctx)
	for k, v := range b.headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, req)
	return newTestResult(rec), nil
}

func newTestResult(rec *httptest.ResponseRecorder) *TestResult {
	result := &TestResult{
		HTML:       rec.Body.String(),
		StatusCode: rec.Code,
		Headers:    rec.Header(),
	}
	if trigger := rec.Header().Get("HX-Trigger"); trigger != "" {
		result.TriggeredEvents = parseTriggerHeader(trigger)
	}
	if redirect := rec.Header().Get("HX-Redirect"); redirect != "" {
		result.RedirectURL = redirect
	} else if loc := rec.Header().Get("Location"); loc != "" {
		result.RedirectURL = loc
	}
	scrapeMarkup(result.HTML, &result.Messages, &result.StateToken)
	return result
}

// TestGet renders viewPath for the first time.
func TestGet(reg *Registry, viewPath string) (*TestResult, error) {
	return NewTestRequest(http.MethodGet, viewPath).Execute(reg)
}

// TestPost submits params to viewPath as a postback of token.
func TestPost(reg *Registry, viewPath, token string, params map[string]string) (*TestResult, error) {
	return NewTestRequest(http.MethodPost, viewPath).Postback(token).WithParams(params).Execute(reg)
}

// HTMLContains checks if the HTML contains a substring.
func (r *TestResult) HTMLContains(substr string) bool {
	return strings.Contains(r.HTML, substr)
}

// HTMLContainsAll checks if the HTML contains all the given substrings.
func (r *TestResult) HTMLContainsAll(substrs ...string) bool {
	for _, s := range substrs {
		if !strings.Contains(r.HTML, s) {
			return false
		}
	}
	return true
}

// HasEvent checks if an event was triggered.
func (r *TestResult) HasEvent(event string) bool {
	for _, e := range r.TriggeredEvents {
		if e == event {
			return true
		}
	}
	return false
}

// HasMessage checks if the response carries a message with the given
// severity and summary.
func (r *TestResult) HasMessage(severity Severity, summary string) bool {
	for _, m := range r.Messages {
		if m.Severity == severity && m.Summary == summary {
			return true
		}
	}
	return false
}

// WasRedirected checks if the response was a redirect.
func (r *TestResult) WasRedirected() bool {
	return r.RedirectURL != ""
}

// IsOK checks if the status code is 200.
func (r *TestResult) IsOK() bool {
	return r.StatusCode == http.StatusOK
}

// HasHeader checks if a header is set with the given value.
func (r *TestResult) HasHeader(key, value string) bool {
	return r.Headers.Get(key) == value
}

// parseTriggerHeader returns the event names of an HX-Trigger header, which
// is either a comma-separated list or a JSON object keyed by event.
func parseTriggerHeader(trigger string) []string {
	trigger = strings.TrimSpace(trigger)
	if trigger == "" {
		return nil
	}
	if strings.HasPrefix(trigger, "{") {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(trigger), &obj); err != nil {
			return nil
		}
		events := make([]string, 0, len(obj))
		for name := range obj {
			events = append(events, name)
		}
		return events
	}

	parts := strings.Split(trigger, ",")
	events := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			events = append(events, p)
		}
	}
	return events
}

// scrapeMarkup collects the messages rendered by RenderMessagesOOB and
// MessagesContainer and the first view state token in markup. The contents of
// partial-response updates are scraped as markup too.
func scrapeMarkup(markup string, msgs *[]Message, token *string) {
	z := html.NewTokenizer(strings.NewReader(markup))
	z.AllowCDATA(true)

	var (
		inMessage bool
		inUpdate  bool
		updateID  string
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			inMessage = false
			switch tok.Data {
			case "div":
				if sev, ok := messageSeverity(attrValue(tok, "class")); ok {
					*msgs = append(*msgs, Message{Severity: sev})
					inMessage = true
				}
			case "input":
				if *token == "" && attrValue(tok, "name") == ViewStateParam {
					*token = attrValue(tok, "value")
				}
			case "update":
				inUpdate, updateID = true, attrValue(tok, "id")
			}
		case html.EndTagToken:
			inMessage = false
			if name, _ := z.TagName(); string(name) == "update" {
				inUpdate = false
			}
		case html.TextToken:
			text := string(z.Text())
			switch {
			case inMessage:
				(*msgs)[len(*msgs)-1].Summary += text
			case inUpdate && updateID == ViewStateParam:
				if *token == "" {
					*token = text
				}
			case inUpdate:
				scrapeMarkup(text, msgs, token)
			}
		}
	}
}

func attrValue(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// messageSeverity reads the severity from the class list of a message div.
func messageSeverity(class string) (Severity, bool) {
	fields := strings.Fields(class)
	isMessage := false
	for _, f := range fields {
		if f == "message" {
			isMessage = true
		}
	}
	if !isMessage {
		return 0, false
	}
	for _, f := range fields {
		if name, ok := strings.CutPrefix(f, "message-"); ok {
			if sev, ok := parseSeverity(name); ok {
				return sev, true
			}
		}
	}
	return 0, false
}

func parseSeverity(s string) (Severity, bool) {
	for _, sev := range []Severity{SeverityInfo, SeverityWarn, SeverityError, SeverityFatal} {
		if sev.String() == s {
			return sev, true
		}
	}
	return 0, false
}

func parseStateToken(markup string) string {
	var msgs []Message
	var token string
	scrapeMarkup(markup, &msgs, &token)
	return token
}
