package hxfaces

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/a-h/templ"
)

// Render writes a templ component to the HTTP response.
//
// Use it for pages outside the component lifecycle, such as layouts that
// embed views rendered by a Registry.
func Render(w http.ResponseWriter, r *http.Request, component templ.Component) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(r.Context(), w)
}

// IsHTMX returns true if the request originated from HTMX.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// IsBoosted returns true if the request is a boosted navigation (hx-boost).
func IsBoosted(r *http.Request) bool {
	return r.Header.Get("HX-Boosted") == "true"
}

// CurrentURL returns the URL the browser is on, from the HX-Current-URL
// header. Returns empty string for non-HTMX requests.
func CurrentURL(r *http.Request) string {
	return r.Header.Get("HX-Current-URL")
}

// TriggerName returns the name attribute of the element that triggered the
// request. Command buttons are named after their client id, so this is the
// partial request source when no source parameter was sent.
func TriggerName(r *http.Request) string {
	return r.Header.Get("HX-Trigger-Name")
}

// TriggerID returns the id attribute of the element that triggered the request.
func TriggerID(r *http.Request) string {
	return r.Header.Get("HX-Trigger")
}

// TargetID returns the id attribute of the target element (hx-target).
func TargetID(r *http.Request) string {
	return r.Header.Get("HX-Target")
}

// BuildTriggerHeader builds an HX-Trigger header value.
//
// Without data the event name is returned as is. With data the value is a
// JSON object so HTMX fires the event with evt.detail set to data:
//
//	BuildTriggerHeader("saved", nil)                        // saved
//	BuildTriggerHeader("filter:changed", map[string]any{…}) // {"filter:changed":{…}}
func BuildTriggerHeader(trigger string, data map[string]any) string {
	if trigger == "" {
		return ""
	}
	if data == nil {
		return trigger
	}
	out, _ := json.Marshal(map[string]any{trigger: data})
	return string(out)
}

// AjaxAttrs builds the HTMX attributes that turn an element into a partial
// request source. The request posts the enclosing form to path and names
// source, execute and render in hx-vals:
//
//	<button { hxfaces.AjaxAttrs("/greet", "f:send", "@form", "f:out")... }>
func AjaxAttrs(path, source, execute, render string) templ.Attributes {
	vals := map[string]string{
		PartialAjaxParam:   "true",
		PartialSourceParam: source,
	}
	if execute = strings.TrimSpace(execute); execute != "" {
		vals[PartialExecuteParam] = execute
	}
	if render = strings.TrimSpace(render); render != "" {
		vals[PartialRenderParam] = render
	}
	data, _ := json.Marshal(vals)
	return templ.Attributes{
		"hx-post": path,
		"hx-vals": string(data),
	}
}
