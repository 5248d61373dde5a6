package html

import (
	"testing"

	"github.com/a-h/templ"
)

func TestRenderAttrs(t *testing.T) {
	tests := []struct {
		name  string
		attrs templ.Attributes
		want  string
	}{
		{"empty", templ.Attributes{}, ""},
		{"sorted", templ.Attributes{"name": "a", "id": "b"}, ` id="b" name="a"`},
		{"escaped", templ.Attributes{"value": `"<x>"`}, ` value="&#34;&lt;x&gt;&#34;"`},
		{"booleans", templ.Attributes{"disabled": true, "hidden": false}, ` disabled`},
		{"nil", templ.Attributes{"x": nil}, ""},
		{"number", templ.Attributes{"tabindex": 3}, ` tabindex="3"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderAttrs(tt.attrs); got != tt.want {
				t.Errorf("renderAttrs() = %q, want %q", got, tt.want)
			}
		})
	}
}
