package hxfaces

// SwapMode is an HTMX swap strategy. Partial responses replace rendered
// components with SwapOuter out-of-band swaps and turn off the main swap with
// SwapNone.
//
// See https://htmx.org/attributes/hx-swap/.
type SwapMode string

const (
	// SwapOuter replaces the entire element including its tag (outerHTML).
	SwapOuter SwapMode = "outerHTML"

	// SwapInner replaces only the element's contents (innerHTML).
	SwapInner SwapMode = "innerHTML"

	// SwapBeforeEnd appends to the end of the target's contents.
	SwapBeforeEnd SwapMode = "beforeend"

	// SwapNone performs no swap; the response is discarded except for
	// out-of-band content.
	SwapNone SwapMode = "none"
)
