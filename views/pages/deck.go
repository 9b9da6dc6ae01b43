package pages

import (
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"verisite/internal/viewmodel"
	"verisite/views/components"
)

// DeckPage hosts the slide viewer. The wrapper carries the endpoints the page
// script uses for keyboard, swipe and the live stream.
func DeckPage(data viewmodel.DeckPage) g.Node {
	base := "/deck/" + data.Slide.DeckID
	return components.Layout(data.Layout,
		Div(
			Class("deck"),
			TabIndex("0"),
			g.Attr("aria-roledescription", "carousel"),
			g.Attr("data-deck", data.Slide.DeckID),
			g.Attr("data-key", base+"/key"),
			g.Attr("data-swipe", base+"/swipe"),
			g.Attr("data-stream", base+"/stream"),
			components.SlideFragment(data.Slide),
		),
	)
}
