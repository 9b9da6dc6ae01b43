package components

import (
	"strconv"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"verisite/internal/viewmodel"
)

// SlideFragment renders the current slide with its controls. It is the unit
// swapped in by the deck stream.
func SlideFragment(data viewmodel.SlideFragment) g.Node {
	base := "/deck/" + data.DeckID
	return Section(
		ID("slide"),
		Class("slide"),
		g.Attr("data-slide", data.SlideID),
		g.Attr("data-index", strconv.Itoa(data.Index)),
		g.Attr("data-total", strconv.Itoa(data.Total)),
		g.Attr("aria-roledescription", "slide"),
		g.Attr("aria-label", strconv.Itoa(data.Index+1)+" of "+strconv.Itoa(data.Total)),

		Div(Class("progress"), Role("progressbar"),
			g.Attr("aria-valuemin", "0"),
			g.Attr("aria-valuemax", "100"),
			g.Attr("aria-valuenow", data.ProgressPct),
			Div(Class("progress-bar"), Style("width:"+data.ProgressPct+"%")),
		),

		g.If(data.Kicker != "", P(Class("slide-kicker"), g.Text(data.Kicker))),
		H2(Class("slide-title"), g.Text(data.Title)),
		g.If(data.Body != "", P(Class("slide-body"), g.Text(data.Body))),
		g.If(len(data.Bullets) > 0, Ul(Class("slide-bullets"),
			g.Map(data.Bullets, func(b string) g.Node { return Li(g.Text(b)) }),
		)),

		Div(Class("slide-controls"),
			navButton(base+"/previous", "Previous slide", "‹"),
			Ol(Class("slide-dots"),
				g.Map(data.Dots, func(dot viewmodel.Dot) g.Node { return slideDot(base, dot) }),
			),
			navButton(base+"/next", "Next slide", "›"),
		),

		g.If(data.AutoAdvance, P(Class("slide-autoplay"),
			g.Attr("data-interval-ms", strconv.FormatInt(data.IntervalMs, 10)),
			g.Text("Auto-playing. Use the arrows to take control."),
		)),
	)
}

func slideDot(base string, dot viewmodel.Dot) g.Node {
	class := "dot"
	if dot.Active {
		class += " is-active"
	}
	return Li(
		Form(Method("post"), Action(base+"/goto"), g.Attr("data-deck-nav"),
			Input(Type("hidden"), Name("index"), Value(strconv.Itoa(dot.Index))),
			Button(Type("submit"), Class(class), g.Attr("aria-label", dot.Label)),
		),
	)
}

func navButton(action, label, glyph string) g.Node {
	return Form(Method("post"), Action(action), g.Attr("data-deck-nav"),
		Button(Type("submit"), g.Attr("aria-label", label), g.Text(glyph)),
	)
}
