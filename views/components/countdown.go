package components

import (
	"strconv"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"verisite/internal/viewmodel"
)

// CountdownFragment renders a countdown; the presale stream re-sends it every
// second.
func CountdownFragment(data viewmodel.CountdownFragment) g.Node {
	class := "countdown"
	if data.Completed {
		class += " is-complete"
	}
	var body g.Node
	if data.Completed {
		body = P(Class("countdown-done"), g.Text("Live now"))
	} else {
		body = Dl(Class("countdown-units"),
			unit(data.Days, "days"),
			unit(data.Hours, "hours"),
			unit(data.Minutes, "minutes"),
			unit(data.Seconds, "seconds"),
		)
	}
	return Div(ID("countdown"), Class(class), g.Attr("data-target-ms", strconv.FormatInt(data.TargetMs, 10)),
		P(Class("countdown-label"), g.Text(data.Label)),
		body,
	)
}

func unit(value, label string) g.Node {
	return Div(Class("countdown-unit"), Dt(g.Text(label)), Dd(g.Text(value)))
}

// PresaleSummary renders the stage, price and raise progress.
func PresaleSummary(data viewmodel.PresaleSummary) g.Node {
	return Div(ID("presale-summary"), Class("presale-summary stage-"+data.Stage),
		P(Class("token"), g.Text(data.TokenName+" ("+data.TokenSymbol+")")),
		g.If(data.PhaseName != "", P(Class("phase"), g.Text(data.PhaseName+" · $"+data.PriceUSD))),
		Progress(Max("100"), Value(data.PercentRaised)),
		P(Class("raised"), g.Text("$"+data.RaisedUSD+" of $"+data.HardCapUSD+" raised")),
	)
}
