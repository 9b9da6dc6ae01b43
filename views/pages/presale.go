package pages

import (
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"verisite/internal/viewmodel"
	"verisite/views/components"
)

func PresalePage(data viewmodel.PresalePage) g.Node {
	return components.Layout(data.Layout,
		Section(Class("presale"), g.Attr("data-stream", "/presale/stream"),
			H1(g.Text("Token presale")),
			components.PresaleSummary(data.Summary),
			components.CountdownFragment(data.Countdown),
		),
		Table(Class("phases"),
			THead(Tr(
				Th(g.Text("Phase")),
				Th(g.Text("Starts")),
				Th(g.Text("Ends")),
				Th(g.Text("Price (USD)")),
			)),
			TBody(g.Map(data.Phases, phaseRow)),
		),
		components.SubscribeForm("presale"),
	)
}

func phaseRow(p viewmodel.PhaseRow) g.Node {
	return Tr(
		g.If(p.Current, Class("is-current")),
		Td(g.Text(p.Name)),
		Td(g.Text(p.Starts)),
		Td(g.Text(p.Ends)),
		Td(g.Text(p.PriceUSD)),
	)
}
