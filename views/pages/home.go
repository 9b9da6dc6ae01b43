package pages

import (
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"verisite/internal/viewmodel"
	"verisite/views/components"
)

func HomePage(data viewmodel.HomePage) g.Node {
	return components.Layout(data.Layout,
		Section(Class("hero"),
			H1(g.Text(data.Tagline)),
			P(Class("lead"), g.Text(data.Summary)),
			Div(Class("hero-actions"),
				A(Class("button"), Href("/whitepaper"), g.Text("Read the whitepaper")),
				A(Class("button button-ghost"), Href("/deck"), g.Text("View the deck")),
			),
		),
		Section(Class("features"),
			g.Map(data.Features, func(f viewmodel.FeatureCard) g.Node {
				return components.Reveal("article", f.Reveal, "",
					H3(g.Text(f.Title)),
					P(g.Text(f.Description)),
				)
			}),
		),
		Section(Class("presale-teaser"), g.Attr("data-stream", "/presale/stream"),
			components.PresaleSummary(data.Presale),
			components.CountdownFragment(data.Countdown),
			A(Href("/presale"), g.Text("Token details")),
		),
		Section(Class("subscribe-band"), components.SubscribeForm("home")),
	)
}

func WhitepaperPage(data viewmodel.WhitepaperPage) g.Node {
	return components.Layout(data.Layout,
		Article(Class("prose whitepaper"), g.Raw(string(data.Body))),
	)
}

func NotFoundPage(data viewmodel.NotFoundPage) g.Node {
	return components.Layout(data.Layout,
		Section(Class("not-found"),
			H1(g.Text("Page not found")),
			P(g.Text("Nothing lives at "), Code(g.Text(data.Path)), g.Text(".")),
			A(Href("/"), g.Text("Back home")),
		),
	)
}
