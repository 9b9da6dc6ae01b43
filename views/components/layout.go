package components

import (
	"sort"
	"strconv"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"verisite/internal/viewmodel"
)

// Layout wraps body in the document shell.
func Layout(data viewmodel.Layout, body ...g.Node) g.Node {
	return Doctype(
		HTML(Lang("en"),
			Head(
				Meta(Charset("utf-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
				TitleEl(g.Text(data.Title)),
				g.If(data.Description != "", Meta(Name("description"), Content(data.Description))),
				Link(Rel("stylesheet"), Href("/static/app.css")),
				Script(Src("/static/app.js"), Defer()),
			),
			Body(
				Header(Class("site-header"),
					A(Class("brand"), Href("/"), g.Text(data.SiteName)),
					Nav(g.Map(data.Nav, navLink)),
				),
				Main(ID("main"), g.Group(body)),
				Footer(Class("site-footer"),
					SubscribeForm("footer"),
					P(g.Text("© "+strconv.Itoa(data.Year)+" "+data.SiteName)),
				),
			),
		),
	)
}

func navLink(item viewmodel.NavItem) g.Node {
	class := "nav-link"
	if item.Active {
		class += " is-active"
	}
	return A(Class(class), Href(item.Href), g.Text(item.Label))
}

// SubscribeForm is the email capture form. It posts JSON through the page
// script and falls back to nothing without it.
func SubscribeForm(source string) g.Node {
	id := "subscribe-" + source
	return Form(Class("subscribe"),
		g.Attr("data-subscribe", "/api/subscribe"),
		g.Attr("data-source", source),
		g.Attr("novalidate"),
		Label(For(id), g.Text("Get project updates")),
		Input(Type("email"), Name("email"), Required(), AutoComplete("email"), g.Attr("maxlength", "254"), ID(id)),
		Button(Type("submit"), g.Text("Subscribe")),
		P(Class("subscribe-status"), Role("status"), g.Attr("aria-live", "polite")),
	)
}

// Reveal renders a scroll-reveal section as tag. class, when set, is prepended
// to the reveal classes; the data attributes follow in name order.
func Reveal(tag string, r viewmodel.Reveal, class string, children ...g.Node) g.Node {
	cls := r.Class
	if class != "" {
		cls = class + " " + cls
	}
	nodes := make([]g.Node, 0, len(r.Attrs)+len(children)+2)
	nodes = append(nodes, Class(cls), Style(r.Style))
	nodes = append(nodes, RevealAttrs(r)...)
	nodes = append(nodes, children...)
	return g.El(tag, nodes...)
}

// RevealAttrs returns the data attributes of r sorted by name.
func RevealAttrs(r viewmodel.Reveal) []g.Node {
	names := make([]string, 0, len(r.Attrs))
	for name := range r.Attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]g.Node, 0, len(names))
	for _, name := range names {
		out = append(out, g.Attr(name, r.Attrs[name]))
	}
	return out
}
