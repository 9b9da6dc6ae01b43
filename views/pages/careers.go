package pages

import (
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"verisite/internal/viewmodel"
	"verisite/views/components"
)

func CareersPage(data viewmodel.CareersPage) g.Node {
	return components.Layout(data.Layout,
		H1(g.Text("Careers")),
		Section(Class("team"),
			H2(g.Text("Team")),
			g.Map(data.Team, func(m viewmodel.TeamCard) g.Node {
				return components.Reveal("article", m.Reveal, "team-card",
					H3(g.Text(m.Name)),
					P(Class("role"), g.Text(m.Role)),
					P(g.Text(m.Bio)),
				)
			}),
		),
		Section(Class("jobs"),
			H2(g.Text("Open positions")),
			g.If(len(data.Jobs) == 0, P(g.Text("No open positions right now."))),
			g.Map(data.Jobs, func(j viewmodel.JobRow) g.Node {
				return components.Reveal("article", j.Reveal, "", ID("job-"+j.Slug),
					H3(g.Text(j.Title)),
					P(Class("meta"), g.Text(j.Location+" · "+j.Type)),
					P(g.Text(j.Summary)),
				)
			}),
		),
	)
}

func MilestonesPage(data viewmodel.MilestonesPage) g.Node {
	return components.Layout(data.Layout,
		H1(g.Text("Milestones")),
		Ol(Class("timeline"),
			g.Map(data.Milestones, func(m viewmodel.MilestoneRow) g.Node {
				status := "Planned"
				if m.Done {
					status = "Done"
				}
				return components.Reveal("li", m.Reveal, "",
					Span(Class("quarter"), g.Text(m.Quarter)),
					H3(g.Text(m.Title)),
					P(g.Text(m.Detail)),
					Span(Class("status"), g.Text(status)),
				)
			}),
		),
	)
}
