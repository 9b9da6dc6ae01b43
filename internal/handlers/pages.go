package handlers

import (
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"verisite/internal/content"
	"verisite/internal/presale"
	"verisite/internal/reveal"
	"verisite/internal/viewmodel"
	"verisite/pkg/realtime"
	"verisite/views/pages"
)

// revealStagger delays each section in a group a little after the previous.
const revealStagger = 120 * time.Millisecond

var navItems = []viewmodel.NavItem{
	{Href: "/", Label: "Home"},
	{Href: "/whitepaper", Label: "Whitepaper"},
	{Href: "/deck", Label: "Deck"},
	{Href: "/presale", Label: "Presale"},
	{Href: "/careers", Label: "Careers"},
	{Href: "/milestones", Label: "Milestones"},
}

type PageHandler struct {
	site  *content.Site
	sale  *presale.Service
	clock realtime.Clock
}

func NewPageHandler(site *content.Site, sale *presale.Service, clock realtime.Clock) *PageHandler {
	if clock == nil {
		clock = realtime.SystemClock{}
	}
	return &PageHandler{site: site, sale: sale, clock: clock}
}

func (h *PageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.Get("/whitepaper", h.whitepaper)
	r.Get("/presale", h.presalePage)
	r.Get("/careers", h.careers)
	r.Get("/milestones", h.milestones)
}

func (h *PageHandler) home(w http.ResponseWriter, r *http.Request) {
	env := askForMotionHint(w, r)
	features := make([]viewmodel.FeatureCard, 0, len(h.site.Features))
	for i, f := range h.site.Features {
		features = append(features, viewmodel.FeatureCard{
			Title:       f.Title,
			Description: f.Description,
			Reveal:      revealView(env, f.Reveal, i),
		})
	}
	st := h.sale.Status()
	render(w, pages.HomePage(viewmodel.HomePage{
		Layout:    h.layout(h.site.Name, "/"),
		Tagline:   h.site.Tagline,
		Summary:   h.site.Summary,
		Features:  features,
		Countdown: countdownView(st),
		Presale:   presaleSummary(st),
	}))
}

func (h *PageHandler) whitepaper(w http.ResponseWriter, r *http.Request) {
	render(w, pages.WhitepaperPage(viewmodel.WhitepaperPage{
		Layout: h.layout("Whitepaper", "/whitepaper"),
		Body:   h.site.Whitepaper,
	}))
}

func (h *PageHandler) presalePage(w http.ResponseWriter, r *http.Request) {
	st := h.sale.Status()
	cfg := h.sale.Config()
	rows := make([]viewmodel.PhaseRow, 0, len(cfg.Phases))
	for _, p := range cfg.Phases {
		rows = append(rows, viewmodel.PhaseRow{
			Name:     p.Name,
			Starts:   p.StartsAt.UTC().Format(time.RFC1123),
			Ends:     p.EndsAt.UTC().Format(time.RFC1123),
			PriceUSD: formatUSD(p.PriceUSD),
			Current:  st.Stage == presale.StageActive && st.Phase != nil && st.Phase.Name == p.Name,
		})
	}
	render(w, pages.PresalePage(viewmodel.PresalePage{
		Layout:    h.layout("Presale", "/presale"),
		Summary:   presaleSummary(st),
		Countdown: countdownView(st),
		Phases:    rows,
	}))
}

func (h *PageHandler) careers(w http.ResponseWriter, r *http.Request) {
	env := askForMotionHint(w, r)
	team := make([]viewmodel.TeamCard, 0, len(h.site.Team))
	for i, m := range h.site.Team {
		team = append(team, viewmodel.TeamCard{
			Name:   m.Name,
			Role:   m.Role,
			Bio:    m.Bio,
			Reveal: revealView(env, string(reveal.SlideUp), i),
		})
	}
	jobs := make([]viewmodel.JobRow, 0, len(h.site.Jobs))
	for i, j := range h.site.Jobs {
		jobs = append(jobs, viewmodel.JobRow{
			Slug:     j.Slug,
			Title:    j.Title,
			Location: j.Location,
			Type:     j.Type,
			Summary:  j.Summary,
			Reveal:   revealView(env, string(reveal.Fade), i),
		})
	}
	render(w, pages.CareersPage(viewmodel.CareersPage{
		Layout: h.layout("Careers", "/careers"),
		Team:   team,
		Jobs:   jobs,
	}))
}

func (h *PageHandler) milestones(w http.ResponseWriter, r *http.Request) {
	env := askForMotionHint(w, r)
	rows := make([]viewmodel.MilestoneRow, 0, len(h.site.Milestones))
	for i, m := range h.site.Milestones {
		variant := reveal.SlideLeft
		if i%2 == 1 {
			variant = reveal.SlideRight
		}
		rows = append(rows, viewmodel.MilestoneRow{
			Quarter: m.Quarter,
			Title:   m.Title,
			Detail:  m.Detail,
			Done:    m.Done,
			Reveal:  revealView(env, string(variant), 0),
		})
	}
	render(w, pages.MilestonesPage(viewmodel.MilestonesPage{
		Layout:     h.layout("Milestones", "/milestones"),
		Milestones: rows,
	}))
}

// NotFound renders the site's 404 page.
func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	renderStatus(w, http.StatusNotFound, pages.NotFoundPage(viewmodel.NotFoundPage{
		Layout: h.layout("Not found", ""),
		Path:   r.URL.Path,
	}))
}

func (h *PageHandler) layout(title, active string) viewmodel.Layout {
	return pageLayout(h.site, h.clock, title, active)
}

func pageLayout(site *content.Site, clock realtime.Clock, title, active string) viewmodel.Layout {
	nav := make([]viewmodel.NavItem, len(navItems))
	copy(nav, navItems)
	for i := range nav {
		nav[i].Active = nav[i].Href == active
	}
	if title != site.Name {
		title = title + " · " + site.Name
	}
	return viewmodel.Layout{
		Title:       title,
		SiteName:    site.Name,
		Description: site.Summary,
		Nav:         nav,
		Year:        clock.Now().Year(),
	}
}

// askForMotionHint requests the reduced-motion client hint for later requests
// and reads the viewer's environment from this one.
func askForMotionHint(w http.ResponseWriter, r *http.Request) reveal.Env {
	w.Header().Set("Accept-CH", reveal.ReducedMotionHint)
	w.Header().Add("Vary", reveal.ReducedMotionHint)
	return reveal.EnvFromRequest(r)
}

func revealConfig(variant string, order int) reveal.Config {
	cfg := reveal.DefaultConfig()
	cfg.Variant = reveal.ParseVariant(variant)
	cfg.Delay = time.Duration(order) * revealStagger
	return cfg
}

// revealView renders the first frame of a section. The page script picks up
// from there, applying the controller's crossing rule to the settings carried
// in the data attributes.
func revealView(env reveal.Env, variant string, order int) viewmodel.Reveal {
	c := reveal.New(revealConfig(variant, order), env)
	defer c.Close()
	return viewmodel.Reveal{Class: c.Class(), Style: c.Style(), Attrs: c.Attrs()}
}

func formatUSD(v float64) string {
	return humanize.CommafWithDigits(v, 4)
}
