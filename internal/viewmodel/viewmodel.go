package viewmodel

import "html/template"

// NavItem is one entry of the top navigation.
type NavItem struct {
	Href   string
	Label  string
	Active bool
}

// Layout holds data shared by every page.
type Layout struct {
	Title       string
	SiteName    string
	Description string
	Nav         []NavItem
	Year        int
}

// Reveal holds the rendered state of a scroll-reveal section.
type Reveal struct {
	Class string
	Style string
	Attrs map[string]string
}

// FeatureCard is a homepage feature block.
type FeatureCard struct {
	Title       string
	Description string
	Reveal      Reveal
}

// HomePage holds data for the homepage.
type HomePage struct {
	Layout    Layout
	Tagline   string
	Summary   string
	Features  []FeatureCard
	Countdown CountdownFragment
	Presale   PresaleSummary
}

// Dot is one slide indicator.
type Dot struct {
	Index  int
	Label  string
	Active bool
}

// SlideFragment holds data for the swappable slide viewer.
type SlideFragment struct {
	DeckID      string
	SlideID     string
	Index       int
	Total       int
	Kicker      string
	Title       string
	Body        string
	Bullets     []string
	ProgressPct string
	AutoAdvance bool
	IntervalMs  int64
	Dots        []Dot
}

// DeckPage holds data for the pitch deck page.
type DeckPage struct {
	Layout Layout
	Slide  SlideFragment
}

// CountdownFragment holds one rendering of a countdown.
type CountdownFragment struct {
	Label     string
	Days      string
	Hours     string
	Minutes   string
	Seconds   string
	Completed bool
	TargetMs  int64
}

// PresaleSummary is the short sale status shown on several pages.
type PresaleSummary struct {
	TokenName     string
	TokenSymbol   string
	Stage         string
	PhaseName     string
	PriceUSD      string
	RaisedUSD     string
	HardCapUSD    string
	PercentRaised string
}

// PhaseRow is a presale phase in the schedule table.
type PhaseRow struct {
	Name     string
	Starts   string
	Ends     string
	PriceUSD string
	Current  bool
}

// PresalePage holds data for the token/presale page.
type PresalePage struct {
	Layout    Layout
	Summary   PresaleSummary
	Countdown CountdownFragment
	Phases    []PhaseRow
}

// JobRow is an open position.
type JobRow struct {
	Slug     string
	Title    string
	Location string
	Type     string
	Summary  string
	Reveal   Reveal
}

// TeamCard is a team bio.
type TeamCard struct {
	Name   string
	Role   string
	Bio    string
	Reveal Reveal
}

// CareersPage holds data for the careers page.
type CareersPage struct {
	Layout Layout
	Team   []TeamCard
	Jobs   []JobRow
}

// MilestoneRow is a roadmap entry.
type MilestoneRow struct {
	Quarter string
	Title   string
	Detail  string
	Done    bool
	Reveal  Reveal
}

// MilestonesPage holds data for the roadmap page.
type MilestonesPage struct {
	Layout     Layout
	Milestones []MilestoneRow
}

// WhitepaperPage holds the rendered whitepaper.
type WhitepaperPage struct {
	Layout Layout
	Body   template.HTML
}

// NotFoundPage holds data for the 404 page.
type NotFoundPage struct {
	Layout Layout
	Path   string
}
