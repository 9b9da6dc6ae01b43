// Package content loads the site's embedded copy: slides, team, open roles,
// milestones and the whitepaper.
package content

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"gopkg.in/yaml.v3"

	"verisite/internal/deck"
)

//go:embed data/*.yaml data/*.md
var dataFS embed.FS

// Feature is a homepage selling point.
type Feature struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Reveal      string `yaml:"reveal"`
}

// Member is a team bio.
type Member struct {
	Name string `yaml:"name"`
	Role string `yaml:"role"`
	Bio  string `yaml:"bio"`
}

// Job is an open position.
type Job struct {
	Slug     string `yaml:"slug"`
	Title    string `yaml:"title"`
	Location string `yaml:"location"`
	Type     string `yaml:"type"`
	Summary  string `yaml:"summary"`
}

// Milestone is a roadmap entry.
type Milestone struct {
	Quarter string `yaml:"quarter"`
	Title   string `yaml:"title"`
	Detail  string `yaml:"detail"`
	Done    bool   `yaml:"done"`
}

// Site is all content in one bundle.
type Site struct {
	Name       string        `yaml:"name"`
	Tagline    string        `yaml:"tagline"`
	Summary    string        `yaml:"summary"`
	Features   []Feature     `yaml:"features"`
	Team       []Member      `yaml:"team"`
	Jobs       []Job         `yaml:"jobs"`
	Milestones []Milestone   `yaml:"milestones"`
	Slides     []deck.Slide  `yaml:"slides"`
	Whitepaper template.HTML `yaml:"-"`
}

// Load parses the embedded content.
func Load() (*Site, error) {
	return LoadFS(dataFS)
}

// LoadFS parses content from fsys, which must contain data/site.yaml and
// data/whitepaper.md.
func LoadFS(fsys fs.FS) (*Site, error) {
	raw, err := fs.ReadFile(fsys, "data/site.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading site content: %w", err)
	}
	var site Site
	if err := yaml.Unmarshal(raw, &site); err != nil {
		return nil, fmt.Errorf("parsing site content: %w", err)
	}
	if len(site.Slides) == 0 {
		return nil, fmt.Errorf("site content: %w", deck.ErrNoSlides)
	}

	md, err := fs.ReadFile(fsys, "data/whitepaper.md")
	if err != nil {
		return nil, fmt.Errorf("reading whitepaper: %w", err)
	}
	html, err := RenderMarkdown(md)
	if err != nil {
		return nil, err
	}
	site.Whitepaper = html
	return &site, nil
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM, extension.Footnote),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// RenderMarkdown converts trusted markdown to HTML. Raw HTML in the source is
// omitted.
func RenderMarkdown(src []byte) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}
