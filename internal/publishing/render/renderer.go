package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"golang.org/x/text/language"

	"github.com/vietddude/postfeed/internal/core/domain"
)

//go:embed templates/*
var templateFS embed.FS

type actionButton struct {
	Label string
	Icon  string
}

var actionButtons = []actionButton{
	{Label: "Vind ik leuk", Icon: "fa-regular fa-heart"},
	{Label: "Reageren", Icon: "fa-regular fa-comment"},
	{Label: "Delen", Icon: "fa-regular fa-paper-plane"},
}

// Options configures a Renderer.
type Options struct {
	Title    string
	Language language.Tag
	Now      func() time.Time
}

// Page is the data of a full feed document.
type Page struct {
	Title string
	Style template.CSS
	Cards []Card
}

// Renderer turns posts into the feed document.
type Renderer struct {
	tmpl    *template.Template
	style   template.CSS
	counter *Counter
	title   string
	now     func() time.Time
}

// New parses the embedded templates.
func New(opts Options) (*Renderer, error) {
	if opts.Title == "" {
		opts.Title = "Feed"
	}
	if opts.Language == language.Und {
		opts.Language = language.Dutch
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	tmpl, err := template.New("feed").
		Funcs(template.FuncMap{"actions": func() []actionButton { return actionButtons }}).
		ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	style, err := templateFS.ReadFile("templates/style.css")
	if err != nil {
		return nil, fmt.Errorf("failed to read stylesheet: %w", err)
	}

	return &Renderer{
		tmpl:    tmpl,
		style:   template.CSS(style),
		counter: NewCounter(opts.Language),
		title:   opts.Title,
		now:     opts.Now,
	}, nil
}

// Cards builds one card per post. media[i] belongs to posts[i]; missing
// entries fall back to UnresolvedMedia.
func (r *Renderer) Cards(posts []domain.Post, media []Media) []Card {
	now := r.now()
	cards := make([]Card, len(posts))
	for i, p := range posts {
		m := UnresolvedMedia(p)
		if i < len(media) {
			m = media[i]
		}
		cards[i] = r.buildCard(p, m, now)
	}
	return cards
}

// RenderPage writes the full HTML document.
func (r *Renderer) RenderPage(w io.Writer, cards []Card) error {
	page := Page{
		Title: r.title,
		Style: r.style,
		Cards: cards,
	}
	if err := r.tmpl.ExecuteTemplate(w, "page", page); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	return nil
}

// RenderCard writes a single card fragment.
func (r *Renderer) RenderCard(w io.Writer, card Card) error {
	if err := r.tmpl.ExecuteTemplate(w, "card", card); err != nil {
		return fmt.Errorf("failed to render card: %w", err)
	}
	return nil
}
