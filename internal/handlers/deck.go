package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"verisite/internal/content"
	"verisite/internal/deck"
	"verisite/internal/viewmodel"
	"verisite/pkg/realtime"
	"verisite/views/components"
	"verisite/views/pages"
)

const deckCookieName = "verisite_deck"

type DeckHandler struct {
	store *deck.Store
	site  *content.Site
	clock realtime.Clock
	log   *zap.Logger
}

func NewDeckHandler(store *deck.Store, site *content.Site, clock realtime.Clock, logger *zap.Logger) *DeckHandler {
	if clock == nil {
		clock = realtime.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeckHandler{store: store, site: site, clock: clock, log: logger}
}

func (h *DeckHandler) RegisterRoutes(r chi.Router) {
	r.Get("/deck", h.deckPage)
	r.Route("/deck/{id}", func(r chi.Router) {
		r.Get("/slide", h.slideFragment)
		r.Get("/stream", h.stream)
		r.Post("/next", h.next)
		r.Post("/previous", h.previous)
		r.Post("/goto", h.goTo)
		r.Post("/key", h.key)
		r.Post("/swipe", h.swipe)
	})
}

// deckPage resumes the viewer's deck session or starts a new one.
func (h *DeckHandler) deckPage(w http.ResponseWriter, r *http.Request) {
	var d *deck.Deck
	if id := deckIDFromCookie(r); id != "" {
		d, _ = h.store.Get(id)
	}
	if d == nil {
		created, err := h.store.Create()
		if err != nil {
			h.log.Error("create deck", zap.Error(err))
			http.Error(w, "deck unavailable", http.StatusInternalServerError)
			return
		}
		d = created
		setDeckCookie(w, d.ID(), h.clock.Now())
	}
	render(w, pages.DeckPage(viewmodel.DeckPage{
		Layout: pageLayout(h.site, h.clock, "Deck", "/deck"),
		Slide:  slideView(d),
	}))
}

func (h *DeckHandler) slideFragment(w http.ResponseWriter, r *http.Request) {
	d, ok := h.store.Get(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	render(w, components.SlideFragment(slideView(d)))
}

func (h *DeckHandler) next(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, func(d *deck.Deck) bool {
		d.Next()
		return true
	})
}

func (h *DeckHandler) previous(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, func(d *deck.Deck) bool {
		d.Previous()
		return true
	})
}

func (h *DeckHandler) goTo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	index, err := strconv.Atoi(r.FormValue("index"))
	if err != nil {
		http.Error(w, "index must be an integer", http.StatusBadRequest)
		return
	}
	h.navigate(w, r, func(d *deck.Deck) bool { return d.GoTo(index) })
}

func (h *DeckHandler) key(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	key := r.FormValue("key")
	h.navigate(w, r, func(d *deck.Deck) bool { return d.HandleKey(key) })
}

func (h *DeckHandler) swipe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	dx, err := strconv.ParseFloat(r.FormValue("dx"), 64)
	if err != nil {
		http.Error(w, "dx must be a number", http.StatusBadRequest)
		return
	}
	h.navigate(w, r, func(d *deck.Deck) bool { return d.HandleSwipe(dx) })
}

// navigate applies op to the deck named in the URL. Script requests get the
// new slide fragment back, or 204 when op did nothing; plain form posts are
// redirected to the deck page.
func (h *DeckHandler) navigate(w http.ResponseWriter, r *http.Request, op func(*deck.Deck) bool) {
	d, ok := h.store.Get(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	changed := op(d)
	if isHx(r) {
		if !changed {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		render(w, components.SlideFragment(slideView(d)))
		return
	}
	setDeckCookie(w, d.ID(), h.clock.Now())
	http.Redirect(w, r, "/deck", http.StatusSeeOther)
}

func (h *DeckHandler) stream(w http.ResponseWriter, r *http.Request) {
	deckID := chi.URLParam(r, "id")
	d, ok := h.store.Get(deckID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	hub, ok := h.store.Broadcaster(deckID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	sseHeaders(w)

	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	sendSlide := func() {
		writeSSE(w, deck.EventSlide, renderToString(components.SlideFragment(slideView(d))))
		flusher.Flush()
	}
	sendSlide()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-sub:
			if !ok {
				return
			}
			if event == deck.EventSlide {
				sendSlide()
			}
		case <-keepAlive.C:
			_, _ = w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()
		}
	}
}

func slideView(d *deck.Deck) viewmodel.SlideFragment {
	st := d.State()
	dots := make([]viewmodel.Dot, st.Total)
	for i := range dots {
		dots[i] = viewmodel.Dot{
			Index:  i,
			Label:  "Go to slide " + strconv.Itoa(i+1),
			Active: i == st.Index,
		}
	}
	return viewmodel.SlideFragment{
		DeckID:      d.ID(),
		SlideID:     st.Slide.ID,
		Index:       st.Index,
		Total:       st.Total,
		Kicker:      st.Slide.Kicker,
		Title:       st.Slide.Title,
		Body:        st.Slide.Body,
		Bullets:     st.Slide.Bullets,
		ProgressPct: strconv.FormatFloat(st.Progress*100, 'f', 1, 64),
		AutoAdvance: st.AutoAdvance,
		IntervalMs:  d.Interval().Milliseconds(),
		Dots:        dots,
	}
}

func deckIDFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(deckCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func setDeckCookie(w http.ResponseWriter, deckID string, now time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     deckCookieName,
		Value:    deckID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  now.Add(deck.DefaultIdleTTL),
	})
}
