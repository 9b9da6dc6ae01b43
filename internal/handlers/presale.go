package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"verisite/internal/presale"
	"verisite/internal/viewmodel"
	"verisite/views/components"
)

const keepAliveInterval = 25 * time.Second

type PresaleHandler struct {
	sale *presale.Service
}

func NewPresaleHandler(sale *presale.Service) *PresaleHandler {
	return &PresaleHandler{sale: sale}
}

func (h *PresaleHandler) RegisterRoutes(r chi.Router) {
	r.Get("/presale/countdown", h.countdownFragment)
	r.Get("/presale/stream", h.stream)
}

func (h *PresaleHandler) countdownFragment(w http.ResponseWriter, r *http.Request) {
	render(w, components.CountdownFragment(countdownView(h.sale.Status())))
}

func (h *PresaleHandler) stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	sseHeaders(w)

	hub := h.sale.Broadcaster()
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	send := func(includeSummary bool) {
		st := h.sale.Status()
		if includeSummary {
			writeSSE(w, presale.EventPresale, renderToString(components.PresaleSummary(presaleSummary(st))))
		}
		writeSSE(w, presale.EventCountdown, renderToString(components.CountdownFragment(countdownView(st))))
		flusher.Flush()
	}

	send(true)

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
			send(event == presale.EventPresale)
		case <-keepAlive.C:
			_, _ = w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()
		}
	}
}

func countdownView(st presale.Status) viewmodel.CountdownFragment {
	d := st.Countdown.Remaining.Format()
	label := "Presale has ended"
	switch st.Stage {
	case presale.StageUpcoming:
		label = "Presale opens in"
		if st.Phase != nil {
			label = st.Phase.Name + " opens in"
		}
	case presale.StageActive:
		label = "Current phase ends in"
		if st.Phase != nil {
			label = st.Phase.Name + " ends in"
		}
	}
	var targetMs int64
	if !st.Countdown.Target.IsZero() {
		targetMs = st.Countdown.Target.UnixMilli()
	}
	return viewmodel.CountdownFragment{
		Label:     label,
		Days:      d.Days,
		Hours:     d.Hours,
		Minutes:   d.Minutes,
		Seconds:   d.Seconds,
		Completed: st.Countdown.Completed || st.Stage == presale.StageEnded,
		TargetMs:  targetMs,
	}
}

func presaleSummary(st presale.Status) viewmodel.PresaleSummary {
	out := viewmodel.PresaleSummary{
		TokenName:     st.TokenName,
		TokenSymbol:   st.TokenSymbol,
		Stage:         st.Stage,
		RaisedUSD:     formatUSD(st.RaisedUSD),
		HardCapUSD:    formatUSD(st.HardCapUSD),
		PercentRaised: strconv.FormatFloat(st.PercentRaised, 'f', 1, 64),
	}
	if st.Phase != nil {
		out.PhaseName = st.Phase.Name
		out.PriceUSD = formatUSD(st.Phase.PriceUSD)
	}
	return out
}
