package reveal

import "net/http"

const (
	// ReducedMotionHint is the client hint browsers send once the server asks
	// for it via Accept-CH.
	ReducedMotionHint = "Sec-CH-Prefers-Reduced-Motion"
	// ReducedMotionCookie mirrors matchMedia("(prefers-reduced-motion)") for
	// browsers without client hints.
	ReducedMotionCookie = "reduced_motion"
	// ObserverCookie is set by the page script when IntersectionObserver exists.
	ObserverCookie = "io"
)

// EnvFromRequest reads the viewer's reveal environment from request headers and
// cookies. Without a positive signal the observer is assumed missing so
// sections render visible.
func EnvFromRequest(r *http.Request) Env {
	env := Env{}
	if r.Header.Get(ReducedMotionHint) == "reduce" {
		env.ReducedMotion = true
	}
	if c, err := r.Cookie(ReducedMotionCookie); err == nil && c.Value == "1" {
		env.ReducedMotion = true
	}
	if c, err := r.Cookie(ObserverCookie); err == nil && c.Value == "1" {
		env.ObserverAvailable = true
	}
	return env
}
