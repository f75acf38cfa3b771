package core

import "net/http"

// Response is anything that can render itself to an HTTP response writer.
// Handlers return a Response instead of writing to the writer directly so
// that rendering stays in one place and handlers remain testable.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// Render writes the response, falling back to a plain 500 if rendering
// itself fails (e.g. the client went away mid-encode).
func Render(w http.ResponseWriter, r *http.Request, resp Response) {
	if err := resp.Render(w, r); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
