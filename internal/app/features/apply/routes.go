package apply

import "github.com/go-chi/chi/v5"

// Routes mounts the public application form under /apply.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeForm)
	r.Post("/", h.HandleSubmit)
	r.Get("/thanks", h.ServeThanks)
	return r
}
