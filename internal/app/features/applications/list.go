package applications

import (
	"errors"
	"net/http"

	applicationstore "github.com/dalemusser/partnerportal/internal/app/store/applications"
	"github.com/dalemusser/partnerportal/internal/app/system/timeouts"
	"github.com/dalemusser/partnerportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/gorilla/csrf"
)

const dateLayout = "2006-01-02 15:04"

func toRow(a models.Application, urls map[string]string) rowVM {
	return rowVM{
		ID:          a.ID.Hex(),
		CompanyName: a.CompanyName,
		ContactName: a.ContactName,
		Email:       a.Email,
		Phone:       a.Phone,
		Status:      a.Status,
		SubmittedAt: a.SubmittedAt.UTC().Format(dateLayout),
		RegDocURL:   urls[a.RegistrationDocPath],
		TaxDocURL:   urls[a.TaxDocPath],
	}
}

// ServeList handles GET /admin/applications.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "applications list")
	defer cancel()

	q := parseQuery(r)
	apps, err := h.Reviews.List(ctx, q)
	if errors.Is(err, applicationstore.ErrInvalidStatus) {
		h.ErrLog.LogBadRequest(w, r, "bad status filter", err, "Unknown status filter.", "/admin/applications")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list applications failed", err, "A database error occurred.", "/")
		return
	}

	var urls map[string]string
	if h.Signer != nil {
		var keys []string
		for _, a := range apps {
			keys = append(keys, a.DocPaths()...)
		}
		urls = h.Signer.URLs(ctx, keys)
	}

	rows := make([]rowVM, 0, len(apps))
	for _, a := range apps {
		rows = append(rows, toRow(a, urls))
	}

	templates.Render(w, r, "applications_list", listVM{
		Title:     "Partner applications",
		CSRFToken: csrf.Token(r),
		Rows:      rows,
		Search:    q.Search,
		Status:    q.Status,
		Sort:      q.Sort,
		Dir:       dirString(q.Desc),
		SortLinks: sortLinks(q),
		Decided:   query.Get(r, "decided"),
		Count:     query.Get(r, "count"),
		Error:     query.Get(r, "error"),
		Message:   query.Get(r, "message"),
	})
}
