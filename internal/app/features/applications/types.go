package applications

import (
	"html/template"
	"net/http"
	"net/url"
	"strings"

	applicationstore "github.com/dalemusser/partnerportal/internal/app/store/applications"
	"github.com/dalemusser/partnerportal/internal/app/system/review"
	"github.com/dalemusser/waffle/pantry/query"
)

// listLimit caps rows on one console page and in one export.
const listLimit = 1000

type rowVM struct {
	ID          string
	CompanyName string
	ContactName string
	Email       string
	Phone       string
	Status      string
	SubmittedAt string
	RegDocURL   string
	TaxDocURL   string
}

type listVM struct {
	Title     string
	CSRFToken string
	Rows      []rowVM
	Search    string
	Status    string
	Sort      string
	Dir       string
	SortLinks map[string]template.URL

	// Flash from a decision redirect.
	Decided string
	Count   string
	Error   string
	Message string
}

type detailVM struct {
	Title     string
	CSRFToken string
	Row       rowVM
	Notes     template.HTML

	ReviewedBy string
	ReviewedAt string
	LastInvite string

	Decided string
	Invite  string
	Via     string
	Error   string
	Message string
}

// parseQuery reads list filters. Without explicit sort or dir the list is
// newest first.
func parseQuery(r *http.Request) review.Query {
	q := review.Query{
		Search: strings.TrimSpace(query.Get(r, "q")),
		Status: query.Get(r, "status"),
		Sort:   query.Get(r, "sort"),
		Limit:  listLimit,
	}
	switch q.Sort {
	case applicationstore.SortCompany, applicationstore.SortPhone, applicationstore.SortStatus, applicationstore.SortSubmitted:
	default:
		q.Sort = applicationstore.SortSubmitted
	}
	switch query.Get(r, "dir") {
	case "asc":
	case "desc":
		q.Desc = true
	default:
		q.Desc = q.Sort == applicationstore.SortSubmitted
	}
	return q
}

func dirString(desc bool) string {
	if desc {
		return "desc"
	}
	return "asc"
}

// sortLinks builds the column header URLs. Clicking the current sort column
// flips the direction; another column starts in its default direction.
func sortLinks(q review.Query) map[string]template.URL {
	keys := []string{applicationstore.SortCompany, applicationstore.SortPhone, applicationstore.SortStatus, applicationstore.SortSubmitted}
	links := make(map[string]template.URL, len(keys))
	for _, key := range keys {
		desc := key == applicationstore.SortSubmitted
		if key == q.Sort {
			desc = !q.Desc
		}
		v := url.Values{"sort": {key}, "dir": {dirString(desc)}}
		if q.Search != "" {
			v.Set("q", q.Search)
		}
		if q.Status != "" {
			v.Set("status", q.Status)
		}
		links[key] = template.URL(listPath + "?" + v.Encode())
	}
	return links
}
