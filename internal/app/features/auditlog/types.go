// internal/app/features/auditlog/types.go
package auditlog

import (
	"github.com/dalemusser/partnerportal/internal/app/store/audit"
)

// listItem represents a single audit event row for display.
type listItem struct {
	ID        string
	Timestamp string
	Category  string
	EventType string
	ActorID   string
	SubjectID string
	TenantID  string
	IP        string
	Success   bool
	Failure   string
	Details   map[string]string
}

// listData is the view model for the audit log list page.
type listData struct {
	Title string

	Items []listItem

	// Filters
	Category  string
	EventType string
	Subject   string
	StartDate string
	EndDate   string

	// Filter options
	Categories []categoryOption
	EventTypes []string

	pageInfo
}

// pageInfo carries pagination for the list page.
type pageInfo struct {
	Page       int
	TotalPages int
	Total      int64
	Shown      int
	HasPrev    bool
	HasNext    bool
	PrevPage   int
	NextPage   int
}

func newPageInfo(page int, total int64, shown int) pageInfo {
	totalPages := int((total + pageSize - 1) / pageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	prevPage := page - 1
	if prevPage < 1 {
		prevPage = 1
	}
	nextPage := page + 1
	if nextPage > totalPages {
		nextPage = totalPages
	}
	return pageInfo{
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
		Shown:      shown,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
		PrevPage:   prevPage,
		NextPage:   nextPage,
	}
}

// categoryOption represents a category for the filter dropdown.
type categoryOption struct {
	Value string
	Label string
}

// allCategories returns the available categories for filtering.
func allCategories() []categoryOption {
	return []categoryOption{
		{Value: audit.CategoryAuth, Label: "Authentication"},
		{Value: audit.CategoryReview, Label: "Review"},
		{Value: audit.CategoryTenant, Label: "Tenants"},
	}
}

// eventTypesForCategory returns the event types for a given category.
// If category is empty, returns all event types.
func eventTypesForCategory(category string) []string {
	authEvents := []string{
		audit.EventLoginSuccess,
		audit.EventLoginFailedUserNotFound,
		audit.EventLoginFailedWrongPassword,
		audit.EventLoginFailedUserDisabled,
		audit.EventLoginFailedRateLimit,
		audit.EventLogout,
		audit.EventLandingResolved,
	}

	reviewEvents := []string{
		audit.EventApplicationSubmitted,
		audit.EventApplicationApproved,
		audit.EventApplicationRejected,
		audit.EventBulkDecision,
		audit.EventInvitationIssued,
		audit.EventInvitationFailed,
	}

	tenantEvents := []string{
		audit.EventTenantCreated,
		audit.EventTenantUpdated,
		audit.EventTenantProvisioningFailed,
	}

	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryReview:
		return reviewEvents
	case audit.CategoryTenant:
		return tenantEvents
	case "":
		all := make([]string, 0, len(authEvents)+len(reviewEvents)+len(tenantEvents))
		all = append(all, authEvents...)
		all = append(all, reviewEvents...)
		all = append(all, tenantEvents...)
		return all
	default:
		return nil
	}
}
