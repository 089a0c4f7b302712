package tenants

type rowVM struct {
	ID                 string
	Name               string
	Status             string
	Currency           string
	Locale             string
	ApprovedBy         string
	ApprovedAt         string
	ProvisioningFailed bool
}

type listVM struct {
	Title     string
	CSRFToken string
	Rows     []rowVM
	Search   string
	Status   string
	Statuses []string
	Updated  string
	Error    string
}
