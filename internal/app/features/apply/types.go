package apply

// applyInput is validated with inputval before anything is stored.
type applyInput struct {
	CompanyName string `validate:"required,max=200" label:"Company name"`
	ContactName string `validate:"required,max=200" label:"Contact name"`
	Email       string `validate:"required_without=Phone,omitempty,max=254,email" label:"Email"`
	Phone       string `validate:"omitempty,max=32,phone" label:"Phone"`
	Notes       string `validate:"max=4000" label:"Notes"`
}

type formVM struct {
	Title       string
	CSRFToken   string
	Error       string
	CompanyName string
	ContactName string
	Email       string
	Phone       string
	Notes       string
}
