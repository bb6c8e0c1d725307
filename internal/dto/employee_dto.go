package dto

type CreateEmployeeRequest struct {
	Name           string  `json:"name"             validate:"required,min=2,max=120"`
	Email          *string `json:"email"            validate:"omitempty,email"`
	Branch         string  `json:"branch"           validate:"omitempty,max=80"`
	RequiresCashUp *bool   `json:"requires_cash_up"`
}

type EmployeeResponse struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Email          *string `json:"email"`
	Branch         string  `json:"branch"`
	RequiresCashUp bool    `json:"requires_cash_up"`
	Active         bool    `json:"active"`
}
