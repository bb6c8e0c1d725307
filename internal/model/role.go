package model

// Roles carried in the bearer token.
const (
	RoleStaff    = "staff"
	RoleReviewer = "reviewer"
	RoleAdmin    = "admin"
)
