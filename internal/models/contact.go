package models

// ContactRequest is a visitor's contact form submission.
type ContactRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	Email      string `json:"email" validate:"required,email,max=254"`
	TeamMember string `json:"teamMember" validate:"required,max=100"`
	Message    string `json:"message" validate:"required,max=5000"`
}
