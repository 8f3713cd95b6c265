package application

import (
	"time"
)

// SubmitRequest represents the form fields of a multipart application
// submission. The CV file rides alongside as its own part.
type SubmitRequest struct {
	JobRoleID      string `json:"jobRoleId" validate:"required"`
	ApplicantName  string `json:"applicantName" validate:"required,max=100"`
	ApplicantEmail string `json:"applicantEmail" validate:"required,strict_email"`
	CoverLetter    string `json:"coverLetter" validate:"max=10000"`
}

// CVUpload carries an uploaded CV file into the service
type CVUpload struct {
	FileName    string
	ContentType string
	Content     []byte
}

// UpdateStatusRequest represents an administrator status change
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending under_review shortlisted rejected hired withdrawn"`
}

// CVResponse describes a stored CV without exposing its storage key
type CVResponse struct {
	FileName  string `json:"fileName"`
	MimeType  string `json:"mimeType"`
	SizeBytes int64  `json:"sizeBytes"`
}

// ApplicationResponse represents an application in API responses
type ApplicationResponse struct {
	ID             string      `json:"id"`
	JobRoleID      string      `json:"jobRoleId"`
	ApplicantName  string      `json:"applicantName"`
	ApplicantEmail string      `json:"applicantEmail"`
	CoverLetter    string      `json:"coverLetter,omitempty"`
	CV             *CVResponse `json:"cv,omitempty"`
	Status         string      `json:"status"`
	SubmittedAt    time.Time   `json:"submittedAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// CVLinkResponse carries a time-limited download URL for a CV
type CVLinkResponse struct {
	URL              string `json:"url"`
	ExpiresInSeconds int64  `json:"expiresInSeconds"`
}

// ListQuery holds the parsed query parameters for listing applications
type ListQuery struct {
	Status         string
	JobRoleID      string
	ApplicantEmail string
}
