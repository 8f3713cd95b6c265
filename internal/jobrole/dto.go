package jobrole

import (
	"time"

	"github.com/ChrisThompsonK/team2-job-app-backend/internal/api"
)

// JobRoleRequest represents the request body for creating or replacing
// a job role
type JobRoleRequest struct {
	Name             string `json:"name" validate:"required,max=100"`
	Description      string `json:"description" validate:"max=10000"`
	Responsibilities string `json:"responsibilities" validate:"max=10000"`
	JobSpecLink      string `json:"jobSpecLink" validate:"omitempty,url,max=500"`
	Location         string `json:"location" validate:"required,max=100"`
	Capability       string `json:"capability" validate:"required,max=100"`
	Band             string `json:"band" validate:"required,max=50"`
	ClosingDate      string `json:"closingDate" validate:"required"`
	Status           string `json:"status" validate:"omitempty,oneof=active closed draft"`
	OpenPositions    int    `json:"openPositions" validate:"omitempty,min=1,max=1000"`
}

// JobRoleResponse represents a job role in API responses
type JobRoleResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Responsibilities string    `json:"responsibilities"`
	JobSpecLink      string    `json:"jobSpecLink"`
	Location         string    `json:"location"`
	Capability       string    `json:"capability"`
	Band             string    `json:"band"`
	ClosingDate      time.Time `json:"closingDate"`
	Status           string    `json:"status"`
	OpenPositions    int       `json:"openPositions"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// ListJobRolesResponse represents the response for listing job roles
type ListJobRolesResponse struct {
	JobRoles   []JobRoleResponse  `json:"jobRoles"`
	Pagination api.PaginationInfo `json:"pagination"`
}

// ListQuery holds the parsed query parameters for listing job roles
type ListQuery struct {
	Page       int
	Limit      int
	Status     string
	Capability string
	Band       string
	Location   string
}
