package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SubmissionPending  = "pending"
	SubmissionApproved = "approved"
	SubmissionRejected = "rejected"
)

// ItemSubmission is a seller's request to list an item, reviewed by an admin.
type ItemSubmission struct {
	ID             string                 `json:"id"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	Condition      string                 `json:"condition"`
	Category       string                 `json:"category"`
	AskingPrice    decimal.Decimal        `json:"asking_price"`
	SellerID       *string                `json:"seller_id,omitempty"`
	SellerName     string                 `json:"seller_name"`
	SellerEmail    string                 `json:"seller_email"`
	SellerPhone    string                 `json:"seller_phone,omitempty"`
	Images         []string               `json:"images"`
	Location       string                 `json:"location"`
	Specifications map[string]interface{} `json:"specifications"`
	Status         string                 `json:"status"`
	AdminNotes     string                 `json:"admin_notes"`
	SubmittedAt    time.Time              `json:"submitted_at"`
	ReviewedAt     *time.Time             `json:"reviewed_at,omitempty"`
	ReviewedBy     *string                `json:"reviewed_by,omitempty"`
	Version        int                    `json:"version"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

type SubmissionFilter struct {
	Status string
	Search string
	Limit  int
	Offset int
}

// Review records an admin decision on a submission. A nil AdminNotes
// leaves the stored notes untouched.
type Review struct {
	Status          string
	AdminNotes      *string
	ReviewedBy      string
	ExpectedVersion *int
}

func ValidSubmissionStatus(s string) bool {
	switch s {
	case SubmissionPending, SubmissionApproved, SubmissionRejected:
		return true
	}
	return false
}
