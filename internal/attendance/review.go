package attendance

import (
	"time"

	"github.com/opsportal/ops-portal/internal"
)

type ReviewStatus string

const (
	StatusPending  ReviewStatus = "PENDING"
	StatusApproved ReviewStatus = "APPROVED"
	StatusRejected ReviewStatus = "REJECTED"
)

var ErrAlreadyReviewed = internal.NewConflictError("Esta solicitud ya fue revisada.", internal.ErrCodeAlreadyReviewed)

// Review is the approval stamp shared by requests, extras and corrections.
type Review struct {
	Status     ReviewStatus `json:"status"`
	ReviewedBy *string      `json:"reviewedBy,omitempty"`
	ReviewedAt *time.Time   `json:"reviewedAt,omitempty"`
}

func pendingReview() Review {
	return Review{Status: StatusPending}
}

func (r *Review) decide(reviewerID string, approve bool, now time.Time) error {
	if r.Status != StatusPending {
		return ErrAlreadyReviewed
	}
	if approve {
		r.Status = StatusApproved
	} else {
		r.Status = StatusRejected
	}
	reviewer := reviewerID
	at := now
	r.ReviewedBy = &reviewer
	r.ReviewedAt = &at
	return nil
}
