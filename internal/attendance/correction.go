package attendance

import (
	"time"

	"github.com/opsportal/ops-portal/internal"
)

// CorrectionRequest asks an admin to amend a record. It never changes the
// record itself.
type CorrectionRequest struct {
	ID              string `json:"id"`
	UserID          string `json:"userId"`
	Date            string `json:"date"`
	AttendanceID    string `json:"attendanceId"`
	ProposedChanges string `json:"proposedChanges"`
	Reason          string `json:"reason"`
	Review
	CreatedAt time.Time `json:"createdAt"`
}

var ErrCorrectionNotFound = internal.NewNotFoundError("Corrección no encontrada.", internal.ErrCodeCorrectionNotFound)
