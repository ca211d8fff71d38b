package attendance

import (
	"time"

	"github.com/opsportal/ops-portal/internal"
)

type RequestType string

const (
	RequestDayOff  RequestType = "DIA_LIBRE"
	RequestHours   RequestType = "PERMISO_HORAS"
	RequestMedical RequestType = "MEDICO"
)

// Request is a leave or permit request.
type Request struct {
	ID      string      `json:"id"`
	UserID  string      `json:"userId"`
	Type    RequestType `json:"type"`
	Date    string      `json:"date"`
	EndDate *string     `json:"endDate,omitempty"`
	// Hours only applies to PERMISO_HORAS.
	Hours  *float64 `json:"hours,omitempty"`
	Reason string   `json:"reason"`
	Review
	CreatedAt time.Time `json:"createdAt"`
}

var ErrRequestNotFound = internal.NewNotFoundError("Solicitud no encontrada.", internal.ErrCodeRequestNotFound)
