package attendance

import (
	"time"

	"github.com/opsportal/ops-portal/internal"
)

type ExtraType string

const (
	ExtraMeeting   ExtraType = "Reunión"
	ExtraRecording ExtraType = "Grabación"
	ExtraUrgency   ExtraType = "Urgencia"
	ExtraEvent     ExtraType = "Evento"
	ExtraOther     ExtraType = "Otro"
)

var ExtraTypes = []ExtraType{ExtraMeeting, ExtraRecording, ExtraUrgency, ExtraEvent, ExtraOther}

// ExtraActivity is time worked outside the regular shift.
type ExtraActivity struct {
	ID      string    `json:"id"`
	UserID  string    `json:"userId"`
	Date    string    `json:"date"`
	Minutes int       `json:"minutes"`
	Type    ExtraType `json:"type"`
	Project *string   `json:"project,omitempty"`
	Note    *string   `json:"note,omitempty"`
	Review
	CreatedAt time.Time `json:"createdAt"`
}

var ErrExtraNotFound = internal.NewNotFoundError("Actividad extra no encontrada.", internal.ErrCodeExtraNotFound)
