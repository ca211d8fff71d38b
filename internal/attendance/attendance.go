package attendance

import (
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/opsportal/ops-portal/internal"
)

type RecordStatus string

const (
	RecordOpen   RecordStatus = "OPEN"
	RecordClosed RecordStatus = "CLOSED"
)

// State is the read-time projection of a day's record.
type State string

const (
	StateOff     State = "OFF"
	StateInShift State = "IN_SHIFT"
	StateOnBreak State = "ON_BREAK"
	StateClosed  State = "CLOSED"
)

type Break struct {
	StartAt time.Time  `json:"startAt"`
	EndAt   *time.Time `json:"endAt"`
}

// Record is one user's attendance for one calendar day.
type Record struct {
	ID           string       `json:"id"`
	UserID       string       `json:"userId"`
	Date         string       `json:"date"`
	CheckInAt    *time.Time   `json:"checkInAt"`
	CheckOutAt   *time.Time   `json:"checkOutAt"`
	Breaks       []Break      `json:"breaks"`
	Notes        *string      `json:"notes"`
	TotalMinutes int          `json:"totalMinutes"`
	Status       RecordStatus `json:"status"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

func transitionError(message string, code internal.ErrorCode) *internal.AppError {
	err := internal.NewValidationError(message, code)
	err.StatusCode = http.StatusConflict
	return err
}

var (
	ErrAlreadyCheckedIn  = transitionError("Ya registraste tu entrada hoy.", internal.ErrCodeAlreadyCheckedIn)
	ErrNotCheckedIn      = transitionError("Primero debes registrar tu entrada.", internal.ErrCodeNotCheckedIn)
	ErrBreakAlreadyOpen  = transitionError("Ya tienes un descanso en curso.", internal.ErrCodeBreakAlreadyOpen)
	ErrNoOpenBreak       = transitionError("No tienes un descanso en curso.", internal.ErrCodeNoOpenBreak)
	ErrBreakStillOpen    = transitionError("Finaliza tu descanso antes de registrar la salida.", internal.ErrCodeBreakStillOpen)
	ErrAlreadyCheckedOut = transitionError("Tu jornada de hoy ya está cerrada.", internal.ErrCodeAlreadyCheckedOut)
	ErrRecordNotFound    = internal.NewNotFoundError("Registro de asistencia no encontrado.", internal.ErrCodeRecordNotFound)
)

func NewRecord(userID, date string, now time.Time) *Record {
	checkIn := now
	r := &Record{
		ID:        uuid.NewString(),
		UserID:    userID,
		Date:      date,
		CheckInAt: &checkIn,
		Breaks:    []Break{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.syncStatus()
	return r
}

// StateOf derives the state purely from check-in, check-out and breaks.
func StateOf(r *Record) State {
	switch {
	case r == nil || r.CheckInAt == nil:
		return StateOff
	case r.CheckOutAt != nil:
		return StateClosed
	case r.openBreakIndex() >= 0:
		return StateOnBreak
	default:
		return StateInShift
	}
}

func (r *Record) State() State {
	return StateOf(r)
}

func (r *Record) openBreakIndex() int {
	for i := len(r.Breaks) - 1; i >= 0; i-- {
		if r.Breaks[i].EndAt == nil {
			return i
		}
	}
	return -1
}

func (r *Record) HasOpenBreak() bool {
	return r.openBreakIndex() >= 0
}

func (r *Record) syncStatus() {
	if r.CheckOutAt != nil {
		r.Status = RecordClosed
	} else {
		r.Status = RecordOpen
	}
}

func (r *Record) StartBreak(now time.Time) error {
	switch r.State() {
	case StateOff:
		return ErrNotCheckedIn
	case StateOnBreak:
		return ErrBreakAlreadyOpen
	case StateClosed:
		return ErrAlreadyCheckedOut
	}
	r.Breaks = append(r.Breaks, Break{StartAt: now})
	r.UpdatedAt = now
	return nil
}

func (r *Record) EndBreak(now time.Time) error {
	if r.State() == StateOff {
		return ErrNotCheckedIn
	}
	i := r.openBreakIndex()
	if i < 0 {
		return ErrNoOpenBreak
	}
	end := now
	r.Breaks[i].EndAt = &end
	r.UpdatedAt = now
	return nil
}

// CheckOut closes the day and finalises TotalMinutes.
func (r *Record) CheckOut(now time.Time) error {
	switch r.State() {
	case StateOff:
		return ErrNotCheckedIn
	case StateOnBreak:
		return ErrBreakStillOpen
	case StateClosed:
		return ErrAlreadyCheckedOut
	}
	out := now
	r.CheckOutAt = &out
	r.TotalMinutes = ComputeTotalMinutes(*r.CheckInAt, out, r.Breaks)
	r.UpdatedAt = now
	r.syncStatus()
	return nil
}

func (r *Record) SetNote(note string, now time.Time) {
	if note == "" {
		r.Notes = nil
	} else {
		n := note
		r.Notes = &n
	}
	r.UpdatedAt = now
}

// BreakMinutes sums closed breaks, each rounded and floored at zero.
func BreakMinutes(breaks []Break) int {
	total := 0
	for _, b := range breaks {
		if b.EndAt == nil {
			continue
		}
		if m := roundMinutes(b.EndAt.Sub(b.StartAt)); m > 0 {
			total += m
		}
	}
	return total
}

// ComputeTotalMinutes is the rounded shift length minus closed breaks,
// never below zero.
func ComputeTotalMinutes(checkIn, checkOut time.Time, breaks []Break) int {
	total := roundMinutes(checkOut.Sub(checkIn)) - BreakMinutes(breaks)
	if total < 0 {
		return 0
	}
	return total
}

func roundMinutes(d time.Duration) int {
	return int(math.Round(d.Minutes()))
}
