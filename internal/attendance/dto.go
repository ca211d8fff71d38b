package attendance

import (
	"strings"

	"github.com/opsportal/ops-portal/internal"
	"github.com/opsportal/ops-portal/internal/core/common/validation"
)

type SaveNoteDTO struct {
	Date string `json:"date"`
	Note string `json:"note"`
}

func (dto SaveNoteDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("date", dto.Date).Required().ISODate()
	v.Field("note", dto.Note).MaxLength(2000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type CreateExtraDTO struct {
	Date    string    `json:"date"`
	Minutes int       `json:"minutes"`
	Type    ExtraType `json:"type"`
	Project string    `json:"project"`
	Note    string    `json:"note"`
}

func (dto CreateExtraDTO) Validate() error {
	allowed := make([]string, len(ExtraTypes))
	for i, t := range ExtraTypes {
		allowed[i] = string(t)
	}

	v := validation.NewValidator()
	v.Field("date", dto.Date).Required().ISODate()
	v.Field("minutes", dto.Minutes).MinInt(1, internal.ErrCodeInvalidMinutes).MaxInt(1440, internal.ErrCodeInvalidMinutes)
	v.Field("type", string(dto.Type)).Required().OneOf(internal.ErrCodeInvalidType, allowed...)
	v.Field("project", dto.Project).MaxLength(120)
	v.Field("note", dto.Note).MaxLength(1000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type CreateCorrectionDTO struct {
	AttendanceID    string `json:"attendanceId"`
	ProposedChanges string `json:"proposedChanges"`
	Reason          string `json:"reason"`
}

func (dto CreateCorrectionDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("attendanceId", dto.AttendanceID).Required()
	v.Field("proposedChanges", dto.ProposedChanges).Required().MaxLength(2000)
	v.Field("reason", dto.Reason).Required().MaxLength(1000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type CreateRequestDTO struct {
	Type    RequestType `json:"type"`
	Date    string      `json:"date"`
	EndDate string      `json:"endDate"`
	Hours   float64     `json:"hours"`
	Reason  string      `json:"reason"`
}

func (dto CreateRequestDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("type", string(dto.Type)).Required().OneOf(internal.ErrCodeInvalidType,
		string(RequestDayOff), string(RequestHours), string(RequestMedical))
	v.Field("date", dto.Date).Required().ISODate()
	v.Field("reason", dto.Reason).Required().MaxLength(1000)

	if dto.Type == RequestHours {
		v.Field("hours", dto.Hours).Custom(func(value interface{}) *internal.AppError {
			if dto.Hours <= 0 || dto.Hours > 24 {
				return internal.NewValidationFieldError("hours", "hours debe estar entre 0 y 24", internal.ErrCodeInvalidHours)
			}
			return nil
		})
	} else if strings.TrimSpace(dto.EndDate) != "" {
		v.Field("endDate", dto.EndDate).ISODate().Custom(func(value interface{}) *internal.AppError {
			// ISO days compare correctly as strings
			if dto.EndDate < dto.Date {
				return internal.NewValidationFieldError("endDate", "endDate no puede ser anterior a date", internal.ErrCodeInvalidDate)
			}
			return nil
		})
	}

	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ReviewDTO struct {
	Approve bool `json:"approve"`
}
