package schedule

import (
	"fmt"

	"github.com/opsportal/ops-portal/internal"
	"github.com/opsportal/ops-portal/internal/core/common/validation"
)

type SaveScheduleDTO struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	WeeklyMinutes int             `json:"weeklyMinutes"`
	Days          map[Weekday]int `json:"days"`
}

func (dto SaveScheduleDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MaxLength(80)
	v.Field("weeklyMinutes", dto.WeeklyMinutes).MinInt(0, internal.ErrCodeInvalidMinutes).MaxInt(7*1440, internal.ErrCodeInvalidMinutes)
	for day, minutes := range dto.Days {
		field := fmt.Sprintf("days.%s", day)
		v.Field(field, string(day)).OneOf(internal.ErrCodeValidationFailed,
			string(Monday), string(Tuesday), string(Wednesday), string(Thursday),
			string(Friday), string(Saturday), string(Sunday))
		v.Field(field, minutes).MinInt(0, internal.ErrCodeInvalidMinutes).MaxInt(1440, internal.ErrCodeInvalidMinutes)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
