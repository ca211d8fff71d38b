package store

// Collection keys. Legacy keys are only read, never written.
const (
	Users                 = "users"
	LegacyRequests        = "requests"
	LegacyAttendance      = "attendance"
	AttendanceRecords     = "attendance_records"
	AttendanceExtras      = "attendance_extras"
	AttendanceRequests    = "attendance_requests"
	AttendanceCorrections = "attendance_corrections"
	FinanceTransactions   = "financeTransactions"
	FinanceAccounts       = "financeAccounts"
	FinanceCategories     = "financeCategories"
	FinanceMonthClosures  = "financeMonthClosures"
	WorkSchedules         = "workSchedules"
	SettingsFinance       = "settings_finance"
)
