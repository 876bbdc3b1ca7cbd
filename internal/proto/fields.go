package proto

// Field names of a user record. They match the local preference keys.
const (
	FieldDailyGoalMl         = "dailyGoalMl"
	FieldDailyConsumptionMl  = "dailyConsumptionMl"
	FieldLastConsumptionDate = "lastConsumptionDate"
	FieldUserName            = "userName"
	FieldUserEmail           = "userEmail"
	FieldUserPhone           = "userPhone"
)

// RecordFields lists every field a user record may carry.
var RecordFields = []string{
	FieldDailyGoalMl,
	FieldDailyConsumptionMl,
	FieldLastConsumptionDate,
	FieldUserName,
	FieldUserEmail,
	FieldUserPhone,
}

// IsRecordField reports whether name is one of RecordFields.
func IsRecordField(name string) bool {
	for _, f := range RecordFields {
		if f == name {
			return true
		}
	}
	return false
}
