package models

// All returns every model in migration order.
func All() []any {
	return []any{
		&Church{},
		&ChurchAdmin{},
		&SuperAdmin{},
		&Member{},
		&News{},
		&Event{},
		&Photo{},
		&SiteSetting{},
		&SMSLog{},
		&SMSRecipient{},
		&KontingentPayment{},
		&AuditLog{},
	}
}
