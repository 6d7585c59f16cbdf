package domain

const MailTypeAppointmentRescheduled = "appointment_rescheduled"

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type AppointmentRescheduledMailData struct {
	FullName       string `json:"fullName"`
	ServiceName    string `json:"serviceName"`
	NewDate        string `json:"newDate"`
	NewTime        string `json:"newTime"`
	ActionRequired bool   `json:"actionRequired"`
}
