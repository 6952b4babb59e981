package entity

import "time"

// Diagnosis запись истории проверок листа в чате.
type Diagnosis struct {
	ChatID     int64
	Label      string
	Confidence float64
	At         time.Time
}
