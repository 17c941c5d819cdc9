package examination

import (
	"time"

	"github.com/google/uuid"
)

// OnlineConsultationCode marks the examination whose booking opens a
// companion chat channel.
const OnlineConsultationCode = "online-consultation"

// MedicalExamination maps to the medical_examination table. It is a catalog
// entry describing a bookable clinic service.
type MedicalExamination struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Code            string    `db:"code" json:"code"`
	Name            string    `db:"name" json:"name"`
	Online          bool      `db:"online" json:"online"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	PriceCents      int64     `db:"price_cents" json:"price_cents"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
