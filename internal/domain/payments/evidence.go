package payments

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EvidenceSource records which flow captured an evidence row.
type EvidenceSource string

const (
	EvidenceFromIngest    EvidenceSource = "ingest"
	EvidenceFromDuplicate EvidenceSource = "duplicate"
	EvidenceFromRevision  EvidenceSource = "revision"
)

// EvidenceRecord is one raw capture attached to a CanonicalPayment. Rows are append-only;
// ids are UUIDv7 so id order follows creation order.
type EvidenceRecord struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	PaymentID uuid.UUID         `gorm:"type:uuid;column:payment_id;not null;index" json:"paymentId"`
	Payment   *CanonicalPayment `gorm:"foreignKey:PaymentID;constraint:OnDelete:CASCADE" json:"-"`

	Source        EvidenceSource `gorm:"column:source;not null" json:"source"`
	OCRText       string         `gorm:"column:ocr_text;not null;default:''" json:"ocrText"`
	OCRConfidence float64        `gorm:"column:ocr_confidence;not null" json:"ocrConfidence"`
	ParserHints   datatypes.JSON `gorm:"column:parser_hints" json:"parserHints,omitempty"`
	ImageURI      *string        `gorm:"column:image_uri" json:"imageUri,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;not null;index" json:"createdAt"`
}

func (EvidenceRecord) TableName() string { return "payment_evidence" }
