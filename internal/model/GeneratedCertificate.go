package model

type GeneratedCertificate struct {
	BaseModel
	RunID       string `gorm:"type:text;not null;index" json:"runId"`
	StudentID   string `gorm:"type:text;not null" json:"studentId"`
	StudentName string `gorm:"type:text;not null" json:"studentName"`
	FileName    string `gorm:"type:text;not null" json:"fileName"`
	PDFKey      string `gorm:"type:text" json:"pdfKey,omitempty"`
	PNGKey      string `gorm:"type:text" json:"pngKey,omitempty"`
}

func (gc GeneratedCertificate) TableName() string {
	return "generated_certificates"
}
