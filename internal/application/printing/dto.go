package printing

import "time"

// PDFDocument is a rendered invoice PDF
type PDFDocument struct {
	InvoiceNumber int
	FileName      string
	Data          []byte
	PageCount     int
}

// ArchiveResponse describes an archived invoice document
type ArchiveResponse struct {
	Key       string    `json:"key" example:"invoices/2024001/3f1c2a7e-9d4b-4c55-a1f0-6b2e8d9c0a11.pdf"`
	URL       string    `json:"url" example:"https://s3.example.com/invoices/invoices/2024001/3f1c.pdf?X-Amz-Expires=900"`
	ExpiresAt time.Time `json:"expiresAt"`
	Size      int       `json:"size" example:"48213"`
}
