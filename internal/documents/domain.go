package documents

import (
	"io"
	"time"
)

// Document is the metadata of an uploaded attachment.
type Document struct {
	ID          int64     `json:"id"`
	QueryID     *int64    `json:"query_id,omitempty"`
	VendorID    *int64    `json:"vendor_id,omitempty"`
	FileName    string    `json:"file_name"`
	ObjectPath  string    `json:"object_path"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedBy  int64     `json:"uploaded_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// UploadInput is a file attached to a query or a vendor.
type UploadInput struct {
	QueryID  *int64
	VendorID *int64
	FileName string
	Body     io.Reader
}

// ListRequest filters documents.
type ListRequest struct {
	QueryID  *int64
	VendorID *int64
}

// SignedLink is a temporary download URL.
type SignedLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
