package models

import "github.com/dmitrijs2005/gophdrive/internal/timex"

// FileRecord is server-owned metadata of a stored file. The client never
// mutates it; the catalog replaces the whole list on every refresh.
type FileRecord struct {
	ID             int64           `json:"id" yaml:"id"`
	FileName       string          `json:"fileName" yaml:"fileName"`
	StoredFileName string          `json:"storedFileName" yaml:"storedFileName"`
	ContentType    string          `json:"contentType" yaml:"contentType"`
	Size           int64           `json:"size" yaml:"size"`
	UploadedAt     timex.Timestamp `json:"uploadedAt" yaml:"uploadedAt"`
}

// Download is the payload of a file download.
type Download struct {
	Data        []byte
	ContentType string
}
