package dto

import "time"

// FileInfo describes one stored upload. Field names follow what the upload
// form's client already reads.
type FileInfo struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalname"`
	MimeType     string `json:"mimetype"`
	Size         int64  `json:"size"`
	Path         string `json:"path"`
}

type UploadResult struct {
	PaperID      string    `json:"paperID"`
	QuePaperFile *FileInfo `json:"quePaperFile"`
	AnsKeyFile   *FileInfo `json:"ansKeyFile"`
	UploadDate   time.Time `json:"uploadDate"`
}

type DeleteFilesRequest struct {
	PaperID string `json:"paperID" form:"paperID"`
}
