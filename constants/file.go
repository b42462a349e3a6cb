package constants

import "strings"

// Document formats understood by the text extraction stage.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
	DOCX  = "DOCX"
	TXT   = "TXT"
)

// AllowedExtensions holds the default allowed file extensions for deal documents.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"heic": {},
	"heif": {},
	"docx": {},
	"txt":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// MapExtToFormat returns the document format for ext, or "" when unsupported.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "jpg", "jpeg", "png", "heic", "heif", "heics", "heifs":
		return IMAGE
	case "docx":
		return DOCX
	case "txt":
		return TXT
	default:
		return ""
	}
}

func IsHEICExt(ext string) bool {
	switch NormalizeExt(ext) {
	case "heic", "heif", "heics", "heifs":
		return true
	}
	return false
}
