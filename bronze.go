package pointline

import "time"

// BronzeFileMetadata is the producer contract for an ingested file (§6):
// a raw, immutable vendor export living at bronze_file_path relative to
// an implementation-defined bronze root.
type BronzeFileMetadata struct {
	Vendor          string
	DataType        string
	BronzeFilePath  string
	FileSizeBytes   uint64
	LastModifiedTS  int64 // microseconds since epoch
	SHA256          string
	Date            *time.Time
	Interval        string
	Extra           map[string]any
}

// Identity returns the four-tuple business key the manifest dedupes on
// (§4.D, §3 "Manifest").
func (m BronzeFileMetadata) Identity() (vendor, dataType, bronzePath, fileHash string) {
	return m.Vendor, m.DataType, m.BronzeFilePath, m.SHA256
}
