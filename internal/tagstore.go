package internal

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
)

// Tag names as exiftool reports them.
const (
	TagDateTimeOriginal    = "DateTimeOriginal"
	TagSubSecTimeOriginal  = "SubSecTimeOriginal"
	TagCreateDate          = "CreateDate"
	TagSubSecTimeDigitized = "SubSecTimeDigitized"
	TagFileModifyDate      = "FileModifyDate"
	TagCreationDate        = "CreationDate"
	TagTitle               = "Title"
)

// Metadata back-ends accepted by OpenTagStore.
const (
	MetadataAuto     = "auto"
	MetadataExiftool = "exiftool"
	MetadataNative   = "native"
)

// TagStore reads and writes named metadata tags of a file. Any failure of the
// underlying tool is reported as an absent tag or a failed write.
type TagStore interface {
	GetTag(path, tag string) (string, bool)
	SetTag(path, tag, value string) bool
	Close() error
}

// TagQuery is one step of a media kind's fallback chain: a date tag and the
// optional tag holding its sub-second part.
type TagQuery struct {
	Date   string
	SubSec string
}

var tagChains = map[MediaKind][]TagQuery{
	KindPhoto: {
		{Date: TagDateTimeOriginal, SubSec: TagSubSecTimeOriginal},
		{Date: TagFileModifyDate},
	},
	KindVideo: {
		{Date: TagCreateDate, SubSec: TagSubSecTimeDigitized},
		{Date: TagCreationDate},
		{Date: TagDateTimeOriginal},
	},
}

// TagChain returns the ordered metadata tags tried for this kind.
func (k MediaKind) TagChain() []TagQuery {
	return tagChains[k]
}

// OpenTagStore returns the tag store for the configured back-end. With
// MetadataAuto the exiftool binary is used when it can be found.
func OpenTagStore(backend, exiftoolPath string, logger *slog.Logger) (TagStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch backend {
	case MetadataExiftool:
		return NewExifToolStore(exiftoolPath, logger)
	case MetadataNative:
		return NewNativeStore(logger), nil
	case MetadataAuto, "":
		if exiftoolAvailable(exiftoolPath) {
			store, err := NewExifToolStore(exiftoolPath, logger)
			if err == nil {
				return store, nil
			}
			logger.Warn("exiftool failed to start, using native metadata reader", "err", err)
		} else {
			logger.Warn("exiftool not found, using native metadata reader (read only)")
		}
		return NewNativeStore(logger), nil
	default:
		return nil, fmt.Errorf("unknown metadata backend %q", backend)
	}
}

func exiftoolAvailable(path string) bool {
	if path != "" {
		_, err := os.Stat(path)
		return err == nil
	}
	_, err := exec.LookPath("exiftool")
	return err == nil
}

// fileKey identifies a file's content version for tag caches.
func fileKey(path string) string {
	fi, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s|%d|%d", path, fi.Size(), fi.ModTime().UnixNano())
}
