package internal

import (
	"log/slog"
	"os"
	"strings"
	"time"

	mp4 "github.com/abema/go-mp4"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rwcarlsen/goexif/exif"
)

// offset between the mp4 epoch (1904) and the unix epoch
const mp4EpochOffset = 2082844800

const exifLayout = "2006:01:02 15:04:05"

var exifFields = map[string]exif.FieldName{
	TagDateTimeOriginal:    exif.DateTimeOriginal,
	TagSubSecTimeOriginal:  exif.SubSecTimeOriginal,
	TagCreateDate:          exif.DateTimeDigitized,
	TagSubSecTimeDigitized: exif.SubSecTimeDigitized,
}

var isoBMFFTypes = []string{"video/mp4", "video/quicktime", "video/x-m4v", "video/3gpp", "video/3gpp2"}

// NativeStore reads capture dates without any external tool: EXIF from
// images and the movie header of MP4/QuickTime files. It cannot write.
type NativeStore struct {
	logger *slog.Logger

	cacheKey string
	cached   map[string]string
}

func NewNativeStore(logger *slog.Logger) *NativeStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &NativeStore{logger: logger}
}

func (s *NativeStore) GetTag(path, tag string) (string, bool) {
	tags := s.tags(path)
	v, ok := tags[tag]
	return v, ok && v != ""
}

func (s *NativeStore) SetTag(path, tag, value string) bool {
	s.logger.Debug("native metadata reader cannot write tags", "path", path, "tag", tag)
	return false
}

func (s *NativeStore) Close() error {
	return nil
}

func (s *NativeStore) tags(path string) map[string]string {
	key := fileKey(path)
	if key == "" {
		return nil
	}
	if key == s.cacheKey {
		return s.cached
	}

	tags := make(map[string]string)
	if fi, err := os.Stat(path); err == nil {
		tags[TagFileModifyDate] = fi.ModTime().Format(exifLayout + "-07:00")
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		s.logger.Debug("failed to detect file type", "path", path, "err", err)
	} else {
		switch {
		case strings.HasPrefix(mtype.String(), "image/"):
			s.readExif(path, tags)
		case isISOBMFF(mtype):
			s.readMovieHeader(path, tags)
		}
	}

	s.cacheKey, s.cached = key, tags
	return tags
}

func isISOBMFF(mtype *mimetype.MIME) bool {
	for _, t := range isoBMFFTypes {
		if mtype.Is(t) {
			return true
		}
	}
	return false
}

// readExif copies the date fields of the EXIF block into tags.
func (s *NativeStore) readExif(path string, tags map[string]string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		s.logger.Debug("no exif data", "path", path, "err", err)
		return
	}

	for tag, field := range exifFields {
		t, err := x.Get(field)
		if err != nil {
			continue
		}
		v, err := t.StringVal()
		if err != nil {
			continue
		}
		v = strings.TrimSpace(strings.TrimRight(v, "\x00"))
		if v != "" {
			tags[tag] = v
		}
	}
}

// readMovieHeader reads the creation time stored in moov/mvhd as CreateDate (UTC).
func (s *NativeStore) readMovieHeader(path string, tags map[string]string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	boxes, err := mp4.ExtractBoxWithPayload(f, nil, mp4.BoxPath{mp4.BoxTypeMoov(), mp4.BoxTypeMvhd()})
	if err != nil || len(boxes) == 0 {
		s.logger.Debug("no movie header", "path", path, "err", err)
		return
	}
	mvhd, ok := boxes[0].Payload.(*mp4.Mvhd)
	if !ok {
		return
	}

	var ct uint64
	if mvhd.Version > 0 {
		ct = mvhd.CreationTimeV1
	} else {
		ct = uint64(mvhd.CreationTimeV0)
	}
	if ct == 0 {
		// unset, exiftool reports this as 0000:00:00 00:00:00
		tags[TagCreateDate] = "0000:00:00 00:00:00"
		return
	}
	tags[TagCreateDate] = time.Unix(int64(ct)-mp4EpochOffset, 0).UTC().Format(exifLayout)
}
