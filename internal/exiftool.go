package internal

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/barasher/go-exiftool"
)

// ExifToolStore reads and writes tags through a long-running exiftool process.
// The fields of the most recently read file are cached, so walking a media
// kind's tag chain costs a single extraction.
type ExifToolStore struct {
	et     *exiftool.Exiftool
	logger *slog.Logger

	cacheKey string
	cached   exiftool.FileMetadata
}

// NewExifToolStore starts exiftool. binaryPath may be empty to use $PATH.
func NewExifToolStore(binaryPath string, logger *slog.Logger) (*ExifToolStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var opts []func(*exiftool.Exiftool) error
	if binaryPath != "" {
		opts = append(opts, exiftool.SetExiftoolBinaryPath(binaryPath))
	}

	et, err := exiftool.NewExiftool(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start exiftool: %w", err)
	}
	return &ExifToolStore{et: et, logger: logger}, nil
}

func (s *ExifToolStore) metadata(path string) (exiftool.FileMetadata, bool) {
	key := fileKey(path)
	if key != "" && key == s.cacheKey {
		return s.cached, true
	}

	infos := s.et.ExtractMetadata(path)
	if len(infos) == 0 {
		return exiftool.FileMetadata{}, false
	}
	fm := infos[0]
	if fm.Err != nil {
		s.logger.Debug("exiftool read failed", "path", path, "err", fm.Err)
		return exiftool.FileMetadata{}, false
	}

	s.cacheKey, s.cached = key, fm
	return fm, true
}

// GetTag returns the tag value, or false when exiftool has nothing for it.
func (s *ExifToolStore) GetTag(path, tag string) (string, bool) {
	fm, ok := s.metadata(path)
	if !ok {
		return "", false
	}
	v, err := fm.GetString(tag)
	if err != nil {
		return "", false
	}
	v = strings.TrimSpace(v)
	if v == "" || v == "-" {
		return "", false
	}
	return v, true
}

// SetTag writes a single tag in place, overwriting the original file.
func (s *ExifToolStore) SetTag(path, tag, value string) bool {
	s.cacheKey = ""

	fm := exiftool.EmptyFileMetadata()
	fm.File = path
	fm.SetString(tag, value)

	batch := []exiftool.FileMetadata{fm}
	s.et.WriteMetadata(batch)
	if batch[0].Err != nil {
		s.logger.Warn("exiftool write failed", "path", path, "tag", tag, "err", batch[0].Err)
		return false
	}
	return true
}

// Close stops the exiftool process.
func (s *ExifToolStore) Close() error {
	if s.et == nil {
		return nil
	}
	err := s.et.Close()
	s.et = nil
	return err
}
