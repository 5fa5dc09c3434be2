package internal

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSurvey(t *testing.T) {
	root := filepath.Join(t.TempDir(), "archive")
	writeFile(t, filepath.Join(root, "2019", "05", "2019-05-10 09.15.22.000.jpg"), "aaaa")
	writeFile(t, filepath.Join(root, "2019-05-11 10.00.00.000.jpg"), "bb")
	writeFile(t, filepath.Join(root, "in", "VID_20180101_120000.mp4"), "ccc")
	writeFile(t, filepath.Join(root, "in", "DSC_0001.jpg"), "d")
	writeFile(t, filepath.Join(root, "in", "DSC_0002.JPG"), "ee")
	writeFile(t, filepath.Join(root, "in", "readme.txt"), "ignored")
	writeFile(t, filepath.Join(root, "@eaDir", "thumb.jpg"), "ignored")

	ledger := openTestLedger(t)
	require.NoError(t, ledger.Record("DSC_0001.jpg", "DSC_0001.jpg", filepath.Join(root, "in", "DSC_0001.jpg")))
	// another file once carried this name; the one on disk is still unsorted
	require.NoError(t, ledger.Record("2017-01-01 00.00.01.000.mp4", "VID_20180101_120000.mp4", "/elsewhere"))

	report, err := Survey(root, testFilter(), ledger)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Photos)
	assert.Equal(t, 1, report.Videos)
	assert.Equal(t, int64(12), report.TotalBytes)
	assert.Equal(t, 2, report.Canonical)
	assert.Equal(t, 1, report.InPlace)
	assert.Equal(t, 1, report.NamedByDate)
	assert.Equal(t, 2, report.NeedsMetadata)
	assert.Equal(t, 1, report.KnownToLedger)
	assert.Equal(t, "2018-01-01", report.Oldest)
	assert.Equal(t, "2019-05-11", report.Newest)
	assert.Len(t, report.SkippedDirs, 1)
	require.Contains(t, report.Extensions, ".jpg")
	assert.NotContains(t, report.Extensions, ".JPG")
	assert.Equal(t, 4, report.Extensions[".jpg"].Count)
	assert.Equal(t, int64(9), report.Extensions[".jpg"].TotalSize)
	assert.Equal(t, "video", report.Extensions[".mp4"].Kind)
}

func TestSurvey_Output(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "IMG_20190510_091522.jpg"), "x")

	report, err := Survey(root, testFilter(), nil)
	require.NoError(t, err)

	var table bytes.Buffer
	report.Print(&table)
	assert.True(t, strings.Contains(table.String(), "1 dated by file name"), table.String())

	var out bytes.Buffer
	require.NoError(t, report.WriteJSON(&out))
	var decoded SurveyReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, 1, decoded.Photos)
	assert.Equal(t, 1, decoded.NamedByDate)
}
