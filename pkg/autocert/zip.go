package autocert

import (
	"bytes"
	"fmt"
	"path"
	"time"

	"github.com/klauspost/compress/zip"
)

const (
	bundlePDFDir = "pdf"
	bundlePNGDir = "png"
)

func addBytesToZip(archive *zip.Writer, archivePath string, data []byte, modified time.Time) error {
	header := &zip.FileHeader{
		Name:     archivePath,
		Method:   zip.Deflate,
		Modified: modified,
	}

	writer, err := archive.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = writer.Write(data)
	return err
}

// Bundle packs pdf/<name>.pdf, png/<name>.png for every certificate and summary.txt into a zip.
func Bundle(result *GenerationResult) ([]byte, error) {
	var buf bytes.Buffer
	archive := zip.NewWriter(&buf)
	modified := result.FinishedAt

	for _, c := range result.Certificates {
		if err := addBytesToZip(archive, path.Join(bundlePDFDir, c.PDFName()), c.PDF, modified); err != nil {
			return nil, fmt.Errorf("failed to add %s to bundle: %w", c.PDFName(), err)
		}
		if err := addBytesToZip(archive, path.Join(bundlePNGDir, c.PNGName()), c.PNG, modified); err != nil {
			return nil, fmt.Errorf("failed to add %s to bundle: %w", c.PNGName(), err)
		}
	}

	if err := addBytesToZip(archive, SummaryFileName, []byte(Summary(result)), modified); err != nil {
		return nil, fmt.Errorf("failed to add summary to bundle: %w", err)
	}

	if err := archive.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
