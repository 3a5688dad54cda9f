package main

import (
	"encoding/json"
	"os"

	"github.com/SeakMengs/AutoCertLMS/pkg/autocert"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	fontDir := pflag.String("dir", "fonts", "directory holding .ttf and .otf files")
	outputFile := pflag.String("out", "font_metadata.json", "metadata file to write")
	pflag.Parse()

	logger := zap.Must(zap.NewDevelopment()).Sugar()
	defer logger.Sync()

	fonts, err := autocert.ScanFontDir(*fontDir, logger)
	if err != nil {
		logger.Fatalf("Failed to scan font directory: %v", err)
	}

	data, err := json.MarshalIndent(fonts, "", "  ")
	if err != nil {
		logger.Fatalf("Failed to marshal JSON: %v", err)
	}

	// The file can be read by the owner (you), read by users in the file's group, and read by anyone else on the system
	if err := os.WriteFile(*outputFile, data, 0644); err != nil {
		logger.Fatalf("Failed to write JSON file: %v", err)
	}

	logger.Infof("Saved metadata for %d fonts to %q", len(fonts), *outputFile)
}
