package autocert

import (
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBatchSize  = 3
	DefaultBatchDelay = 200 * time.Millisecond
	DefaultFileDelay  = 100 * time.Millisecond
	DefaultQRCodeSize = 120
)

type Config struct {
	// A path to json where it store font name and path to the font file
	FontMetadataPath string
	// Number of certificates rendered concurrently
	BatchSize int
	// Pause between two batches
	BatchDelay time.Duration
	// Pause between two files when delivering certificates one by one
	FileDelay time.Duration
	// Used by the resolver when a student has no institute name
	InstituteName string
	EmbedQRCode   bool
	// Must contain one %s, replaced by the student's user id
	QRURLPattern string
	QRCodeSize   int
	Logger       *zap.SugaredLogger
}

func NewDefaultConfig() *Config {
	return &Config{
		FontMetadataPath: "font_metadata.json",
		BatchSize:        DefaultBatchSize,
		BatchDelay:       DefaultBatchDelay,
		FileDelay:        DefaultFileDelay,
		InstituteName:    DefaultInstituteName,
		QRCodeSize:       DefaultQRCodeSize,
		Logger:           zap.NewNop().Sugar(),
	}
}

// normalize fills zero values with defaults so a partially populated Config is usable.
func (c *Config) normalize() *Config {
	if c == nil {
		return NewDefaultConfig()
	}
	out := *c
	if out.BatchSize <= 0 {
		out.BatchSize = DefaultBatchSize
	}
	if out.BatchDelay < 0 {
		out.BatchDelay = 0
	}
	if out.FileDelay < 0 {
		out.FileDelay = 0
	}
	if out.InstituteName == "" {
		out.InstituteName = DefaultInstituteName
	}
	if out.QRCodeSize <= 0 {
		out.QRCodeSize = DefaultQRCodeSize
	}
	if out.Logger == nil {
		out.Logger = zap.NewNop().Sugar()
	}
	return &out
}
