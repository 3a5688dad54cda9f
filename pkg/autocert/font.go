package autocert

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// Font sizes are given in px; at 72 DPI one point is one pixel.
const DPI = 72

const DefaultFontFamily = "Go"

type FontWeight string

const (
	FontWeightRegular FontWeight = "regular"
	FontWeightBold    FontWeight = "bold"
)

// NormalizeFontWeight maps css-like weights ("bold", "700", "normal") onto the two loaded weights.
func NormalizeFontWeight(weight string) FontWeight {
	w := strings.ToLower(strings.TrimSpace(weight))
	switch w {
	case "bold", "bolder":
		return FontWeightBold
	}
	if n, err := strconv.Atoi(w); err == nil && n >= 600 {
		return FontWeightBold
	}
	return FontWeightRegular
}

type FontMetadata struct {
	Name   string     `json:"name"`
	Path   string     `json:"path"`
	Weight FontWeight `json:"weight"`
}

func getFontMetadataByPath(fontPath string) (*FontMetadata, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	f, err := sfnt.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	name, err := f.Name(nil, sfnt.NameIDFamily)
	if err != nil {
		return nil, fmt.Errorf("retrieving font name: %w", err)
	}

	weight := FontWeightRegular
	if sub, err := f.Name(nil, sfnt.NameIDSubfamily); err == nil && strings.Contains(strings.ToLower(sub), "bold") {
		weight = FontWeightBold
	}

	return &FontMetadata{
		Name:   name,
		Path:   fontPath,
		Weight: weight,
	}, nil
}

// Scan through the directory to process .ttf and .otf files.
func ScanFontDir(dir string, logger *zap.SugaredLogger) ([]FontMetadata, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	var fonts []FontMetadata

	err := filepath.Walk(dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(info.Name()))
		if ext != ".ttf" && ext != ".otf" {
			return nil
		}

		meta, err := getFontMetadataByPath(path)
		if err != nil {
			logger.Warnf("Skipping %q: %v", path, err)
			return nil
		}

		fonts = append(fonts, *meta)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return fonts, nil
}

// List the available font family and its path
func GetAvailableFonts(path string) ([]FontMetadata, error) {
	var fonts []FontMetadata

	data, err := os.ReadFile(path)
	if err != nil {
		return fonts, fmt.Errorf("reading font metadata %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &fonts); err != nil {
		return fonts, fmt.Errorf("unmarshalling font metadata: %w", err)
	}

	return fonts, nil
}

type fontKey struct {
	name   string
	weight FontWeight
}

// FontLoader resolves a family and weight to a parsed font. Parsed fonts are shared,
// faces are not safe for concurrent use so every caller gets its own.
type FontLoader struct {
	AvailableFonts []FontMetadata
	logger         *zap.SugaredLogger

	mu     sync.Mutex
	parsed map[fontKey]*opentype.Font
}

// NewFontLoader reads the metadata file when present. A missing file leaves only the embedded Go fonts.
func NewFontLoader(metadataPath string, logger *zap.SugaredLogger) (*FontLoader, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	fl := &FontLoader{
		logger: logger,
		parsed: make(map[fontKey]*opentype.Font),
	}

	if metadataPath == "" {
		return fl, nil
	}

	fonts, err := GetAvailableFonts(metadataPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warnf("Font metadata %s not found, using embedded fonts only", metadataPath)
			return fl, nil
		}
		return nil, err
	}
	fl.AvailableFonts = fonts

	return fl, nil
}

func (fl *FontLoader) GetAvailableFontMetadataByName(fontName string, weight FontWeight) (*FontMetadata, error) {
	var sameFamily *FontMetadata
	for i := range fl.AvailableFonts {
		meta := &fl.AvailableFonts[i]
		if !strings.EqualFold(meta.Name, fontName) {
			continue
		}
		if meta.Weight == weight || (meta.Weight == "" && weight == FontWeightRegular) {
			return meta, nil
		}
		if sameFamily == nil {
			sameFamily = meta
		}
	}
	if sameFamily != nil {
		return sameFamily, nil
	}
	return nil, fmt.Errorf("font %s not found", fontName)
}

func (fl *FontLoader) LoadFont(fontName string, weight FontWeight) (*opentype.Font, error) {
	key := fontKey{name: strings.ToLower(fontName), weight: weight}

	fl.mu.Lock()
	defer fl.mu.Unlock()

	if f, ok := fl.parsed[key]; ok {
		return f, nil
	}

	f, err := fl.parse(fontName, weight)
	if err != nil {
		return nil, err
	}
	fl.parsed[key] = f

	return f, nil
}

func (fl *FontLoader) parse(fontName string, weight FontWeight) (*opentype.Font, error) {
	meta, err := fl.GetAvailableFontMetadataByName(fontName, weight)
	if err != nil {
		if !strings.EqualFold(fontName, DefaultFontFamily) {
			fl.logger.Debugf("Font %q (%s) not registered, falling back to %s", fontName, weight, DefaultFontFamily)
		}
		return embeddedFont(weight)
	}

	data, err := os.ReadFile(meta.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load font file: %w", err)
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font file %s: %w", meta.Path, err)
	}

	return f, nil
}

func embeddedFont(weight FontWeight) (*opentype.Font, error) {
	data := goregular.TTF
	if weight == FontWeightBold {
		data = gobold.TTF
	}
	return opentype.Parse(data)
}

// Face returns a new face in the requested family, weight and pixel size.
func (fl *FontLoader) Face(family, weight string, size float64) (font.Face, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid font size %v", size)
	}

	f, err := fl.LoadFont(family, NormalizeFontWeight(weight))
	if err != nil {
		return nil, err
	}

	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     DPI,
		Hinting: font.HintingNone,
	})
}
