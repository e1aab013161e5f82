package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"shelf/internal/services"
)

// Below this many characters of text layer a PDF is treated as a
// scanned document and handed to the OCR model instead.
const scannedPDFThreshold = 50

var imageExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".bmp":  {},
	".webp": {},
	".tiff": {},
}

var textExtensions = map[string]struct{}{
	".txt": {},
	".md":  {},
}

// Result is the outcome of extraction. Exactly one field is populated:
// Text when the file carried a usable text layer, Images for pictures
// the vision model can read directly, Documents for scanned files that
// must pass through the OCR model first.
type Result struct {
	Text      string
	Images    [][]byte
	Documents [][]byte
}

// NeedsOCR reports whether the content must go through the OCR model
// before a name can be proposed.
func (r Result) NeedsOCR() bool {
	return len(r.Documents) > 0
}

// Supported reports whether Extract can handle the file's format.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := imageExtensions[ext]; ok {
		return true
	}
	if _, ok := textExtensions[ext]; ok {
		return true
	}
	return ext == ".pdf" || ext == ".ppt" || ext == ".pptx"
}

// TypeLabel names the file's category for prompt interpolation.
func TypeLabel(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case isImage(ext):
		return "image"
	case ext == ".pdf":
		return "PDF"
	case ext == ".ppt" || ext == ".pptx":
		return "presentation"
	default:
		return "text"
	}
}

// Extract reads path and produces its text content or an OCR payload.
// Unsupported formats return an error matching services.ErrUnsupported;
// read or parse failures match services.ErrExtraction.
func Extract(ctx context.Context, path string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, services.Wrap(services.ErrTimeout, "extract", "extract", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case isImage(ext):
		return extractImage(path)
	case ext == ".pdf":
		return extractPDF(path)
	case ext == ".ppt" || ext == ".pptx":
		return extractPresentation(path)
	case isText(ext):
		return extractText(path)
	default:
		return Result{}, services.Wrap(services.ErrUnsupported, "extract", "extract", path,
			fmt.Errorf("no extractor for %q", ext))
	}
}

func isImage(ext string) bool {
	_, ok := imageExtensions[ext]
	return ok
}

func isText(ext string) bool {
	_, ok := textExtensions[ext]
	return ok
}

func extractImage(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, services.Wrap(services.ErrExtraction, "extract", "read_image", path, err)
	}
	return Result{Images: [][]byte{data}}, nil
}

// extractPDF reads the text layer. A near-empty layer means the pages
// are scans, so the whole document goes to the OCR model.
func extractPDF(path string) (Result, error) {
	text, err := readPDFText(path)
	if err != nil {
		return Result{}, services.Wrap(services.ErrExtraction, "extract", "read_pdf", path, err)
	}
	if len(strings.TrimSpace(text)) >= scannedPDFThreshold {
		return Result{Text: text}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, services.Wrap(services.ErrExtraction, "extract", "read_pdf", path, err)
	}
	return Result{Documents: [][]byte{data}}, nil
}

// The pdf parser panics on some malformed inputs, so the whole read is
// fenced with a recover.
func readPDFText(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parse: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// extractPresentation pulls the drawing-text runs out of the slide XML
// parts of an OOXML presentation. Legacy binary .ppt files are not a
// zip archive and fail here.
func extractPresentation(path string) (Result, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return Result{}, services.Wrap(services.ErrExtraction, "extract", "open_pptx", path, err)
	}
	defer archive.Close()

	var slides []*zip.File
	for _, file := range archive.File {
		if strings.HasPrefix(file.Name, "ppt/slides/slide") && strings.HasSuffix(file.Name, ".xml") {
			slides = append(slides, file)
		}
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].Name < slides[j].Name })

	var parts []string
	for _, slide := range slides {
		text, err := readSlideText(slide)
		if err != nil {
			return Result{}, services.Wrap(services.ErrExtraction, "extract", "read_slide", slide.Name, err)
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return Result{Text: strings.Join(parts, "\n")}, nil
}

func readSlideText(file *zip.File) (string, error) {
	rc, err := file.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var runs []string
	var inTextRun bool
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch tok := token.(type) {
		case xml.StartElement:
			if tok.Name.Local == "t" {
				inTextRun = true
			}
		case xml.EndElement:
			if tok.Name.Local == "t" {
				inTextRun = false
			}
		case xml.CharData:
			if inTextRun {
				if text := strings.TrimSpace(string(tok)); text != "" {
					runs = append(runs, text)
				}
			}
		}
	}
	return strings.Join(runs, " "), nil
}

// extractText reads a plain-text file, decoding as latin-1 when the
// bytes are not valid UTF-8.
func extractText(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, services.Wrap(services.ErrExtraction, "extract", "read_text", path, err)
	}
	if utf8.Valid(data) {
		return Result{Text: string(data)}, nil
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return Result{Text: string(runes)}, nil
}
