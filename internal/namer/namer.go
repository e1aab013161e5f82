package namer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"shelf/internal/extract"
	"shelf/internal/logging"
	"shelf/internal/services"
	"shelf/internal/services/ollama"
)

const maxNameLength = 80

// nameSchema forces the naming model's reply into a single-field JSON
// object so parsing can't be derailed by prose.
var nameSchema = json.RawMessage(`{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}`)

// ChatClient is the slice of the ollama client the namer needs.
type ChatClient interface {
	Chat(ctx context.Context, req ollama.ChatRequest) (string, error)
}

// Models selects which model proposes names and which one reads scans.
type Models struct {
	Rename string
	OCR    string
}

// Namer proposes filenames from extracted content.
type Namer struct {
	client ChatClient
	logger *slog.Logger
}

// New constructs a namer over client.
func New(client ChatClient, logger *slog.Logger) *Namer {
	return &Namer{
		client: client,
		logger: logging.NewComponentLogger(logger, "namer"),
	}
}

// Propose returns a sanitized extension-less filename candidate for the
// extracted content. fileType is a human label ("PDF", "image", "text")
// interpolated into the instruction template. Failures match
// services.ErrNaming or services.ErrTimeout.
func (n *Namer) Propose(ctx context.Context, models Models, content extract.Result, fileType string) (string, error) {
	var reply string
	var err error

	switch {
	case len(content.Images) > 0:
		reply, err = n.client.Chat(ctx, ollama.ChatRequest{
			Model:  models.Rename,
			Prompt: imagePrompt,
			Images: content.Images,
			Format: nameSchema,
		})
	case content.NeedsOCR():
		var text string
		text, err = n.client.Chat(ctx, ollama.ChatRequest{
			Model:  models.OCR,
			Prompt: ocrPrompt,
			Images: content.Documents,
		})
		if err == nil {
			reply, err = n.client.Chat(ctx, ollama.ChatRequest{
				Model:  models.Rename,
				Prompt: textPrompt(fileType, text),
				Format: nameSchema,
			})
		}
	case strings.TrimSpace(content.Text) != "":
		reply, err = n.client.Chat(ctx, ollama.ChatRequest{
			Model:  models.Rename,
			Prompt: textPrompt(fileType, content.Text),
			Format: nameSchema,
		})
	default:
		return "", services.Wrap(services.ErrNaming, "namer", "propose", fileType, errors.New("no content to name from"))
	}
	if err != nil {
		return "", err
	}

	candidate := decodeCandidate(reply)
	name := Sanitize(candidate)
	if name == "" {
		return "", services.Wrap(services.ErrNaming, "namer", "propose", fileType,
			errors.New("candidate sanitized to nothing"))
	}
	n.logger.Debug("name proposed",
		logging.String("candidate", candidate),
		logging.String("sanitized", name),
	)
	return name, nil
}

// decodeCandidate reads the schema-enforced {"name": ...} payload,
// falling back to the raw reply when the model ignored the schema.
func decodeCandidate(reply string) string {
	var parsed struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(reply), &parsed); err == nil && parsed.Name != "" {
		return parsed.Name
	}
	return reply
}

// Sanitize normalizes a raw candidate into a safe filename stem:
// Unicode NFC, every non-alphanumeric run collapsed to a single
// underscore, lowercased, trimmed, capped at 80 characters. Returns ""
// when nothing usable remains.
func Sanitize(raw string) string {
	normalized := norm.NFC.String(raw)

	var b strings.Builder
	for _, r := range normalized {
		if isAlnum(r) || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	name := b.String()
	for strings.Contains(name, "__") {
		name = strings.ReplaceAll(name, "__", "_")
	}
	name = strings.Trim(name, "_")
	name = strings.ToLower(name)
	if runes := []rune(name); len(runes) > maxNameLength {
		name = strings.TrimRight(string(runes[:maxNameLength]), "-_")
	}
	return name
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
