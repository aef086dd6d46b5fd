package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"
)

// MaxUsernameLength is the longest display name, in runes, a client may use.
const MaxUsernameLength = 64

// ErrMalformedFrame is returned for inbound frames that cannot become a chat message.
var ErrMalformedFrame = errors.New("malformed chat frame")

// Inbound is the payload a client sends to post a message.
type Inbound struct {
	Username string `json:"username" validate:"required,max=64"`
	Text     string `json:"text" validate:"required"`
}

// inboundFrame accepts "content" as an alias for "text".
type inboundFrame struct {
	Username string `json:"username"`
	Text     string `json:"text"`
	Content  string `json:"content"`
}

// Decoder parses and validates inbound client frames.
type Decoder struct {
	validate      *validator.Validate
	maxTextLength int
}

// NewDecoder returns a Decoder that rejects texts longer than maxTextLength runes.
func NewDecoder(maxTextLength int) *Decoder {
	return &Decoder{
		validate:      validator.New(),
		maxTextLength: maxTextLength,
	}
}

// Decode turns a raw text frame into a normalized Inbound payload.
// Username and text are NFC-normalized and trimmed before validation.
func (d *Decoder) Decode(raw []byte) (Inbound, error) {
	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	text := frame.Text
	if text == "" {
		text = frame.Content
	}

	in := Inbound{
		Username: Normalize(frame.Username),
		Text:     Normalize(text),
	}
	if err := d.validate.Struct(in); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if d.maxTextLength > 0 && utf8.RuneCountInString(in.Text) > d.maxTextLength {
		return Inbound{}, fmt.Errorf("%w: text exceeds %d characters", ErrMalformedFrame, d.maxTextLength)
	}
	return in, nil
}

// Normalize applies NFC normalization and trims surrounding whitespace.
func Normalize(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
