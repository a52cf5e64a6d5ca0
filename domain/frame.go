package domain

import (
	"encoding/json"
	"fmt"
	"nextext/errors"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Frame is a validated inbound send request: deliver Content to To.
// A Frame can only be obtained through FrameParser.Parse.
type Frame struct {
	To      UserID
	Content string
}

// rawFrame mirrors the wire format. Pointers distinguish an absent field from a zero value.
type rawFrame struct {
	To      *int64  `json:"to" validate:"required,gt=0"`
	Content *string `json:"content" validate:"required"`
}

type FrameParser struct {
	validate         *validator.Validate
	maxContentLength int
}

// NewFrameParser returns a parser rejecting contents longer than maxContentLength runes.
// A zero or negative maxContentLength disables the length check.
func NewFrameParser(maxContentLength int) FrameParser {
	return FrameParser{validate: validator.New(), maxContentLength: maxContentLength}
}

// Parse decodes one text frame. Every rejection wraps errors.ErrInvalidFrame.
func (p FrameParser) Parse(raw []byte) (Frame, error) {
	var in rawFrame
	if err := json.Unmarshal(raw, &in); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", errors.ErrInvalidFrame, err)
	}
	if err := p.validate.Struct(in); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", errors.ErrInvalidFrame, err)
	}
	if *in.Content == "" {
		return Frame{}, fmt.Errorf("%w: empty content", errors.ErrInvalidFrame)
	}
	if p.maxContentLength > 0 && utf8.RuneCountInString(*in.Content) > p.maxContentLength {
		return Frame{}, fmt.Errorf("%w: content exceeds %d characters", errors.ErrInvalidFrame, p.maxContentLength)
	}
	return Frame{To: UserID(*in.To), Content: *in.Content}, nil
}
