package fetch

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidCursor is returned for cursors that cannot be decoded
	ErrInvalidCursor = errors.New("invalid cursor")
)

// Cursor marks where the next storefront page starts and which filter issued it
type Cursor struct {
	Offset    int
	FilterKey string
}

// EncodeCursor builds an opaque cursor string
func EncodeCursor(c Cursor) string {
	payload := fmt.Sprintf("%d|%s", c.Offset, c.FilterKey)
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// ParseCursor decodes a cursor string. An empty value yields nil, nil.
func ParseCursor(value string) (*Cursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 {
		return nil, ErrInvalidCursor
	}
	offset, err := strconv.Atoi(parts[0])
	if err != nil || offset < 0 {
		return nil, ErrInvalidCursor
	}
	return &Cursor{Offset: offset, FilterKey: parts[1]}, nil
}
