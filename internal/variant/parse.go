package variant

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	sizePattern      = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)?)\s*(?:x|×|\*)\s*([0-9]+(?:\.[0-9]+)?)\s*(?:cm|mm)?$`)
	printTypePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,31}$`)
	ErrInvalidSize   = errors.New("invalid_size")
	ErrInvalidPrint  = errors.New("invalid_print_type")
)

// Key identifies the priced variant of a product.
type Key struct {
	PrintType string
	Size      string
}

func (k Key) String() string {
	return k.PrintType + "/" + k.Size
}

// ParseSize normalizes free-form sizes such as "20×20", "20 x 20cm" or "20X20" to "20x20".
func ParseSize(text string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(text))
	m := sizePattern.FindStringSubmatch(s)
	if len(m) < 3 {
		return "", fmt.Errorf("%w: %q", ErrInvalidSize, text)
	}
	w, err := normalizeNumber(m[1])
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSize, err)
	}
	h, err := normalizeNumber(m[2])
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSize, err)
	}
	return w + "x" + h, nil
}

// ParsePrintType lower-cases and trims a print type and checks it is a plain identifier.
func ParsePrintType(text string) (string, error) {
	p := strings.ToLower(strings.TrimSpace(text))
	if !printTypePattern.MatchString(p) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPrint, text)
	}
	return p, nil
}

// Parse normalizes both halves of a variant key.
func Parse(printType, size string) (Key, error) {
	p, err := ParsePrintType(printType)
	if err != nil {
		return Key{}, err
	}
	s, err := ParseSize(size)
	if err != nil {
		return Key{}, err
	}
	return Key{PrintType: p, Size: s}, nil
}

func normalizeNumber(raw string) (string, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", err
	}
	if v <= 0 {
		return "", errors.New("dimension must be positive")
	}
	return strconv.FormatFloat(v, 'f', -1, 64), nil
}
