package phone

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/onurcolak/lead-notification-service/internal/domain"
)

const DefaultCountryCode = "91"

// nationalDigits is the subscriber number length for the home country.
const nationalDigits = 10

var e164Pattern = regexp.MustCompile(`^\+[1-9]\d{6,15}$`)

// Normalizer turns raw phone strings into canonical E.164 numbers. It is the
// only normalization used by deduplication, ingestion and campaign selection.
type Normalizer struct {
	countryCode string
}

func NewNormalizer(countryCode string) *Normalizer {
	countryCode = strings.TrimPrefix(strings.TrimSpace(countryCode), "+")
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	return &Normalizer{countryCode: countryCode}
}

func (n *Normalizer) CountryCode() string {
	return n.countryCode
}

func (n *Normalizer) Normalize(raw string) (string, error) {
	cleaned := strip(raw)
	if cleaned == "" {
		return "", fmt.Errorf("%w: empty number", domain.ErrInvalidPhoneFormat)
	}

	var candidate string
	switch {
	case strings.HasPrefix(cleaned, "+"):
		candidate = cleaned
	case strings.HasPrefix(cleaned, n.countryCode) && len(cleaned) == len(n.countryCode)+nationalDigits:
		candidate = "+" + cleaned
	case len(cleaned) == nationalDigits:
		candidate = "+" + n.countryCode + cleaned
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidPhoneFormat, raw)
	}

	if !e164Pattern.MatchString(candidate) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidPhoneFormat, raw)
	}

	return candidate, nil
}

// strip keeps digits and a single leading plus sign.
func strip(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		}
	}

	return b.String()
}

// Mask hides all but the last four digits, for logs.
func Mask(p string) string {
	if len(p) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(p)-4) + p[len(p)-4:]
}
