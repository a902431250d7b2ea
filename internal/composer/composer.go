package composer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/onurcolak/lead-notification-service/internal/domain"
	"github.com/onurcolak/lead-notification-service/internal/phone"
)

const DefaultLanguage = "en"

var (
	templateNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,}$`)

	// The provider's template engine cannot fill button text, so these never
	// belong in body variables.
	forbiddenVariableSubstrings = []string{"button", "cta"}
)

type mediaValidator interface {
	Validate(ctx context.Context, rawURL string, kind domain.MediaKind) error
}

type Request struct {
	Phone           string
	TemplateName    string
	Language        string
	BodyVariables   []string
	HeaderMediaURL  string
	HeaderMediaType domain.MediaKind
	CallbackData    string
}

// Composer builds every outbound template payload: direct sends, campaigns
// and call follow-ups all go through Compose.
type Composer struct {
	normalizer *phone.Normalizer
	media      mediaValidator
}

func New(normalizer *phone.Normalizer, media mediaValidator) *Composer {
	return &Composer{
		normalizer: normalizer,
		media:      media,
	}
}

// Compose runs the pre-send guards and returns a payload ready for the
// transport. Guards that need no network run first; media validation is last.
func (c *Composer) Compose(ctx context.Context, req Request) (*domain.MessagePayload, error) {
	if err := ValidateTemplateName(req.TemplateName); err != nil {
		return nil, err
	}

	to, err := c.normalizer.Normalize(req.Phone)
	if err != nil {
		return nil, err
	}

	if err := CheckBodyVariables(req.BodyVariables); err != nil {
		return nil, err
	}

	if req.HeaderMediaURL != "" {
		if req.HeaderMediaType == "" {
			return nil, domain.ErrMediaKindRequired
		}
		if err := c.media.Validate(ctx, req.HeaderMediaURL, req.HeaderMediaType); err != nil {
			return nil, err
		}
	}

	language := req.Language
	if language == "" {
		language = DefaultLanguage
	}

	vars := make([]string, len(req.BodyVariables))
	copy(vars, req.BodyVariables)

	payload := &domain.MessagePayload{
		ToPhone:       to,
		TemplateName:  req.TemplateName,
		Language:      language,
		BodyVariables: vars,
		CallbackData:  req.CallbackData,
	}
	if req.HeaderMediaURL != "" {
		payload.HeaderMediaURL = req.HeaderMediaURL
		payload.HeaderMediaType = req.HeaderMediaType
	}

	return payload, nil
}

func ValidateTemplateName(name string) error {
	if !templateNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q must be at least 3 letters, digits or underscores",
			domain.ErrInvalidTemplateName, name)
	}
	return nil
}

func CheckBodyVariables(vars []string) error {
	for i, v := range vars {
		lower := strings.ToLower(v)
		for _, s := range forbiddenVariableSubstrings {
			if strings.Contains(lower, s) {
				return fmt.Errorf("%w: variable %d contains %q", domain.ErrUnsupportedButtonVariable, i+1, s)
			}
		}
	}
	return nil
}
