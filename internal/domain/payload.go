package domain

type MediaKind string

const (
	MediaImage    MediaKind = "image"
	MediaVideo    MediaKind = "video"
	MediaDocument MediaKind = "document"
)

// MessagePayload is a composed template request. It is built fresh for every
// send and never persisted directly.
type MessagePayload struct {
	ToPhone         string
	TemplateName    string
	Language        string
	BodyVariables   []string
	HeaderMediaURL  string
	HeaderMediaType MediaKind
	CallbackData    string
}

// Wire format for POST {base}/messages.

type TemplateRequest struct {
	To       string       `json:"to"`
	Type     string       `json:"type"`
	Template TemplateObj  `json:"template"`
	MetaData *MetaDataObj `json:"metaData,omitempty"`
}

type TemplateObj struct {
	Name       string         `json:"name"`
	Language   LanguageObj    `json:"language"`
	Components []ComponentObj `json:"components"`
}

type LanguageObj struct {
	Code string `json:"code"`
}

type ComponentObj struct {
	Type       string         `json:"type"`
	Parameters []ParameterObj `json:"parameters"`
}

type ParameterObj struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Link string `json:"link,omitempty"`
}

type MetaDataObj struct {
	CustomCallbackData string `json:"custom_callback_data"`
}

// RelayEnvelope wraps the same request for POST {base}/relay.
type RelayEnvelope struct {
	IntegrationID string          `json:"integrationId"`
	Action        string          `json:"action"`
	Data          TemplateRequest `json:"data"`
}

const RelayActionSendTemplate = "send_template"

func (p *MessagePayload) ToRequest() TemplateRequest {
	req := TemplateRequest{
		To:   p.ToPhone,
		Type: "template",
		Template: TemplateObj{
			Name:       p.TemplateName,
			Language:   LanguageObj{Code: p.Language},
			Components: []ComponentObj{},
		},
	}

	if len(p.BodyVariables) > 0 {
		params := make([]ParameterObj, 0, len(p.BodyVariables))
		for _, v := range p.BodyVariables {
			params = append(params, ParameterObj{Type: "text", Text: v})
		}
		req.Template.Components = append(req.Template.Components, ComponentObj{
			Type:       "body",
			Parameters: params,
		})
	}

	if p.HeaderMediaURL != "" && p.HeaderMediaType != "" {
		req.Template.Components = append(req.Template.Components, ComponentObj{
			Type: "header",
			Parameters: []ParameterObj{
				{Type: string(p.HeaderMediaType), Link: p.HeaderMediaURL},
			},
		})
	}

	if p.CallbackData != "" {
		req.MetaData = &MetaDataObj{CustomCallbackData: p.CallbackData}
	}

	return req
}

// SendResult is the uniform outcome of one transport send, whichever path served it.
type SendResult struct {
	Success            bool   `json:"success"`
	TransportMessageID string `json:"transportMessageId,omitempty"`
	ErrorCode          string `json:"errorCode,omitempty"`
	ErrorMessage       string `json:"errorMessage,omitempty"`
	Via                string `json:"via,omitempty"`
	StatusCode         int    `json:"statusCode,omitempty"`
	RawResponse        string `json:"rawResponse,omitempty"`
}

const (
	ViaPrimary = "primary"
	ViaRelay   = "relay"
)
