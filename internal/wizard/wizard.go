// ABOUTME: WizardDraft schema with per-field defaults and the shape normalizer
// ABOUTME: Normalize fills defaults for missing or wrong-typed fields without coercion

package wizard

// Per-field defaults for the wizard draft. A wrong-typed value is replaced
// by its default outright; no coercion is attempted.
const (
	DefaultLocation     = "Dhaka, Bangladesh"
	DefaultBudget       = 10000
	DefaultCategory     = "Fashion"
	DefaultHorizon      = "6m"
	DefaultRisk         = "conservative"
	DefaultPricingModel = "one_time"
)

// Attachment is an uploaded file carried inline as a data URL, with an
// optional hosted URL when the inline payload has been offloaded.
type Attachment struct {
	Name string `json:"name"`
	Data string `json:"data"`
	URL  string `json:"url,omitempty"`
}

// Preferences holds the planning horizon and risk appetite selected in the
// wizard.
type Preferences struct {
	Horizon string `json:"horizon"`
	Risk    string `json:"risk"`
}

// Persona describes the target customer. All fields are free-form strings.
type Persona struct {
	Age    string `json:"age"`
	Gender string `json:"gender"`
	Job    string `json:"job"`
}

// Pricing holds the pricing model and price point.
type Pricing struct {
	Model string `json:"model"`
	Price string `json:"price"`
}

// Extended groups the optional deep-dive intake fields.
type Extended struct {
	Persona   Persona `json:"persona"`
	Pains     string  `json:"pains"`
	ValueProp string  `json:"valueProp"`
	Pricing   Pricing `json:"pricing"`
}

// Draft is the fully-populated wizard record. After Normalize every field is
// defined; no field is ever absent from the document form.
type Draft struct {
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Location     string       `json:"location"`
	Budget       float64      `json:"budget"`
	Category     string       `json:"category"`
	VoiceNoteURL *string      `json:"voiceNoteBlobUrl"`
	Images       []Attachment `json:"images"`
	PDF          *Attachment  `json:"pdf"`
	Preferences  Preferences  `json:"preferences"`
	Extended     Extended     `json:"extended"`
}

// Default returns a draft with every field at its documented default.
func Default() Draft {
	return Draft{
		Location: DefaultLocation,
		Budget:   DefaultBudget,
		Category: DefaultCategory,
		Images:   []Attachment{},
		Preferences: Preferences{
			Horizon: DefaultHorizon,
			Risk:    DefaultRisk,
		},
		Extended: Extended{
			Pricing: Pricing{Model: DefaultPricingModel},
		},
	}
}

// Normalize builds a fully-populated Draft from a partially-shaped input of
// unknown provenance (mirror blob, remote document, or nothing at all).
// Missing and wrong-typed fields take their defaults. The function is pure
// and idempotent: Normalize(Doc(Normalize(x))) == Normalize(x).
func Normalize(raw any) Draft {
	d := Default()
	m, ok := raw.(map[string]any)
	if !ok {
		return d
	}

	if s, ok := m["title"].(string); ok {
		d.Title = s
	}
	if s, ok := m["description"].(string); ok {
		d.Description = s
	}
	if s, ok := m["location"].(string); ok {
		d.Location = s
	}
	if n, ok := number(m["budget"]); ok {
		d.Budget = n
	}
	if s, ok := m["category"].(string); ok {
		d.Category = s
	}
	if s, ok := m["voiceNoteBlobUrl"].(string); ok {
		d.VoiceNoteURL = &s
	}
	d.Images = normalizeAttachments(m["images"])
	d.PDF = normalizeAttachment(m["pdf"])

	if prefs, ok := m["preferences"].(map[string]any); ok {
		if s, ok := prefs["horizon"].(string); ok {
			d.Preferences.Horizon = s
		}
		if s, ok := prefs["risk"].(string); ok {
			d.Preferences.Risk = s
		}
	}

	ext, _ := m["extended"].(map[string]any)
	if persona, ok := ext["persona"].(map[string]any); ok {
		if s, ok := persona["age"].(string); ok {
			d.Extended.Persona.Age = s
		}
		if s, ok := persona["gender"].(string); ok {
			d.Extended.Persona.Gender = s
		}
		if s, ok := persona["job"].(string); ok {
			d.Extended.Persona.Job = s
		}
	}
	if s, ok := ext["pains"].(string); ok {
		d.Extended.Pains = s
	}
	if s, ok := ext["valueProp"].(string); ok {
		d.Extended.ValueProp = s
	}
	if pricing, ok := ext["pricing"].(map[string]any); ok {
		if s, ok := pricing["model"].(string); ok {
			d.Extended.Pricing.Model = s
		}
		if s, ok := pricing["price"].(string); ok {
			d.Extended.Pricing.Price = s
		}
	}

	return d
}

// normalizeAttachments coerces an untyped value into a concrete attachment
// list. Non-list values and malformed entries are dropped.
func normalizeAttachments(raw any) []Attachment {
	list, ok := raw.([]any)
	if !ok {
		return []Attachment{}
	}
	out := make([]Attachment, 0, len(list))
	for _, entry := range list {
		if a := normalizeAttachment(entry); a != nil {
			out = append(out, *a)
		}
	}
	return out
}

func normalizeAttachment(raw any) *Attachment {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	a := Attachment{Name: "image"}
	if s, ok := m["name"].(string); ok && s != "" {
		a.Name = s
	}
	if s, ok := m["data"].(string); ok {
		a.Data = s
	}
	if s, ok := m["url"].(string); ok {
		a.URL = s
	}
	return &a
}

// number accepts the numeric representations a decoded JSON document or a
// typed partial may carry. Numeric strings are not parsed; the default wins.
func number(raw any) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
