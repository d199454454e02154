package corpus

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// StringList stores a slice of strings in SQLite as a JSON array.
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StringList) Scan(value interface{}) error {
	raw, ok, err := jsonBytes(value)
	if err != nil || !ok {
		*s = StringList{}
		return err
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan string list: %w", err)
	}
	*s = out
	return nil
}

// Context describes the communicative setting of a corpus record. Every field
// is optional; when set it must belong to its vocabulary.
type Context struct {
	Audience    Audience    `json:"audience,omitempty"`
	SpeakerRole SpeakerRole `json:"speaker_role,omitempty"`
	Register    Register    `json:"register,omitempty"`
	Region      Region      `json:"region,omitempty"`
	Formality   Formality   `json:"formality,omitempty"`
	Sensitivity Sensitivity `json:"sensitivity,omitempty"`
}

// Validate checks every populated field against its vocabulary.
func (c Context) Validate() error {
	_, err := ContextFromMap(map[string]string{
		"audience":     string(c.Audience),
		"speaker_role": string(c.SpeakerRole),
		"register":     string(c.Register),
		"region":       string(c.Region),
		"formality":    string(c.Formality),
		"sensitivity":  string(c.Sensitivity),
	})
	return err
}

// IsZero reports whether no context field is set.
func (c Context) IsZero() bool {
	return c == Context{}
}

func (c Context) Value() (driver.Value, error) {
	if c.IsZero() {
		return nil, nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan decodes the JSON column and lowercases values written by older
// importers before validating them.
func (c *Context) Scan(value interface{}) error {
	*c = Context{}
	raw, ok, err := jsonBytes(value)
	if err != nil || !ok {
		return err
	}
	var loose map[string]string
	if err := json.Unmarshal(raw, &loose); err != nil {
		return fmt.Errorf("scan context: %w", err)
	}
	parsed, err := ContextFromMap(loose)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ContextFromMap builds a Context from loosely typed key/value pairs,
// rejecting unknown keys and out-of-vocabulary values.
func ContextFromMap(m map[string]string) (Context, error) {
	var (
		c   Context
		err error
	)
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := m[k]
		switch k {
		case "audience":
			c.Audience, err = parseOptional("audience", v, audiences)
		case "speaker_role":
			c.SpeakerRole, err = parseOptional("speaker_role", v, speakerRoles)
		case "register":
			c.Register, err = parseOptional("register", v, registers)
		case "region":
			c.Region, err = parseOptional("region", v, regions)
		case "formality":
			c.Formality, err = parseOptional("formality", v, formalities)
		case "sensitivity":
			c.Sensitivity, err = parseOptional("sensitivity", v, sensitivities)
		default:
			err = &EnumError{Field: "context key", Value: k}
		}
		if err != nil {
			return Context{}, fmt.Errorf("context: %w", err)
		}
	}
	return c, nil
}

// Dosage is the structured medication instruction carried by high-risk records.
type Dosage struct {
	Drug           string  `json:"drug"`
	Quantity       float64 `json:"dose_qty"`
	Unit           string  `json:"dose_unit"`
	Route          string  `json:"route,omitempty"`
	FrequencyHours float64 `json:"frequency_hours,omitempty"`
	FrequencyText  string  `json:"frequency_text,omitempty"`
	MaxDailyDose   float64 `json:"max_daily_dose,omitempty"`
	DurationDays   int     `json:"duration_days,omitempty"`
}

func (d *Dosage) Validate() error {
	if d == nil {
		return nil
	}
	if d.Drug == "" {
		return errors.New("dosage: drug is required")
	}
	if d.Quantity <= 0 {
		return fmt.Errorf("dosage: quantity must be positive, got %v", d.Quantity)
	}
	if d.Unit == "" {
		return errors.New("dosage: unit is required")
	}
	if d.MaxDailyDose > 0 && d.FrequencyHours > 0 {
		perDay := d.Quantity * (24 / d.FrequencyHours)
		if perDay > d.MaxDailyDose {
			return fmt.Errorf("dosage: %v %s every %vh exceeds max daily dose %v", d.Quantity, d.Unit, d.FrequencyHours, d.MaxDailyDose)
		}
	}
	return nil
}

// SafetyFlags is a set of safety markers stored as a sorted JSON array.
type SafetyFlags []SafetyFlag

// ParseSafetyFlags validates and de-duplicates raw flag names.
func ParseSafetyFlags(raw []string) (SafetyFlags, error) {
	seen := make(map[SafetyFlag]bool, len(raw))
	out := make(SafetyFlags, 0, len(raw))
	for _, r := range raw {
		f, err := ParseSafetyFlag(r)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s SafetyFlags) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]SafetyFlag(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *SafetyFlags) Scan(value interface{}) error {
	var names StringList
	if err := names.Scan(value); err != nil {
		return err
	}
	flags, err := ParseSafetyFlags(names)
	if err != nil {
		return err
	}
	*s = flags
	return nil
}

// AcceptableContext lists where a harsh-language term may appear without a flag.
type AcceptableContext struct {
	Registers []Register `json:"registers,omitempty"`
	Audiences []Audience `json:"audiences,omitempty"`
	Note      string     `json:"note,omitempty"`
}

func (a AcceptableContext) Validate() error {
	for _, r := range a.Registers {
		if _, err := parseEnum("register", string(r), registers, false); err != nil {
			return fmt.Errorf("acceptable context: %w", err)
		}
	}
	for _, au := range a.Audiences {
		if _, err := parseEnum("audience", string(au), audiences, false); err != nil {
			return fmt.Errorf("acceptable context: %w", err)
		}
	}
	return nil
}

func jsonBytes(value interface{}) ([]byte, bool, error) {
	switch v := value.(type) {
	case nil:
		return nil, false, nil
	case []byte:
		if len(v) == 0 {
			return nil, false, nil
		}
		return v, true, nil
	case string:
		if v == "" {
			return nil, false, nil
		}
		return []byte(v), true, nil
	default:
		return nil, false, fmt.Errorf("unsupported JSON column type %T", value)
	}
}
