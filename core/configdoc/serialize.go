package configdoc

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-yaml"
)

// ParseError reports syntactically invalid on-disk content. Detail carries
// goccy's positional rendering (line/column plus a source excerpt) so the
// caller can show the user where the file broke.
type ParseError struct {
	Message string
	Detail  string
}

func (e *ParseError) Error() string {
	if e.Detail == "" {
		return e.Message
	}
	return fmt.Sprintf("%s\n%s", e.Message, e.Detail)
}

var sectionComments = yaml.CommentMap{
	"$.accounts":    []*yaml.Comment{yaml.HeadComment(" Provider accounts, keyed by name.")},
	"$.profiles":    []*yaml.Comment{yaml.HeadComment(" Launch profiles. settings points at a per-profile settings file.")},
	"$.providers":   []*yaml.Comment{yaml.HeadComment(" Provider variant registry.")},
	"$.preferences": []*yaml.Comment{yaml.HeadComment(" General preferences.")},
	"$.usage":       []*yaml.Comment{yaml.HeadComment(" Cost tracking.")},
	"$.updates":     []*yaml.Comment{yaml.HeadComment(" Update checks.")},
}

// Serialize renders a full document to the on-disk YAML form: version on the
// first line, then each section in fixed order with an explanatory comment.
func Serialize(doc Document) ([]byte, error) {
	encoded, err := yaml.MarshalWithOptions(doc, yaml.WithComment(sectionComments))
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return encoded, nil
}

// Deserialize parses on-disk content into a Partial. Three outcomes:
//
//   - (partial, nil): structurally a document (numeric version >= 1), with
//     possibly-absent sections and wrong-typed sections recorded as warnings;
//   - (nil, nil): valid YAML that is not a document, treated the same as an
//     absent file;
//   - (nil, *ParseError): invalid YAML, surfaced with position detail.
func Deserialize(content []byte) (*Partial, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, nil
	}

	var raw any
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, &ParseError{
			Message: "config file is not valid yaml",
			Detail:  yaml.FormatError(err, false, true),
		}
	}
	document, ok := raw.(map[string]any)
	if !ok {
		return nil, nil
	}
	version, ok := numericVersion(document["version"])
	if !ok || version < 1 {
		return nil, nil
	}

	partial := &Partial{Version: version}
	decodeSection(document, "accounts", &partial.Accounts, &partial.Warnings)
	decodeSection(document, "profiles", &partial.Profiles, &partial.Warnings)
	decodeSection(document, "providers", &partial.Providers, &partial.Warnings)
	decodeSection(document, "preferences", &partial.Preferences, &partial.Warnings)
	decodeSection(document, "usage", &partial.Usage, &partial.Warnings)
	decodeSection(document, "updates", &partial.Updates, &partial.Warnings)
	return partial, nil
}

// decodeSection re-decodes one section subtree into its typed shape. A
// wrong-typed section is replaced by leaving the target nil (the merger falls
// back to the section default) and recording a warning; it never aborts the
// load. Unknown keys inside a section are ignored for forward compatibility.
func decodeSection[T any](document map[string]any, key string, target *T, warnings *[]string) {
	value, present := document[key]
	if !present || value == nil {
		return
	}
	encoded, err := yaml.Marshal(value)
	if err != nil {
		*warnings = append(*warnings, fmt.Sprintf("section %q could not be re-encoded; using defaults", key))
		return
	}
	var decoded T
	if err := yaml.Unmarshal(encoded, &decoded); err != nil {
		*warnings = append(*warnings, fmt.Sprintf("section %q has unexpected type; using defaults", key))
		return
	}
	*target = decoded
}

func numericVersion(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true // #nosec G115 -- schema versions are tiny integers.
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	}
	return 0, false
}
