package domain

import (
	"encoding/json"
	"strings"
)

// LocalizedText is an AAS description that may arrive as a plain string, a
// language->text object, or a langString list. It always unmarshals into a
// language map; plain strings land under the empty key.
type LocalizedText map[string]string

func (l *LocalizedText) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		*l = LocalizedText{"": plain}
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		var list []struct {
			Language string `json:"language"`
			Text     string `json:"text"`
		}
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		out := LocalizedText{}
		for _, entry := range list {
			out[entry.Language] = entry.Text
		}
		*l = out
		return nil
	}

	out := LocalizedText{}
	if langStrings, ok := raw["langString"]; ok {
		var list []struct {
			Language string `json:"language"`
			Text     string `json:"text"`
		}
		if err := json.Unmarshal(langStrings, &list); err == nil {
			for _, entry := range list {
				out[entry.Language] = entry.Text
			}
			*l = out
			return nil
		}
	}
	for key, value := range raw {
		var text string
		if err := json.Unmarshal(value, &text); err == nil {
			out[key] = text
		}
	}
	*l = out
	return nil
}

// Flatten picks a single description string: preferred languages first, then
// any string value, then empty.
func (l LocalizedText) Flatten() string {
	for _, lang := range []string{"en", "en-US", "en-GB", "de", "fr", "es", ""} {
		if text, ok := l[lang]; ok {
			return strings.TrimSpace(text)
		}
	}
	for _, text := range l {
		if text != "" {
			return strings.TrimSpace(text)
		}
	}
	return ""
}

// RawAsset is an asset as produced by an extraction strategy, before any
// cleaning or normalization.
type RawAsset struct {
	ID               string         `json:"id"`
	IDShort          string         `json:"id_short"`
	Description      LocalizedText  `json:"description"`
	Kind             string         `json:"kind"`
	AssetInformation map[string]any `json:"asset_information"`
	Submodels        []string       `json:"submodels"`
	Source           string         `json:"source,omitempty"`
}

type RawSubmodel struct {
	ID          string           `json:"id"`
	IDShort     string           `json:"id_short"`
	Description LocalizedText    `json:"description"`
	Kind        string           `json:"kind"`
	SemanticID  map[string]any   `json:"semantic_id"`
	Elements    []map[string]any `json:"submodel_elements"`
	Source      string           `json:"source,omitempty"`
}

type RawDocument struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Type     string `json:"type"`
	Content  []byte `json:"-"`
}

// RawExtraction is the immutable output of one extraction run over a single
// package file.
type RawExtraction struct {
	Assets    []RawAsset     `json:"assets"`
	Submodels []RawSubmodel  `json:"submodels"`
	Documents []RawDocument  `json:"documents"`
	Metadata  map[string]any `json:"metadata"`
}

// ExtractOutcome is the Extract phase boundary record. Internal faults never
// escape past it.
type ExtractOutcome struct {
	Success bool           `json:"success"`
	Data    *RawExtraction `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}
