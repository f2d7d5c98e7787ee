package aaszip

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/twinforge/aasx-etl/internal/core/domain"
)

// documentExtensions are the embedded-document types collected from a
// package archive.
var documentExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
}

// maxDocumentBytes caps how much of an embedded document is kept in memory
// for downstream text extraction.
const maxDocumentBytes = 8 << 20

type archiveContents struct {
	jsonMembers map[string]map[string]any
	documents   []domain.RawDocument
	allFiles    []string
}

func readArchive(path string, keepDocumentBytes bool) (*archiveContents, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer reader.Close()

	contents := &archiveContents{jsonMembers: map[string]map[string]any{}}
	for _, member := range reader.File {
		contents.allFiles = append(contents.allFiles, member.Name)
		ext := strings.ToLower(filepath.Ext(member.Name))

		switch {
		case ext == ".json":
			doc, err := readJSONMember(member)
			if err != nil {
				// Unparsable members are skipped, not fatal.
				continue
			}
			contents.jsonMembers[member.Name] = doc

		case documentExtensions[ext]:
			doc := domain.RawDocument{
				Filename: member.Name,
				Size:     int64(member.UncompressedSize64),
				Type:     ext,
			}
			if keepDocumentBytes && doc.Size <= maxDocumentBytes {
				if data, err := readMemberBytes(member); err == nil {
					doc.Content = data
				}
			}
			contents.documents = append(contents.documents, doc)
		}
	}
	return contents, nil
}

func readJSONMember(member *zip.File) (map[string]any, error) {
	raw, err := readMemberBytes(member)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func readMemberBytes(member *zip.File) ([]byte, error) {
	rc, err := member.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, maxDocumentBytes))
}

// parseAssets walks every JSON member looking for asset administration
// shells, plain asset lists, and concept descriptions.
func parseAssets(members map[string]map[string]any) []domain.RawAsset {
	var assets []domain.RawAsset
	for filename, doc := range members {
		if shells, ok := listField(doc, "assetAdministrationShells"); ok {
			for _, shell := range shells {
				assets = append(assets, parseShell(shell, filename))
			}
			continue
		}
		if plain, ok := listField(doc, "assets"); ok {
			for _, obj := range plain {
				asset := parseShell(obj, filename)
				asset.Submodels = nil
				assets = append(assets, asset)
			}
			continue
		}
		if concepts, ok := listField(doc, "conceptDescriptions"); ok {
			for _, obj := range concepts {
				asset := parseShell(obj, filename)
				asset.Kind = "ConceptDescription"
				asset.Submodels = nil
				assets = append(assets, asset)
			}
		}
	}
	return assets
}

func parseShell(obj map[string]any, source string) domain.RawAsset {
	return domain.RawAsset{
		ID:               asString(obj["id"]),
		IDShort:          asString(obj["idShort"]),
		Description:      parseDescription(obj["description"]),
		Kind:             asString(obj["kind"]),
		AssetInformation: asMap(obj["assetInformation"]),
		Submodels:        referenceIDs(obj["submodels"]),
		Source:           source,
	}
}

func parseSubmodels(members map[string]map[string]any) []domain.RawSubmodel {
	var submodels []domain.RawSubmodel
	for filename, doc := range members {
		entries, ok := listField(doc, "submodels")
		if !ok {
			continue
		}
		for _, obj := range entries {
			submodels = append(submodels, domain.RawSubmodel{
				ID:          asString(obj["id"]),
				IDShort:     asString(obj["idShort"]),
				Description: parseDescription(obj["description"]),
				Kind:        asString(obj["kind"]),
				SemanticID:  asMap(obj["semanticId"]),
				Elements:    parseElements(obj["submodelElements"]),
				Source:      filename,
			})
		}
	}
	return submodels
}

func parseElements(v any) []map[string]any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	elements := make([]map[string]any, 0, len(list))
	for _, entry := range list {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		element := map[string]any{
			"id_short":    asString(obj["idShort"]),
			"semantic_id": asMap(obj["semanticId"]),
		}
		switch {
		case asMap(obj["property"]) != nil:
			element["type"] = "Property"
			element["value"] = asMap(obj["property"])["value"]
		case asMap(obj["collection"]) != nil:
			element["type"] = "Collection"
			element["value"] = asMap(obj["collection"])["value"]
		case asMap(obj["operation"]) != nil:
			element["type"] = "Operation"
		case asMap(obj["relationshipElement"]) != nil:
			element["type"] = "RelationshipElement"
		default:
			element["type"] = "Unknown"
			element["value"] = obj["value"]
		}
		elements = append(elements, element)
	}
	return elements
}

// parseDescription re-marshals the raw description value through
// LocalizedText so strings, language maps, and langString lists all land in
// the same shape.
func parseDescription(v any) domain.LocalizedText {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var text domain.LocalizedText
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil
	}
	return text
}

// referenceIDs resolves a submodel reference list to the referenced ids.
// References are {keys:[{value:...}]} objects; plain strings pass through.
func referenceIDs(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var ids []string
	for _, entry := range list {
		switch ref := entry.(type) {
		case string:
			ids = append(ids, ref)
		case map[string]any:
			keys, ok := ref["keys"].([]any)
			if !ok || len(keys) == 0 {
				continue
			}
			if first, ok := keys[0].(map[string]any); ok {
				if value := asString(first["value"]); value != "" {
					ids = append(ids, value)
				}
			}
		}
	}
	return ids
}

func listField(doc map[string]any, key string) ([]map[string]any, bool) {
	raw, ok := doc[key].([]any)
	if !ok {
		return nil, false
	}
	out := make([]map[string]any, 0, len(raw))
	for _, entry := range raw {
		if obj, ok := entry.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out, true
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}
