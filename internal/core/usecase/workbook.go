package usecase

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/twinforge/aasx-etl/internal/core/domain"
)

// writeWorkbook exports the cleaned entity set as an XLSX workbook with one
// sheet per table, for consumers who want the flattened data in a
// spreadsheet instead of CSV.
func writeWorkbook(path string, rec *domain.TransformedRecord) error {
	book := excelize.NewFile()
	defer book.Close()

	if err := writeEntitySheet(book, "Assets", flatAssets(rec)); err != nil {
		return err
	}
	if err := writeEntitySheet(book, "Submodels", flatSubmodels(rec)); err != nil {
		return err
	}
	if err := writeRelationshipSheet(book, rec.Relationships); err != nil {
		return err
	}

	book.DeleteSheet("Sheet1")
	if err := book.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", filepath.Base(path), err)
	}
	return nil
}

func flatAssets(rec *domain.TransformedRecord) []domain.FlatEntity {
	rows := make([]domain.FlatEntity, 0, len(rec.Assets))
	for _, asset := range rec.Assets {
		rows = append(rows, flatten("asset", asset.ID, asset.IDShort, asset.Description, asset.Type, asset.QIMetadata))
	}
	return rows
}

func flatSubmodels(rec *domain.TransformedRecord) []domain.FlatEntity {
	rows := make([]domain.FlatEntity, 0, len(rec.Submodels))
	for _, submodel := range rec.Submodels {
		rows = append(rows, flatten("submodel", submodel.ID, submodel.IDShort, submodel.Description, submodel.Type, submodel.QIMetadata))
	}
	return rows
}

func writeEntitySheet(book *excelize.File, sheet string, rows []domain.FlatEntity) error {
	if _, err := book.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	header := []any{"id", "id_short", "description", "type", "quality_level", "compliance_status"}
	if err := book.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+2)
		values := []any{row.ID, row.IDShort, row.Description, row.Type, row.QualityLevel, row.ComplianceStatus}
		if err := book.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i, err)
		}
	}
	return nil
}

func writeRelationshipSheet(book *excelize.File, rels []domain.Relationship) error {
	const sheet = "Relationships"
	if _, err := book.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	header := []any{"source_id", "target_id", "type"}
	if err := book.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	for i, rel := range rels {
		cell := fmt.Sprintf("A%d", i+2)
		values := []any{rel.SourceID, rel.TargetID, rel.Type}
		if err := book.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i, err)
		}
	}
	return nil
}
