package controllers

import (
	"time"

	"github.com/iota-uz/staffimport/modules/hrm/domain/importrow"
	"github.com/iota-uz/staffimport/modules/hrm/services"
)

// PreviewRowDTO is the canonical row shape exchanged between preview and
// confirm. It must stay stable across the two round trips.
type PreviewRowDTO struct {
	RowNumber    int               `json:"row_number"`
	Data         map[string]string `json:"data"`
	Status       string            `json:"status"`
	ErrorMessage string            `json:"error_message,omitempty"`
}

type PreviewResponseDTO struct {
	TotalRows   int             `json:"total_rows"`
	ValidRows   int             `json:"valid_rows"`
	InvalidRows int             `json:"invalid_rows"`
	PreviewData []PreviewRowDTO `json:"preview_data"`
}

type ConfirmResponseDTO struct {
	JobID string `json:"job_id"`
}

type JobStatusDTO struct {
	ID             string    `json:"id"`
	Status         string    `json:"status"`
	TotalRows      int       `json:"total_rows"`
	SuccessfulRows int       `json:"successful_rows"`
	FailedRows     int       `json:"failed_rows"`
	Progress       int       `json:"progress"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toPreviewResponse(result *services.PreviewResult) PreviewResponseDTO {
	out := PreviewResponseDTO{
		TotalRows:   result.TotalRows,
		ValidRows:   result.ValidRows,
		InvalidRows: result.InvalidRows,
		PreviewData: make([]PreviewRowDTO, 0, len(result.Rows)),
	}
	for _, row := range result.Rows {
		dto := PreviewRowDTO{
			RowNumber: row.RowNumber,
			Data:      row.Fields,
			Status:    string(row.Status),
		}
		if len(row.Errors) > 0 {
			dto.ErrorMessage = joinErrors(row.Errors)
		}
		out.PreviewData = append(out.PreviewData, dto)
	}
	return out
}

func toImportRows(dtos []PreviewRowDTO) []importrow.Row {
	rows := make([]importrow.Row, 0, len(dtos))
	for _, dto := range dtos {
		row := importrow.Row{
			RowNumber: dto.RowNumber,
			Fields:    dto.Data,
			Status:    importrow.Status(dto.Status),
		}
		if row.Fields == nil {
			row.Fields = map[string]string{}
		}
		if dto.ErrorMessage != "" {
			row.Errors = []string{dto.ErrorMessage}
		}
		if row.Status != importrow.StatusValid {
			row.Status = importrow.StatusInvalid
		}
		rows = append(rows, row)
	}
	return rows
}

func joinErrors(errs []string) string {
	out := errs[0]
	for _, e := range errs[1:] {
		out += "; " + e
	}
	return out
}
