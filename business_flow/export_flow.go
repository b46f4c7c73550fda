package businessflow

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/xplorebytesolutions/growmycustomer-campaigns/app/dto"
	"github.com/xplorebytesolutions/growmycustomer-campaigns/config"
	"github.com/xplorebytesolutions/growmycustomer-campaigns/models"
	"github.com/xplorebytesolutions/growmycustomer-campaigns/repository"
	"github.com/xplorebytesolutions/growmycustomer-campaigns/utils"
	"github.com/xuri/excelize/v2"
)

// ExportFlow renders a classified audience as a downloadable file.
type ExportFlow interface {
	ExportAudience(ctx context.Context, req *dto.AudienceExportRequest) (*dto.AudienceExportResult, error)
}

// ExportFlowImpl implements the audience export business flow
type ExportFlowImpl struct {
	audienceFlow AudienceFlow
	exportCfg    config.ExportConfig
	auditRepo    repository.AuditLogRepository
}

// NewExportFlow creates a new export flow instance
func NewExportFlow(audienceFlow AudienceFlow, exportCfg config.ExportConfig, auditRepo repository.AuditLogRepository) ExportFlow {
	return &ExportFlowImpl{
		audienceFlow: audienceFlow,
		exportCfg:    exportCfg,
		auditRepo:    auditRepo,
	}
}

var exportHeader = []string{"Name", "Phone", "Segment", "LastActivityAt"}

// ExportAudience collects the filtered audience page by page and writes it as
// CSV or XLSX. When the filtered total exceeds the row cap the export degrades
// to the first fetched page and flags the result as truncated instead of
// failing.
func (s *ExportFlowImpl) ExportAudience(ctx context.Context, req *dto.AudienceExportRequest) (*dto.AudienceExportResult, error) {
	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		return nil, NewBusinessError("EXPORT_VALIDATION_FAILED", "Unsupported export format", ErrExportFormatUnsupported)
	}

	rows, truncated, err := s.collectRows(ctx, req)
	if err != nil {
		return nil, err
	}

	bucket := strings.ToUpper(strings.TrimSpace(req.Bucket))
	if bucket == "" {
		bucket = models.BucketAllRecipients.String()
	}

	var data []byte
	var contentType string
	switch format {
	case "xlsx":
		data, err = writeXLSX(bucket, rows)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		data, err = writeCSV(bucket, rows)
		contentType = "text/csv"
	}
	if err != nil {
		return nil, err
	}

	result := &dto.AudienceExportResult{
		Filename:    exportFilename(req.CampaignID, bucket, format),
		ContentType: contentType,
		Data:        data,
		RowCount:    len(rows),
		Truncated:   truncated,
	}
	s.auditExport(ctx, req, result)
	return result, nil
}

// collectRows pages through the audience flow and re-deduplicates across page
// boundaries. Server-side pages may overlap after a tier fallback, so the
// contact key is checked again here.
func (s *ExportFlowImpl) collectRows(ctx context.Context, req *dto.AudienceExportRequest) ([]dto.AudienceContactDTO, bool, error) {
	fetchSize := s.exportCfg.FetchPageSize
	if fetchSize <= 0 {
		fetchSize = utils.ExportFetchPageSize
	}
	maxRows := s.exportCfg.MaxRows
	if maxRows <= 0 {
		maxRows = utils.ExportMaxRows
	}

	seen := make(map[string]bool)
	rows := make([]dto.AudienceContactDTO, 0, fetchSize)
	truncated := false

	for page := 1; ; page++ {
		resp, err := s.audienceFlow.QueryAudience(ctx, &dto.AudienceQueryRequest{
			CampaignID: req.CampaignID,
			Bucket:     req.Bucket,
			WindowDays: req.WindowDays,
			Search:     req.Search,
			Page:       page,
			PageSize:   fetchSize,
		})
		if err != nil {
			if page == 1 {
				return nil, false, err
			}
			// A later page failed, keep what was fetched so far.
			log.Println("Audience export degraded to partial result:", err)
			truncated = true
			break
		}

		for _, item := range resp.Items {
			key := item.ContactKey
			if key == "" {
				key = item.Phone
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			rows = append(rows, item)
		}

		if page == 1 && resp.Pagination.Total > int64(maxRows) {
			truncated = true
			break
		}
		if len(resp.Items) < fetchSize || int64(len(rows)) >= resp.Pagination.Total || len(rows) >= maxRows {
			break
		}
	}
	return rows, truncated, nil
}

func writeCSV(bucket string, rows []dto.AudienceContactDTO) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, NewBusinessError("CSV_WRITE_ERROR", "Failed to write CSV header", err)
	}
	for _, row := range rows {
		if err := w.Write(exportRecord(bucket, row)); err != nil {
			return nil, NewBusinessError("CSV_WRITE_ERROR", "Failed to write CSV row", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, NewBusinessError("CSV_WRITE_ERROR", "Failed to flush CSV", err)
	}
	return buf.Bytes(), nil
}

func writeXLSX(bucket string, rows []dto.AudienceContactDTO) ([]byte, error) {
	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := xl.GetSheetName(0)
	_ = xl.SetSheetRow(sheet, "A1", &exportHeader)
	for ri, row := range rows {
		record := exportRecord(bucket, row)
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(sheet, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	return buf.Bytes(), nil
}

func exportRecord(bucket string, row dto.AudienceContactDTO) []string {
	lastActivity := ""
	if row.LastActivityAt != nil {
		lastActivity = row.LastActivityAt.UTC().Format(time.RFC3339)
	}
	return []string{row.Name, row.Phone, bucket, lastActivity}
}

func exportFilename(campaignID, bucket, format string) string {
	return fmt.Sprintf("campaign_%s_audience_%s.%s", campaignID, strings.ToLower(bucket), format)
}

func (s *ExportFlowImpl) auditExport(ctx context.Context, req *dto.AudienceExportRequest, result *dto.AudienceExportResult) {
	if s.auditRepo == nil {
		return
	}
	desc := fmt.Sprintf("Exported %d audience rows for campaign %s (truncated=%t)", result.RowCount, req.CampaignID, result.Truncated)
	entry := &models.AuditLog{
		Action:      models.AuditActionAudienceExported,
		CampaignID:  &req.CampaignID,
		Description: &desc,
		Success:     utils.ToPtr(true),
	}
	if err := s.auditRepo.Save(ctx, entry); err != nil {
		log.Println("Failed to save audit log:", err)
	}
}
