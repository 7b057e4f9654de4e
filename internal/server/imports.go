package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/user7217/oxygentracker/internal/importer"
	"github.com/user7217/oxygentracker/internal/importer/mapping"
	"github.com/user7217/oxygentracker/internal/importer/source"
	"go.uber.org/zap"
)

type inspectedTable struct {
	Name      string                    `json:"name"`
	Columns   []source.ColumnDescriptor `json:"columns"`
	Estimated int64                     `json:"estimated_rows"`
	Suggested mapping.Mapping           `json:"suggested_mapping"`
}

type inspectResponse struct {
	Kind   mapping.Kind     `json:"kind"`
	Tables []inspectedTable `json:"tables"`
}

// InspectImportSource opens an uploaded file, lists its tables and suggests a
// field mapping per table so the caller can review before running the import.
func (s *Server) InspectImportSource(c *gin.Context) {
	kind, err := mapping.ParseKind(c.PostForm("kind"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	src, cleanup, err := s.openUploadedSource(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer cleanup()

	ctx := c.Request.Context()
	tables, err := src.Tables(ctx)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	pol := s.policy.Get()
	resp := inspectResponse{Kind: kind}
	for _, table := range tables {
		columns, err := src.Columns(ctx, table)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		estimate, err := src.EstimateRows(ctx, table)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		names := make([]string, len(columns))
		for i, col := range columns {
			names[i] = col.Name
		}
		resp.Tables = append(resp.Tables, inspectedTable{
			Name:      table,
			Columns:   columns,
			Estimated: estimate,
			Suggested: mapping.Suggest(kind, names, mapping.Options{ExclusiveColumns: pol.ExclusiveColumns}),
		})
	}

	c.JSON(http.StatusOK, resp)
}

// RunImport executes one import run against an uploaded file. Row-level
// failures are reported inside the result, not as an HTTP error.
func (s *Server) RunImport(c *gin.Context) {
	kind, err := mapping.ParseKind(c.PostForm("kind"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	table := strings.TrimSpace(c.PostForm("table"))
	if table == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var fieldMap mapping.Mapping
	if raw := strings.TrimSpace(c.PostForm("mapping")); raw != "" {
		fieldMap, err = mapping.Parse(raw)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
	}

	src, cleanup, err := s.openUploadedSource(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer cleanup()

	result, err := s.pipeline.Run(c.Request.Context(), importer.RunRequest{
		Source:             src,
		Table:              table,
		Kind:               kind,
		Mapping:            fieldMap,
		SkipDuplicates:     c.PostForm("skip_duplicates") != "false",
		RecordTransactions: c.PostForm("record_transactions") == "true",
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// openUploadedSource saves the multipart upload under a temp dir and opens it
// as an import source. The cleanup closes the source and removes the temp
// copy.
func (s *Server) openUploadedSource(c *gin.Context) (source.Source, func(), error) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, nil, ErrInvalidRequest
	}

	dir, err := os.MkdirTemp("", "oxy-import-*")
	if err != nil {
		return nil, nil, err
	}

	path := filepath.Join(dir, filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, path); err != nil {
		os.RemoveAll(dir)
		return nil, nil, err
	}

	src, err := source.Open(path)
	if err != nil {
		os.RemoveAll(dir)
		return nil, nil, err
	}

	cleanup := func() {
		if err := src.Close(); err != nil {
			s.log.Warn("closing import source", zap.Error(err))
		}
		os.RemoveAll(dir)
	}
	return src, cleanup, nil
}
