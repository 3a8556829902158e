package ui

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"molintel/adapters/excel"
	"molintel/domain/compound"
	"molintel/internal/dashboard"
	"molintel/internal/errors"
	"molintel/internal/export"

	"github.com/gin-gonic/gin"
)

// handleIndex renders the dashboard. Unparseable filter values are
// ignored and reported in a banner.
func (s *Server) handleIndex(c *gin.Context) {
	values, warnings := sanitizeQuery(c.Request.URL.Query())
	criteria, err := dashboard.ParseCriteria(values)
	if err != nil {
		warnings = append(warnings, err.Error())
		criteria = compound.Criteria{}
	}

	result := s.service.Run(c.Request.Context(), dashboard.Request{Criteria: criteria})
	page := buildPage(s.options, s.caption, criteria, selectedTheme(values), result)
	for _, w := range warnings {
		page.Banners = append(page.Banners, banner{Tone: "info", Message: w})
	}

	status := http.StatusOK
	if result.Outcome.Status == dashboard.StatusFatal {
		status = http.StatusInternalServerError
	}
	s.renderTemplate(c, status, "dashboard.html", page)
}

// handleDashboardJSON returns the pass result. refresh=true clears the
// memo first.
func (s *Server) handleDashboardJSON(c *gin.Context) {
	criteria, ok := s.criteriaOrAbort(c)
	if !ok {
		return
	}
	refresh, _ := strconv.ParseBool(c.Query("refresh"))

	result := s.service.Run(c.Request.Context(), dashboard.Request{Criteria: criteria, Refresh: refresh})
	status := http.StatusOK
	if result.Outcome.Status == dashboard.StatusFatal {
		status = http.StatusInternalServerError
	}
	c.JSON(status, result)
}

// handleRefresh is the manual "clear cache and refetch" button
func (s *Server) handleRefresh(c *gin.Context) {
	s.service.Invalidate()
	s.logger.Info("cache cleared by manual refresh")

	target := "/"
	if q := c.Request.URL.RawQuery; q != "" {
		target += "?" + q
	}
	if c.GetHeader("Accept") == "application/json" {
		c.JSON(http.StatusOK, gin.H{"status": "refreshed"})
		return
	}
	c.Redirect(http.StatusSeeOther, target)
}

func (s *Server) handleExportCSV(c *gin.Context) {
	s.export(c, "csv", export.CSVFileName, "text/csv; charset=utf-8", func(buf *bytes.Buffer, view compound.View) error {
		return export.WriteCSV(buf, view)
	})
}

func (s *Server) handleExportXLSX(c *gin.Context) {
	s.export(c, "xlsx", excel.WorkbookFileName,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		func(buf *bytes.Buffer, view compound.View) error {
			return excel.WriteWorkbook(buf, view)
		})
}

// export runs a pass with the request's criteria and streams the filtered
// view as an attachment
func (s *Server) export(c *gin.Context, format, fileName, contentType string, write func(*bytes.Buffer, compound.View) error) {
	criteria, ok := s.criteriaOrAbort(c)
	if !ok {
		return
	}

	result := s.service.Run(c.Request.Context(), dashboard.Request{Criteria: criteria})
	if result.Outcome.Status == dashboard.StatusFatal {
		c.JSON(http.StatusInternalServerError, gin.H{"error": result.Outcome.Message})
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, result.View); err != nil {
		s.logger.Error("%s export failed: %v", format, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "code": errors.GetCode(err)})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (s *Server) criteriaOrAbort(c *gin.Context) (compound.Criteria, bool) {
	criteria, err := dashboard.ParseCriteria(c.Request.URL.Query())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": errors.GetCode(err)})
		return compound.Criteria{}, false
	}
	return criteria, true
}
