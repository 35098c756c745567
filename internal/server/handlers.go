package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/spigell/jobmatch/internal/errors"
	"github.com/spigell/jobmatch/internal/linkedin"
	"github.com/spigell/jobmatch/internal/logger"
	"github.com/spigell/jobmatch/internal/pipeline"
	"github.com/spigell/jobmatch/internal/ranking"
	"github.com/spigell/jobmatch/internal/resume"
)

const (
	csvFilename = "matched_jobs.csv"

	formResume   = "resume"
	formTitle    = "title"
	formLocation = "location"
	formWorkType = "work_type"
	formYears    = "years"
	formCount    = "count"
	formFormat   = "format"
)

func (s *Server) defaultCount() int {
	if s.opts.DefaultCount > 0 {
		return s.opts.DefaultCount
	}
	return ranking.DefaultTop
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	return s.render(c, "index", indexPage{DefaultCount: s.defaultCount()})
}

func (s *Server) handleSearch(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return apperrors.InvalidInput("failed to parse multipart form", err)
	}

	req, err := s.parseRequest(form)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), s.opts.RequestTimeout)
	defer cancel()

	result, err := s.runner.Run(ctx, req)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := ranking.WriteCSV(&buf, result.Ranked); err != nil {
		return apperrors.Internal("writing csv", err)
	}

	if c.FormValue(formFormat) == "csv" {
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		c.Attachment(csvFilename)
		return c.Send(buf.Bytes())
	}

	s.logger.Info("search served",
		zap.String(logger.FieldRunID, result.RunID),
		zap.Int("results", len(result.Ranked)),
	)

	return s.render(c, "results", newResultsPage(req, result, buf.Bytes()))
}

func (s *Server) parseRequest(form *multipart.Form) (pipeline.Request, error) {
	var req pipeline.Request

	files := form.File[formResume]
	if len(files) == 0 {
		return req, apperrors.InvalidInput("a résumé file is required", nil)
	}
	doc, err := readUpload(files[0], s.opts.MaxUploadBytes)
	if err != nil {
		return req, err
	}
	req.Document = doc

	value := func(key string) string {
		if v := form.Value[key]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	workTypes, err := linkedin.ParseWorkTypes(form.Value[formWorkType])
	if err != nil {
		return req, apperrors.InvalidInput("work type", err)
	}

	count := s.defaultCount()
	if raw := value(formCount); raw != "" {
		count, err = strconv.Atoi(raw)
		if err != nil || count < 0 {
			return req, apperrors.InvalidInput(fmt.Sprintf("result count %q", raw), err)
		}
	}

	req.Search = linkedin.SearchParams{
		Keywords:  value(formTitle),
		Location:  value(formLocation),
		WorkTypes: workTypes,
		Count:     count,
	}

	if raw := value(formYears); raw != "" {
		years, err := strconv.ParseFloat(raw, 64)
		if err != nil || years < 0 {
			return req, apperrors.InvalidInput(fmt.Sprintf("desired years %q", raw), err)
		}
		req.DesiredYears = &years
	}

	return req, nil
}

func readUpload(fh *multipart.FileHeader, limit int) (resume.Document, error) {
	if fh.Size > int64(limit) {
		return resume.Document{}, apperrors.InvalidInput(fmt.Sprintf("résumé file too large. Max size: %d bytes", limit), nil)
	}

	f, err := fh.Open()
	if err != nil {
		return resume.Document{}, apperrors.InvalidInput("opening uploaded file", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return resume.Document{}, apperrors.InvalidInput("reading uploaded file", err)
	}

	return resume.Document{
		Name: fh.Filename,
		MIME: fh.Header.Get(fiber.HeaderContentType),
		Data: data,
	}, nil
}

type indexPage struct {
	Error        string
	DefaultCount int
}

type resultRow struct {
	Score    string
	Date     string
	Title    string
	Company  string
	Location string
	Type     string
	Link     string
}

type resultsPage struct {
	RunID      string
	Keywords   string
	Location   string
	Skills     []string
	Experience string
	Education  string
	Found      int
	Skipped    int
	Header     []string
	Rows       []resultRow
	CSV        template.URL
	Filename   string
}

func newResultsPage(req pipeline.Request, result *pipeline.Result, csv []byte) resultsPage {
	page := resultsPage{
		RunID:    result.RunID,
		Keywords: req.Search.Keywords,
		Location: req.Search.Location,
		Skipped:  result.Skipped,
		Header:   ranking.Header,
		CSV:      template.URL("data:text/csv;base64," + base64.StdEncoding.EncodeToString(csv)),
		Filename: csvFilename,
	}

	if result.Profile != nil {
		page.Skills = result.Profile.SkillNames()
		page.Experience = result.Profile.Experience.String()
		page.Education = result.Profile.Education.String()
	}
	if result.Listings != nil {
		page.Found = result.Listings.Len()
	}

	for _, r := range ranking.Table(result.Ranked) {
		page.Rows = append(page.Rows, resultRow{
			Score:    r[0],
			Date:     r[1],
			Title:    r[2],
			Company:  r[3],
			Location: r[4],
			Type:     r[5],
			Link:     r[6],
		})
	}

	return page
}
