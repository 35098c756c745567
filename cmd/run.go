package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	apperrors "github.com/spigell/jobmatch/internal/errors"
	"github.com/spigell/jobmatch/internal/linkedin"
	"github.com/spigell/jobmatch/internal/logger"
	"github.com/spigell/jobmatch/internal/pipeline"
	"github.com/spigell/jobmatch/internal/ranking"
	"github.com/spigell/jobmatch/internal/resume"
	"github.com/spigell/jobmatch/internal/scoring"
)

const (
	PromptShowTable           = "Show results table"
	PromptWriteCSV            = "Write results to CSV"
	PromptBrowse              = "Browse listings"
	PromptReportByCompany     = "Report by company"
	PromptListingsToFile      = "Dump listings to file"
	PromptAppendToExcludeFile = "Append all listings to exclude file"
	PromptExit                = "Exit"
	PromptBack                = "back"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptShowTable, PromptWriteCSV, PromptBrowse, PromptReportByCompany, PromptListingsToFile, PromptExit},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Search LinkedIn and rank the listings against a résumé",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("resume", "r", "", "résumé file (PDF, DOCX or TXT), local path or s3://bucket/key")
	runCmd.Flags().StringP("title", "t", "", "job title to search for")
	runCmd.Flags().StringP("location", "l", "", "job location")
	runCmd.Flags().StringSliceP("work-type", "w", nil, "work types: remote, onsite, hybrid or any")
	runCmd.Flags().Float64("years", -1, "desired years of experience, overrides the résumé")
	runCmd.Flags().IntP("count", "n", 0, "listings to fetch per work type (default 25)")
	runCmd.Flags().Int("top", 0, "results to keep after ranking (default 20, negative keeps all)")
	runCmd.Flags().StringP("output", "o", "", "CSV file to write the results to")
	runCmd.Flags().BoolP("auto-approve", "y", false, "do not show the menu, write the CSV and exit")

	viper.BindPFlag("resume.path", runCmd.Flags().Lookup("resume"))
	viper.BindPFlag("search.keywords", runCmd.Flags().Lookup("title"))
	viper.BindPFlag("search.location", runCmd.Flags().Lookup("location"))
	viper.BindPFlag("search.work-types", runCmd.Flags().Lookup("work-type"))
	viper.BindPFlag("search.years", runCmd.Flags().Lookup("years"))
	viper.BindPFlag("search.count", runCmd.Flags().Lookup("count"))
	viper.BindPFlag("rank.top", runCmd.Flags().Lookup("top"))
	viper.BindPFlag("output.csv", runCmd.Flags().Lookup("output"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the jobmatch", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config.Resume.Path == "" {
		logger.Fatal("résumé is required",
			zap.String("hint", "pass --resume, set resume.path in the config or JOBMATCH_RESUME"),
		)
	}

	params, err := config.searchParams()
	if err != nil {
		logger.Fatal("parsing search parameters", zap.Error(err))
	}

	doc, err := resume.NewLoader(config.S3).Load(ctx, config.Resume.Path)
	if err != nil {
		logger.Fatal("loading résumé", zap.String("path", config.Resume.Path), zap.Error(err))
	}

	p, cleanup := newPipeline(ctx, config, logger, pipeline.SurfaceCLI)
	defer cleanup()

	result, err := p.Run(ctx, pipeline.Request{
		Document:     doc,
		Search:       params,
		DesiredYears: config.desiredYears(),
	})
	if err != nil {
		if apperrors.Is(err, apperrors.KindExtraction) {
			logger.Fatal("the résumé could not be read", zap.Error(err),
				zap.String("hint", "image-only PDFs have no text layer; try a DOCX or TXT export"),
			)
		}
		logger.Fatal("search failed", zap.Error(err))
	}

	menu := &session{
		logger:      logger,
		config:      config,
		result:      result,
		out:         os.Stdout,
		excludeFile: config.Filters.ExcludeFile,
	}

	if cmd.Flag("auto-approve").Value.String() == "true" {
		if err := menu.writeCSV(); err != nil {
			logger.Fatal("writing csv", zap.Error(err))
		}
		return
	}

	if len(result.Ranked) == 0 {
		menu.showTable()
		logger.Info("exiting", zap.String("reason", "no listings found"))
		return
	}

	menu.showTable()

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		logger.Info("current list of results", zap.Int("count", len(menu.result.Ranked)))

		if err := menu.handleAction(action); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

// session holds the results of one run while the menu is open.
type session struct {
	logger      *zap.Logger
	config      *Config
	result      *pipeline.Result
	out         io.Writer
	excludeFile string
}

func (s *session) handleAction(action string) error {
	switch action {
	case PromptShowTable:
		s.showTable()
		return nil
	case PromptWriteCSV:
		return s.writeCSV()
	case PromptBrowse:
		return s.browse()
	case PromptReportByCompany:
		pretty, _ := json.MarshalIndent(s.shown().ReportByCompany(), "", "  ")
		s.logger.Info(string(pretty), zap.Int("listings count", len(s.result.Ranked)))
		return nil
	case PromptListingsToFile:
		filename, err := s.result.Listings.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump listings to file: %w", err)
		}
		s.logger.Info("dumping listings to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		s.logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// shown returns the ranked listings in rank order.
func (s *session) shown() *linkedin.Listings {
	listings := &linkedin.Listings{}
	for _, r := range s.result.Ranked {
		listings.Items = append(listings.Items, r.Listing)
	}
	return listings
}

func (s *session) showTable() {
	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(append([]string{"#"}, ranking.Header...), "\t")))
	for i, row := range ranking.Table(s.result.Ranked) {
		fmt.Fprintln(w, strconv.Itoa(i+1)+"\t"+strings.Join(row, "\t"))
	}
	w.Flush()
}

func (s *session) writeCSV() error {
	path := s.config.Output.CSV
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := ranking.WriteCSV(f, s.result.Ranked); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	s.logger.Info("results written", zap.String("filename", path), zap.Int("rows", len(s.result.Ranked)))
	return nil
}

func (s *session) browse() error {
	for {
		items := make([]string, 0, len(s.result.Ranked)+2)
		for _, r := range s.result.Ranked {
			items = append(items, fmt.Sprintf("%s %.3f %s / %s / %s",
				r.Listing.ID, r.Score, r.Listing.Title, r.Listing.Company, r.Listing.Link,
			))
		}

		if s.excludeFile != "" && len(s.result.Ranked) != 0 {
			items = append(items, PromptAppendToExcludeFile)
		}

		listingPrompt := promptui.Select{
			Label: "Choose a listing and press ENTER",
			Items: append(items, PromptBack),
			Size:  10,
		}

		_, selected, err := listingPrompt.Run()
		if err != nil {
			return err
		}

		switch selected {
		case PromptBack:
			return nil
		case PromptAppendToExcludeFile:
			if err := s.appendToExcludeFile(); err != nil {
				return err
			}
		default:
			id := strings.Split(selected, " ")[0]
			match := s.find(id)
			if match == nil {
				return fmt.Errorf("there is no such listing id %s", id)
			}
			s.describe(match)
		}
	}
}

func (s *session) find(id string) *scoring.MatchResult {
	for _, r := range s.result.Ranked {
		if r.Listing.ID == id {
			return r
		}
	}
	return nil
}

func (s *session) describe(r *scoring.MatchResult) {
	s.logger.Info("listing details",
		zap.String("title", r.Listing.Title),
		zap.String("company", r.Listing.Company),
		zap.String("link", r.Listing.Link),
		zap.Float64("score", r.Score),
		zap.Float64("skill", r.Skill),
		zap.Float64("experience", r.Experience),
		zap.Float64("content", r.Content),
		zap.Float64("location", r.Location),
		zap.Strings("matched_skills", r.MatchedSkills),
		zap.Strings("missing_skills", r.MissingSkills),
		zap.String("requirement", r.Listing.Requirement),
	)
}

// appendToExcludeFile records every shown listing and drops them from the results.
func (s *session) appendToExcludeFile() error {
	excluded, err := linkedin.GetExcludedListingsFromFile(s.excludeFile)
	if err != nil {
		return err
	}

	excluded.Append(s.shown().ToExcluded())

	if err := excluded.ToFile(s.excludeFile); err != nil {
		return err
	}

	s.logger.Info("appended to exclude file", zap.String("filename", s.excludeFile))

	s.result.Listings.Exclude(linkedin.ListingIDField, excluded.IDs())
	s.result.Ranked = nil
	return nil
}
