package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jobsentinel/jobsentinel/internal/analysis"
	"github.com/jobsentinel/jobsentinel/internal/analysis/gemini"
	"github.com/jobsentinel/jobsentinel/internal/db"
	"github.com/jobsentinel/jobsentinel/internal/jobs"
	"github.com/jobsentinel/jobsentinel/internal/logger"
	"github.com/jobsentinel/jobsentinel/internal/matching"
	"github.com/jobsentinel/jobsentinel/internal/secrets"
)

const (
	PromptReportByCompany = "Report by company"
	PromptMatchesToFile   = "Dump matches to file"
	PromptExit            = "Exit"
)

var errExit = errors.New("exit requested")

var matchPrompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptReportByCompany, PromptMatchesToFile, PromptExit},
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Run a one-off match of the job pool against your skills",
	Run: func(cmd *cobra.Command, _ []string) {
		match(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().BoolP("no-prompt", "y", false, "print the matches and exit without the interactive prompt")
}

// match is the one-off matching command: fetch, filter, rank, review.
func match(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting jobsentinel", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}

	if config.Search == nil || len(config.Search.Keywords) == 0 {
		logger.Fatal("search keywords are required under search.keywords")
	}

	skills, err := resolveSkills(ctx, config, logger)
	if err != nil {
		logger.Fatal("resolving candidate skills", zap.Error(err))
	}

	logger.Info("matching against skills", zap.Strings("skills", skills.Sorted()))

	source, cleanup, err := buildJobSource(ctx, config, nil, logger)
	if err != nil {
		logger.Fatal("building job source", zap.Error(err))
	}
	defer cleanup()

	pool, err := source.Fetch(ctx, jobs.Filter{
		Keywords: config.Search.Keywords,
		Location: config.Search.Location,
		Remote:   config.Search.Remote,
		Limit:    config.Search.Limit,
	})
	if err != nil {
		logger.Fatal("fetching the job pool", zap.Error(err))
	}

	logger.Info("fetched the job pool", zap.Int("count", pool.Len()))

	if pool.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no postings found"))
		return
	}

	pool, err = jobs.RunFilters(ctx, logger, searchFilters(config.Search), pool)
	if err != nil {
		logger.Fatal("filtering failed", zap.Error(err))
	}

	if pool.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no postings left after filters"))
		return
	}

	matches := buildRanker(config, logger).Rank(pool, skills, rankingOptions(config))

	if len(matches) == 0 {
		logger.Info("exiting", zap.String("reason", "no postings scored above the threshold"))
		return
	}

	for i, m := range matches {
		logger.Info(fmt.Sprintf("%d. %s", i+1, m.Job.String()),
			zap.Int("score", m.Score),
			zap.Strings("matched", m.Reasons),
		)
	}

	if cmd.Flag("no-prompt").Value.String() == "true" {
		return
	}

	for {
		_, action, err := matchPrompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleMatchAction(action, matches, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleMatchAction(action string, matches []*matching.Match, logger *zap.Logger) error {
	matched := matchedList(matches)

	switch action {
	case PromptReportByCompany:
		pretty, _ := json.MarshalIndent(matched.ReportByCompany(), "", "  ")
		logger.Info(string(pretty), zap.Int("matches count", matched.Len()))
		return nil
	case PromptMatchesToFile:
		filename, err := matched.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump matches to file: %w", err)
		}
		logger.Info("dumping matches to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func matchedList(matches []*matching.Match) *jobs.List {
	items := make([]*jobs.Posting, 0, len(matches))
	for _, m := range matches {
		items = append(items, m.Job)
	}
	return &jobs.List{Items: items}
}

// resolveSkills picks the candidate skill set: an explicit skills list wins,
// then a CV run through the extraction provider, then the search keywords.
func resolveSkills(ctx context.Context, config *Config, logger *zap.Logger) (matching.SkillSet, error) {
	if len(config.Skills) > 0 {
		return matching.NewSkillSet(config.Skills), nil
	}

	if config.AI != nil && config.AI.Enabled && config.CVFile != "" {
		profile, err := extractProfile(ctx, config, logger)
		if err != nil {
			return nil, err
		}

		logger.Info("extracted skills from CV",
			zap.Int("count", len(profile.Skills)),
			zap.String("summary", profile.Summary),
		)

		return matching.NewSkillSet(profile.Skills), nil
	}

	return matching.NewSkillSet(config.Search.Keywords), nil
}

func extractProfile(ctx context.Context, config *Config, logger *zap.Logger) (*analysis.Profile, error) {
	provider, err := newSkillProvider(ctx, config.AI, logger)
	if err != nil {
		return nil, err
	}

	cv, err := os.ReadFile(config.CVFile)
	if err != nil {
		return nil, fmt.Errorf("reading CV file: %w", err)
	}

	return provider.ExtractSkills(ctx, string(cv))
}

func newSkillProvider(ctx context.Context, cfg *AIConfig, baseLogger *zap.Logger) (analysis.Provider, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	if cfg.Gemini == nil {
		return nil, errors.New("gemini configuration is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model)
	if err != nil {
		return nil, err
	}

	extractorLogger := logger.WithProviderFields(baseLogger, "gemini", generator.Model())

	return gemini.NewExtractor(generator, extractorLogger, cfg.Gemini.MaxLogLength), nil
}

// buildJobSource returns the configured posting source. When the feed source
// is selected and pool is nil, a dedicated database pool is opened and the
// returned cleanup closes it.
func buildJobSource(ctx context.Context, config *Config, pool *pgxpool.Pool, logger *zap.Logger) (jobs.Source, func(), error) {
	noop := func() {}

	jsCfg := config.JobSource
	if jsCfg == nil {
		jsCfg = &JobSourceConfig{}
	}

	switch kind := strings.TrimSpace(strings.ToLower(jsCfg.Kind)); kind {
	case "", "api":
		if jsCfg.BaseURL == "" {
			return nil, noop, errors.New("job-source.base-url is required for the api source")
		}

		token := ""
		if strings.TrimSpace(jsCfg.TokenFile) != "" {
			var err error
			token, err = secrets.Load(secrets.Source{
				Name: "job board token",
				File: jsCfg.TokenFile,
			})
			if err != nil {
				return nil, noop, err
			}
		}

		return jobs.NewAPISource(jsCfg.BaseURL, token, jsCfg.UserAgent, logger), noop, nil
	case "feed":
		if pool != nil {
			return jobs.NewFeedSource(pool), noop, nil
		}

		url, err := resolveDatabaseURL(config)
		if err != nil {
			return nil, noop, err
		}

		owned, err := db.NewPostgresPool(ctx, url)
		if err != nil {
			return nil, noop, err
		}

		return jobs.NewFeedSource(owned), owned.Close, nil
	default:
		return nil, noop, fmt.Errorf("unsupported job source kind: %q", jsCfg.Kind)
	}
}

func resolveDatabaseURL(config *Config) (string, error) {
	if config.Database == nil {
		return "", errors.New("database configuration is required")
	}

	return secrets.Load(secrets.Source{
		Name:  "database url",
		Value: config.Database.URL,
		File:  config.Database.URLFile,
	})
}

func searchFilters(search *SearchConfig) []jobs.StepFilter {
	steps := []jobs.StepFilter{
		jobs.NewLocation(search.Location),
		jobs.NewExcludedCompanies(search.ExcludeCompanies),
		jobs.NewRedFlags(search.RedFlags),
	}

	if search.Remote {
		steps = append(steps, jobs.NewRemoteOnly())
	}

	return steps
}

// buildRanker wires the configured synonym and field tables into the
// ranking path; nil tables select the built-in ones.
func buildRanker(config *Config, logger *zap.Logger) *matching.Ranker {
	var synonyms, fields map[string][]string
	if config.Matching != nil {
		synonyms = config.Matching.Synonyms
		fields = config.Matching.Fields
	}

	return matching.NewRanker(matching.NewNormalizer(synonyms), matching.NewScorer(fields), logger)
}

func rankingOptions(config *Config) matching.Options {
	if config.Matching == nil {
		return matching.Options{}
	}

	return matching.Options{
		PoolLimit: config.Matching.PoolLimit,
		MinScore:  config.Matching.MinScore,
		TopN:      config.Matching.TopN,
	}
}
