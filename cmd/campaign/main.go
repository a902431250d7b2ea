package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/onurcolak/lead-notification-service/environments"
	"github.com/onurcolak/lead-notification-service/internal/campaign"
	"github.com/onurcolak/lead-notification-service/internal/composer"
	"github.com/onurcolak/lead-notification-service/internal/domain"
	"github.com/onurcolak/lead-notification-service/internal/media"
	"github.com/onurcolak/lead-notification-service/internal/phone"
	"github.com/onurcolak/lead-notification-service/internal/ratelimit"
	"github.com/onurcolak/lead-notification-service/internal/repository"
	"github.com/onurcolak/lead-notification-service/internal/service"
	"github.com/onurcolak/lead-notification-service/pkg/database"
	"github.com/onurcolak/lead-notification-service/pkg/logger"
	"github.com/onurcolak/lead-notification-service/pkg/redis"
	"github.com/onurcolak/lead-notification-service/pkg/transport"
)

var (
	params    campaign.Params
	mediaType string
	exportCSV string

	rootCmd = &cobra.Command{
		Use:   "campaign",
		Short: "Send template campaigns to IVR leads",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init()
		},
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Message every lead created in a date range",
		Example: `  campaign run --template-name ivr_followup --from-date 2024-01-01 --to-date 2024-01-31 --dry-run
  campaign run --template-name site_visit --from-date 2024-02-01 --to-date 2024-02-07 \
      --projects "Skyline Towers,Palm Residency" --limit 50 --export-csv results.csv`,
		RunE: runCampaign,
	}
)

func init() {
	f := runCmd.Flags()
	f.StringVar(&params.TemplateName, "template-name", "", "approved template to send (required)")
	f.StringVar(&params.FromDate, "from-date", "", "first lead creation date, YYYY-MM-DD (required)")
	f.StringVar(&params.ToDate, "to-date", "", "last lead creation date, YYYY-MM-DD (required)")
	f.StringSliceVar(&params.Projects, "projects", nil, "only leads interested in these project names")
	f.StringVar(&params.Language, "language", "en", "template language code")
	f.StringVar(&params.HeaderMediaURL, "header-media-url", "", "header media link")
	f.StringVar(&mediaType, "header-media-type", "", "header media kind: image, video or document")
	f.IntVar(&params.Limit, "limit", 0, "maximum leads to message (default from CAMPAIGN_DEFAULT_LIMIT)")
	f.BoolVar(&params.DryRun, "dry-run", false, "compose and validate without sending")
	f.StringVar(&exportCSV, "export-csv", "", "write per-lead outcomes to this CSV file")

	_ = runCmd.MarkFlagRequired("template-name")
	_ = runCmd.MarkFlagRequired("from-date")
	_ = runCmd.MarkFlagRequired("to-date")

	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCampaign(cmd *cobra.Command, args []string) error {
	params.HeaderMediaType = domain.MediaKind(mediaType)
	cfg := environments.Load()

	if !params.DryRun {
		if cfg.Transport.AuthToken == "" {
			return errors.New("TRANSPORT_AUTH_TOKEN is required for a live run")
		}
		if cfg.Transport.RelayIntegrationID == "" {
			return errors.New("TRANSPORT_RELAY_INTEGRATION_ID is required for a live run")
		}
	}

	db, err := database.NewMySQLDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	redisClient, err := redis.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Warnf("Redis not available, caching disabled: %v", err)
		redisClient = nil
	}
	defer redisClient.Close()

	normalizer := phone.NewNormalizer(cfg.Phone.HomeCountryCode)
	sender := service.NewMessageService(
		repository.NewMessageRepository(db),
		composer.New(normalizer, media.NewValidator(cfg.Media.Timeout)),
		transport.NewClient(cfg.Transport, ratelimit.New(cfg.RateLimit.Interval, cfg.RateLimit.Permits)),
		redisClient,
	)
	selector := campaign.NewSelector(
		repository.NewLeadRepository(db),
		repository.NewProjectRepository(db),
		normalizer,
		cfg.Campaign.TrackingURL,
	)
	runner := campaign.NewRunner(selector, sender, cfg.Campaign)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	printPreview(out, params)

	result, err := runner.Run(ctx, params)
	if result != nil {
		printResult(out, result)
		if exportCSV != "" {
			if exportErr := exportResultFile(exportCSV, result); exportErr != nil {
				logger.Errorf("CSV export failed: %v", exportErr)
			} else {
				fmt.Fprintf(out, "Results exported to %s\n", exportCSV)
			}
		}
	}
	if errors.Is(err, campaign.ErrNoValidLeads) {
		fmt.Fprintln(out, "No valid leads found for the specified criteria")
		return nil
	}
	return err
}

func exportResultFile(path string, result *domain.CampaignRunResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeResultCSV(f, result); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
