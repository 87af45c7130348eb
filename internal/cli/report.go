package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/andywolf/crashreporter/internal/bugzilla"
	"github.com/andywolf/crashreporter/internal/cloud/gcp"
	"github.com/andywolf/crashreporter/internal/config"
	"github.com/andywolf/crashreporter/internal/crash"
	"github.com/andywolf/crashreporter/internal/progress"
	"github.com/andywolf/crashreporter/internal/security"
	"github.com/andywolf/crashreporter/internal/telemetry"
	"github.com/andywolf/crashreporter/internal/version"
)

// newSecretFetcher is replaced in tests.
var newSecretFetcher = func(ctx context.Context) (gcp.SecretFetcher, error) {
	return gcp.NewSecretManagerClient(ctx)
}

var reportCmd = &cobra.Command{
	Use:   "report DIR",
	Short: "Submit a crash report to Bugzilla",
	Long: `Submit the crash report stored in DIR to Bugzilla.

Each regular file in DIR is one field of the report. Text files larger than
2 KiB are uploaded as attachments and binary files are never sent. A
.kinds.yaml file in DIR can override the kind of individual fields.

The URL of the new or existing issue is printed on success.

Example:
  crashreporter report /var/spool/abrt/ccpp-1700000000-4242
  crashreporter report --delete ./crash-dump`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().Bool("delete", false, "remove DIR after a successful submission")
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	dir := args[0]

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	report, err := crash.LoadDir(dir)
	if err != nil {
		return err
	}

	if err := resolvePassword(ctx, &cfg.Bugzilla); err != nil {
		return err
	}

	if err := telemetry.Init(ctx, "crashreporter", version.Short(), telemetry.Options{
		Enabled: cfg.Telemetry.Enabled,
		Stdout:  cfg.Telemetry.Stdout,
	}); err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer telemetry.Shutdown(ctx)

	sanitizer := security.NewLogSanitizer()
	sanitizer.AddLiteral(cfg.Bugzilla.Password)

	runID := uuid.New().String()
	notifier, closeNotifier, err := newNotifier(ctx, cfg, runID, cmd.ErrOrStderr(), sanitizer)
	if err != nil {
		return err
	}
	defer closeNotifier()

	reporter := bugzilla.NewReporter(cfg.Bugzilla,
		bugzilla.WithProgress(notifier),
		bugzilla.WithRunID(runID),
	)

	url, err := reporter.Report(ctx, report)
	if err != nil {
		msg := sanitizer.SanitizeError(err)
		progress.ReportError(notifier, msg)
		return errors.New(msg)
	}

	fmt.Fprintln(cmd.OutOrStdout(), url)

	del, _ := cmd.Flags().GetBool("delete")
	if del {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to delete %s: %w", dir, err)
		}
	}

	return nil
}

// resolvePassword fills in the password from Secret Manager when only a
// secret path is configured.
func resolvePassword(ctx context.Context, s *config.Settings) error {
	if s.Password != "" || s.PasswordSecret == "" {
		return nil
	}

	fetcher, err := newSecretFetcher(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = fetcher.Close() }()

	password, err := gcp.ResolvePassword(ctx, fetcher, s.PasswordSecret)
	if err != nil {
		return err
	}
	s.Password = password
	return nil
}

// newNotifier builds the progress sinks selected by the logging config.
// The returned function flushes and closes them.
func newNotifier(ctx context.Context, cfg *config.Config, runID string, out io.Writer, sanitizer *security.LogSanitizer) (progress.Notifier, func(), error) {
	var sinks progress.Multi
	if cfg.Logging.Format == "json" {
		sinks = append(sinks, progress.NewLogger(runID, progress.WithWriter(out)))
	} else {
		sinks = append(sinks, &progress.Console{Out: out})
	}

	closeFn := func() {}
	if cfg.Logging.GCPProject != "" {
		sink, err := progress.NewCloudSink(ctx, cfg.Logging.GCPProject, cfg.Logging.LogID, runID)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, sink)
		closeFn = func() { _ = sink.Close() }
	}

	return progress.Sanitized{Next: sinks, Sanitizer: sanitizer}, closeFn, nil
}
