package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/paasops/paas-mcp/internal/api"
	"github.com/paasops/paas-mcp/internal/blobstore"
	"github.com/paasops/paas-mcp/internal/config"
	"github.com/paasops/paas-mcp/internal/constants"
	internalhttp "github.com/paasops/paas-mcp/internal/http"
	"github.com/paasops/paas-mcp/internal/progress"
	"github.com/paasops/paas-mcp/internal/retry"
)

// newLogsCmd creates the 'logs' command group.
func newLogsCmd() *cobra.Command {
	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "List and download application log blobs",
		Long:  `Commands for enumerating and downloading the hour-partitioned log blobs from storage.`,
	}

	logsCmd.AddCommand(newLogsContainersCmd())
	logsCmd.AddCommand(newLogsListCmd())
	logsCmd.AddCommand(newLogsDownloadCmd())

	return logsCmd
}

// newLogsContainersCmd creates the 'logs containers' command.
func newLogsContainersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "containers",
		Short: "List the containers of the storage account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			creds, err := resolveCredentials(cfg)
			if err != nil {
				return err
			}

			lister := blobstore.NewLister(internalhttp.NewStreamClient(), GetLogger())
			var names []string
			err = retry.Do(ctx, cliRetryConfig(), func() error {
				names, err = lister.ListContainers(ctx, creds.BlobEndpoint(), creds)
				return err
			})
			if err != nil {
				return fmt.Errorf("failed to list containers: %w", err)
			}

			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}
}

// windowFromFlags builds the optional time window shared by the logs
// commands: --minutes-back wins, then an explicit --start/--end pair.
func windowFromFlags(minutesBack int, start, end string) (*blobstore.Window, error) {
	if minutesBack > 0 {
		w := blobstore.LastMinutes(minutesBack)
		return &w, nil
	}
	if start == "" && end == "" {
		return nil, nil
	}
	if start == "" || end == "" {
		return nil, fmt.Errorf("--start and --end must be given together")
	}
	startAt, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return nil, fmt.Errorf("invalid --start: %w", err)
	}
	endAt, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return nil, fmt.Errorf("invalid --end: %w", err)
	}
	if !endAt.After(startAt) {
		return nil, fmt.Errorf("--end must be after --start")
	}
	return &blobstore.Window{Start: startAt.UTC(), End: endAt.UTC()}, nil
}

// resolveCredentials parses the configured connection string, asking
// the lifecycle API for one when none is configured locally.
func resolveCredentials(cfg *config.Config) (blobstore.Credentials, error) {
	ctx := GetContext()

	conn := cfg.StorageConnectionString
	if conn == "" {
		apiClient, err := api.NewClient(cfg, GetLogger())
		if err != nil {
			return blobstore.Credentials{}, fmt.Errorf("no connection string configured and API unavailable: %w", err)
		}
		defer apiClient.Close()
		err = retry.Do(ctx, cliRetryConfig(), func() error {
			conn, err = apiClient.StorageConnectionString(ctx)
			return err
		})
		if err != nil {
			return blobstore.Credentials{}, fmt.Errorf("failed to resolve storage connection: %w", err)
		}
	}
	return blobstore.ParseConnectionString(conn)
}

// resolveContainerURL turns configuration into a SAS-authorized
// container URL.
func resolveContainerURL(cfg *config.Config, container string) (string, error) {
	creds, err := resolveCredentials(cfg)
	if err != nil {
		return "", err
	}
	expiry := time.Duration(cfg.SASExpiryHours) * time.Hour
	if expiry <= 0 {
		expiry = constants.DefaultSASExpiry
	}
	token, err := blobstore.GenerateSASToken(creds, container, constants.DefaultSASPermissions, expiry)
	if err != nil {
		return "", err
	}
	return creds.ContainerURL(container) + "?" + token, nil
}

func cliRetryConfig() retry.Config {
	return retry.Config{
		MaxRetries:   constants.MaxRetries,
		InitialDelay: constants.RetryInitialDelay,
		MaxDelay:     constants.RetryMaxDelay,
		OnRetry: func(attempt int, err error, errType retry.ErrorType) {
			GetLogger().Warnf("retrying (%s, attempt %d): %v", errType.Name(), attempt, err)
		},
	}
}

// listBlobs enumerates the container and applies the window filter.
func listBlobs(cfg *config.Config, container string, window *blobstore.Window) ([]string, error) {
	ctx := GetContext()

	containerURL, err := resolveContainerURL(cfg, container)
	if err != nil {
		return nil, err
	}

	lister := blobstore.NewLister(internalhttp.NewStreamClient(), GetLogger())
	if cfg.MaxListPages > 0 {
		lister.SetMaxPages(cfg.MaxListPages)
	}

	var urls []string
	err = retry.Do(ctx, cliRetryConfig(), func() error {
		urls, err = lister.ListBlobs(ctx, containerURL)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list blobs: %w", err)
	}

	return blobstore.FilterByWindow(urls, window), nil
}

// newLogsListCmd creates the 'logs list' command.
func newLogsListCmd() *cobra.Command {
	var (
		container   string
		minutesBack int
		start       string
		end         string
		outputJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List log blobs, optionally narrowed to a time window",
		Long: `List the log blobs in the storage container.

Examples:
  # All blobs in the configured container
  paas-mcp logs list

  # Blobs covering the last hour
  paas-mcp logs list --minutes-back 60

  # Blobs in an explicit UTC window
  paas-mcp logs list --start 2026-08-23T10:00:00Z --end 2026-08-23T12:00:00Z`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if container == "" {
				container = cfg.LogContainer
			}

			window, err := windowFromFlags(minutesBack, start, end)
			if err != nil {
				return err
			}

			selected, err := listBlobs(cfg, container, window)
			if err != nil {
				return err
			}

			if outputJSON {
				type blobEntry struct {
					URL  string `json:"url"`
					Hour string `json:"hour,omitempty"`
				}
				entries := make([]blobEntry, 0, len(selected))
				for _, u := range selected {
					entry := blobEntry{URL: u}
					if part, ok := blobstore.ParsePartition(u); ok {
						entry.Hour = part.HourStart().Format(time.RFC3339)
					}
					entries = append(entries, entry)
				}
				data, err := json.MarshalIndent(entries, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal JSON: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}

			if len(selected) == 0 {
				fmt.Println("No log blobs found")
				return nil
			}
			fmt.Printf("Found %d log blob(s):\n\n", len(selected))
			for _, u := range selected {
				fmt.Printf("  %s\n", u)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&container, "container", "C", "", "Storage container (defaults to the configured log container)")
	cmd.Flags().IntVar(&minutesBack, "minutes-back", 0, "Keep only blobs covering the last N minutes")
	cmd.Flags().StringVar(&start, "start", "", "Window start, RFC 3339 UTC")
	cmd.Flags().StringVar(&end, "end", "", "Window end, RFC 3339 UTC")
	cmd.Flags().BoolVarP(&outputJSON, "json", "J", false, "Output as JSON")

	return cmd
}

// newLogsDownloadCmd creates the 'logs download' command.
func newLogsDownloadCmd() *cobra.Command {
	var (
		container   string
		minutesBack int
		start       string
		end         string
		outputPath  string
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download log lines from blobs covering a time window",
		Long: `Stream log lines from the blobs covering a UTC time window.

Lines are written in blob order to stdout, or to a file with -o.
Gzip-compressed blobs are decompressed transparently.

Examples:
  # Last hour of logs to stdout
  paas-mcp logs download --minutes-back 60

  # Last day of logs to a file, with a progress bar
  paas-mcp logs download --minutes-back 1440 -o app.log`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if container == "" {
				container = cfg.LogContainer
			}

			window, err := windowFromFlags(minutesBack, start, end)
			if err != nil {
				return err
			}

			selected, err := listBlobs(cfg, container, window)
			if err != nil {
				return err
			}
			if len(selected) == 0 {
				fmt.Fprintln(os.Stderr, "No log blobs match the window")
				return nil
			}

			// Progress bars only make sense when stdout is not the data
			// channel.
			var reporter progress.Reporter = progress.NewNoOpProgress()
			out := os.Stdout
			if outputPath != "" {
				f, err := os.Create(outputPath)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", outputPath, err)
				}
				defer f.Close()
				out = f
				reporter = progress.NewCLIProgress()
			}
			writer := bufio.NewWriter(out)
			defer writer.Flush()

			streamer := blobstore.NewStreamer(internalhttp.NewStreamClient(), GetLogger())

			var totalBytes, totalLines int64
			for i, blobURL := range selected {
				reporter.Start(-1, fmt.Sprintf("blob %d/%d", i+1, len(selected)))
				stats, err := streamer.StreamLines(ctx, blobURL, func(line string) error {
					if _, err := writer.WriteString(line); err != nil {
						return err
					}
					if err := writer.WriteByte('\n'); err != nil {
						return err
					}
					reporter.Add(int64(len(line)) + 1)
					return nil
				})
				reporter.Finish()
				totalBytes += stats.BytesDownloaded
				totalLines += stats.LinesProcessed
				if err != nil {
					return fmt.Errorf("failed to stream blob: %w", err)
				}
			}

			if err := writer.Flush(); err != nil {
				return fmt.Errorf("failed to flush output: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Downloaded %d line(s) from %d blob(s), %d byte(s) on the wire\n",
				totalLines, len(selected), totalBytes)
			return nil
		},
	}

	cmd.Flags().StringVarP(&container, "container", "C", "", "Storage container (defaults to the configured log container)")
	cmd.Flags().IntVar(&minutesBack, "minutes-back", 0, "Stream blobs covering the last N minutes")
	cmd.Flags().StringVar(&start, "start", "", "Window start, RFC 3339 UTC")
	cmd.Flags().StringVar(&end, "end", "", "Window end, RFC 3339 UTC")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write lines to this file instead of stdout")

	return cmd
}
