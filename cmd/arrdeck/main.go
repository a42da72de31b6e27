package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/mmcdole/arrdeck/internal/arr"
	"github.com/mmcdole/arrdeck/internal/calendar"
	"github.com/mmcdole/arrdeck/internal/config"
	"github.com/mmcdole/arrdeck/internal/domain"
	"github.com/mmcdole/arrdeck/internal/library"
	"github.com/mmcdole/arrdeck/internal/metadata"
	"github.com/mmcdole/arrdeck/internal/refresh"
	"github.com/mmcdole/arrdeck/internal/registry"
	"github.com/mmcdole/arrdeck/internal/search"
	"github.com/mmcdole/arrdeck/internal/store"
	"github.com/mmcdole/arrdeck/internal/tui"
	"github.com/mmcdole/arrdeck/internal/tui/styles"
)

// Version is set at build time via -ldflags
var Version = "dev"

// clearSpinnerLine clears the spinner line from the terminal
const clearSpinnerLine = "\r                                              \r"

const validateTimeout = 15 * time.Second

// invalidateFunc adapts a function to registry.Invalidator
type invalidateFunc func(instanceID string)

func (f invalidateFunc) InvalidateInstance(instanceID string) { f(instanceID) }

type options struct {
	addInstance bool
	clearCache  bool
}

func main() {
	var showVersion bool
	var opts options
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&opts.addInstance, "add", false, "add a server before starting")
	flag.BoolVar(&opts.clearCache, "clear-cache", false, "remove cached library snapshots")
	flag.Parse()

	if showVersion {
		fmt.Printf("arrdeck %s\n", Version)
		return
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg, file, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := config.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = config.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting arrdeck", "version", Version)

	if opts.clearCache {
		if err := config.ClearCache(cfg.Cache.Dir); err != nil {
			return err
		}
		logger.Info("cache cleared", "dir", cfg.Cache.Dir)
	}

	st, err := store.NewSnapshotStore(cfg.Cache.Dir, logger)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer st.Close()

	client := arr.NewClient(arr.Options{
		Timeout:   cfg.HTTP.Timeout,
		RateLimit: cfg.HTTP.RateLimit,
		Burst:     cfg.HTTP.Burst,
	}, logger)

	notifier := domain.NewNotifier()
	var refresher *refresh.Refresher
	forget := invalidateFunc(func(id string) {
		st.InvalidateInstance(id)
		client.Forget(id)
		if refresher != nil {
			refresher.Forget(id)
		}
	})
	reg := registry.New(cfg.Instances, map[domain.InstanceType]string{
		domain.InstanceRadarr: cfg.SelectedID(domain.InstanceRadarr),
		domain.InstanceSonarr: cfg.SelectedID(domain.InstanceSonarr),
	}, registry.Options{
		Persister:   file,
		Validator:   client,
		Invalidator: forget,
		Notifier:    notifier,
		Logger:      logger,
	})

	if !cfg.IsConfigured() || opts.addInstance {
		if err := runSetupFlow(reg); err != nil {
			return err
		}
		if len(reg.All()) == 0 {
			return nil
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	refresher = refresh.New(client, st, reg, cfg.Refresh.MetadataInterval, notifier, logger)
	if err := refresher.Start(ctx); err != nil {
		return err
	}
	defer refresher.Stop()

	movieSearch := search.NewMovieSearch(client, reg, cfg.Search.Debounce, notifier, logger)
	defer movieSearch.Close()
	seriesSearch := search.NewSeriesSearch(client, reg, cfg.Search.Debounce, notifier, logger)
	defer seriesSearch.Close()

	changes := make(chan domain.Change, 64)
	notifier.Subscribe(tui.NewChannelObserver(changes))

	model := tui.NewModel(tui.Deps{
		Context:  ctx,
		Registry: reg,
		Movies:   library.NewMovies(client, st, notifier, logger),
		Series:   library.NewSeriesList(client, st, notifier, logger),
		Episodes: library.NewEpisodes(client, notifier, logger),
		Releases: library.NewReleases(client, notifier, logger),
		Commands: library.NewCommands(client, logger),
		Metadata: metadata.New(client, notifier, logger),
		Calendar: calendar.New(client, reg, calendar.Options{
			PastDays:         cfg.Calendar.PastDays,
			FutureDays:       cfg.Calendar.FutureDays,
			LookAhead:        cfg.Calendar.LookAhead,
			FutureCutoffDays: cfg.Calendar.FutureCutoffDays,
		}, notifier, logger),
		MovieSearch:   movieSearch,
		SeriesSearch:  seriesSearch,
		Refresher:     refresher,
		Changes:       changes,
		DefaultTab:    tui.ParseTab(cfg.UI.DefaultTab),
		IgnoreOffline: !cfg.UI.ShowOffline,
		Logger:        logger,
	})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// runSetupFlow prompts for servers until one validates, then offers to add more
func runSetupFlow(reg *registry.Registry) error {
	fmt.Println()
	fmt.Println("Welcome to arrdeck!")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	for {
		inst, err := promptInstance(reader)
		if err != nil {
			return err
		}

		fmt.Println()
		status, err := validateWithSpinner(reg, inst)
		if err != nil {
			fmt.Printf("\n✗ %v\n", err)
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				if hint := verr.RecoverySuggestion(); hint != "" {
					fmt.Println(hint)
				}
			}
			fmt.Println("Please try again.")
			fmt.Println()
			continue
		}
		if inst.Label == "" && status.InstanceName != "" && status.InstanceName != status.AppName {
			inst.Label = status.InstanceName
		}

		if _, err := reg.Add(inst); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Println("✓ Configuration saved!")
		fmt.Println()

		more, err := prompt(reader, "Add another server? [y/N]: ")
		if err != nil {
			return err
		}
		if !strings.EqualFold(more, "y") && !strings.EqualFold(more, "yes") {
			return nil
		}
		fmt.Println()
	}
}

// promptInstance reads URL, type and API key. The key is not echoed.
func promptInstance(reader *bufio.Reader) (domain.Instance, error) {
	var inst domain.Instance

	for {
		url, err := prompt(reader, "Enter the server URL (e.g., http://192.168.1.100:7878): ")
		if err != nil {
			return inst, err
		}
		if err := arr.ValidateURL(url); err != nil {
			fmt.Println("Please enter a full http:// or https:// URL.")
			continue
		}
		inst.URL = url
		break
	}

	for {
		answer, err := prompt(reader, "Server type [radarr/sonarr]: ")
		if err != nil {
			return inst, err
		}
		t, err := domain.ParseInstanceType(answer)
		if err != nil {
			fmt.Println("Please enter radarr or sonarr.")
			continue
		}
		inst.Type = t
		break
	}

	fmt.Print("API key (Settings → General): ")
	key, err := readSecret(reader)
	fmt.Println()
	if err != nil {
		return inst, fmt.Errorf("failed to read input: %w", err)
	}
	inst.APIKey = key
	return inst, nil
}

func prompt(reader *bufio.Reader, text string) (string, error) {
	fmt.Print(text)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(input), nil
}

// readSecret reads a line without echo when stdin is a terminal
func readSecret(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		input, err := reader.ReadString('\n')
		return strings.TrimSpace(input), err
	}
	b, err := term.ReadPassword(fd)
	return strings.TrimSpace(string(b)), err
}

// validateWithSpinner probes the server with a visual spinner
func validateWithSpinner(reg *registry.Registry, inst domain.Instance) (domain.InstanceStatus, error) {
	ctx, cancel := context.WithTimeout(context.Background(), validateTimeout)
	defer cancel()

	type result struct {
		status domain.InstanceStatus
		err    error
	}
	resultCh := make(chan result, 1)

	go func() {
		status, err := reg.Validate(ctx, inst)
		resultCh <- result{status, err}
	}()

	frame := 0
	fmt.Printf("\r%s Connecting to %s...", styles.SpinnerFrames[frame], inst.DisplayName())

	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case res := <-resultCh:
			fmt.Print(clearSpinnerLine)
			if res.err != nil {
				return res.status, res.err
			}
			fmt.Printf("✓ Connected: %s %s\n", res.status.AppName, res.status.Version)
			return res.status, nil

		case <-ticker.C:
			frame++
			fmt.Printf("\r%s Connecting to %s...", styles.SpinnerFrames[frame%len(styles.SpinnerFrames)], inst.DisplayName())

		case <-ctx.Done():
			fmt.Print(clearSpinnerLine)
			return domain.InstanceStatus{}, fmt.Errorf("connection timed out")
		}
	}
}
