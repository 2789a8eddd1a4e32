// Package main is the CLI entry point for focusmoded.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Paarth01/Focus-Mode/internal/control"
	"github.com/Paarth01/Focus-Mode/internal/daemon"
	"github.com/Paarth01/Focus-Mode/internal/domain"
	"github.com/Paarth01/Focus-Mode/internal/infra"
	"github.com/Paarth01/Focus-Mode/internal/policy"
	"github.com/Paarth01/Focus-Mode/internal/usecase"
)

var (
	// Version info (set via ldflags)
	Version   = "0.3.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "focusmoded",
	Short: "Focus mode daemon - blocks distractions while you work",
	Long: `focusmoded watches the active application and reacts when it looks
distracting: blocked sites are redirected to loopback, distracting
processes are terminated, audio is muted and the dock is hidden.
Every mode change is logged so you can report on your focus time.

Stopping the daemon reverts everything it changed.`,
	Version: Version,
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon in the background",
	Long: `Spawns the daemon detached from this terminal. If a daemon is
already running this is a no-op.`,
	RunE: runStart,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the daemon and revert all enforcement",
	Long: `Asks the running daemon to shut down. The daemon unblocks sites,
restores audio and dock settings, logs the stop and exits.`,
	RunE: runStop,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current focus mode and enforcement state",
	RunE:  runStatus,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize productive time for a day",
	Long: `Aggregates the session log into productive time and completed focus
sessions for one calendar day, compared against the focus target.`,
	RunE: runReport,
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent session log records",
	RunE:  runLog,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration",
	Long: `Creates the config directory with a commented config.yaml and a
blocked_sites.txt example. Existing files are kept unless --force is given.`,
	RunE: runInit,
}

var autostartCmd = &cobra.Command{
	Use:   "autostart",
	Short: "Manage starting the daemon on login",
}

var autostartEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Install the login autostart entry",
	RunE:  runAutostartEnable,
}

var autostartDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Remove the login autostart entry",
	RunE:  runAutostartDisable,
}

var autostartStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether autostart is enabled",
	RunE:  runAutostartStatus,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

// Hidden run command - the actual daemon process, spawned by start and by
// the autostart entry.
var runCmd = &cobra.Command{
	Use:    "run",
	Hidden: true,
	RunE:   runRun,
}

var (
	verbose     bool
	statusJSON  bool
	versionJSON bool
	reportDate  string
	logLimit    int
	initForce   bool
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output status as JSON")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Output version info as JSON")
	reportCmd.Flags().StringVar(&reportDate, "date", "", "Day to report on (YYYY-MM-DD, default today)")
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 20, "Number of records to show")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing configuration files")

	autostartCmd.AddCommand(autostartEnableCmd)
	autostartCmd.AddCommand(autostartDisableCmd)
	autostartCmd.AddCommand(autostartStatusCmd)

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(autostartCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	paths := infra.DefaultPaths()
	client := control.NewClient(paths.SocketPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if pr, err := client.Ping(ctx); err == nil {
		fmt.Printf("focusmoded is already running (pid %d)\n", pr.PID)
		return nil
	}

	if err := paths.EnsureDirs(); err != nil {
		return fmt.Errorf("failed to prepare directories: %w", err)
	}

	pid, err := daemon.Spawn()
	if err != nil {
		return fmt.Errorf("failed to spawn daemon: %w", err)
	}

	if !waitAlive(client, 3*time.Second) {
		fmt.Printf("Daemon spawned (pid %d) but is not answering yet.\n", pid)
		fmt.Printf("Check the log: %s\n", paths.LogFile)
		return nil
	}

	fmt.Println("\n=== Focus Mode ===")
	fmt.Printf("Daemon started (pid %d)\n", pid)
	fmt.Printf("Config: %s\n", paths.ConfigFile)
	fmt.Printf("Log:    %s\n", paths.LogFile)
	fmt.Println("\nRun 'focusmoded status' to see the current mode.")
	fmt.Println("==================")
	return nil
}

// waitAlive polls the control socket until the daemon answers.
func waitAlive(client *control.Client, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		alive := client.Alive(ctx)
		cancel()
		if alive {
			return true
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}

func runStop(cmd *cobra.Command, args []string) error {
	paths := infra.DefaultPaths()
	client := control.NewClient(paths.SocketPath)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err := client.Stop(ctx)
	if errors.Is(err, control.ErrNotRunning) {
		fmt.Println("focusmoded is not running")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}

	fmt.Println("Stopped. All enforcement reverted.")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	paths := infra.DefaultPaths()
	client := control.NewClient(paths.SocketPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	st, err := client.Status(ctx)
	if errors.Is(err, control.ErrNotRunning) {
		if statusJSON {
			fmt.Println(`{"running":false}`)
			return nil
		}
		fmt.Println("\n=== focusmoded Status ===")
		fmt.Println("Status: NOT RUNNING")
		fmt.Println("\nRun 'focusmoded start' to begin.")
		fmt.Println("=========================")
		return nil
	}
	if err != nil {
		return err
	}

	if statusJSON {
		out, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Println("\n=== focusmoded Status ===")
	fmt.Println("Status: RUNNING")
	fmt.Printf("Mode: %s", strings.ToUpper(string(st.Mode)))
	if st.Subject != "" {
		fmt.Printf(" (active app: %s)", st.Subject)
	}
	fmt.Println()
	fmt.Printf("In mode for: %s\n", time.Since(st.Since).Round(time.Second))
	fmt.Printf("Daemon: pid %d, v%s, up %s\n",
		st.PID, st.Version, time.Since(st.StartedAt).Round(time.Second))

	if active := activeEnforcement(st.Enforcement); len(active) > 0 {
		fmt.Printf("Enforcement active: %s\n", strings.Join(active, ", "))
	} else {
		fmt.Println("Enforcement active: none")
	}

	if st.Degraded {
		fmt.Println("Session log: DEGRADED (records queued for retry)")
	}
	if st.LastError != nil {
		fmt.Printf("Last error [%s]: %s (%s ago)\n",
			st.LastError.Class, st.LastError.Message,
			time.Since(st.LastError.At).Round(time.Second))
	}

	if msg, skew := control.VersionSkew(Version, st.Version); skew {
		fmt.Printf("\nWarning: %s\n", msg)
	}

	fmt.Println("=========================")
	return nil
}

// activeEnforcement returns the names of currently applied actions, sorted.
func activeEnforcement(enforcement map[string]bool) []string {
	var active []string
	for name, on := range enforcement {
		if on {
			active = append(active, name)
		}
	}
	sort.Strings(active)
	return active
}

// openStore opens the session log the way the daemon does, honoring the
// encryption setting, so CLI reads see the same database.
func openStore(paths infra.Paths, logger *zap.Logger) (*infra.SQLiteStore, *policy.Loader, error) {
	loader := policy.NewLoader(paths.ConfigFile, paths.SitesFile, logger)
	if err := loader.Load(); err != nil {
		logger.Warn("using default configuration", zap.Error(err))
	}

	var key []byte
	if loader.Config().EncryptLog {
		var err error
		key, err = infra.EnsureKey(
			infra.NewKeyringKeyProvider(),
			infra.NewFileKeyProvider(paths.KeyFile),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to obtain session log key: %w", err)
		}
	}

	store, err := infra.NewSQLiteStore(paths.DBFile, key)
	if err != nil {
		return nil, nil, err
	}
	return store, loader, nil
}

func runReport(cmd *cobra.Command, args []string) error {
	logger := infra.NewCLILogger(verbose)
	defer func() { _ = logger.Sync() }()

	date := time.Now()
	if reportDate != "" {
		parsed, err := time.ParseInLocation("2006-01-02", reportDate, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --date %q, want YYYY-MM-DD", reportDate)
		}
		date = parsed
	}

	store, loader, err := openStore(infra.DefaultPaths(), logger)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.AggregateFor(date, time.Now())
	if err != nil {
		return err
	}

	fmt.Printf("\n=== Focus Report: %s ===\n", stats.Date)
	fmt.Printf("Productive time: %s\n", stats.Productive.Round(time.Second))
	fmt.Printf("Completed sessions: %d\n", stats.Sessions)
	fmt.Printf("Log records: %d\n", stats.Records)

	if target := loader.Policy().FocusTarget; target > 0 {
		pct := int(stats.Productive * 100 / target)
		fmt.Printf("Focus target: %s (%d%% reached)\n", target, pct)
	}

	fmt.Println("===============================")
	return nil
}

func runLog(cmd *cobra.Command, args []string) error {
	logger := infra.NewCLILogger(verbose)
	defer func() { _ = logger.Sync() }()

	store, _, err := openStore(infra.DefaultPaths(), logger)
	if err != nil {
		return err
	}
	defer store.Close()

	recs, err := store.Recent(logLimit)
	if err != nil {
		return err
	}

	if len(recs) == 0 {
		fmt.Println("No session records yet.")
		return nil
	}

	for _, rec := range recs {
		app := rec.AppName
		if app == "" {
			app = "-"
		}
		fmt.Printf("%s  %-10s  %s\n",
			rec.Timestamp.Local().Format("2006-01-02 15:04:05"),
			strings.ToUpper(string(rec.Mode)), app)
	}
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	paths := infra.DefaultPaths()
	if err := paths.EnsureDirs(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	if err := policy.WriteDefaults(paths.ConfigFile, paths.SitesFile, initForce); err != nil {
		return err
	}

	fmt.Println("Configuration written:")
	fmt.Printf("  %s\n", paths.ConfigFile)
	fmt.Printf("  %s\n", paths.SitesFile)
	fmt.Println("\nEdit the app lists, then run 'focusmoded start'.")
	return nil
}

func runAutostartEnable(cmd *cobra.Command, args []string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to resolve executable path: %w", err)
	}

	m := infra.NewXDGAutostart()
	if err := m.Install(exe); err != nil {
		return err
	}

	fmt.Printf("Autostart enabled: %s\n", m.EntryPath())
	return nil
}

func runAutostartDisable(cmd *cobra.Command, args []string) error {
	m := infra.NewXDGAutostart()
	if err := m.Uninstall(); err != nil {
		return err
	}

	fmt.Println("Autostart disabled")
	return nil
}

func runAutostartStatus(cmd *cobra.Command, args []string) error {
	m := infra.NewXDGAutostart()
	if !m.IsInstalled() {
		fmt.Println("Autostart: disabled")
		return nil
	}

	fmt.Printf("Autostart: enabled (%s)\n", m.EntryPath())
	if exe, err := os.Executable(); err == nil && m.NeedsUpdate(exe) {
		fmt.Println("Warning: entry points at a different binary, run 'focusmoded autostart enable' to refresh")
	}
	return nil
}

func runVersion(cmd *cobra.Command, args []string) {
	if versionJSON {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("focusmoded %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}

// controlHandle adapts the controller to the control server's surface.
type controlHandle struct {
	controller *daemon.Controller
	cancel     context.CancelFunc
}

func (h *controlHandle) Status() domain.Status { return h.controller.Status() }

func (h *controlHandle) RequestStop() { h.cancel() }

func runRun(cmd *cobra.Command, args []string) error {
	paths := infra.DefaultPaths()

	// Single instance guard: a live daemon owns the socket.
	client := control.NewClient(paths.SocketPath)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
	alive := client.Alive(pingCtx)
	cancelPing()
	if alive {
		return fmt.Errorf("another focusmoded daemon is already running")
	}

	if err := paths.EnsureDirs(); err != nil {
		return fmt.Errorf("failed to prepare directories: %w", err)
	}

	// The config decides the log level, so read it once before building
	// the logger.
	boot := policy.NewLoader(paths.ConfigFile, paths.SitesFile, zap.NewNop())
	_ = boot.Load()
	level, perr := zapcore.ParseLevel(boot.Config().LogLevel)
	if perr != nil {
		level = zapcore.InfoLevel
	}

	logger := infra.NewDaemonLogger(paths.LogFile, level)
	defer func() { _ = logger.Sync() }()

	loader := policy.NewLoader(paths.ConfigFile, paths.SitesFile, logger)
	if err := loader.Load(); err != nil {
		logger.Warn("starting with default policy", zap.Error(err))
	}
	cfg := loader.Config()

	var key []byte
	if cfg.EncryptLog {
		var err error
		key, err = infra.EnsureKey(
			infra.NewKeyringKeyProvider(),
			infra.NewFileKeyProvider(paths.KeyFile),
		)
		if err != nil {
			return fmt.Errorf("failed to obtain session log key: %w", err)
		}
	}

	store, err := infra.NewSQLiteStore(paths.DBFile, key)
	if err != nil {
		return fmt.Errorf("failed to open session log: %w", err)
	}
	defer store.Close()

	runner := &infra.RealCommandRunner{}
	pm := infra.NewProcessManager()

	probe := infra.NewProbeChain(
		infra.NewX11Probe(runner, cfg.ProbeTimeout, logger),
		infra.NewProcessProbe(pm, logger),
	)

	actions := []domain.EnforcementAction{
		infra.NewHostsBlock(cfg.HostsFile, cfg.RedirectIP, loader.Sites, logger),
		infra.NewProcessKill(pm, loader.DistractingApps, logger),
		infra.NewAudioMute(runner, cfg.ProbeTimeout, logger),
		infra.NewDockHide(runner, cfg.ProbeTimeout, logger),
	}

	runID := uuid.NewString()
	engine := usecase.NewEngine(actions, store, runID, logger)
	ctrl := daemon.NewController(loader, probe, engine, Version, runID, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := control.NewServer(paths.SocketPath, &controlHandle{controller: ctrl, cancel: cancel}, logger)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start control socket: %w", err)
	}
	defer srv.Close()

	refreshAutostart(logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	return ctrl.Run(ctx)
}

// refreshAutostart rewrites an installed autostart entry that points at a
// binary path this executable no longer lives at.
func refreshAutostart(logger *zap.Logger) {
	m := infra.NewXDGAutostart()
	exe, err := os.Executable()
	if err != nil || !m.IsInstalled() {
		return
	}
	if !m.NeedsUpdate(exe) {
		return
	}
	if err := m.Install(exe); err != nil {
		logger.Warn("could not refresh autostart entry", zap.Error(err))
		return
	}
	logger.Info("autostart entry updated", zap.String("path", m.EntryPath()))
}
