// Package launch orchestrates the full launch pipeline: version
// resolution, profile loading, artifact acquisition, runtime provisioning,
// argument assembly, and process spawn.
package launch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/quasar/mctui/internal/api"
	"github.com/quasar/mctui/internal/assets"
	"github.com/quasar/mctui/internal/authchain"
	"github.com/quasar/mctui/internal/config"
	"github.com/quasar/mctui/internal/core"
	"github.com/quasar/mctui/internal/download"
	"github.com/quasar/mctui/internal/events"
	"github.com/quasar/mctui/internal/javart"
	"github.com/quasar/mctui/internal/launchlog"
	"github.com/quasar/mctui/internal/libraries"
	"github.com/quasar/mctui/internal/mcargs"
	"github.com/quasar/mctui/internal/profile"
	"github.com/quasar/mctui/internal/version"
)

// Status represents the current launch step, pushed on the status channel
// the UI consumes. This is the teacher's original progress-reporting shape;
// internal/events.Bus carries the same information to any other host.
type Status struct {
	Step       string
	Progress   float64
	Message    string
	IsComplete bool
	Error      error
	LogLine    *LogLine
}

// LogLine is one line of child-process output.
type LogLine struct {
	Text string
	Type string // "stdout" or "stderr"
}

// Options contains everything one launch attempt needs.
type Options struct {
	Instance *core.Instance
	Config   *config.Config
	Mojang   *api.MojangClient
	Fabric   *api.FabricClient

	// Account is the signed-in player session; nil when Offline is true.
	Account *core.Account
	Offline bool

	// JoinServer, if non-nil, is spliced into the game arguments.
	JoinServer *mcargs.JoinServer

	// Bus receives the mc:launching/mc:log_line/mc:started/mc:exited
	// events; may be nil.
	Bus *events.Bus

	UpdateLastPlayed func(id string) error
	UpdateInstance   func(inst *core.Instance) error
}

// Launcher drives one launch attempt end to end.
type Launcher struct {
	opts       *Options
	statusChan chan<- Status
	cfg        *config.Config
	log        *launchlog.Writer
}

// NewLauncher creates a Launcher for one attempt.
func NewLauncher(opts *Options, statusChan chan<- Status) *Launcher {
	return &Launcher{opts: opts, statusChan: statusChan, cfg: opts.Config}
}

func (l *Launcher) sendStatus(s Status) {
	if l.statusChan != nil {
		select {
		case l.statusChan <- s:
		default:
		}
	}
}

func (l *Launcher) emit(topic, payload string) {
	if l.opts.Bus != nil {
		l.opts.Bus.Emit(topic, payload)
	}
}

func (l *Launcher) stage(step, message string) {
	l.sendStatus(Status{Step: step, Message: message})
	l.emit(events.TopicLaunching, fmt.Sprintf("%s: %s", step, message))
	if l.log != nil {
		l.log.Stagef("%s: %s", step, message)
	}
}

// Launch runs the full pipeline (version resolution through process spawn;
// instance selection has already happened by the time an Instance reaches
// here).
func (l *Launcher) Launch(ctx context.Context) error {
	inst := l.opts.Instance
	if inst == nil {
		return core.NewError(core.KindConfigError, "no instance selected", nil)
	}

	logWriter, err := launchlog.Open(filepath.Join(inst.GameDir(), "launcher_logs"))
	if err == nil {
		l.log = logWriter
		defer l.log.Close()
	}

	if !l.opts.Offline {
		if err := l.ensureAccount(ctx); err != nil {
			return l.fail("Signing in", err)
		}
	}

	l.stage("Resolving version", inst.Version)
	versionID, err := version.Resolve(ctx, inst.Version, l.opts.Mojang)
	if err != nil {
		return l.fail("Resolving version", err)
	}

	l.stage("Loading profile", versionID)
	loader := profile.New(l.opts.Mojang, l.opts.Fabric)
	details, err := loader.Load(ctx, versionID, inst.Loader, false)
	if err != nil {
		return l.fail("Loading profile", err)
	}
	if details.MainClass == "" || details.AssetIndex.ID == "" || len(details.Libraries) == 0 {
		return l.fail("Loading profile", core.NewError(core.KindConfigError, "merged version json is incomplete", nil))
	}

	versionDir := filepath.Join(l.cfg.VersionsDir(), versionID)
	clientJarPath := filepath.Join(versionDir, versionID+".jar")

	l.stage("Downloading client jar", versionID)
	if err := l.fetchClientJar(ctx, clientJarPath, details.Downloads.Client); err != nil {
		return l.fail("Downloading client jar", err)
	}

	l.stage("Downloading assets", details.AssetIndex.ID)
	if err := l.fetchAssets(ctx, details); err != nil {
		return l.fail("Downloading assets", err)
	}

	l.stage("Downloading libraries", "")
	nativesDir := l.cfg.NativesDir(versionID)
	libResult, err := libraries.Fetch(ctx, l.cfg.LibrariesDir(), nativesDir, details, inst.Loader)
	if err != nil {
		return l.fail("Downloading libraries", err)
	}

	l.stage("Checking Java", "")
	requiredMajor := javart.RequiredMajor(versionID)
	if details.JavaVersion.MajorVersion > 0 {
		requiredMajor = details.JavaVersion.MajorVersion
	}
	javaInstall, err := javart.Ensure(ctx, inst.JavaPath, l.cfg.RuntimeDir, requiredMajor, func(msg string) {
		l.stage("Checking Java", msg)
	})
	if err != nil {
		return l.fail("Checking Java", err)
	}

	l.stage("Preparing game", "")
	if err := os.MkdirAll(inst.GameDir(), 0755); err != nil {
		return l.fail("Preparing game", err)
	}
	if inst.Loader != core.LoaderVanilla {
		if err := os.MkdirAll(inst.ModsDir(), 0755); err != nil {
			return l.fail("Preparing game", err)
		}
	}

	classpath := mcargs.Classpath(libResult.Classpath, clientJarPath)
	ph, err := l.placeholders(details, nativesDir, classpath)
	if err != nil {
		return l.fail("Preparing game", err)
	}
	jvmArgs, gameArgs := mcargs.Assemble(details, ph, inst.Loader, nativesDir, classpath, l.opts.JoinServer)

	args := append(append([]string{}, jvmArgs...), gameArgs...)
	if len(inst.JVMArgs) > 0 {
		args = append(append([]string{}, inst.JVMArgs...), args...)
	} else if len(l.cfg.JVMArgs) > 0 {
		args = append(append([]string{}, l.cfg.JVMArgs...), args...)
	}

	l.stage("Launching", javaInstall.Path)
	if err := l.run(ctx, javaInstall.Path, inst.GameDir(), args); err != nil {
		return l.fail("Launching", err)
	}

	inst.IsFullyDownloaded = true
	inst.CachedAt = time.Now()
	if l.opts.UpdateInstance != nil {
		_ = l.opts.UpdateInstance(inst)
	}

	l.sendStatus(Status{Step: "Complete", Progress: 1.0, Message: "Game closed.", IsComplete: true})
	return nil
}

func (l *Launcher) fail(step string, err error) error {
	l.sendStatus(Status{Step: step, Message: err.Error(), Error: err})
	if l.log != nil {
		l.log.Line("ERROR " + step + ": " + err.Error())
	}
	return fmt.Errorf("%s: %w", step, err)
}

// ensureAccount validates the configured session and, if the Minecraft
// access token is expired and a Microsoft refresh token is present, replays
// the refresh-token and Xbox/XSTS/Minecraft chain to obtain a fresh one.
func (l *Launcher) ensureAccount(ctx context.Context) error {
	acc := l.opts.Account
	if acc == nil || !acc.IsComplete() {
		return core.NewError(core.KindNotSignedIn, "no signed-in account", nil)
	}
	if !acc.IsExpired() {
		return nil
	}
	if acc.MSARefreshToken == "" {
		return core.NewError(core.KindNotSignedIn, "session expired; please sign in again", nil)
	}

	client := authchain.New(l.cfg.ResolveClientID())
	msaToken, refreshToken, _, err := client.RefreshToken(ctx, acc.MSARefreshToken)
	if err != nil {
		return err
	}

	refreshed, err := client.SignIn(ctx, msaToken, refreshToken)
	if err != nil {
		return err
	}

	*acc = *refreshed
	return nil
}

func (l *Launcher) fetchClientJar(ctx context.Context, dest string, client *core.Artifact) error {
	if client == nil {
		return core.NewError(core.KindConfigError, "version json has no client download", nil)
	}

	mgr := download.NewManager(1)
	item := download.Item{URL: client.URL, Path: dest, SHA1: client.SHA1, Size: client.Size}

	err := mgr.FetchOne(ctx, item)
	if err == nil {
		return nil
	}
	if errors.Is(err, download.ErrHashMismatch) {
		return core.NewError(core.KindIntegrityError, "client jar failed sha1 verification", err)
	}
	if client.SHA1 == "" {
		return core.NewError(core.KindUpstreamUnavailable, "downloading client jar", err)
	}

	mirror := fmt.Sprintf("https://launcher.mojang.com/v1/objects/%s/client.jar", client.SHA1)
	item.URL = mirror
	if err := mgr.FetchOne(ctx, item); err != nil {
		if errors.Is(err, download.ErrHashMismatch) {
			return core.NewError(core.KindIntegrityError, "client jar failed sha1 verification via legacy mirror", err)
		}
		return core.NewError(core.KindUpstreamUnavailable, "downloading client jar via legacy mirror", err)
	}
	return nil
}

func (l *Launcher) fetchAssets(ctx context.Context, details *core.VersionDetails) error {
	assetsDir := l.cfg.AssetsDir()
	indexPath := filepath.Join(assetsDir, "indexes", details.AssetIndex.ID+".json")

	mgr := download.NewManager(1)
	if err := mgr.FetchOne(ctx, download.Item{
		URL:  details.AssetIndex.URL,
		Path: indexPath,
		SHA1: details.AssetIndex.SHA1,
		Size: details.AssetIndex.Size,
	}); err != nil {
		return core.NewError(core.KindUpstreamUnavailable, "downloading asset index", err)
	}

	data, err := os.ReadFile(indexPath)
	if err != nil {
		return err
	}
	idx, err := assets.ParseIndex(data)
	if err != nil {
		return err
	}

	items := assets.BuildItems(idx, assets.BaseURL, assetsDir)
	result := assets.Fetch(ctx, items, func(completed, total int) {
		progress := 0.0
		if total > 0 {
			progress = float64(completed) / float64(total)
		}
		l.sendStatus(Status{Step: "Downloading assets", Progress: progress, Message: fmt.Sprintf("%d/%d objects", completed, total)})
	})
	if result.Failed > 0 {
		return core.NewError(core.KindUpstreamUnavailable, fmt.Sprintf("%d asset objects failed", result.Failed), errors.Join(result.Errors...))
	}
	return nil
}

func (l *Launcher) placeholders(details *core.VersionDetails, nativesDir, classpath string) (mcargs.Placeholders, error) {
	inst := l.opts.Instance

	playerName := "Player"
	authUUID := "00000000-0000-0000-0000-000000000000"
	accessToken := "0"
	userType := "legacy"
	xuid := ""

	if !l.opts.Offline && l.opts.Account != nil {
		playerName = l.opts.Account.Name
		dashed, err := l.opts.Account.DashedUUID()
		if err != nil {
			return nil, err
		}
		authUUID = dashed
		accessToken = l.opts.Account.AccessToken
		userType = "msa"
	}

	ph := mcargs.Placeholders{
		"auth_player_name":    playerName,
		"version_name":        details.ID,
		"game_directory":      inst.GameDir(),
		"assets_root":         l.cfg.AssetsDir(),
		"assets_index_name":   details.AssetIndex.ID,
		"auth_uuid":           authUUID,
		"auth_access_token":   accessToken,
		"user_type":           userType,
		"version_type":        string(details.Type),
		"natives_directory":   nativesDir,
		"launcher_name":       "MegaClient",
		"launcher_version":    "1.0.0",
		"classpath_separator": classpathSeparator(),
		"classpath":           classpath,
		"auth_xuid":           xuid,
		"user_properties":     "{}",
	}
	return ph, nil
}

func classpathSeparator() string {
	if runtime.GOOS == "windows" {
		return ";"
	}
	return ":"
}

func (l *Launcher) run(ctx context.Context, javaPath, gameDir string, args []string) error {
	cmd := exec.CommandContext(ctx, javaPath, args...)
	cmd.Dir = gameDir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return core.NewError(core.KindProcessSpawnError, "attaching stdout pipe", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return core.NewError(core.KindProcessSpawnError, "attaching stderr pipe", err)
	}

	if err := cmd.Start(); err != nil {
		return core.NewError(core.KindProcessSpawnError, "starting game process", err)
	}

	l.sendStatus(Status{Step: "Playing", Message: "Game running..."})
	l.emit(events.TopicStarted, "game process started")
	if l.opts.UpdateLastPlayed != nil {
		_ = l.opts.UpdateLastPlayed(l.opts.Instance.ID)
	}

	done := make(chan struct{}, 2)
	go l.streamLog(stdout, "stdout", done)
	go l.streamLog(stderr, "stderr", done)
	<-done
	<-done

	err = cmd.Wait()
	exitCode := 0
	if err != nil {
		exitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
	}
	l.emit(events.TopicExited, fmt.Sprintf("exit code %d", exitCode))

	if err != nil {
		return core.NewError(core.KindProcessSpawnError, fmt.Sprintf("game exited with code %d", exitCode), err)
	}
	return nil
}

func (l *Launcher) streamLog(r io.Reader, kind string, done chan<- struct{}) {
	defer func() { done <- struct{}{} }()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		text := scanner.Text()
		if l.log != nil {
			l.log.Line("[" + kind + "] " + text)
		}
		l.emit(events.TopicLogLine, text)
		l.sendStatus(Status{Step: "Launching", LogLine: &LogLine{Text: text, Type: kind}})
	}
}
