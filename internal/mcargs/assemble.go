package mcargs

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/quasar/mctui/internal/core"
	"github.com/quasar/mctui/internal/rules"
)

// classpathSeparator is ';' on Windows, ':' elsewhere.
func classpathSeparator() string {
	if runtime.GOOS == "windows" {
		return ";"
	}
	return ":"
}

// Classpath joins library paths and the client jar path with the
// OS-appropriate separator. Duplicates are preserved.
func Classpath(libraries []string, clientJar string) string {
	all := append(append([]string{}, libraries...), clientJar)
	return strings.Join(all, classpathSeparator())
}

// JoinServer is the optional direct-connect target the join-server
// injection appends to the game arguments.
type JoinServer struct {
	Host string
	Port int // 0 means "use the default", 25565
}

// Assemble builds the final JVM argument list, game argument list, and
// returns them with -cp/mainClass already spliced into the JVM list.
// nativesDir, classpath and mainClass must already be resolved.
func Assemble(details *core.VersionDetails, ph Placeholders, loader core.LoaderType, nativesDir, classpath string, join *JoinServer) (jvmArgs, gameArgs []string) {
	features := rules.ForLoader(loader)

	jvmArgs = []string{"-Xms256M", "-Xmx2048M", "-Djava.library.path=" + nativesDir}

	switch {
	case details.Arguments != nil:
		jvmArgs = append(jvmArgs, ExpandList(details.Arguments.JVM, ph, features)...)
		gameArgs = ExpandList(details.Arguments.Game, ph, features)
	case details.MinecraftArguments != "":
		gameArgs = ExpandLegacy(details.MinecraftArguments, ph)
	}

	gameArgs = sanitizeQuickPlay(gameArgs)

	if join != nil && join.Host != "" {
		gameVersion := details.ID
		if details.InheritsFrom != "" {
			gameVersion = details.InheritsFrom // a merged loader profile's own id is not a game version
		}
		gameArgs = injectJoinServer(gameArgs, gameVersion, join)
	}

	jvmArgs = append(jvmArgs, "-cp", classpath, details.MainClass)

	return jvmArgs, gameArgs
}

// sanitizeQuickPlay removes any game arg starting with --quickPlay or
// containing ${quickPlay, along with its following value token.
func sanitizeQuickPlay(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]
		if strings.HasPrefix(a, "--quickPlay") || strings.Contains(a, "${quickPlay") {
			i++ // also drop the following value token
			continue
		}
		out = append(out, a)
	}
	return out
}

func hasArg(args []string, name string) bool {
	for _, a := range args {
		if a == name {
			return true
		}
	}
	return false
}

// injectJoinServer appends the direct-connect arguments: quickPlayMultiplayer
// from 1.20 onward, else legacy --server/--port.
func injectJoinServer(args []string, versionID string, join *JoinServer) []string {
	port := join.Port
	if port == 0 {
		port = 25565
	}

	if isAtLeast120(versionID) {
		if !hasArg(args, "--quickPlayMultiplayer") {
			args = append(args, "--quickPlayMultiplayer", fmt.Sprintf("%s:%d", join.Host, port))
		}
		return args
	}

	if !hasArg(args, "--server") {
		args = append(args, "--server", join.Host)
	}
	if !hasArg(args, "--port") {
		args = append(args, "--port", strconv.Itoa(port))
	}
	return args
}

func isAtLeast120(versionID string) bool {
	v, err := semver.NewVersion(versionID)
	if err != nil {
		return false
	}
	floor, _ := semver.NewVersion("1.20.0")
	return v.Compare(floor) >= 0
}
