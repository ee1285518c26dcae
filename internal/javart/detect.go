// Package javart detects, selects, and provisions a Java runtime compatible
// with a given Minecraft version.
package javart

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/quasar/mctui/internal/core"
)

var versionRegex = regexp.MustCompile(`"([^"]+)"`)
var digitsRegex = regexp.MustCompile(`\d+`)

// Installation represents a Java installation.
type Installation struct {
	Path         string
	Version      string
	MajorVersion int
	Is64Bit      bool
	Vendor       string
}

// Detector finds Java installations on the system.
type Detector struct {
	searchPaths []string
}

// NewDetector creates a new Java detector.
func NewDetector() *Detector {
	d := &Detector{}
	d.searchPaths = d.getDefaultPaths()
	return d
}

// javaBinaryName returns the preferred java binary name: javaw.exe on
// Windows avoids popping a console window, java.exe otherwise.
func javaBinaryName(preferNoConsole bool) string {
	if runtime.GOOS != "windows" {
		return "java"
	}
	if preferNoConsole {
		return "javaw.exe"
	}
	return "java.exe"
}

// FindAll finds all Java installations reachable from JAVA_HOME, PATH, and
// common vendor install locations.
func (d *Detector) FindAll() []Installation {
	var installations []Installation
	seen := make(map[string]bool)

	if javaHome := os.Getenv("JAVA_HOME"); javaHome != "" {
		if inst := d.checkJavaHome(javaHome); inst != nil {
			installations = append(installations, *inst)
			seen[inst.Path] = true
		}
	}

	if javaPath, err := exec.LookPath(javaBinaryName(false)); err == nil {
		if inst := d.checkJava(javaPath); inst != nil && !seen[inst.Path] {
			installations = append(installations, *inst)
			seen[inst.Path] = true
		}
	}

	for _, searchPath := range d.searchPaths {
		entries, err := os.ReadDir(searchPath)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			javaPath := d.findJavaInDir(filepath.Join(searchPath, entry.Name()))
			if javaPath == "" {
				continue
			}
			if inst := d.checkJava(javaPath); inst != nil && !seen[inst.Path] {
				installations = append(installations, *inst)
				seen[inst.Path] = true
			}
		}
	}

	return installations
}

// FindBest finds the installation closest to (but not below) minVersion. If
// no installation reaches minVersion, the highest major found is returned.
func (d *Detector) FindBest(minVersion int) *Installation {
	installations := d.FindAll()
	if len(installations) == 0 {
		return nil
	}

	var best *Installation
	for i := range installations {
		inst := &installations[i]
		if inst.MajorVersion < minVersion {
			continue
		}
		if best == nil || inst.MajorVersion < best.MajorVersion {
			best = inst
		}
	}

	if best == nil {
		for i := range installations {
			inst := &installations[i]
			if best == nil || inst.MajorVersion > best.MajorVersion {
				best = inst
			}
		}
	}

	return best
}

func (d *Detector) getDefaultPaths() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/Library/Java/JavaVirtualMachines",
			"/System/Library/Java/JavaVirtualMachines",
			filepath.Join(os.Getenv("HOME"), ".sdkman/candidates/java"),
			filepath.Join(os.Getenv("HOME"), ".jenv/versions"),
		}
	case "linux":
		return []string{
			"/usr/lib/jvm",
			"/usr/lib64/jvm",
			"/usr/java",
			filepath.Join(os.Getenv("HOME"), ".sdkman/candidates/java"),
			filepath.Join(os.Getenv("HOME"), ".jenv/versions"),
		}
	case "windows":
		return []string{
			`C:\Program Files\Java`,
			`C:\Program Files\Eclipse Adoptium`,
			`C:\Program Files\Zulu`,
			`C:\Program Files\Microsoft\jdk`,
		}
	default:
		return nil
	}
}

func (d *Detector) findJavaInDir(dir string) string {
	name := javaBinaryName(true)
	candidates := []string{
		filepath.Join(dir, "bin", name),
		filepath.Join(dir, "Contents", "Home", "bin", name),
	}
	if runtime.GOOS == "windows" {
		candidates = append(candidates,
			filepath.Join(dir, "bin", "java.exe"),
		)
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}

	return ""
}

func (d *Detector) checkJavaHome(javaHome string) *Installation {
	javaPath := d.findJavaInDir(javaHome)
	if javaPath == "" {
		return nil
	}
	return d.checkJava(javaPath)
}

func (d *Detector) checkJava(javaPath string) *Installation {
	realPath, err := filepath.EvalSymlinks(javaPath)
	if err != nil {
		realPath = javaPath
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, realPath, "-version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil
	}

	return d.parseVersionOutput(realPath, string(output))
}

func (d *Detector) parseVersionOutput(path, output string) *Installation {
	inst := &Installation{Path: path}

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()

		if inst.Version == "" {
			if matches := versionRegex.FindStringSubmatch(line); len(matches) > 1 {
				inst.Version = matches[1]
				inst.MajorVersion = ParseMajorVersion(matches[1])
			}
		}

		if strings.Contains(line, "64-Bit") || strings.Contains(line, "amd64") || strings.Contains(line, "x86_64") {
			inst.Is64Bit = true
		}

		lineLower := strings.ToLower(line)
		switch {
		case strings.Contains(lineLower, "graalvm"):
			inst.Vendor = "GraalVM"
		case strings.Contains(lineLower, "azul"):
			inst.Vendor = "Azul Zulu"
		case strings.Contains(lineLower, "adoptium") || strings.Contains(lineLower, "temurin"):
			inst.Vendor = "Eclipse Adoptium"
		case strings.Contains(lineLower, "oracle"):
			inst.Vendor = "Oracle"
		case strings.Contains(lineLower, "microsoft"):
			inst.Vendor = "Microsoft"
		case strings.Contains(lineLower, "openjdk") && inst.Vendor == "":
			inst.Vendor = "OpenJDK"
		}
	}

	if runtime.GOOS != "windows" && !inst.Is64Bit {
		inst.Is64Bit = true
	}

	if inst.Version == "" {
		if m := digitsRegex.FindString(output); m != "" {
			inst.Version = m
			inst.MajorVersion = ParseMajorVersion(m)
		}
	}

	if inst.Version == "" {
		return nil
	}

	return inst
}

// ParseMajorVersion parses the quoted version string from `java -version`
// output: the "1.8.x" legacy form maps to 8, "<N>.y.z" maps to N. If no
// quoted form is found by the caller, a secondary digit-run scan is used as
// a fallback.
func ParseMajorVersion(version string) int {
	if strings.HasPrefix(version, "1.") {
		parts := strings.Split(version, ".")
		if len(parts) >= 2 {
			v, _ := strconv.Atoi(parts[1])
			return v
		}
	}

	parts := strings.Split(version, ".")
	if len(parts) >= 1 {
		if v, err := strconv.Atoi(parts[0]); err == nil {
			return v
		}
	}

	if m := digitsRegex.FindString(version); m != "" {
		v, _ := strconv.Atoi(m)
		return v
	}

	return 0
}

// FormatInstallation returns a display string for a Java installation.
func FormatInstallation(inst *Installation) string {
	arch := "32-bit"
	if inst.Is64Bit {
		arch = "64-bit"
	}

	vendor := inst.Vendor
	if vendor == "" {
		vendor = "Unknown"
	}

	return fmt.Sprintf("Java %d (%s, %s)", inst.MajorVersion, vendor, arch)
}

// Resolve implements the runtime selection order: a bundled runtime (if its
// detected major is sufficient), JAVA_HOME, then an app-managed runtime
// under runtimeDir/java<major>. It does not download; Ensure adds the
// Windows-only download step.
func Resolve(bundledPath, runtimeDir string, requiredMajor int) *Installation {
	d := NewDetector()

	if bundledPath != "" {
		if inst := d.checkJava(bundledPath); inst != nil && inst.MajorVersion >= requiredMajor {
			return inst
		}
	}

	if javaHome := os.Getenv("JAVA_HOME"); javaHome != "" {
		if inst := d.checkJavaHome(javaHome); inst != nil && inst.MajorVersion >= requiredMajor {
			return inst
		}
	}

	managed := filepath.Join(runtimeDir, fmt.Sprintf("java%d", requiredMajor))
	javaPath := d.findJavaInDir(managed)
	if javaPath != "" {
		if inst := d.checkJava(javaPath); inst != nil && inst.MajorVersion >= requiredMajor {
			return inst
		}
	}

	return nil
}

// ManagedRuntimeDir is the app-managed install location for a given major
// version, relative to the configured runtime root.
func ManagedRuntimeDir(runtimeDir string, major int) string {
	return filepath.Join(runtimeDir, fmt.Sprintf("java%d", major))
}

// RuntimeUnavailableError builds the fatal error for a non-Windows host with
// no compatible runtime.
func RuntimeUnavailableError(major int) error {
	return core.NewError(core.KindRuntimeUnavailable,
		fmt.Sprintf("no Java %d runtime found; install one and set JAVA_HOME, or run on Windows to auto-provision", major), nil)
}
