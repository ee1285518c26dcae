// Package maven parses Maven-style library coordinates and renders the
// repository-relative paths Mojang and Fabric both use for library storage.
package maven

import (
	"fmt"
	"strings"
)

// Coordinate is a parsed group:artifact:version[:classifier][@ext] string.
type Coordinate struct {
	Group      string
	Artifact   string
	Version    string
	Classifier string
	Extension  string // defaults to "jar"
}

// Parse splits a Maven coordinate string into its parts. An "@ext" suffix on
// the version segment overrides the default jar extension.
func Parse(coord string) (Coordinate, error) {
	parts := strings.Split(coord, ":")
	if len(parts) < 3 {
		return Coordinate{}, fmt.Errorf("maven: malformed coordinate %q", coord)
	}

	c := Coordinate{
		Group:     parts[0],
		Artifact:  parts[1],
		Version:   parts[2],
		Extension: "jar",
	}

	if len(parts) >= 4 {
		c.Classifier = parts[3]
	}

	if idx := strings.LastIndex(c.Version, "@"); idx >= 0 {
		c.Extension = c.Version[idx+1:]
		c.Version = c.Version[:idx]
	} else if c.Classifier != "" {
		if idx := strings.LastIndex(c.Classifier, "@"); idx >= 0 {
			c.Extension = c.Classifier[idx+1:]
			c.Classifier = c.Classifier[:idx]
		}
	}

	if c.Group == "" || c.Artifact == "" || c.Version == "" {
		return Coordinate{}, fmt.Errorf("maven: empty segment in coordinate %q", coord)
	}

	return c, nil
}

// Path renders the repository-relative path for this coordinate, e.g.
// "net/fabricmc/fabric-loader/0.15.11/fabric-loader-0.15.11.jar".
func (c Coordinate) Path() string {
	groupPath := strings.ReplaceAll(c.Group, ".", "/")
	filename := c.Artifact + "-" + c.Version
	if c.Classifier != "" {
		filename += "-" + c.Classifier
	}
	filename += "." + c.Extension

	return fmt.Sprintf("%s/%s/%s/%s", groupPath, c.Artifact, c.Version, filename)
}

// URL joins a base repository URL (with or without a trailing slash) with
// this coordinate's path.
func (c Coordinate) URL(baseRepo string) string {
	return strings.TrimRight(baseRepo, "/") + "/" + c.Path()
}

// String reconstructs the canonical coordinate string.
func (c Coordinate) String() string {
	s := c.Group + ":" + c.Artifact + ":" + c.Version
	if c.Classifier != "" {
		s += ":" + c.Classifier
	}
	if c.Extension != "" && c.Extension != "jar" {
		s += "@" + c.Extension
	}
	return s
}
