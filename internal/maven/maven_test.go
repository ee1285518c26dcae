package maven

import "testing"

func TestParseAndPath(t *testing.T) {
	c, err := Parse("net.fabricmc:fabric-loader:0.15.11")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := "net/fabricmc/fabric-loader/0.15.11/fabric-loader-0.15.11.jar"
	if got := c.Path(); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestParseWithClassifierAndExtension(t *testing.T) {
	c, err := Parse("org.lwjgl:lwjgl:3.3.3:natives-windows@jar")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if c.Classifier != "natives-windows" {
		t.Errorf("Classifier = %q, want natives-windows", c.Classifier)
	}
	if c.Extension != "jar" {
		t.Errorf("Extension = %q, want jar", c.Extension)
	}
	want := "org/lwjgl/lwjgl/3.3.3/lwjgl-3.3.3-natives-windows.jar"
	if got := c.Path(); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestParseVersionExtensionOverride(t *testing.T) {
	c, err := Parse("com.example:thing:1.0@zip")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if c.Version != "1.0" {
		t.Errorf("Version = %q, want 1.0", c.Version)
	}
	if c.Extension != "zip" {
		t.Errorf("Extension = %q, want zip", c.Extension)
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := Parse("not-a-coordinate"); err == nil {
		t.Error("expected error for malformed coordinate")
	}
}

func TestURL(t *testing.T) {
	c, _ := Parse("net.fabricmc:fabric-loader:0.15.11")
	got := c.URL("https://maven.fabricmc.net/")
	want := "https://maven.fabricmc.net/net/fabricmc/fabric-loader/0.15.11/fabric-loader-0.15.11.jar"
	if got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
}
