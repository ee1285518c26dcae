package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestInstanceManager_CreateAndLoad(t *testing.T) {
	// Setup temp directory
	tmpDir := t.TempDir()

	// Create manager
	mgr := NewInstanceManager(tmpDir)

	// Create instance
	inst := &Instance{
		ID:      "test-1",
		Name:    "Test Instance",
		Version: "1.21.4",
		Loader:  "vanilla",
	}

	if err := mgr.Create(inst); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Verify file exists
	configPath := filepath.Join(tmpDir, "instances", "test-1", "instance.json")
	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("Config file not created: %v", err)
	}

	// Load fresh
	mgr2 := NewInstanceManager(tmpDir)
	if err := mgr2.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	loaded, ok := mgr2.Get("test-1")
	if !ok {
		t.Fatal("Instance not found after reload")
	}

	if loaded.Name != "Test Instance" {
		t.Errorf("Name mismatch: got %q, want %q", loaded.Name, "Test Instance")
	}
	if loaded.Version != "1.21.4" {
		t.Errorf("Version mismatch: got %q, want %q", loaded.Version, "1.21.4")
	}
}

func TestInstanceManager_Delete(t *testing.T) {
	tmpDir := t.TempDir()
	mgr := NewInstanceManager(tmpDir)

	// Create instance
	inst := &Instance{
		ID:      "to-delete",
		Name:    "Delete Me",
		Version: "1.21.4",
		Loader:  "vanilla",
	}

	if err := mgr.Create(inst); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Verify it exists
	if _, ok := mgr.Get("to-delete"); !ok {
		t.Fatal("Instance should exist after creation")
	}

	// Delete it
	if err := mgr.Delete("to-delete"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	// Verify it's gone
	if _, ok := mgr.Get("to-delete"); ok {
		t.Error("Instance should not exist after deletion")
	}

	// Verify files are deleted
	instPath := filepath.Join(tmpDir, "instances", "to-delete")
	if _, err := os.Stat(instPath); !os.IsNotExist(err) {
		t.Error("Instance directory should be deleted")
	}
}

func TestInstanceManager_List(t *testing.T) {
	tmpDir := t.TempDir()
	mgr := NewInstanceManager(tmpDir)

	// Create multiple instances
	for i := 0; i < 3; i++ {
		inst := &Instance{
			ID:      "inst-" + string(rune('a'+i)),
			Name:    "Instance " + string(rune('A'+i)),
			Version: "1.21.4",
			Loader:  "vanilla",
		}
		if err := mgr.Create(inst); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	list := mgr.List()
	if len(list) != 3 {
		t.Errorf("Expected 3 instances, got %d", len(list))
	}
}

func TestInstanceManager_UpdateLastPlayed(t *testing.T) {
	tmpDir := t.TempDir()
	mgr := NewInstanceManager(tmpDir)

	inst := &Instance{
		ID:      "play-test",
		Name:    "Play Test",
		Version: "1.21.4",
		Loader:  "vanilla",
	}

	if err := mgr.Create(inst); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Update last played
	before := time.Now()
	if err := mgr.UpdateLastPlayed("play-test"); err != nil {
		t.Fatalf("UpdateLastPlayed failed: %v", err)
	}
	after := time.Now()

	// Verify update
	updated, _ := mgr.Get("play-test")
	if updated.LastPlayed.Before(before) || updated.LastPlayed.After(after) {
		t.Error("LastPlayed should be between before and after")
	}

	// Reload and verify persistence
	mgr2 := NewInstanceManager(tmpDir)
	mgr2.Load()
	reloaded, _ := mgr2.Get("play-test")
	if reloaded.LastPlayed.IsZero() {
		t.Error("LastPlayed should persist after reload")
	}
}

func TestInstanceManager_SelectionFallback(t *testing.T) {
	tmpDir := t.TempDir()
	mgr := NewInstanceManager(tmpDir)

	first := &Instance{ID: "first", Name: "First", Loader: LoaderVanilla}
	second := &Instance{ID: "second", Name: "Second", Loader: LoaderVanilla}

	if err := mgr.Create(first); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := mgr.Create(second); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if sel := mgr.Selected(); sel == nil || sel.ID != "first" {
		t.Fatalf("expected first instance selected by default, got %+v", sel)
	}

	if err := mgr.Select("second"); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if sel := mgr.Selected(); sel == nil || sel.ID != "second" {
		t.Fatalf("expected second instance selected, got %+v", sel)
	}

	// Deleting the selected instance should fall back to the remaining one.
	if err := mgr.Delete("second"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if sel := mgr.Selected(); sel == nil || sel.ID != "first" {
		t.Fatalf("expected fallback to first instance, got %+v", sel)
	}

	// Deleting the last instance should clear selection.
	if err := mgr.Delete("first"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if sel := mgr.Selected(); sel != nil {
		t.Fatalf("expected selection cleared, got %+v", sel)
	}

	if err := mgr.Select("missing"); err == nil {
		t.Error("expected error selecting a nonexistent instance")
	}
}

func TestInstanceManager_ModsDirOnlyForNonVanilla(t *testing.T) {
	tmpDir := t.TempDir()
	mgr := NewInstanceManager(tmpDir)

	vanilla := &Instance{ID: "vanilla-inst", Name: "Vanilla", Loader: LoaderVanilla}
	fabric := &Instance{ID: "fabric-inst", Name: "Fabric", Loader: LoaderFabric}

	if err := mgr.Create(vanilla); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := mgr.Create(fabric); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := os.Stat(vanilla.ModsDir()); !os.IsNotExist(err) {
		t.Error("vanilla instance should not have a mods directory")
	}
	if _, err := os.Stat(fabric.ModsDir()); err != nil {
		t.Errorf("fabric instance should have a mods directory: %v", err)
	}
}

func TestInstanceManager_CreateRejectsUnsupportedLoader(t *testing.T) {
	tmpDir := t.TempDir()
	mgr := NewInstanceManager(tmpDir)

	inst := &Instance{ID: "forge-inst", Name: "Forge", Loader: LoaderType("forge")}
	err := mgr.Create(inst)
	if err == nil {
		t.Fatal("expected error creating an instance with an unsupported loader")
	}
	if KindOf(err) != KindConfigError {
		t.Errorf("expected KindConfigError, got %v", err)
	}
}

func TestInstanceManager_EmptyDir(t *testing.T) {
	tmpDir := t.TempDir()
	mgr := NewInstanceManager(tmpDir)

	// Loading from non-existent directory should succeed
	if err := mgr.Load(); err != nil {
		t.Fatalf("Load from empty dir failed: %v", err)
	}

	// Should have no instances
	if len(mgr.List()) != 0 {
		t.Error("Expected empty list from new directory")
	}
}
