package project

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/piwi3910/CargoLoad/internal/model"
)

// BackupVersion is written into every backup file. Version 1.0.0 backups carry
// no inventory and restore the default container presets.
const BackupVersion = "1.1.0"

// BackupData is the top-level structure for import/export of all application data.
type BackupData struct {
	Version   string          `json:"version"`
	CreatedAt string          `json:"created_at"`
	Config    model.AppConfig `json:"config"`
	Inventory model.Inventory `json:"inventory"`
}

// ExportAllData writes the config and container inventory to one JSON file.
func ExportAllData(exportPath string, config model.AppConfig, inv model.Inventory) error {
	backup := BackupData{
		Version:   BackupVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Config:    config,
		Inventory: inv,
	}
	if err := writeJSON(exportPath, backup); err != nil {
		return fmt.Errorf("failed to write backup %s: %w", exportPath, err)
	}
	return nil
}

// ImportAllData reads a backup file. Fields missing from the config keep their
// defaults. The caller applies the result.
func ImportAllData(importPath string) (BackupData, error) {
	data, err := os.ReadFile(importPath)
	if err != nil {
		return BackupData{}, fmt.Errorf("failed to read backup file: %w", err)
	}
	backup := BackupData{Config: model.DefaultAppConfig()}
	if err := json.Unmarshal(data, &backup); err != nil {
		return BackupData{}, fmt.Errorf("failed to parse backup file: %w", err)
	}

	switch backup.Version {
	case "":
		return BackupData{}, fmt.Errorf("invalid backup file: missing version field")
	case "1.0.0":
		if len(backup.Inventory.Containers) == 0 {
			backup.Inventory = model.DefaultInventory()
		}
	}

	for _, cp := range backup.Inventory.Containers {
		if cp.Name == "" || !cp.Size.Positive() {
			return BackupData{}, fmt.Errorf("invalid backup file: container %q has size %s", cp.Name, cp.Size)
		}
	}
	if backup.Config.RecentProblems == nil {
		backup.Config.RecentProblems = []string{}
	}
	return backup, nil
}
