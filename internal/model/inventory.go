package model

import (
	"strings"

	"github.com/google/uuid"
)

// ContainerPreset is a reusable container definition with interior dimensions in mm.
type ContainerPreset struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Size       Size    `json:"size"`
	MaxPayload float64 `json:"max_payload"` // kg, informational
}

// NewContainerPreset creates a new ContainerPreset with a generated ID.
func NewContainerPreset(name string, length, width, height int, maxPayload float64) ContainerPreset {
	return ContainerPreset{
		ID:         uuid.New().String()[:8],
		Name:       name,
		Size:       Size{Length: length, Width: width, Height: height},
		MaxPayload: maxPayload,
	}
}

// Volume returns the interior volume in mm³.
func (cp ContainerPreset) Volume() int {
	return cp.Size.Volume()
}

// Inventory holds the user's saved container presets.
type Inventory struct {
	Containers []ContainerPreset `json:"containers"`
}

// DefaultContainerName is the preset used by problem generators.
const DefaultContainerName = "40ft Reference"

// DefaultInventory returns an inventory populated with ISO container interiors.
func DefaultInventory() Inventory {
	return Inventory{
		Containers: []ContainerPreset{
			NewContainerPreset(DefaultContainerName, 12010, 2330, 2380, 26700),
			NewContainerPreset("20ft Standard", 5898, 2352, 2393, 28200),
			NewContainerPreset("40ft Standard", 12032, 2352, 2393, 26700),
			NewContainerPreset("40ft High Cube", 12032, 2352, 2698, 26580),
			NewContainerPreset("45ft High Cube", 13556, 2352, 2698, 27700),
			NewContainerPreset("40ft Reefer", 11583, 2286, 2250, 27700),
		},
	}
}

// FindContainerByID returns a pointer to the preset with the given ID, or nil.
func (inv *Inventory) FindContainerByID(id string) *ContainerPreset {
	for i := range inv.Containers {
		if inv.Containers[i].ID == id {
			return &inv.Containers[i]
		}
	}
	return nil
}

// FindContainerByName returns a pointer to the preset with the given name, or nil.
// Matching is case-insensitive.
func (inv *Inventory) FindContainerByName(name string) *ContainerPreset {
	for i := range inv.Containers {
		if strings.EqualFold(inv.Containers[i].Name, name) {
			return &inv.Containers[i]
		}
	}
	return nil
}

// ContainerNames returns the names of all presets in order.
func (inv *Inventory) ContainerNames() []string {
	names := make([]string, len(inv.Containers))
	for i, c := range inv.Containers {
		names[i] = c.Name
	}
	return names
}

// AddContainer appends a preset, replacing any existing preset with the same name.
func (inv *Inventory) AddContainer(cp ContainerPreset) {
	if existing := inv.FindContainerByName(cp.Name); existing != nil {
		id := existing.ID
		*existing = cp
		existing.ID = id
		return
	}
	inv.Containers = append(inv.Containers, cp)
}

// RemoveContainer deletes the preset with the given ID. It reports whether one was removed.
func (inv *Inventory) RemoveContainer(id string) bool {
	for i := range inv.Containers {
		if inv.Containers[i].ID == id {
			inv.Containers = append(inv.Containers[:i], inv.Containers[i+1:]...)
			return true
		}
	}
	return false
}
