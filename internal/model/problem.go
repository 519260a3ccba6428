package model

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// BoxType is an immutable catalog entry. Quantity bounds are inclusive.
type BoxType struct {
	Type     int     `json:"type" validate:"gte=0"`
	Label    string  `json:"label,omitempty"`
	Size     Size    `json:"size"`
	MinCount int     `json:"min_count" validate:"gte=0"`
	MaxCount int     `json:"max_count" validate:"gtefield=MinCount"`
	Value    float64 `json:"value" validate:"gte=0"`
	Weight   float64 `json:"weight" validate:"gte=0"`
}

// Volume returns the volume of a single box of this type.
func (b BoxType) Volume() int {
	return b.Size.Volume()
}

// DisplayName returns the label, or a generated name when none was given.
func (b BoxType) DisplayName() string {
	if b.Label != "" {
		return b.Label
	}
	return fmt.Sprintf("Type %d", b.Type)
}

// Problem is a single container-loading instance.
type Problem struct {
	ID        string    `json:"id" validate:"required"`
	Container Size      `json:"container"`
	BoxTypes  []BoxType `json:"box_types" validate:"required,min=1,dive"`
}

// Validate checks field constraints and that box type ids are unique.
func (p Problem) Validate() error {
	if err := Validator().Struct(p); err != nil {
		return err
	}
	seen := make(map[int]bool, len(p.BoxTypes))
	for _, bt := range p.BoxTypes {
		if seen[bt.Type] {
			return fmt.Errorf("duplicate box type id %d", bt.Type)
		}
		seen[bt.Type] = true
	}
	return nil
}

// MaxVolume is the volume of every box type at its max count.
func (p Problem) MaxVolume() int {
	total := 0
	for _, bt := range p.BoxTypes {
		total += bt.MaxCount * bt.Volume()
	}
	return total
}

// FindBoxType returns the box type with the given id, or nil.
func (p *Problem) FindBoxType(id int) *BoxType {
	for i := range p.BoxTypes {
		if p.BoxTypes[i].Type == id {
			return &p.BoxTypes[i]
		}
	}
	return nil
}

func (p Problem) String() string {
	return fmt.Sprintf("Problem %s with %d box types and a container of size %s", p.ID, len(p.BoxTypes), p.Container)
}

// Box is one placed unit inside the container.
type Box struct {
	Position Position `json:"position"`
	Size     Size     `json:"size"`
	Type     int      `json:"type"`
}

// Space returns the volume the box occupies.
func (b Box) Space() Space {
	return Space{Position: b.Position, Size: b.Size}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator. Field names in errors use their json tags.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}
