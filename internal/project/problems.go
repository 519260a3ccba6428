package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/piwi3910/CargoLoad/internal/model"
)

// ProblemID accepts both numeric and string ids when decoding.
type ProblemID string

func (id *ProblemID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ProblemID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("problem id must be a string or number: %w", err)
	}
	*id = ProblemID(n.String())
	return nil
}

// BoxTypeFile is the on-disk form of a box type. Sizes are [length, width, height].
type BoxTypeFile struct {
	Type     *int    `json:"type,omitempty"`
	Label    string  `json:"label,omitempty"`
	Size     [3]int  `json:"size"`
	Value    float64 `json:"value"`
	Volume   int     `json:"volume"`
	MinCount int     `json:"min_count"`
	MaxCount int     `json:"max_count"`
}

// ProblemFile is the on-disk form of a problem inside a problem set.
type ProblemFile struct {
	ID              ProblemID      `json:"id"`
	Container       [3]int         `json:"container"`
	ContainerVolume int            `json:"container_volume"`
	BoxTypes        []BoxTypeFile  `json:"box_types"`
	TypesCount      int            `json:"types_count"`
	Solution        *ExactSolution `json:"solution,omitempty"`
}

// ToProblemFile converts a problem to its on-disk form.
func ToProblemFile(p model.Problem) ProblemFile {
	pf := ProblemFile{
		ID:              ProblemID(p.ID),
		Container:       [3]int{p.Container.Length, p.Container.Width, p.Container.Height},
		ContainerVolume: p.Container.Volume(),
		TypesCount:      len(p.BoxTypes),
	}
	for _, bt := range p.BoxTypes {
		typ := bt.Type
		pf.BoxTypes = append(pf.BoxTypes, BoxTypeFile{
			Type:     &typ,
			Label:    bt.Label,
			Size:     [3]int{bt.Size.Length, bt.Size.Width, bt.Size.Height},
			Value:    bt.Value,
			Volume:   bt.Volume(),
			MinCount: bt.MinCount,
			MaxCount: bt.MaxCount,
		})
	}
	return pf
}

// Problem converts the on-disk form to a validated problem. Box types without an
// explicit type id are numbered by position. Weight is taken from the value.
func (pf ProblemFile) Problem() (model.Problem, error) {
	p := model.Problem{
		ID:        string(pf.ID),
		Container: model.Size{Length: pf.Container[0], Width: pf.Container[1], Height: pf.Container[2]},
	}
	for i, bt := range pf.BoxTypes {
		typ := i
		if bt.Type != nil {
			typ = *bt.Type
		}
		p.BoxTypes = append(p.BoxTypes, model.BoxType{
			Type:     typ,
			Label:    bt.Label,
			Size:     model.Size{Length: bt.Size[0], Width: bt.Size[1], Height: bt.Size[2]},
			MinCount: bt.MinCount,
			MaxCount: bt.MaxCount,
			Value:    bt.Value,
			Weight:   bt.Value,
		})
	}
	if err := p.Validate(); err != nil {
		return model.Problem{}, fmt.Errorf("invalid problem %s: %w", p.ID, err)
	}
	return p, nil
}

// SaveProblems writes a problem set as an indented JSON array.
func SaveProblems(path string, problems []model.Problem) error {
	files := make([]ProblemFile, len(problems))
	for i, p := range problems {
		files[i] = ToProblemFile(p)
	}
	if err := writeJSON(path, files); err != nil {
		return fmt.Errorf("failed to save problems: %w", err)
	}
	slog.Info("problems saved", "path", path, "count", len(problems))
	return nil
}

// SaveExactProblem writes a single generated problem together with its known solution.
func SaveExactProblem(path string, p model.Problem, solution ExactSolution) error {
	pf := ToProblemFile(p)
	pf.Solution = &solution
	if err := writeJSON(path, []ProblemFile{pf}); err != nil {
		return fmt.Errorf("failed to save problem: %w", err)
	}
	return nil
}

// LoadProblemFiles reads a problem set in its on-disk form.
func LoadProblemFiles(path string) ([]ProblemFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read problems: %w", err)
	}
	data = bytes.TrimSpace(data)
	var files []ProblemFile
	if len(data) > 0 && data[0] == '{' {
		var single ProblemFile
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, fmt.Errorf("failed to parse problem %s: %w", path, err)
		}
		files = []ProblemFile{single}
	} else if err := json.Unmarshal(data, &files); err != nil {
		return nil, fmt.Errorf("failed to parse problems %s: %w", path, err)
	}
	return files, nil
}

// LoadProblems reads and validates a problem set. A file holding a single
// problem object is accepted too. Problems without an id are numbered from 1.
func LoadProblems(path string) ([]model.Problem, error) {
	files, err := LoadProblemFiles(path)
	if err != nil {
		return nil, err
	}
	problems := make([]model.Problem, 0, len(files))
	for i, pf := range files {
		if pf.ID == "" {
			pf.ID = ProblemID(strconv.Itoa(i + 1))
		}
		p, err := pf.Problem()
		if err != nil {
			return nil, err
		}
		problems = append(problems, p)
	}
	slog.Debug("problems loaded", "path", path, "count", len(problems))
	return problems, nil
}
