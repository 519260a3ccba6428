package project

import (
	"fmt"
	"math"
	"math/rand"
	"slices"
	"strconv"

	"github.com/piwi3910/CargoLoad/internal/model"
)

// ReferenceContainer is the interior of the 40 ft container used by the generators.
var ReferenceContainer = model.Size{Length: 12010, Width: 2330, Height: 2380}

// GeneratorOptions controls random problem generation.
type GeneratorOptions struct {
	Types      int
	Container  model.Size
	BoxSideMin int
	BoxSideMax int
}

// DefaultGeneratorOptions returns 20 box types with sides between 300 and 600 mm.
func DefaultGeneratorOptions() GeneratorOptions {
	return GeneratorOptions{
		Types:      20,
		Container:  ReferenceContainer,
		BoxSideMin: 300,
		BoxSideMax: 600,
	}
}

// Validate checks that the options describe a solvable generation request.
func (o GeneratorOptions) Validate() error {
	switch {
	case o.Types <= 0:
		return fmt.Errorf("types must be positive, got %d", o.Types)
	case !o.Container.Positive():
		return fmt.Errorf("container size must be positive, got %s", o.Container)
	case o.BoxSideMin <= 0 || o.BoxSideMax < o.BoxSideMin:
		return fmt.Errorf("invalid box side range [%d, %d]", o.BoxSideMin, o.BoxSideMax)
	}
	return nil
}

// HarnessPreset is one problem set of the experiment harness.
type HarnessPreset struct {
	Types      int
	Count      int
	BoxSideMin int
	BoxSideMax int
}

// FileName returns the conventional problem-set file name for the preset.
func (p HarnessPreset) FileName() string {
	return fmt.Sprintf("types_%d.json", p.Types)
}

// Options converts the preset to generator options on the reference container.
func (p HarnessPreset) Options() GeneratorOptions {
	return GeneratorOptions{Types: p.Types, Container: ReferenceContainer, BoxSideMin: p.BoxSideMin, BoxSideMax: p.BoxSideMax}
}

// HarnessPresets returns the four problem sets used for policy comparison.
func HarnessPresets() []HarnessPreset {
	presets := make([]HarnessPreset, 0, 4)
	for _, types := range []int{5, 10, 15, 20} {
		presets = append(presets, HarnessPreset{Types: types, Count: 25, BoxSideMin: 250, BoxSideMax: 750})
	}
	return presets
}

// RandomProblem generates problem id of a set of total problems. The random source is
// seeded from the id, so the same id always yields the same box types.
// Values are proportional to volume and max counts split the container evenly across types.
func RandomProblem(id, total int, opts GeneratorOptions) (model.Problem, error) {
	if err := opts.Validate(); err != nil {
		return model.Problem{}, err
	}
	seed := int64(id)
	if total > 0 {
		seed = int64(((id-1)%total + total) % total)
	}
	rng := rand.New(rand.NewSource(seed))

	span := opts.BoxSideMax - opts.BoxSideMin + 1
	if distinct := span * span * span; distinct < opts.Types {
		return model.Problem{}, fmt.Errorf("side range [%d, %d] cannot produce %d distinct sizes", opts.BoxSideMin, opts.BoxSideMax, opts.Types)
	}

	containerVolume := opts.Container.Volume()
	seen := make(map[model.Size]bool, opts.Types)
	boxTypes := make([]model.BoxType, 0, opts.Types)
	for len(boxTypes) < opts.Types {
		size := model.Size{
			Length: opts.BoxSideMin + rng.Intn(span),
			Width:  opts.BoxSideMin + rng.Intn(span),
			Height: opts.BoxSideMin + rng.Intn(span),
		}
		if seen[size] {
			continue
		}
		seen[size] = true

		vol := size.Volume()
		i := len(boxTypes)
		boxTypes = append(boxTypes, model.BoxType{
			Type:     i,
			Size:     size,
			MinCount: 0,
			MaxCount: containerVolume / opts.Types / vol,
			Value:    10000 * float64(vol) / float64(containerVolume),
			Weight:   float64(vol),
		})
	}

	return model.Problem{
		ID:        strconv.Itoa(id),
		Container: opts.Container,
		BoxTypes:  boxTypes,
	}, nil
}

// GenerateProblemSet creates count random problems. Batch offsets the ids so
// several sets can be generated without collisions.
func GenerateProblemSet(batch, count int, opts GeneratorOptions) ([]model.Problem, error) {
	problems := make([]model.Problem, 0, count)
	for i := 0; i < count; i++ {
		p, err := RandomProblem(batch*count+i+1, count, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to generate problem %d: %w", i+1, err)
		}
		problems = append(problems, p)
	}
	return problems, nil
}

// ExactSolution is the known loading of a problem built by ExactProblem.
type ExactSolution struct {
	VolumeTotal int         `json:"volume_total"`
	BoxCount    int         `json:"box_count"`
	ValueTotal  float64     `json:"value_total"`
	Counts      map[int]int `json:"counts"` // box type -> boxes in the known solution
	Order       map[int]int `json:"order"`  // box type -> slab position along the length
}

const maxSideAttempts = 1000

// ExactProblem slices the container length into Types slabs and fills each slab with
// a grid of identical boxes, so the full container is a known feasible solution.
// Count bounds are spread around the known count and the types are shuffled.
func ExactProblem(rng *rand.Rand, opts GeneratorOptions) (model.Problem, ExactSolution, error) {
	if err := opts.Validate(); err != nil {
		return model.Problem{}, ExactSolution{}, err
	}
	slots := opts.Container.Length/opts.BoxSideMin - 1
	if slots < opts.Types-1 {
		return model.Problem{}, ExactSolution{}, fmt.Errorf("container length %d cannot hold %d slabs of at least %d", opts.Container.Length, opts.Types, opts.BoxSideMin)
	}

	picks := rng.Perm(slots)[:opts.Types-1]
	slices.Sort(picks)
	cuts := make([]int, 0, opts.Types)
	for _, p := range picks {
		cuts = append(cuts, (p+1)*opts.BoxSideMin)
	}
	cuts = append(cuts, opts.Container.Length)

	type slab struct {
		size  model.Size
		count int
		order int
	}
	slabs := make([]slab, 0, len(cuts))
	lastX := 0
	for i, c := range cuts {
		l, lc, err := fitSide(rng, c-lastX, opts)
		if err != nil {
			return model.Problem{}, ExactSolution{}, err
		}
		w, wc, err := fitSide(rng, opts.Container.Width, opts)
		if err != nil {
			return model.Problem{}, ExactSolution{}, err
		}
		h, hc, err := fitSide(rng, opts.Container.Height, opts)
		if err != nil {
			return model.Problem{}, ExactSolution{}, err
		}
		slabs = append(slabs, slab{size: model.Size{Length: l, Width: w, Height: h}, count: lc * wc * hc, order: i})
		lastX = c
	}
	rng.Shuffle(len(slabs), func(a, b int) { slabs[a], slabs[b] = slabs[b], slabs[a] })

	solution := ExactSolution{Counts: make(map[int]int, len(slabs)), Order: make(map[int]int, len(slabs))}
	boxTypes := make([]model.BoxType, len(slabs))
	for i, s := range slabs {
		vol := s.size.Volume()
		boxTypes[i] = model.BoxType{
			Type:     i,
			Size:     s.size,
			MinCount: int(math.Round(float64(s.count) * (0.75 + 0.25*rng.Float64()))),
			MaxCount: int(math.Round(float64(s.count) * (1 + 0.25*rng.Float64()))),
			Value:    float64(vol),
			Weight:   float64(vol),
		}
		solution.Counts[i] = s.count
		solution.Order[i] = s.order
		solution.VolumeTotal += vol * s.count
		solution.BoxCount += s.count
		solution.ValueTotal += float64(vol * s.count)
	}

	p := model.NewProblem(opts.Container, boxTypes)
	return p, solution, nil
}

// fitSide splits length into equal parts whose size falls inside the side range.
// It returns the part size and how many parts fit.
func fitSide(rng *rand.Rand, length int, opts GeneratorOptions) (size, count int, err error) {
	span := opts.BoxSideMax - opts.BoxSideMin + 1
	for attempt := 0; attempt < maxSideAttempts; attempt++ {
		target := opts.BoxSideMin + rng.Intn(span)
		count = max(1, int(math.Round(float64(length)/float64(target))))
		size = length / count
		if size >= opts.BoxSideMin && size <= opts.BoxSideMax {
			return size, count, nil
		}
	}
	return 0, 0, fmt.Errorf("no box side in [%d, %d] divides %d", opts.BoxSideMin, opts.BoxSideMax, length)
}
