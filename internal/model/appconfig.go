package model

import "time"

// AppConfig holds user preferences and default solver settings.
type AppConfig struct {
	// Default solver settings applied to new runs
	DefaultPopulationSize int     `json:"default_population_size"`
	DefaultTournamentSize int     `json:"default_tournament_size"`
	DefaultCrossoverRate  float64 `json:"default_crossover_rate"`
	DefaultMutationRate   float64 `json:"default_mutation_rate"`
	DefaultMaxGenerations int     `json:"default_max_generations"`
	DefaultStopUnimproved int     `json:"default_stop_unimproved"`
	DefaultMaxDuration    int     `json:"default_max_duration"` // seconds
	DefaultImprovement    string  `json:"default_improvement"`
	DefaultContainer      string  `json:"default_container"`

	// Application preferences
	OutputDir      string   `json:"output_dir"`
	RecentProblems []string `json:"recent_problems"`
}

// DefaultAppConfig returns an AppConfig populated with defaults
// matching the values from DefaultSettings().
func DefaultAppConfig() AppConfig {
	defaults := DefaultSettings()
	return AppConfig{
		DefaultPopulationSize: defaults.PopulationSize,
		DefaultTournamentSize: defaults.TournamentSize,
		DefaultCrossoverRate:  defaults.CrossoverRate,
		DefaultMutationRate:   defaults.MutationRate,
		DefaultMaxGenerations: defaults.MaxGenerations,
		DefaultStopUnimproved: defaults.StopUnimproved,
		DefaultMaxDuration:    int(defaults.MaxDuration / time.Second),
		DefaultImprovement:    defaults.Improvement.String(),
		DefaultContainer:      DefaultContainerName,
		OutputDir:             "results",
		RecentProblems:        []string{},
	}
}

// ApplyToSettings copies the default values from AppConfig into a SolveSettings struct.
// Unknown improvement names leave the existing policy untouched.
func (c AppConfig) ApplyToSettings(s *SolveSettings) {
	s.PopulationSize = c.DefaultPopulationSize
	s.TournamentSize = c.DefaultTournamentSize
	s.CrossoverRate = c.DefaultCrossoverRate
	s.MutationRate = c.DefaultMutationRate
	s.MaxGenerations = c.DefaultMaxGenerations
	s.StopUnimproved = c.DefaultStopUnimproved
	s.MaxDuration = time.Duration(c.DefaultMaxDuration) * time.Second
	if g, err := ParseGroupImprovement(c.DefaultImprovement); err == nil {
		s.Improvement = g
	}
}

// AddRecentProblem records a problem file path, most recent first, keeping at most max entries.
func (c *AppConfig) AddRecentProblem(path string, max int) {
	recent := []string{path}
	for _, p := range c.RecentProblems {
		if p != path {
			recent = append(recent, p)
		}
	}
	if max > 0 && len(recent) > max {
		recent = recent[:max]
	}
	c.RecentProblems = recent
}
