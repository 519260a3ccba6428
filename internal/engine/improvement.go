package engine

import "github.com/piwi3910/CargoLoad/internal/model"

// lateSomeCount is how many top ranked individuals late_some improves.
const lateSomeCount = 5

type improvementFunc func(p *Population) error

var improvementPolicies = map[model.GroupImprovement]improvementFunc{
	model.ImprovementNone:     rankOnly,
	model.ImprovementDuring:   rankOnly,
	model.ImprovementLateAll:  improveLateAll,
	model.ImprovementLateSome: improveLateSome,
	model.ImprovementLateBest: improveLateBest,
}

func rankOnly(p *Population) error {
	p.rank()
	return nil
}

func improveLateAll(p *Population) error {
	if err := improveLate(p.individuals); err != nil {
		return err
	}
	p.rank()
	return nil
}

func improveLateSome(p *Population) error {
	p.rank()
	if err := improveLate(p.individuals[:min(lateSomeCount, len(p.individuals))]); err != nil {
		return err
	}
	p.rank()
	return nil
}

func improveLateBest(p *Population) error {
	p.rank()
	if err := improveLate(p.individuals[:min(1, len(p.individuals))]); err != nil {
		return err
	}
	p.rank()
	return nil
}

func improveLate(individuals []*Chromosome) error {
	for _, c := range individuals {
		if err := c.EvaluateLate(); err != nil {
			return err
		}
	}
	return nil
}
