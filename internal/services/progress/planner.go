package progress

import (
	"math/rand"
	"time"
)

type Rand interface {
	Intn(n int) int
}

type PlannerConfig struct {
	StepMinDelay time.Duration // default: 5 seconds
	StepMaxDelay time.Duration // default: 10 seconds
}

func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		StepMinDelay: 5 * time.Second,
		StepMaxDelay: 10 * time.Second,
	}
}

// Planner yields the randomized delay between automatic status steps.
type Planner struct {
	cfg PlannerConfig
	r   Rand
}

func NewPlanner(cfg PlannerConfig, r Rand) *Planner {
	def := DefaultPlannerConfig()
	if cfg.StepMinDelay <= 0 {
		cfg.StepMinDelay = def.StepMinDelay
	}
	if cfg.StepMaxDelay <= 0 {
		cfg.StepMaxDelay = def.StepMaxDelay
	}
	if cfg.StepMaxDelay < cfg.StepMinDelay {
		cfg.StepMaxDelay = cfg.StepMinDelay
	}
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Planner{cfg: cfg, r: r}
}

func (p *Planner) StepDelay() time.Duration {
	min := p.cfg.StepMinDelay
	max := p.cfg.StepMaxDelay
	if max == min {
		return min
	}
	msMin := int(min.Milliseconds())
	msMax := int(max.Milliseconds())
	if msMin < 0 {
		msMin = 0
	}
	if msMax < msMin {
		msMax = msMin
	}
	return time.Duration(msMin+p.r.Intn(msMax-msMin+1)) * time.Millisecond
}
