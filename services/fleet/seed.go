package fleet

import (
	"fmt"

	"github.com/ramiqadoumi/go-fleet-dispatch/internal/domain"
	"github.com/ramiqadoumi/go-fleet-dispatch/internal/registry"
	"github.com/ramiqadoumi/go-fleet-dispatch/internal/scheduler"
	"github.com/ramiqadoumi/go-fleet-dispatch/services/fleet/config"
)

// Seed registers the configured units and submits the configured tasks.
// It stops at the first invalid entry; entries before it stay registered.
func Seed(s *scheduler.Scheduler, cfg config.Config) error {
	for i, uc := range cfg.Units {
		u, err := BuildUnit(uc)
		if err != nil {
			return fmt.Errorf("units[%d]: %w", i, err)
		}
		if err := s.RegisterUnit(u); err != nil {
			return fmt.Errorf("units[%d]: %w", i, err)
		}
	}
	for i, tc := range cfg.Tasks {
		t, err := BuildTask(tc)
		if err != nil {
			return fmt.Errorf("tasks[%d]: %w", i, err)
		}
		s.AddTask(t)
	}
	return nil
}

// Catalogue loads the configured tasks into a fresh registry, keyed by
// generated IDs.
func Catalogue(cfg config.Config) (*registry.Registry, error) {
	reg := registry.New()
	for i, tc := range cfg.Tasks {
		taskType, target, opts, err := taskParts(tc)
		if err != nil {
			return nil, fmt.Errorf("tasks[%d]: %w", i, err)
		}
		if _, err := reg.Create(taskType, target, opts...); err != nil {
			return nil, fmt.Errorf("tasks[%d]: %w", i, err)
		}
	}
	return reg, nil
}

// BuildUnit converts a configured unit into a domain unit.
func BuildUnit(uc config.Unit) (*domain.Unit, error) {
	pos, err := domain.NewPosition(uc.X, uc.Y)
	if err != nil {
		return nil, err
	}
	var opts []domain.UnitOption
	if uc.Status != "" {
		status, err := domain.ParseUnitStatus(uc.Status)
		if err != nil {
			return nil, err
		}
		opts = append(opts, domain.WithStatus(status))
	}
	if uc.EnergyLevel != nil {
		opts = append(opts, domain.WithEnergyLevel(*uc.EnergyLevel))
	}
	return domain.NewUnit(uc.ID, uc.Name, pos, opts...)
}

// BuildTask converts a configured task into a domain task. Unset priority
// and duration take the per-type defaults; an empty ID is generated.
func BuildTask(tc config.Task) (*domain.Task, error) {
	taskType, target, opts, err := taskParts(tc)
	if err != nil {
		return nil, err
	}
	id := tc.ID
	if id == "" {
		id = registry.NewTaskID()
	}
	return domain.NewTask(id, taskType, target, opts...)
}

func taskParts(tc config.Task) (domain.TaskType, domain.Position, []domain.TaskOption, error) {
	taskType, err := domain.ParseTaskType(tc.Type)
	if err != nil {
		return "", domain.Position{}, nil, err
	}
	target, err := domain.NewPosition(tc.X, tc.Y)
	if err != nil {
		return "", domain.Position{}, nil, err
	}

	priority := tc.Priority
	if priority == 0 {
		priority = registry.DefaultPriority(taskType)
	}
	duration := tc.EstimatedDuration
	if duration == 0 {
		duration = registry.DefaultEstimatedDuration(taskType)
	}
	return taskType, target, []domain.TaskOption{
		domain.WithPriority(priority),
		domain.WithEstimatedDuration(duration),
		domain.WithDescription(tc.Description),
	}, nil
}
