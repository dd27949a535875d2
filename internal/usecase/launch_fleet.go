package usecase

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"orchd/internal/domain"
)

// FleetFile is the on-disk shape of a fleet definition: a batch of tasks
// created together, optionally launched immediately.
type FleetFile struct {
	Defaults FleetDefaults `yaml:"defaults"`
	Tasks    []FleetTask   `yaml:"tasks"`
	Launch   bool          `yaml:"launch"`
}

// FleetDefaults apply to every task in the fleet unless overridden.
type FleetDefaults struct {
	Agent    string `yaml:"agent"`
	Model    string `yaml:"model"`
	Workdir  string `yaml:"workdir"`
	Priority string `yaml:"priority"`
}

// FleetTask is one task entry in a fleet file.
type FleetTask struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Agent       string `yaml:"agent"`
	Model       string `yaml:"model"`
	Workdir     string `yaml:"workdir"`
	Priority    string `yaml:"priority"`
}

// LaunchFleetInput contains the parameters for running a fleet file.
type LaunchFleetInput struct {
	Path string
}

// LaunchFleetOutput contains the per-task outcome of a fleet run.
type LaunchFleetOutput struct {
	Created  []*domain.Task
	Launched []*domain.Session
	Failures []FleetFailure
}

// FleetFailure records a task that could not be created or launched.
type FleetFailure struct {
	Err   error
	Title string
}

// LaunchFleet is the use case for creating (and optionally launching) a
// batch of tasks from a YAML definition.
type LaunchFleet struct {
	create *CreateTask
	launch *LaunchTask
	logger domain.Logger
}

// NewLaunchFleet creates a new LaunchFleet use case.
func NewLaunchFleet(create *CreateTask, launch *LaunchTask, logger domain.Logger) *LaunchFleet {
	return &LaunchFleet{create: create, launch: launch, logger: logger}
}

// Execute processes the fleet file. Entries are independent: one bad task
// is reported as a failure without aborting the rest of the batch.
func (uc *LaunchFleet) Execute(ctx context.Context, in LaunchFleetInput) (*LaunchFleetOutput, error) {
	data, err := os.ReadFile(in.Path)
	if err != nil {
		return nil, fmt.Errorf("read fleet file: %w", err)
	}

	var fleet FleetFile
	if err := yaml.Unmarshal(data, &fleet); err != nil {
		return nil, fmt.Errorf("parse fleet file %s: %w", in.Path, err)
	}
	if len(fleet.Tasks) == 0 {
		return nil, fmt.Errorf("fleet file %s defines no tasks", in.Path)
	}

	out := &LaunchFleetOutput{}
	for _, entry := range fleet.Tasks {
		task, err := uc.createOne(fleet.Defaults, entry)
		if err != nil {
			out.Failures = append(out.Failures, FleetFailure{Title: entry.Title, Err: err})
			continue
		}
		out.Created = append(out.Created, task)

		if !fleet.Launch {
			continue
		}
		launched, err := uc.launch.Execute(ctx, LaunchTaskInput{TaskID: task.ID})
		if err != nil {
			out.Failures = append(out.Failures, FleetFailure{Title: entry.Title, Err: err})
			continue
		}
		out.Launched = append(out.Launched, launched.Session)
	}

	uc.logger.Info("", "fleet", fmt.Sprintf("%s: %d created, %d launched, %d failed",
		in.Path, len(out.Created), len(out.Launched), len(out.Failures)))
	return out, nil
}

func (uc *LaunchFleet) createOne(defaults FleetDefaults, entry FleetTask) (*domain.Task, error) {
	pick := func(own, def string) string {
		if own != "" {
			return own
		}
		return def
	}

	priority := domain.DefaultPriority
	if raw := pick(entry.Priority, defaults.Priority); raw != "" {
		parsed, ok := domain.ParsePriority(raw)
		if !ok {
			return nil, fmt.Errorf("priority %q: %w", raw, domain.ErrInvalidPriority)
		}
		priority = parsed
	}

	created, err := uc.create.Execute(CreateTaskInput{
		Title:       entry.Title,
		Description: entry.Description,
		Agent:       pick(entry.Agent, defaults.Agent),
		Model:       pick(entry.Model, defaults.Model),
		Workdir:     pick(entry.Workdir, defaults.Workdir),
		Priority:    priority,
	})
	if err != nil {
		return nil, err
	}
	return created.Task, nil
}
