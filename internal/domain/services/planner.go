package services

import (
	"github.com/ilastik/app-pass/internal/domain/entities"
	"github.com/ilastik/app-pass/internal/domain/interfaces/gateways"
)

// RepairPlanner turns fixable issues into an ordered command list. The
// planner only builds the plan; whether it runs is the executor's
// concern, which keeps dry-run and real runs structurally identical.
type RepairPlanner struct {
	repacker gateways.ArchiveRepacker
}

// NewRepairPlanner creates a planner that uses repacker to rebuild
// containers after their internal binaries change.
func NewRepairPlanner(repacker gateways.ArchiveRepacker) *RepairPlanner {
	return &RepairPlanner{repacker: repacker}
}

// Plan orders the repair commands of all fixable issues. Native
// repairs keep discovery order. For each container, repairs of its
// internal binaries come strictly before the commands that repack it;
// a container with no repairs is not repacked.
func (p *RepairPlanner) Plan(bundle *entities.Bundle, issues []entities.Issue) []entities.Command {
	var plan []entities.Command
	perContainer := make(map[string][]entities.Command)

	for _, issue := range issues {
		if !issue.Fixable {
			continue
		}
		if issue.Container == "" {
			plan = append(plan, issue.Fix...)
			continue
		}
		perContainer[issue.Container] = append(perContainer[issue.Container], issue.Fix...)
	}

	for _, container := range bundle.Containers {
		cmds := perContainer[container.Path]
		if len(cmds) == 0 {
			continue
		}
		plan = append(plan, cmds...)
		plan = append(plan, p.repacker.RepackCommands(container.ScratchDir, container.Path)...)
	}

	return plan
}

// SignPlan orders the signing commands for a whole bundle: container
// internals first (so each archive is repacked with signed contents),
// then the repacked archives themselves, then every native library,
// the main executable and finally the bundle root.
func (p *RepairPlanner) SignPlan(bundle *entities.Bundle, entitlementsFile, identity string) []entities.Command {
	var plan []entities.Command

	for _, container := range bundle.Containers {
		for _, bin := range container.Binaries {
			plan = append(plan, SignCommand(bin.Path, entitlementsFile, identity))
		}
		plan = append(plan, p.repacker.RepackCommands(container.ScratchDir, container.Path)...)
		plan = append(plan, SignCommand(container.Path, entitlementsFile, identity))
	}

	for _, bin := range bundle.Binaries {
		if bin.Path == bundle.MainExecutable {
			continue
		}
		plan = append(plan, SignCommand(bin.Path, entitlementsFile, identity))
	}
	plan = append(plan, SignCommand(bundle.MainExecutable, entitlementsFile, identity))
	plan = append(plan, SignCommand(bundle.Root, entitlementsFile, identity))

	return plan
}
