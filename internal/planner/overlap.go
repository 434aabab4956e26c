package planner

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/weftworks/weft/internal/errs"
	"github.com/weftworks/weft/pkg/models"
)

// checkWaveOverlaps rejects plans where two tasks scheduled in the same
// wave declare overlapping output paths. Tasks in the same wave run
// concurrently, so an overlap is a write collision waiting to happen.
// Overlap means an identical path, or one path lying under the other.
func checkWaveOverlaps(tasks []*models.GenerationTask, waves []models.Wave) error {
	byID := make(map[string]*models.GenerationTask, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	for _, wave := range waves {
		// claimed maps a cleaned output path to the task that declared it.
		claimed := make(map[string]string)
		for _, id := range wave.TaskIDs {
			task, ok := byID[id]
			if !ok {
				continue
			}
			for _, out := range task.InputSpec.OutputPaths {
				cleaned := cleanOutputPath(out)
				for prior, priorID := range claimed {
					if pathsOverlap(cleaned, prior) {
						ids := []string{priorID, id}
						sort.Strings(ids)
						return &errs.PlanningError{
							Reason:  fmt.Sprintf("tasks %s and %s both write %s in wave %d", ids[0], ids[1], cleaned, wave.Number),
							TaskIDs: ids,
						}
					}
				}
				claimed[cleaned] = id
			}
		}
	}
	return nil
}

// pathsOverlap reports whether two cleaned paths collide: they are equal
// or one is a directory prefix of the other.
func pathsOverlap(a, b string) bool {
	if a == b {
		return true
	}
	return strings.HasPrefix(a, b+"/") || strings.HasPrefix(b, a+"/")
}

func cleanOutputPath(p string) string {
	return strings.TrimPrefix(path.Clean(strings.ReplaceAll(p, "\\", "/")), "./")
}
