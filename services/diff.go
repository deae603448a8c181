package services

import (
	"fmt"

	"github.com/ananke-board/ananke/database"
)

// locatedTask is a task snapshot flattened out of its workflow, keeping
// the title of the workflow that contained it.
type locatedTask struct {
	title    string
	workflow string
}

// taskIndex maps task id to its flattened snapshot while preserving
// first-seen order, so change descriptions come out in board order.
type taskIndex struct {
	ids  []int64
	byID map[int64]locatedTask
}

func indexTasks(board *database.Board) *taskIndex {
	idx := &taskIndex{byID: make(map[int64]locatedTask)}
	for _, w := range board.Workflows {
		for _, t := range w.Tasks {
			if _, seen := idx.byID[t.ID]; !seen {
				idx.ids = append(idx.ids, t.ID)
			}
			// Task ids are globally unique by contract. If a payload
			// violates that, the later workflow wins the mapping.
			idx.byID[t.ID] = locatedTask{title: t.Title, workflow: w.Title}
		}
	}
	return idx
}

// DescribeChanges compares two board snapshots and returns human-readable
// descriptions of the structural changes: project rename, task
// create/delete/move/rename, column add/remove. Field-level edits
// (descriptions, tags, assignees, colors) and column reorders are not
// reported; this feeds a coarse audit trail, not a full diff. An empty
// result means no structural change was detected.
func DescribeChanges(oldBoard, newBoard *database.Board) []string {
	if oldBoard == nil || newBoard == nil || oldBoard.Workflows == nil || newBoard.Workflows == nil {
		return []string{"updated board infrastructure"}
	}

	var changes []string

	if oldBoard.ProjectName != newBoard.ProjectName {
		changes = append(changes, fmt.Sprintf("renamed project from %q to %q",
			oldBoard.ProjectName, newBoard.ProjectName))
	}

	oldTasks := indexTasks(oldBoard)
	newTasks := indexTasks(newBoard)

	// Deletions
	for _, id := range oldTasks.ids {
		if _, ok := newTasks.byID[id]; !ok {
			changes = append(changes, fmt.Sprintf("deleted task %q", oldTasks.byID[id].title))
		}
	}

	// Additions, moves and renames. A move suppresses the rename entry:
	// one attributed line per task per submit.
	for _, id := range newTasks.ids {
		task := newTasks.byID[id]
		oldTask, existed := oldTasks.byID[id]
		switch {
		case !existed:
			changes = append(changes, fmt.Sprintf("created task %q in %q", task.title, task.workflow))
		case oldTask.workflow != task.workflow:
			changes = append(changes, fmt.Sprintf("moved task %q from %q to %q",
				task.title, oldTask.workflow, task.workflow))
		case oldTask.title != task.title:
			changes = append(changes, fmt.Sprintf("renamed task from %q to %q", oldTask.title, task.title))
		}
	}

	// Column additions and removals. Reorders and property edits
	// (title, color, lock) are not reported.
	oldColumns := make(map[int64]bool, len(oldBoard.Workflows))
	for _, w := range oldBoard.Workflows {
		oldColumns[w.ID] = true
	}
	newColumns := make(map[int64]bool, len(newBoard.Workflows))
	for _, w := range newBoard.Workflows {
		newColumns[w.ID] = true
	}

	for _, w := range newBoard.Workflows {
		if !oldColumns[w.ID] {
			changes = append(changes, fmt.Sprintf("added column %q", w.Title))
		}
	}
	for _, w := range oldBoard.Workflows {
		if !newColumns[w.ID] {
			changes = append(changes, fmt.Sprintf("removed column %q", w.Title))
		}
	}

	return changes
}
