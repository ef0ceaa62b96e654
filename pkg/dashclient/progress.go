package dashclient

// StageState is the display state of one progress stage.
type StageState string

const (
	StageCompleted StageState = "completed"
	StageActive    StageState = "active"
	StageUpcoming  StageState = "upcoming"
)

// Stage is one step of the import progress indicator.
type Stage struct {
	Name  string
	State StageState
}

var stageNames = [3]string{"Submitted", "Importing", "Ready"}

// ProgressStages maps a task status to the three display stages. An unknown
// status renders everything upcoming rather than guessing.
func ProgressStages(status TaskStatus) [3]Stage {
	var active int

	switch status {
	case TaskPending:
		active = 0
	case TaskInProgress:
		active = 1
	case TaskCompleted:
		active = 2
	default:
		active = -1
	}

	var stages [3]Stage

	for i, name := range stageNames {
		stages[i] = Stage{Name: name, State: StageUpcoming}
		switch {
		case active < 0:
		case i < active:
			stages[i].State = StageCompleted
		case i == active:
			stages[i].State = StageActive
		}
	}

	// A completed task shows every stage as done.
	if status == TaskCompleted {
		for i := range stages {
			stages[i].State = StageCompleted
		}
	}

	return stages
}
