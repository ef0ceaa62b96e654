package dashclient

import "testing"

func TestProgressStages(t *testing.T) {
	tests := []struct {
		status TaskStatus
		want   [3]StageState
	}{
		{TaskPending, [3]StageState{StageActive, StageUpcoming, StageUpcoming}},
		{TaskInProgress, [3]StageState{StageCompleted, StageActive, StageUpcoming}},
		{TaskCompleted, [3]StageState{StageCompleted, StageCompleted, StageCompleted}},
		{TaskStatus("weird"), [3]StageState{StageUpcoming, StageUpcoming, StageUpcoming}},
	}

	for _, tt := range tests {
		stages := ProgressStages(tt.status)

		for i, stage := range stages {
			if stage.State != tt.want[i] {
				t.Errorf("status %s stage %d = %s, want %s", tt.status, i, stage.State, tt.want[i])
			}
		}
	}
}

func TestProgressStageNames(t *testing.T) {
	stages := ProgressStages(TaskPending)

	want := []string{"Submitted", "Importing", "Ready"}
	for i, stage := range stages {
		if stage.Name != want[i] {
			t.Errorf("stage %d name = %s, want %s", i, stage.Name, want[i])
		}
	}
}
