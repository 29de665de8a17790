package pipeline

import (
	"time"

	"dandiprep/internal/fileutil"
	"dandiprep/internal/history"
	"dandiprep/internal/nwb"
	"dandiprep/internal/services/command"
	"dandiprep/internal/services/nwbconvert"
)

// Step names, in execution order.
const (
	StepPreflight    = "preflight"
	StepClearScratch = "clear_scratch"
	StepDownload     = "download"
	StepStage        = "stage"
	StepExtractDate  = "extract_date"
	StepConvert      = "convert"
	StepOrganize     = "organize"
	StepRename       = "rename"
	StepUpload       = "upload"
)

// Conversion records one container conversion.
type Conversion struct {
	From   string
	To     string
	Target nwbconvert.Format
}

// StepOutcome records how a step ended.
type StepOutcome struct {
	Name     string
	Status   history.Status
	Detail   string
	Duration time.Duration
}

// Summary describes a finished or aborted run.
type Summary struct {
	RunID       string
	DandisetID  string
	InputDir    string
	DandisetDir string
	Filetype    nwbconvert.Format
	SessionDate nwb.SessionDate
	Staged      fileutil.TreeStats
	Conversions []Conversion
	Renames     []nwb.Rename
	Commands    []command.Result
	Steps       []StepOutcome
	// Warnings collects failures tolerated in best-effort mode and other
	// conditions an operator should review.
	Warnings []string
}

// Tolerated reports whether any step failed without halting the run.
func (s *Summary) Tolerated() bool {
	for _, step := range s.Steps {
		if step.Status == history.StatusSkipped {
			return true
		}
	}
	return false
}
