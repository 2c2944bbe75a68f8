package orchestrator

import (
	"github.com/rs/zerolog"

	"multiytdlp/internal/config"
	"multiytdlp/internal/jobstore"
	"multiytdlp/internal/model"
)

// Indicator is the native taskbar/dock progress surface. The Orchestrator
// drives it with the aggregate fraction of in-flight jobs; platform
// implementations live in internal/indicator.
type Indicator interface {
	SetProgress(fraction float64, errorTint bool)
	Clear()
	Notify(title, body string)
}

// HistoryRecorder archives a job's terminal outcome for a history view.
// Implemented by internal/history; nil is a valid no-op dependency.
type HistoryRecorder interface {
	Record(job model.Job)
}

// Deps are the collaborators the Orchestrator is built around. All fields
// except Indicator and History are required.
type Deps struct {
	Store      *jobstore.Store
	Cfg        *config.Config
	WorkerPath string
	StagingDir string
	FFmpegPath string
	Aria2cPath string
	JSRuntimePath string
	Logger     zerolog.Logger
	Indicator  Indicator
	History    HistoryRecorder
}
