package growth

// Stage is the cosmetic evolution tier of a blob.
type Stage uint8

const (
	StageBasic Stage = iota
	StageCommon
	StageRare
	StageEpic
	StageLegendary
)

var stageThresholds = [...]struct {
	stage     Stage
	threshold float64
	name      string
	color     string
}{
	{StageLegendary, 100, "legendary", "#FFD700"},
	{StageEpic, 70, "epic", "#9333EA"},
	{StageRare, 50, "rare", "#3B82F6"},
	{StageCommon, 30, "common", "#10B981"},
	{StageBasic, 0, "basic", "#FFFFFF"},
}

// StageFor maps a size to its evolution stage.
func StageFor(size float64) Stage {
	for _, entry := range stageThresholds {
		if size >= entry.threshold {
			return entry.stage
		}
	}
	return StageBasic
}

func (s Stage) String() string {
	for _, entry := range stageThresholds {
		if entry.stage == s {
			return entry.name
		}
	}
	return "basic"
}

// Color returns the glow colour associated with the stage.
func (s Stage) Color() string {
	for _, entry := range stageThresholds {
		if entry.stage == s {
			return entry.color
		}
	}
	return "#FFFFFF"
}
