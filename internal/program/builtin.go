package program

import "fmt"

// Difficulty selects one of the preset Tabata patterns
type Difficulty string

const (
	DifficultyEasy Difficulty = "easy"
	DifficultyHard Difficulty = "hard"
)

// Preset describes a repeated Tabata session: Sets interval blocks of Rounds
// work/rest rounds, separated by a SetRestSeconds break.
type Preset struct {
	WorkSeconds    int
	RestSeconds    int
	Rounds         int
	Sets           int
	SetRestSeconds int
}

// TotalSeconds returns the session length
func (p Preset) TotalSeconds() int {
	setSeconds := (p.WorkSeconds + p.RestSeconds) * p.Rounds
	return setSeconds*p.Sets + p.SetRestSeconds*(p.Sets-1)
}

// Presets holds the built-in difficulty levels
var Presets = map[Difficulty]Preset{
	DifficultyEasy: {WorkSeconds: 20, RestSeconds: 40, Rounds: 8, Sets: 2, SetRestSeconds: 60},
	DifficultyHard: {WorkSeconds: 40, RestSeconds: 20, Rounds: 8, Sets: 2, SetRestSeconds: 60},
}

// FromPreset expands a preset into a program: one interval block per set with
// a "Set Break" segment between consecutive sets.
func FromPreset(id, name string, p Preset) (Program, error) {
	if p.WorkSeconds <= 0 || p.RestSeconds <= 0 || p.Rounds <= 0 || p.Sets <= 0 {
		return Program{}, fmt.Errorf("%w: preset %q must have positive work, rest, rounds and sets", ErrInvalidProgram, id)
	}
	if p.Sets > 1 && p.SetRestSeconds <= 0 {
		return Program{}, fmt.Errorf("%w: preset %q needs a set break between %d sets", ErrInvalidProgram, id, p.Sets)
	}

	prog := Program{
		ID:          id,
		Name:        name,
		Description: fmt.Sprintf("%d x %d rounds of %ds work / %ds rest", p.Sets, p.Rounds, p.WorkSeconds, p.RestSeconds),
	}

	setSeconds := (p.WorkSeconds + p.RestSeconds) * p.Rounds
	t := 0
	for set := 1; set <= p.Sets; set++ {
		prog.Segments = append(prog.Segments, Segment{
			StartTime:       t,
			EndTime:         t + setSeconds,
			Name:            fmt.Sprintf("Set %d", set),
			ActivityType:    "Tabata",
			Notes:           fmt.Sprintf("%dx (%ds work / %ds rest)", p.Rounds, p.WorkSeconds, p.RestSeconds),
			IsIntervalBlock: true,
			WorkSeconds:     p.WorkSeconds,
			RestSeconds:     p.RestSeconds,
			Rounds:          p.Rounds,
		})
		t += setSeconds

		if set < p.Sets {
			prog.Segments = append(prog.Segments, Segment{
				StartTime:    t,
				EndTime:      t + p.SetRestSeconds,
				Name:         "Set Break",
				ActivityType: "Rest",
				Notes:        "Recover before the next set",
			})
			t += p.SetRestSeconds
		}
	}
	prog.TotalDuration = t
	return prog, nil
}

func mustPreset(id, name string, d Difficulty) Program {
	p, err := FromPreset(id, name, Presets[d])
	if err != nil {
		panic(err)
	}
	return p
}

func tabataBlock(start int, name, activity, cadence, resistance, notes string) Segment {
	return Segment{
		StartTime:       start,
		EndTime:         start + 4*60,
		Name:            name,
		ActivityType:    activity,
		CadenceHint:     cadence,
		ResistanceHint:  resistance,
		Notes:           notes,
		IsIntervalBlock: true,
		WorkSeconds:     20,
		RestSeconds:     10,
		Rounds:          8,
	}
}

// SpinningTabata is the 20 minute spin bike reference program
var SpinningTabata = Program{
	ID:            "spinning-tabata",
	Name:          "Spinning Tabata",
	Description:   "A high-intensity interval workout on the spin bike",
	TotalDuration: 20 * 60,
	Segments: []Segment{
		{StartTime: 0, EndTime: 30, Name: "Get Ready", ActivityType: "Prep Position", CadenceHint: "-", ResistanceHint: "-", Notes: "Mount bike, adjust position"},
		{StartTime: 30, EndTime: 2*60 + 30, Name: "Warm-up", ActivityType: "Easy Pedal", CadenceHint: "70-80", ResistanceHint: "3-4", Notes: "Light, seated"},
		tabataBlock(2*60+30, "Tabata Set 1", "Seated Sprints", "100-120", "4-5", "8x (20s sprint / 10s rest)"),
		{StartTime: 6*60 + 30, EndTime: 7*60 + 30, Name: "Recovery", ActivityType: "Easy Pedal", CadenceHint: "60-70", ResistanceHint: "2-3", Notes: "Light spin"},
		tabataBlock(7*60+30, "Tabata Set 2", "Standing Climbs", "60-70", "7-8", "8x (20s climb / 10s rest)"),
		{StartTime: 11*60 + 30, EndTime: 12*60 + 30, Name: "Recovery", ActivityType: "Easy Pedal", CadenceHint: "60-70", ResistanceHint: "2-3", Notes: "Light spin"},
		tabataBlock(12*60+30, "Tabata Set 3", "Power Sprints", "110-125", "6-7", "8x (20s sprint / 10s rest), Power seated or standing"),
		{StartTime: 16*60 + 30, EndTime: 18 * 60, Name: "Cooldown", ActivityType: "Light Pedal", CadenceHint: "60-70", ResistanceHint: "2-3", Notes: "Gradual effort reduction"},
		{StartTime: 18 * 60, EndTime: 20 * 60, Name: "End Spinout", ActivityType: "Very Easy Pedal", CadenceHint: "60-70", ResistanceHint: "1-2", Notes: "Completely relaxed"},
	},
}

// BuiltinPrograms returns the programs shipped with the application
func BuiltinPrograms() []Program {
	return []Program{
		SpinningTabata,
		mustPreset("tabata-easy", "Tabata Easy (20s/40s)", DifficultyEasy),
		mustPreset("tabata-hard", "Tabata Hard (40s/20s)", DifficultyHard),
	}
}
