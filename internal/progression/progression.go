// Package progression holds the pure arithmetic mapping a user's
// verified-report count to level, progress and reward-ticket length.
// Every function is total over non-negative input and side-effect
// free; callers guarantee counters never go negative.
package progression

// MaxRewardDays caps ticket length; level-ups past level 30 still
// yield a 30-day ticket.
const MaxRewardDays = 30

// ReportsForLevel returns how many additional verified reports are
// needed to advance from level n to n+1: 10 for level 1, growing by
// 2 per level.
func ReportsForLevel(n int) int {
	return 10 + (n-1)*2
}

// CumulativeReports returns the total verified reports required to
// reach the given level from scratch. Level 1 costs nothing.
func CumulativeReports(level int) int {
	total := 0
	for i := 1; i < level; i++ {
		total += ReportsForLevel(i)
	}
	return total
}

// LevelFor returns the unique largest level whose cumulative
// requirement does not exceed the given verified-report total.
// Terminates for any finite total because ReportsForLevel is
// strictly positive.
func LevelFor(totalVerified int) int {
	level := 1
	for totalVerified >= CumulativeReports(level)+ReportsForLevel(level) {
		level++
	}
	return level
}

// RewardDays returns the ticket length in days earned by reaching the
// given level, capped at MaxRewardDays.
func RewardDays(level int) int {
	if level > MaxRewardDays {
		return MaxRewardDays
	}
	return level
}

// ProgressWithinLevel returns how many verified reports the user has
// accumulated inside their current level. Always in
// [0, ReportsForLevel(LevelFor(totalVerified))).
func ProgressWithinLevel(totalVerified int) int {
	return totalVerified - CumulativeReports(LevelFor(totalVerified))
}

// Snapshot is the display-oriented view of a user's progression.
type Snapshot struct {
	Level              int
	TotalVerified      int
	ReportsForLevel    int
	Progress           int
	ProgressPercentage float64
	RewardDays         int
	ReportsToNext      int
}

// SnapshotFor derives the full progression view from a verified-report
// total.
func SnapshotFor(totalVerified int) Snapshot {
	level := LevelFor(totalVerified)
	required := ReportsForLevel(level)
	progress := totalVerified - CumulativeReports(level)
	return Snapshot{
		Level:              level,
		TotalVerified:      totalVerified,
		ReportsForLevel:    required,
		Progress:           progress,
		ProgressPercentage: float64(progress) / float64(required) * 100,
		RewardDays:         RewardDays(level),
		ReportsToNext:      required - progress,
	}
}

// TicketGrant describes one reward ticket owed for crossing a level
// boundary.
type TicketGrant struct {
	Level int
	Days  int
}

// LevelUps returns one grant per boundary crossed between oldLevel and
// newLevel, in increasing level order. Under the current arithmetic a
// single credit can cross at most one boundary, but the loop stays
// correct if the requirements are ever tuned to allow smaller gaps
// between levels.
func LevelUps(oldLevel, newLevel int) []TicketGrant {
	if newLevel <= oldLevel {
		return nil
	}
	grants := make([]TicketGrant, 0, newLevel-oldLevel)
	for lvl := oldLevel + 1; lvl <= newLevel; lvl++ {
		grants = append(grants, TicketGrant{Level: lvl, Days: RewardDays(lvl)})
	}
	return grants
}
