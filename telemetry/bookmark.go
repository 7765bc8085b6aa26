package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkTerritoryFlip   BookmarkType = "territory_flip"
	BookmarkCorruptionSurge BookmarkType = "corruption_surge"
	BookmarkManaRecovery    BookmarkType = "mana_recovery"
	BookmarkStalemate       BookmarkType = "stalemate"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType
	Tick        int32
	Description string
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// Record converts the bookmark to an events.csv row.
func (b Bookmark) Record(simTime float64) EventRecord {
	return EventRecord{
		Tick:    b.Tick,
		SimTime: simTime,
		Type:    RecordBookmark,
		Kind:    string(b.Type),
		X:       -1,
		Y:       -1,
		Detail:  b.Description,
	}
}

// faction leading the territory count
type leader int8

const (
	leaderNone leader = iota
	leaderMana
	leaderCorruption
)

// BookmarkDetector detects turning points in the territory war.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	lastLeader         leader
	recentCorruptPeak  float64 // peak corrupted fraction since the last recovery
	stableWindowsCount int     // consecutive windows with steady shares
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for stalemate detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkTerritoryFlip(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkCorruptionSurge(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkManaRecovery(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkStalemate(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)
	bd.lastLeader = leading(stats)
	if stats.CorruptedFraction > bd.recentCorruptPeak {
		bd.recentCorruptPeak = stats.CorruptedFraction
	}

	return bookmarks
}

func leading(s WindowStats) leader {
	switch {
	case s.ManaTerritory > s.CorruptionTerritory:
		return leaderMana
	case s.CorruptionTerritory > s.ManaTerritory:
		return leaderCorruption
	}
	return leaderNone
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkTerritoryFlip(stats WindowStats) *Bookmark {
	now := leading(stats)
	if now == leaderNone || bd.lastLeader == leaderNone || now == bd.lastLeader {
		return nil
	}
	side := "mana"
	if now == leaderCorruption {
		side = "corruption"
	}
	return &Bookmark{
		Type:        BookmarkTerritoryFlip,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%s took the lead: %d mana vs %d corrupted cells", side, stats.ManaTerritory, stats.CorruptionTerritory),
	}
}

func (bd *BookmarkDetector) checkCorruptionSurge(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.CorruptedFraction
	}
	avg := total / float64(len(history))

	if stats.CorruptedFraction > avg*1.5 && stats.CorruptedFraction-avg >= 0.1 {
		return &Bookmark{
			Type:        BookmarkCorruptionSurge,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Corrupted fraction %.2f is %.1fx average (%.2f)", stats.CorruptedFraction, stats.CorruptedFraction/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkManaRecovery(stats WindowStats) *Bookmark {
	if bd.recentCorruptPeak < 0.2 {
		return nil
	}

	drop := 1.0 - stats.CorruptedFraction/bd.recentCorruptPeak
	if drop > 0.30 {
		// Reset peak after recovery
		oldPeak := bd.recentCorruptPeak
		bd.recentCorruptPeak = stats.CorruptedFraction

		return &Bookmark{
			Type:        BookmarkManaRecovery,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Corruption receded %.0f%% from peak %.2f to %.2f", drop*100, oldPeak, stats.CorruptedFraction),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkStalemate(stats WindowStats) *Bookmark {
	// Need both factions holding land
	if stats.ManaTerritory == 0 || stats.CorruptionTerritory == 0 {
		bd.stableWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	var manaSum, corruptSum float64
	for _, h := range history[len(history)-4:] {
		manaSum += h.ManaShare
		corruptSum += h.CorruptedFraction
	}
	manaMean, corruptMean := manaSum/4, corruptSum/4

	var manaVar, corruptVar float64
	for _, h := range history[len(history)-4:] {
		dm := h.ManaShare - manaMean
		dc := h.CorruptedFraction - corruptMean
		manaVar += dm * dm
		corruptVar += dc * dc
	}
	manaVar /= 4
	corruptVar /= 4

	// Low variance: coefficient of variation < 10%
	var manaCV, corruptCV float64
	if manaMean > 0 {
		manaCV = manaVar / (manaMean * manaMean)
	}
	if corruptMean > 0 {
		corruptCV = corruptVar / (corruptMean * corruptMean)
	}

	if manaCV < 0.01 && corruptCV < 0.01 { // CV^2 < 0.01 means CV < 0.1
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkStalemate,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Stalemate at %.0f%% mana, %.0f%% corrupted over 5+ windows", stats.ManaShare*100, stats.CorruptedFraction*100),
		}
	}
	return nil
}
