package nbaic

import "log/slog"

// prune implements spec.md §4.3's non-blocking greatest fixed point:
// repeatedly remove Y-states with zero admissible Z-successors and
// Z-states any of whose required Y-successors has been removed, until no
// removal occurs. The result is monotone (removal-only), so the fixed
// point is independent of iteration order — we still iterate in handle
// order every pass for reproducible logging.
func prune(n *NBAIC, log *slog.Logger) {
	changed := true
	for changed {
		changed = false
		for _, z := range n.zNodes {
			if !z.alive {
				continue
			}
			for _, child := range z.YSuccessors {
				if !n.yNodes[child].alive {
					z.alive = false
					changed = true
					log.Debug("pruning z-state: required y-successor removed", "z_events", z.Events)
					break
				}
			}
		}
		for _, y := range n.yNodes {
			if !y.alive {
				continue
			}
			if !hasLiveZ(n, y) {
				y.alive = false
				changed = true
				log.Debug("pruning y-state: no admissible z-successor remains", "y_state", y.IState.String())
			}
		}
	}
}

func hasLiveZ(n *NBAIC, y *YNode) bool {
	for _, zh := range y.Zs {
		if n.zNodes[zh].alive {
			return true
		}
	}
	return false
}
