// Package ranking scores hotels by how they are connected in a derived
// graph and returns the best candidates for a named scoring mode.
//
// Basic usage:
//
//	// Load calibration (typically at startup)
//	weights, err := ranking.LoadCalibration("configs/ranking.calibration.json")
//	if err != nil {
//		slog.Warn("using default weights", "error", err)
//	}
//
//	results, err := ranking.Rank(snapshot.Entities, snapshot.Edges, ranking.ModeTransit, weights)
//
// Scoring:
//
// For each hotel, t counts incident TRANSIT_ACCESS edges and c counts
// incident WALKABLE_TO edges. A mode is a linear weighting of (t, c); a mode
// may also require both counts to be positive, in which case a hotel missing
// either kind of access scores 0.
//
//	transit    2t + c
//	culture    t + 2c
//	balanced   t + c
//	hub        3t + c
//	corridor   t + 3c
//	connected  t + c, only when t > 0 and c > 0
//
// Only hotels with a positive score are returned, highest first, at most
// Weights.Limit of them. Equal scores order by ascending entity id.
//
// Calibration:
//
// Mode weights and the result limit can be tuned per deployment through a
// JSON calibration file loaded at startup. See configs/ranking.calibration.json.
package ranking
