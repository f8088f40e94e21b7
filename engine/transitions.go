package engine

import "github.com/hupe1980/qrscan/core"

// transitions lists every legal edge of the session state machine.
// Terminal has no outgoing edges.
var transitions = map[core.State][]core.State{
	core.StateIdle:          {core.StateConfiguring, core.StateTerminal},
	core.StateConfiguring:   {core.StateLive, core.StateTerminal},
	core.StateLive:          {core.StatePickerPending, core.StateTerminal},
	core.StatePickerPending: {core.StatePickerActive, core.StateLive, core.StateTerminal},
	core.StatePickerActive:  {core.StateLive, core.StateTerminal},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to core.State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// acceptsCameraDetection reports whether a camera detection may reach the
// gate in state s. The picker covering the camera suppresses it; a picker
// still being presented does not.
func acceptsCameraDetection(s core.State) bool {
	switch s {
	case core.StateLive, core.StatePickerPending:
		return true
	default:
		return false
	}
}
