package climate

import (
	"fmt"

	"github.com/teslamotors/climate-agent/pkg/vehicle"
)

// Thresholds control when climate conditioning starts. Conditioning starts if the outside
// temperature is strictly below Outdoor or the cabin temperature is strictly above Indoor.
type Thresholds struct {
	Outdoor float64 // Celsius
	Indoor  float64 // Celsius
}

// Decision is the result of evaluating a snapshot against Thresholds.
type Decision struct {
	Trigger bool
	// Reasons lists each satisfied condition, for logging.
	Reasons []string
}

// Evaluate decides whether to start climate conditioning. Each reading is checked independently
// and either one is sufficient. A missing reading never triggers and never prevents a trigger.
func Evaluate(s *vehicle.Snapshot, t Thresholds) Decision {
	var d Decision
	if s.OutsideTemp != nil && *s.OutsideTemp < t.Outdoor {
		d.Reasons = append(d.Reasons, fmt.Sprintf("Outside temp %g°C < %g°C", *s.OutsideTemp, t.Outdoor))
	}
	if s.InsideTemp != nil && *s.InsideTemp > t.Indoor {
		d.Reasons = append(d.Reasons, fmt.Sprintf("Inside temp %g°C > %g°C", *s.InsideTemp, t.Indoor))
	}
	d.Trigger = len(d.Reasons) > 0
	return d
}
