// Package action builds the REST commands the agent sends to a vehicle.
//
// A [Command] names an endpoint relative to the vehicle's API root and carries the JSON body for
// it, if any. Commands are values; sending them is the job of the vehicle package.
package action

// Command is a request to a vehicle endpoint.
type Command struct {
	// Name is the endpoint path below /vehicles/{id}/, e.g. "command/set_temps".
	Name string
	// Body is JSON-encoded when sent. Nil sends an empty object.
	Body interface{}
}

// Endpoint returns the path of c for vehicleID.
func (c Command) Endpoint(vehicleID string) string {
	return "/vehicles/" + vehicleID + "/" + c.Name
}

// WakeUp asks the vehicle to leave deep sleep. Vehicles that are asleep do not answer telemetry
// requests until they are woken.
func WakeUp() Command {
	return Command{Name: "wake_up"}
}
