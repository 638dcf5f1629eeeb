package action

// TemperatureSettings is the body of a set_temps command.
type TemperatureSettings struct {
	DriverTempCelsius    float64 `json:"driver_temp"`
	PassengerTempCelsius float64 `json:"passenger_temp"`
}

// ClimateOn turns on the climate control system.
func ClimateOn() Command {
	return Command{Name: "command/auto_conditioning_start"}
}

// ClimateOff turns off the climate control system.
func ClimateOff() Command {
	return Command{Name: "command/auto_conditioning_stop"}
}

// ChangeClimateTemp sets the desired cabin temperature for each side of the vehicle.
func ChangeClimateTemp(driverCelsius float64, passengerCelsius float64) Command {
	return Command{
		Name: "command/set_temps",
		Body: &TemperatureSettings{
			DriverTempCelsius:    driverCelsius,
			PassengerTempCelsius: passengerCelsius,
		},
	}
}
