package action_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/teslamotors/climate-agent/pkg/action"
)

var _ = Describe("Climate", func() {
	Describe("ClimateOn", func() {
		It("starts auto conditioning", func() {
			cmd := action.ClimateOn()
			Expect(cmd.Endpoint("42")).To(Equal("/vehicles/42/command/auto_conditioning_start"))
			Expect(cmd.Body).To(BeNil())
		})
	})

	Describe("ClimateOff", func() {
		It("stops auto conditioning", func() {
			cmd := action.ClimateOff()
			Expect(cmd.Endpoint("42")).To(Equal("/vehicles/42/command/auto_conditioning_stop"))
			Expect(cmd.Body).To(BeNil())
		})
	})

	Describe("ChangeClimateTemp", func() {
		It("returns correct climate temperature settings", func() {
			cmd := action.ChangeClimateTemp(18, 18.5)
			Expect(cmd.Endpoint("42")).To(Equal("/vehicles/42/command/set_temps"))
			encoded, err := json.Marshal(cmd.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(encoded).To(MatchJSON(`{"driver_temp": 18, "passenger_temp": 18.5}`))
		})
	})

	Describe("WakeUp", func() {
		It("targets the wake endpoint", func() {
			Expect(action.WakeUp().Endpoint("VIN1")).To(Equal("/vehicles/VIN1/wake_up"))
		})
	})
})
