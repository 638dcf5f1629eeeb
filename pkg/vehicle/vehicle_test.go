package vehicle_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/teslamotors/climate-agent/internal/clock"
	"github.com/teslamotors/climate-agent/mocks"
	"github.com/teslamotors/climate-agent/pkg/action"
	"github.com/teslamotors/climate-agent/pkg/protocol"
	"github.com/teslamotors/climate-agent/pkg/vehicle"
)

const (
	vehicleID   = "1492931"
	dataPath    = "/vehicles/1492931/vehicle_data"
	wakePath    = "/vehicles/1492931/wake_up"
	startPath   = "/vehicles/1492931/command/auto_conditioning_start"
	stopPath    = "/vehicles/1492931/command/auto_conditioning_stop"
	setTempPath = "/vehicles/1492931/command/set_temps"
	okCommand   = `{"response":{"result":true,"reason":""}}`
)

var _ = Describe("Vehicle", func() {
	var (
		ctrl *gomock.Controller
		api  *mocks.VehicleAPI
		fake *clock.Fake
		car  *vehicle.Vehicle
		ctx  context.Context
	)

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		api = mocks.NewVehicleAPI(ctrl)
		fake = clock.NewFake(time.Date(2024, time.January, 8, 7, 55, 0, 0, time.UTC))
		car = vehicle.New(vehicleID, api, fake)
		ctx = context.Background()
		DeferCleanup(func() {
			ctrl.Finish()
		})
	})

	Describe("Snapshot", func() {
		It("parses nested telemetry", func() {
			api.EXPECT().Get(gomock.Any(), dataPath).Return([]byte(`{
				"response": {
					"state": "online",
					"climate_state": {"outside_temp": 2, "inside_temp": 20.5},
					"drive_state": {"speed": null}
				}
			}`), nil)

			snapshot, err := car.Snapshot(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(snapshot.State).To(Equal("online"))
			Expect(*snapshot.OutsideTemp).To(Equal(2.0))
			Expect(*snapshot.InsideTemp).To(Equal(20.5))
			Expect(snapshot.Speed).To(BeNil())
			Expect(snapshot.Moving()).To(BeFalse())
			Expect(snapshot.FetchedAt).To(Equal(fake.Now()))
			Expect(fake.Sleeps()).To(BeEmpty())
		})

		It("leaves missing readings nil", func() {
			api.EXPECT().Get(gomock.Any(), dataPath).Return([]byte(`{"response": {"state": "online"}}`), nil)

			snapshot, err := car.Snapshot(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(snapshot.OutsideTemp).To(BeNil())
			Expect(snapshot.InsideTemp).To(BeNil())
			Expect(snapshot.String()).To(Equal("state=online speed=None outside=None°C inside=None°C"))
		})

		It("wakes the vehicle between failed attempts", func() {
			gomock.InOrder(
				api.EXPECT().Get(gomock.Any(), dataPath).Return(nil, errors.New("vehicle unavailable")),
				api.EXPECT().Post(gomock.Any(), wakePath, nil).Return([]byte(`{"response":{"state":"asleep"}}`), nil),
				api.EXPECT().Get(gomock.Any(), dataPath).Return([]byte(`{"response": null}`), nil),
				api.EXPECT().Post(gomock.Any(), wakePath, nil).Return([]byte(`{"response":{"state":"online"}}`), nil),
				api.EXPECT().Get(gomock.Any(), dataPath).Return([]byte(`{"response": {"state": "online", "drive_state": {"speed": 5}}}`), nil),
			)

			snapshot, err := car.Snapshot(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(snapshot.Moving()).To(BeTrue())
			Expect(fake.Sleeps()).To(Equal([]time.Duration{vehicle.DefaultFetchDelay, vehicle.DefaultFetchDelay}))
		})

		It("reports ErrTelemetryUnavailable after all attempts fail", func() {
			api.EXPECT().Get(gomock.Any(), dataPath).Return(nil, protocol.ErrRequestFailure).Times(vehicle.DefaultFetchAttempts)
			api.EXPECT().Post(gomock.Any(), wakePath, nil).Return(nil, protocol.ErrRequestFailure).Times(vehicle.DefaultFetchAttempts)

			snapshot, err := car.Snapshot(ctx)
			Expect(snapshot).To(BeNil())
			Expect(err).To(MatchError(protocol.ErrTelemetryUnavailable))
			Expect(err).To(MatchError(protocol.ErrRequestFailure))
			Expect(fake.Sleeps()).To(HaveLen(vehicle.DefaultFetchAttempts))
		})
	})

	Describe("StartClimate", func() {
		It("starts conditioning and sets both temperatures", func() {
			gomock.InOrder(
				api.EXPECT().Post(gomock.Any(), startPath, nil).Return([]byte(okCommand), nil),
				api.EXPECT().Post(gomock.Any(), setTempPath, &action.TemperatureSettings{
					DriverTempCelsius:    18,
					PassengerTempCelsius: 18,
				}).Return([]byte(okCommand), nil),
			)
			Expect(car.StartClimate(ctx, 18)).To(Succeed())
		})

		It("still sets temperatures when the start command fails", func() {
			api.EXPECT().Post(gomock.Any(), startPath, nil).Return(nil, protocol.ErrRequestFailure)
			api.EXPECT().Post(gomock.Any(), setTempPath, gomock.Any()).Return([]byte(okCommand), nil)

			err := car.StartClimate(ctx, 21)
			Expect(err).To(MatchError(protocol.ErrCommandFailure))
		})

		It("reports vehicle-side rejections", func() {
			api.EXPECT().Post(gomock.Any(), startPath, nil).Return([]byte(`{"response":{"result":false,"reason":"cabin comfort remote settings not enabled"}}`), nil)
			api.EXPECT().Post(gomock.Any(), setTempPath, gomock.Any()).Return([]byte(okCommand), nil)

			err := car.StartClimate(ctx, 21)
			Expect(err).To(MatchError(protocol.ErrCommandFailure))
			Expect(err.Error()).To(ContainSubstring("cabin comfort remote settings not enabled"))
		})
	})

	Describe("StopClimate", func() {
		It("stops conditioning", func() {
			api.EXPECT().Post(gomock.Any(), stopPath, nil).Return([]byte(okCommand), nil)
			Expect(car.StopClimate(ctx)).To(Succeed())
		})

		It("wraps request failures", func() {
			api.EXPECT().Post(gomock.Any(), stopPath, nil).Return(nil, protocol.ErrRequestFailure)
			Expect(car.StopClimate(ctx)).To(MatchError(protocol.ErrCommandFailure))
		})
	})
})
