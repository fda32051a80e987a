package pneumo_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/barmaleii77-hub/pneumostab/internal/pneumo"
	"github.com/barmaleii77-hub/pneumostab/internal/rig"
)

func buildNetwork() *pneumo.GasNetwork {
	var cylinders [rig.NumCorners]*pneumo.Cylinder
	for i := range cylinders {
		c, err := pneumo.NewCylinder(0.08, 0.032, 0.3, 5e-6)
		Expect(err).NotTo(HaveOccurred())
		cylinders[i] = c
	}
	receiver, err := pneumo.NewReceiver(0.02, 8e5)
	Expect(err).NotTo(HaveOccurred())

	net, err := pneumo.NewGasNetwork(cylinders, receiver, pneumo.NetworkParams{
		SupplyCv:  0.5,
		ExhaustCv: 0.5,
		CrossCv:   0.3,
	})
	Expect(err).NotTo(HaveOccurred())
	return net
}

var _ = Describe("GasNetwork", func() {
	var net *pneumo.GasNetwork

	BeforeEach(func() {
		net = buildNetwork()
	})

	It("enumerates the full topology", func() {
		// 4 corners × 2 chambers × (supply + exhaust) + 2 axles × 2 kinds cross.
		Expect(net.Lines()).To(HaveLen(20))
	})

	Describe("SetValve", func() {
		It("rejects openings outside [0, 1]", func() {
			id := pneumo.SupplyLine(rig.FrontLeft, pneumo.HeadChamber)
			Expect(net.SetValve(id, -0.1)).NotTo(Succeed())
			Expect(net.SetValve(id, 1.5)).NotTo(Succeed())

			opening, err := net.Valve(id)
			Expect(err).NotTo(HaveOccurred())
			Expect(opening).To(BeZero(), "rejected command must not corrupt state")
		})

		It("rejects unknown lines", func() {
			Expect(net.SetValve("supply/nowhere/head", 0.5)).NotTo(Succeed())
		})

		It("accepts the closed and fully open extremes", func() {
			id := pneumo.ExhaustLine(rig.RearRight, pneumo.RodChamber)
			Expect(net.SetValve(id, 0)).To(Succeed())
			Expect(net.SetValve(id, 1)).To(Succeed())
		})
	})

	Describe("ApplyFlows", func() {
		It("rejects a non-positive timestep", func() {
			Expect(net.ApplyFlows(0)).NotTo(Succeed())
			Expect(net.ApplyFlows(-1e-3)).NotTo(Succeed())
		})

		It("conserves mass in a closed network", func() {
			// Only cross-connect lines open: no supply, no exhaust, so the
			// network exchanges mass internally only.
			Expect(net.SetValve(pneumo.CrossLine(true, pneumo.HeadChamber), 1)).To(Succeed())
			Expect(net.SetValve(pneumo.CrossLine(false, pneumo.RodChamber), 1)).To(Succeed())

			// Skew the pressure field so the cross lines actually flow.
			net.Cylinder(rig.FrontLeft).SetPosition(0.25)
			net.Cylinder(rig.RearRight).SetPosition(0.05)
			for _, c := range rig.Corners() {
				net.Cylinder(c).ApplyMassFlow(0, 0, 1e-3, pneumo.Isothermal)
			}

			before := net.TotalChamberMass()
			for i := 0; i < 200; i++ {
				Expect(net.ApplyFlows(1e-3)).To(Succeed())
			}
			Expect(net.TotalChamberMass()).To(BeNumerically("~", before, 1e-12))
		})

		It("charges symmetric corners identically from the receiver", func() {
			// Compute-then-commit: both front supply lines must see the same
			// pre-step receiver pressure, so the charge is exactly symmetric
			// regardless of line evaluation order.
			Expect(net.SetValve(pneumo.SupplyLine(rig.FrontLeft, pneumo.HeadChamber), 1)).To(Succeed())
			Expect(net.SetValve(pneumo.SupplyLine(rig.FrontRight, pneumo.HeadChamber), 1)).To(Succeed())

			for i := 0; i < 100; i++ {
				Expect(net.ApplyFlows(1e-3)).To(Succeed())
			}

			left := net.Cylinder(rig.FrontLeft).Head.Mass
			right := net.Cylinder(rig.FrontRight).Head.Mass
			Expect(left).To(Equal(right))
		})

		It("moves gas from the receiver into a supplied chamber", func() {
			id := pneumo.SupplyLine(rig.RearLeft, pneumo.HeadChamber)
			Expect(net.SetValve(id, 1)).To(Succeed())

			p0 := net.Pressure(rig.RearLeft, pneumo.HeadChamber)
			r0 := net.ReceiverPressure()

			for i := 0; i < 500; i++ {
				Expect(net.ApplyFlows(1e-3)).To(Succeed())
			}

			Expect(net.Pressure(rig.RearLeft, pneumo.HeadChamber)).To(BeNumerically(">", p0))
			Expect(net.ReceiverPressure()).To(BeNumerically("<", r0))
		})

		It("vents an exhausted chamber toward ambient", func() {
			supply := pneumo.SupplyLine(rig.FrontLeft, pneumo.RodChamber)
			Expect(net.SetValve(supply, 1)).To(Succeed())
			for i := 0; i < 500; i++ {
				Expect(net.ApplyFlows(1e-3)).To(Succeed())
			}
			Expect(net.SetValve(supply, 0)).To(Succeed())

			charged := net.Pressure(rig.FrontLeft, pneumo.RodChamber)
			Expect(charged).To(BeNumerically(">", pneumo.AmbientP))

			exhaust := pneumo.ExhaustLine(rig.FrontLeft, pneumo.RodChamber)
			Expect(net.SetValve(exhaust, 1)).To(Succeed())
			for i := 0; i < 2000; i++ {
				Expect(net.ApplyFlows(1e-3)).To(Succeed())
			}

			vented := net.Pressure(rig.FrontLeft, pneumo.RodChamber)
			Expect(vented).To(BeNumerically("<", charged))
			Expect(vented).To(BeNumerically(">", 0))
		})

		It("keeps every pressure strictly positive in both modes", func() {
			for _, mode := range []pneumo.ThermoMode{pneumo.Isothermal, pneumo.Adiabatic} {
				net := buildNetwork()
				net.SetMode(mode)
				for _, c := range rig.Corners() {
					Expect(net.SetValve(pneumo.ExhaustLine(c, pneumo.HeadChamber), 1)).To(Succeed())
					Expect(net.SetValve(pneumo.ExhaustLine(c, pneumo.RodChamber), 1)).To(Succeed())
				}
				for i := 0; i < 1000; i++ {
					Expect(net.ApplyFlows(1e-3)).To(Succeed())
				}
				for _, c := range rig.Corners() {
					Expect(net.Pressure(c, pneumo.HeadChamber)).To(BeNumerically(">", 0))
					Expect(net.Pressure(c, pneumo.RodChamber)).To(BeNumerically(">", 0))
				}
				Expect(net.ReceiverPressure()).To(BeNumerically(">", 0))
			}
		})
	})
})
