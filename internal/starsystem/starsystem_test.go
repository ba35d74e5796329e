package starsystem_test

import (
	"bytes"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/starsys/internal/dynamo"
	"github.com/san-kum/starsys/internal/starsystem"
)

func randomBodies(n int, seed int64) ([]r3.Vec, []float64) {
	rnd := rand.New(rand.NewSource(seed))
	pos := make([]r3.Vec, n)
	mass := make([]float64, n)
	for i := range pos {
		pos[i] = r3.Vec{X: 10 * rnd.Float64(), Y: 10 * rnd.Float64(), Z: 10 * rnd.Float64()}
		mass[i] = 0.5 + rnd.Float64()
	}
	return pos, mass
}

func circularBinary(method string) *starsystem.StarSystem {
	v := math.Sqrt(0.5)
	s, err := starsystem.New(
		[]r3.Vec{{X: -0.5}, {X: 0.5}},
		[]float64{1, 1},
		starsystem.WithVelocities([]r3.Vec{{Y: -v}, {Y: v}}),
		starsystem.WithMethod(method),
		starsystem.WithDt(0.01),
	)
	Expect(err).NotTo(HaveOccurred())
	return s
}

func expectVec(got, want r3.Vec, tol float64) {
	ExpectWithOffset(1, got.X).To(BeNumerically("~", want.X, tol))
	ExpectWithOffset(1, got.Y).To(BeNumerically("~", want.Y, tol))
	ExpectWithOffset(1, got.Z).To(BeNumerically("~", want.Z, tol))
}

var _ = Describe("StarSystem", func() {
	Describe("construction", func() {
		It("accepts planar positions and defaults the rest", func() {
			s, err := starsystem.FromPlanar([][]float64{{0, 0}, {1, 1}}, []float64{1, 0.9})
			Expect(err).NotTo(HaveOccurred())

			Expect(s.Len()).To(Equal(2))
			Expect(s.Force()).To(Equal("newton"))
			Expect(s.Method()).To(Equal("euler"))
			Expect(s.Dt).To(Equal(0.1))
			Expect(s.G).To(Equal(1.0))
			Expect(s.Pos[1]).To(Equal(r3.Vec{X: 1, Y: 1}))
			Expect(s.Vel).To(Equal([]r3.Vec{{}, {}}))
		})

		It("copies its inputs", func() {
			pos := []r3.Vec{{X: 1}, {X: 2}}
			s, err := starsystem.New(pos, []float64{1, 1})
			Expect(err).NotTo(HaveOccurred())
			pos[0].X = 42
			Expect(s.Pos[0].X).To(Equal(1.0))
		})

		DescribeTable("rejects invalid input",
			func(pos []r3.Vec, mass []float64, opts []starsystem.Option, want error) {
				_, err := starsystem.New(pos, mass, opts...)
				Expect(err).To(MatchError(want))
			},
			Entry("no bodies", []r3.Vec{}, []float64{}, nil, starsystem.ErrInvalidBodies),
			Entry("length mismatch", []r3.Vec{{}, {X: 1}}, []float64{1}, nil, starsystem.ErrInvalidBodies),
			Entry("zero mass", []r3.Vec{{}, {X: 1}}, []float64{1, 0}, nil, starsystem.ErrInvalidBodies),
			Entry("NaN position", []r3.Vec{{X: math.NaN()}}, []float64{1}, nil, starsystem.ErrInvalidBodies),
			Entry("velocity count", []r3.Vec{{}, {X: 1}}, []float64{1, 1},
				[]starsystem.Option{starsystem.WithVelocities([]r3.Vec{{}})}, starsystem.ErrInvalidBodies),
			Entry("zero dt", []r3.Vec{{}}, []float64{1},
				[]starsystem.Option{starsystem.WithDt(0)}, starsystem.ErrInvalidStep),
			Entry("negative softening", []r3.Vec{{}}, []float64{1},
				[]starsystem.Option{starsystem.WithSoftening(-1)}, starsystem.ErrInvalidParameter),
			Entry("unknown force", []r3.Vec{{}}, []float64{1},
				[]starsystem.Option{starsystem.WithForce("coulomb")}, starsystem.ErrUnknownForce),
			Entry("unknown method", []r3.Vec{{}}, []float64{1},
				[]starsystem.Option{starsystem.WithMethod("midpoint")}, starsystem.ErrUnknownMethod),
		)

		It("rejects rows that are neither 2-D nor 3-D", func() {
			_, err := starsystem.FromPlanar([][]float64{{0, 0, 0, 0}}, []float64{1})
			Expect(err).To(MatchError(starsystem.ErrInvalidBodies))
		})
	})

	Describe("interactions", func() {
		It("pairs the two planets of the example system once", func() {
			s, err := starsystem.FromPlanar([][]float64{{0, 0}, {1, 1}}, []float64{1, 0.9})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Interactions()).To(Equal([]starsystem.Pair{{I: 0, J: 1}}))
		})

		It("lists every unique pair in order", func() {
			pos, mass := randomBodies(4, 1)
			s, err := starsystem.New(pos, mass)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Interactions()).To(Equal([]starsystem.Pair{
				{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3},
			}))
		})

		It("has n(n-1)/2 pairs", func() {
			pos, mass := randomBodies(25, 2)
			s, err := starsystem.New(pos, mass)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Interactions()).To(HaveLen(25 * 24 / 2))
		})

		It("has none for a single body", func() {
			s, err := starsystem.New([]r3.Vec{{}}, []float64{1})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Interactions()).To(BeEmpty())
		})

		It("formats like an index matrix", func() {
			var buf bytes.Buffer
			Expect(starsystem.FormatPairs(&buf, []starsystem.Pair{{0, 1}})).To(Succeed())
			Expect(buf.String()).To(Equal("[[0 1]]\n"))

			buf.Reset()
			Expect(starsystem.FormatPairs(&buf, []starsystem.Pair{{0, 1}, {0, 2}, {1, 2}})).To(Succeed())
			Expect(buf.String()).To(Equal("[[0 1]\n [0 2]\n [1 2]]\n"))

			buf.Reset()
			Expect(starsystem.FormatPairs(&buf, []starsystem.Pair{{0, 10}, {9, 10}})).To(Succeed())
			Expect(buf.String()).To(Equal("[[ 0 10]\n [ 9 10]]\n"))

			buf.Reset()
			Expect(starsystem.FormatPairs(&buf, nil)).To(Succeed())
			Expect(buf.String()).To(Equal("[]\n"))
		})
	})

	Describe("newton force routine", func() {
		It("matches the inverse square law", func() {
			s, err := starsystem.New([]r3.Vec{{}, {X: 1}}, []float64{1, 2})
			Expect(err).NotTo(HaveOccurred())

			grad := s.Gradient()
			expectVec(grad[0], r3.Vec{X: -2}, 1e-12)
			expectVec(grad[1], r3.Vec{X: 2}, 1e-12)

			forces := s.Forces()
			expectVec(forces[0], r3.Vec{X: 2}, 1e-12)
			expectVec(forces[1], r3.Vec{X: -2}, 1e-12)
		})

		It("scales with G", func() {
			s, err := starsystem.New([]r3.Vec{{}, {Y: 2}}, []float64{1, 1}, starsystem.WithG(4))
			Expect(err).NotTo(HaveOccurred())
			expectVec(s.Forces()[0], r3.Vec{Y: 1}, 1e-12)
		})

		It("sums to zero", func() {
			pos, mass := randomBodies(7, 3)
			s, err := starsystem.New(pos, mass)
			Expect(err).NotTo(HaveOccurred())

			var total r3.Vec
			for _, g := range s.Gradient() {
				total = r3.Add(total, g)
			}
			expectVec(total, r3.Vec{}, 1e-10)
		})

		It("ignores coincident bodies", func() {
			s, err := starsystem.New([]r3.Vec{{X: 1}, {X: 1}}, []float64{1, 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Gradient()).To(Equal([]r3.Vec{{}, {}}))
		})

		It("gives the same answer in parallel", func() {
			pos, mass := randomBodies(100, 4)
			serial, err := starsystem.New(pos, mass)
			Expect(err).NotTo(HaveOccurred())
			parallel, err := starsystem.New(pos, mass, starsystem.WithWorkers(4))
			Expect(err).NotTo(HaveOccurred())

			want := serial.Gradient()
			got := parallel.Gradient()
			for i := range want {
				expectVec(got[i], want[i], 1e-9*(1+r3.Norm(want[i])))
			}
		})
	})

	Describe("plummer force routine", func() {
		It("stays finite for coincident bodies and softens close encounters", func() {
			s, err := starsystem.New([]r3.Vec{{}, {X: 0.01}}, []float64{1, 1},
				starsystem.WithForce("plummer"), starsystem.WithSoftening(0.1))
			Expect(err).NotTo(HaveOccurred())

			hard, err := starsystem.New([]r3.Vec{{}, {X: 0.01}}, []float64{1, 1})
			Expect(err).NotTo(HaveOccurred())

			Expect(r3.Norm(s.Forces()[0])).To(BeNumerically("<", r3.Norm(hard.Forces()[0])))
			Expect(dynamo.State{s.Forces()[0].X}.IsValid()).To(BeTrue())
		})
	})

	Describe("barneshut force routine", func() {
		It("is exact with theta zero", func() {
			pos, mass := randomBodies(30, 5)
			exact, err := starsystem.New(pos, mass)
			Expect(err).NotTo(HaveOccurred())
			tree, err := starsystem.New(pos, mass, starsystem.WithForce("barneshut"), starsystem.WithTheta(0))
			Expect(err).NotTo(HaveOccurred())

			want := exact.Gradient()
			got := tree.Gradient()
			for i := range want {
				expectVec(got[i], want[i], 1e-9*(1+r3.Norm(want[i])))
			}
		})

		It("applies softening like plummer", func() {
			pos, mass := randomBodies(30, 7)
			plummer, err := starsystem.New(pos, mass,
				starsystem.WithForce("plummer"), starsystem.WithSoftening(0.2))
			Expect(err).NotTo(HaveOccurred())
			tree, err := starsystem.New(pos, mass,
				starsystem.WithForce("barneshut"), starsystem.WithSoftening(0.2), starsystem.WithTheta(0))
			Expect(err).NotTo(HaveOccurred())

			want := plummer.Gradient()
			got := tree.Gradient()
			for i := range want {
				expectVec(got[i], want[i], 1e-9*(1+r3.Norm(want[i])))
			}
			Expect(tree.TotalEnergy()).To(BeNumerically("~", plummer.TotalEnergy(), 1e-9))
		})

		It("approximates newton with an opening angle", func() {
			pos, mass := randomBodies(100, 6)
			exact, err := starsystem.New(pos, mass)
			Expect(err).NotTo(HaveOccurred())
			tree, err := starsystem.New(pos, mass,
				starsystem.WithForce("barneshut"), starsystem.WithTheta(0.5), starsystem.WithWorkers(4))
			Expect(err).NotTo(HaveOccurred())

			want := exact.Gradient()
			got := tree.Gradient()
			var diff, norm float64
			for i := range want {
				diff += r3.Norm(r3.Sub(got[i], want[i]))
				norm += r3.Norm(want[i])
			}
			Expect(diff / norm).To(BeNumerically("<", 0.05))
		})
	})

	Describe("Move", func() {
		It("takes one explicit Euler step from the start-of-step state", func() {
			s, err := starsystem.New(
				[]r3.Vec{{}, {X: 1}},
				[]float64{1, 1},
				starsystem.WithVelocities([]r3.Vec{{Y: 0.5}, {Y: -0.5}}),
			)
			Expect(err).NotTo(HaveOccurred())

			Expect(s.Move()).To(Succeed())

			expectVec(s.Pos[0], r3.Vec{Y: 0.05}, 1e-12)
			expectVec(s.Pos[1], r3.Vec{X: 1, Y: -0.05}, 1e-12)
			expectVec(s.Vel[0], r3.Vec{X: 0.1, Y: 0.5}, 1e-12)
			expectVec(s.Vel[1], r3.Vec{X: -0.1, Y: -0.5}, 1e-12)
			Expect(s.Time).To(BeNumerically("~", 0.1, 1e-15))
		})

		It("conserves momentum under explicit Euler", func() {
			pos, mass := randomBodies(6, 7)
			s, err := starsystem.New(pos, mass, starsystem.WithDt(0.001))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Run(200)).To(Succeed())
			Expect(r3.Norm(s.Momentum())).To(BeNumerically("<", 1e-10))
		})

		It("leaves the system untouched when the step diverges", func() {
			s, err := starsystem.New([]r3.Vec{{X: 1e308}}, []float64{1},
				starsystem.WithVelocities([]r3.Vec{{X: 1e308}}), starsystem.WithDt(10))
			Expect(err).NotTo(HaveOccurred())

			Expect(s.Move()).To(MatchError(starsystem.ErrDiverged))
			Expect(s.Pos[0].X).To(Equal(1e308))
			Expect(s.Time).To(Equal(0.0))
		})

		It("drifts less with a symplectic method than with Euler", func() {
			euler := circularBinary("euler")
			leapfrog := circularBinary("leapfrog")
			e0 := euler.TotalEnergy()

			Expect(euler.Run(1000)).To(Succeed())
			Expect(leapfrog.Run(1000)).To(Succeed())

			eulerDrift := math.Abs((euler.TotalEnergy() - e0) / e0)
			leapDrift := math.Abs((leapfrog.TotalEnergy() - e0) / e0)
			Expect(leapDrift).To(BeNumerically("<", 1e-3))
			Expect(eulerDrift).To(BeNumerically(">", leapDrift))
		})
	})

	Describe("flat state", func() {
		It("round trips positions and velocities", func() {
			s := circularBinary("rk4")
			x := s.State()
			Expect(x).To(HaveLen(s.StateDim()))
			Expect(x[0]).To(Equal(-0.5))
			Expect(x[10]).To(BeNumerically("~", math.Sqrt(0.5), 1e-15))

			x[0] = -0.75
			Expect(s.SetState(x)).To(Succeed())
			Expect(s.Pos[0].X).To(Equal(-0.75))
		})

		It("rejects states of the wrong size", func() {
			s := circularBinary("rk4")
			Expect(s.SetState(dynamo.State{1, 2, 3})).To(MatchError(dynamo.ErrDimensionMismatch))
		})

		It("derives velocities and accelerations", func() {
			s := circularBinary("rk4")
			dx := s.Derive(s.State(), 0)
			Expect(dx[1]).To(BeNumerically("~", -math.Sqrt(0.5), 1e-15))
			// unit separation, unit masses: |a| = 1 toward the partner
			Expect(dx[6]).To(BeNumerically("~", 1, 1e-12))
			Expect(dx[9]).To(BeNumerically("~", -1, 1e-12))
		})
	})

	Describe("observables", func() {
		It("computes the two-body energy", func() {
			s, err := starsystem.New([]r3.Vec{{}, {X: 2}}, []float64{3, 4})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.TotalEnergy()).To(BeNumerically("~", -6, 1e-12))
		})

		It("computes centre of mass and angular momentum", func() {
			s := circularBinary("euler")
			expectVec(s.CenterOfMass(), r3.Vec{}, 1e-15)
			expectVec(s.AngularMomentum(), r3.Vec{Z: math.Sqrt(0.5)}, 1e-12)
		})

		It("clones independently", func() {
			s := circularBinary("leapfrog")
			c := s.Clone()
			Expect(c.Move()).To(Succeed())
			Expect(s.Time).To(Equal(0.0))
			Expect(c.Pos[0]).NotTo(Equal(s.Pos[0]))
		})
	})

	It("lists its force routines", func() {
		Expect(starsystem.ForceNames()).To(Equal([]string{"barneshut", "newton", "plummer"}))
	})
})
