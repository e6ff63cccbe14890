package objective_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pendulab/internal/control"
	"github.com/san-kum/pendulab/internal/dynamo"
	"github.com/san-kum/pendulab/internal/episode"
	"github.com/san-kum/pendulab/internal/integrators"
	"github.com/san-kum/pendulab/internal/objective"
	"github.com/san-kum/pendulab/internal/physics"
	"github.com/san-kum/pendulab/internal/sim"
)

// synthesize simulates the model from rest and stores the outputs under the
// channel names of the default binding. The commands step after both
// dead times so delaying them changes nothing.
func synthesize(p physics.Params, cart, l, stepAt, cartCmd, cableCmd float64) episode.Episode {
	ts := control.Linspace(0, 3, 61)
	u1 := control.Sample(control.Step{At: stepAt, After: cartCmd}, ts)
	u2 := control.Sample(control.Step{At: stepAt, After: cableCmd}, ts)
	in, err := control.NewInputSignal(ts, u1, u2)
	Expect(err).NotTo(HaveOccurred())

	x0 := dynamo.State{0, 0, l, 0, 0, cart}
	res, err := sim.New(physics.NewCableCart(p), integrators.NewRK45()).Simulate(context.Background(), ts, x0, in)
	Expect(err).NotTo(HaveOccurred())

	return episode.Episode{
		Timestamps: ts,
		Channels: map[string][]float64{
			"x_const_mess": u1,
			"y_const_mess": u2,
			"x_out_mess":   res.Output(physics.OutCart),
			"y_out_mess":   res.Output(physics.OutCable),
			"phi_out_mess": res.Output(physics.OutAngle),
		},
	}
}

var _ = Describe("Objective", func() {
	var (
		ctx      context.Context
		truth    physics.Params
		episodes []episode.Episode
		obj      *objective.Objective
	)

	BeforeEach(func() {
		ctx = context.Background()
		truth = physics.DefaultParams()
		episodes = []episode.Episode{
			synthesize(truth, 0.5, 0.6, 0.5, 0.1, -0.1),
			synthesize(truth, 1.0, 0.4, 0.6, -0.2, 0.2),
			synthesize(truth, 1.5, 0.8, 0.5, 0.15, 0),
		}
		obj = objective.New(episodes, objective.DefaultBinding(), physics.DefaultParams())
	})

	It("accepts well formed episodes", func() {
		Expect(obj.Validate()).To(Succeed())
	})

	Context("with the generating parameters", func() {
		It("reproduces the data", func() {
			v, err := obj.Evaluate(ctx, []float64{truth.MX, truth.MY, truth.CVarphi})
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(BeNumerically("<", 1e-9))
		})

		It("treats nil as the base parameters", func() {
			v, err := obj.Evaluate(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(BeNumerically("<", 1e-9))
		})
	})

	It("scores wrong parameters worse", func() {
		good, err := obj.Evaluate(ctx, nil)
		Expect(err).NotTo(HaveOccurred())

		bad, err := obj.Evaluate(ctx, []float64{20, 6, 0.5})
		Expect(err).NotTo(HaveOccurred())
		Expect(bad).To(BeNumerically(">", good+1e-6))
	})

	Context("when an episode fails to integrate", func() {
		// m_x = -m_y cancels the common denominator at rest
		degenerate := []float64{-3, 3, 0.12}

		It("returns exactly the penalty", func() {
			v, err := obj.Evaluate(ctx, degenerate)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(1000.0))
		})

		It("drops the records", func() {
			v, records, err := obj.EvaluateRecords(ctx, degenerate)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(objective.DefaultPenalty))
			Expect(records).To(BeNil())
		})

		It("uses the configured penalty", func() {
			obj.Penalty = 50
			obj.Workers = 2
			Expect(obj.Evaluate(ctx, degenerate)).To(Equal(50.0))
		})
	})

	Context("when the state diverges", func() {
		// a negative cart mass grows without bound while staying finite
		diverging := []float64{-10, 3, 0.12}

		It("returns exactly the penalty", func() {
			v, records, err := obj.EvaluateRecords(ctx, diverging)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(objective.DefaultPenalty))
			Expect(records).To(BeNil())
		})

		It("follows the configured state limit", func() {
			obj.StateLimit = 1e-3
			Expect(obj.Evaluate(ctx, nil)).To(Equal(objective.DefaultPenalty))
		})
	})

	It("returns one record per episode", func() {
		total, records, err := obj.EvaluateRecords(ctx, []float64{38, 3, 0.2})
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(len(episodes)))

		sum := 0.0
		for i, r := range records {
			Expect(r.Index).To(Equal(i))
			Expect(r.Channels).To(Equal([]string{"x_out_mess", "y_out_mess", "phi_out_mess"}))
			Expect(r.Measured).To(HaveLen(3))
			Expect(r.Simulated).To(HaveLen(3))
			Expect(r.Simulated[0]).To(HaveLen(len(r.Timestamps)))
			sum += r.Error
		}
		Expect(total).To(BeNumerically("~", sum, 1e-12))
	})

	It("gives the same result with parallel workers", func() {
		values := []float64{36, 3.2, 0.3}
		serial, err := obj.Evaluate(ctx, values)
		Expect(err).NotTo(HaveOccurred())

		obj.Workers = 3
		parallel, err := obj.Evaluate(ctx, values)
		Expect(err).NotTo(HaveOccurred())
		Expect(parallel).To(Equal(serial))
	})

	It("rejects a vector of the wrong length", func() {
		_, err := obj.Evaluate(ctx, []float64{1, 2})
		Expect(errors.Is(err, dynamo.ErrDimensionMismatch)).To(BeTrue())
	})

	Context("with malformed data", func() {
		It("names the episode and the missing channel", func() {
			delete(episodes[1].Channels, "phi_out_mess")

			err := obj.Validate()
			var dataErr *objective.DataError
			Expect(errors.As(err, &dataErr)).To(BeTrue())
			Expect(dataErr.Episode).To(Equal(1))
			Expect(dataErr.Channel).To(Equal("phi_out_mess"))
			Expect(err.Error()).To(ContainSubstring("episode 1"))

			_, err = obj.Evaluate(ctx, nil)
			Expect(errors.As(err, &dataErr)).To(BeTrue())
		})

		It("reports a length mismatch", func() {
			episodes[2].Channels["x_const_mess"] = episodes[2].Channels["x_const_mess"][:10]

			err := obj.Validate()
			Expect(err).To(MatchError(ContainSubstring(`episode 2: channel "x_const_mess"`)))
		})

		It("needs enough samples for the initial state", func() {
			episodes[0] = episode.Episode{
				Timestamps: []float64{0, 0.1, 0.2},
				Channels:   episodes[0].Channels,
			}
			Expect(obj.Validate()).To(MatchError(ContainSubstring("episode 0")))
		})

		It("rejects an empty episode set", func() {
			obj.Episodes = nil
			Expect(obj.Validate()).NotTo(Succeed())
		})

		It("checks input lengths without Validate", func() {
			episodes[1].Channels["y_const_mess"] = episodes[1].Channels["y_const_mess"][:20]

			_, err := obj.Evaluate(ctx, nil)
			var dataErr *objective.DataError
			Expect(errors.As(err, &dataErr)).To(BeTrue())
			Expect(dataErr.Episode).To(Equal(1))
			Expect(dataErr.Channel).To(Equal("y_const_mess"))
		})

		It("checks state channel lengths without Validate", func() {
			episodes[0].Channels["phi_out_mess"] = episodes[0].Channels["phi_out_mess"][:5]

			_, err := obj.Evaluate(ctx, nil)
			var dataErr *objective.DataError
			Expect(errors.As(err, &dataErr)).To(BeTrue())
			Expect(dataErr.Channel).To(Equal("phi_out_mess"))
		})

		It("refuses to evaluate no episodes", func() {
			obj.Episodes = nil
			_, err := obj.Evaluate(ctx, nil)
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("Binding", func() {
	It("validates the default binding", func() {
		Expect(objective.DefaultBinding().Validate()).To(Succeed())
	})

	DescribeTable("rejects broken bindings",
		func(mutate func(*objective.Binding)) {
			b := objective.DefaultBinding()
			mutate(&b)
			Expect(b.Validate()).NotTo(Succeed())
		},
		Entry("one input", func(b *objective.Binding) { b.InputChannels = b.InputChannels[:1] }),
		Entry("missing delay", func(b *objective.Binding) { b.InputDelays = []float64{0.3} }),
		Entry("short state map", func(b *objective.Binding) { b.StateChannels = b.StateChannels[:5] }),
		Entry("weights mismatch", func(b *objective.Binding) { b.OutputWeights = []float64{1} }),
		Entry("unknown parameter", func(b *objective.Binding) { b.ParamNames = []string{"mass"} }),
		Entry("negative index", func(b *objective.Binding) { b.InitialIndex = -1 }),
	)
})
