package optim_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pendulab/internal/episode"
	"github.com/san-kum/pendulab/internal/objective"
	"github.com/san-kum/pendulab/internal/optim"
	"github.com/san-kum/pendulab/internal/physics"
)

var _ = Describe("Minimize", func() {
	var (
		ctx   context.Context
		truth physics.Params
		obj   *objective.Objective
	)

	BeforeEach(func() {
		ctx = context.Background()
		truth = physics.DefaultParams()
		eps := []episode.Episode{
			synthesize(truth, 0.5, 0.6, 0.2, -0.1),
			synthesize(truth, 1.2, 0.5, -0.2, 0.1),
		}
		obj = objective.New(eps, objective.DefaultBinding(), physics.DefaultParams())
	})

	It("does not end above its starting point", func() {
		x0 := []float64{35, 3.1, 0.7}
		start, err := obj.Evaluate(ctx, x0)
		Expect(err).NotTo(HaveOccurred())

		s := optim.DefaultSettings()
		s.MaxIterations = 20
		res, err := optim.Minimize(ctx, obj, x0, s)
		Expect(err).NotTo(HaveOccurred())

		Expect(res.Objective).To(BeNumerically("<=", start))
		Expect(res.Names).To(Equal([]string{"m_x", "m_y", "c_varphi"}))
		Expect(res.Values).To(HaveLen(3))
		Expect(res.Initial).To(Equal(x0))
		Expect(res.Params.MX).To(Equal(res.Values[0]))
		Expect(res.Params.KX).To(Equal(truth.KX))
		Expect(res.Iterations).To(BeNumerically("<=", 20))
		Expect(res.Evaluations).To(BeNumerically(">", 4))
		Expect(res.Status).NotTo(BeEmpty())
		Expect(res.Records).To(HaveLen(2))
		Expect(res.Map()).To(HaveKeyWithValue("m_y", res.Values[1]))
	})

	It("stays put when started at the optimum", func() {
		x0 := []float64{truth.MX, truth.MY, truth.CVarphi}
		s := optim.DefaultSettings()
		s.KeepRecords = false

		res, err := optim.Minimize(ctx, obj, x0, s)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Objective).To(BeNumerically("<", 1e-9))
		Expect(res.Records).To(BeNil())
	})

	It("fails fast on malformed data", func() {
		delete(obj.Episodes[0].Channels, "x_out_mess")

		_, err := optim.Minimize(ctx, obj, []float64{35, 3.1, 0.7}, optim.DefaultSettings())
		Expect(err).To(MatchError(ContainSubstring(`episode 0: channel "x_out_mess"`)))
	})

	It("checks the length of x0", func() {
		_, err := optim.Minimize(ctx, obj, []float64{35}, optim.DefaultSettings())
		Expect(err).To(HaveOccurred())
	})

	It("reports cancellation", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := optim.Minimize(cancelled, obj, []float64{35, 3.1, 0.7}, optim.DefaultSettings())
		Expect(err).To(MatchError(context.Canceled))
	})
})

var _ = Describe("GridSearch", func() {
	var obj *objective.Objective

	BeforeEach(func() {
		p := physics.DefaultParams()
		obj = objective.New([]episode.Episode{synthesize(p, 0.8, 0.6, 0.2, -0.1)}, objective.DefaultBinding(), p)
	})

	It("finds the generating parameters on the grid", func() {
		g := optim.NewGridSearch([][]float64{{30, 40}, {2, 3}, {0.12}})
		Expect(g.Size()).To(Equal(4))

		values, score, err := g.Search(context.Background(), obj)
		Expect(err).NotTo(HaveOccurred())
		Expect(values).To(Equal([]float64{40, 3, 0.12}))
		Expect(score).To(BeNumerically("<", 1e-9))
	})

	It("needs one axis per parameter", func() {
		_, _, err := optim.NewGridSearch([][]float64{{1}}).Search(context.Background(), obj)
		Expect(err).To(HaveOccurred())
	})

	It("rejects an empty axis", func() {
		_, _, err := optim.NewGridSearch([][]float64{{40}, {}, {0.12}}).Search(context.Background(), obj)
		Expect(err).To(MatchError(ContainSubstring("empty grid")))
	})
})
