package collision_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tubone24/monte-carlo-3d-app/internal/collision"
)

var _ = Describe("Simulator lifecycle", func() {
	var s *collision.Simulator

	BeforeEach(func() {
		cfg := collision.DefaultConfig()
		cfg.MassRatio = 1
		var err error
		s, err = collision.New(cfg)
		Expect(err).NotTo(HaveOccurred())
	})

	It("begins idle with the bodies placed", func() {
		Expect(s.State()).To(Equal(collision.Idle))
		Expect(s.Count()).To(BeZero())
		Expect(s.Stats().XP).To(BeNumerically(">", s.Stats().XQ))
	})

	It("runs when started", func() {
		Expect(s.Start()).To(Succeed())
		Expect(s.State()).To(Equal(collision.Running))

		s.Step(16.7)
		Expect(s.Stats().SimTimeS).To(BeNumerically(">", 0))
	})

	It("rejects a second start", func() {
		Expect(s.Start()).To(Succeed())
		Expect(s.Start()).NotTo(Succeed())
	})

	It("does not advance while idle", func() {
		before := s.Stats()
		s.Step(16.7)
		Expect(s.Stats()).To(Equal(before))
	})

	It("stops on request", func() {
		Expect(s.Start()).To(Succeed())
		s.Stop()
		Expect(s.State()).To(Equal(collision.Stopped))
	})

	It("resets to idle", func() {
		Expect(s.Start()).To(Succeed())
		for i := 0; i < 50; i++ {
			s.Step(16.7)
		}
		s.Reset()
		Expect(s.State()).To(Equal(collision.Idle))
		Expect(s.Count()).To(BeZero())
		Expect(s.Stats().SimTimeS).To(BeZero())
	})

	It("completes a unit-ratio run with three collisions", func() {
		Expect(s.Start()).To(Succeed())
		for i := 0; i < 5000 && s.State() == collision.Running; i++ {
			s.Step(16.7)
		}
		Expect(s.IsComplete()).To(BeTrue())
		Expect(s.Count()).To(Equal(3))
		Expect(s.Stats().PiEstimate).To(BeNumerically("~", 3.0))
	})

	Describe("mass ratio changes", func() {
		It("adopts a new ratio and discards the run", func() {
			Expect(s.Start()).To(Succeed())
			for i := 0; i < 20; i++ {
				s.Step(16.7)
			}

			Expect(s.SetMassRatio(100)).To(Succeed())
			Expect(s.ExpectedCollisions()).To(Equal(31))
			Expect(s.State()).To(Equal(collision.Idle))
			Expect(s.Count()).To(BeZero())
		})

		It("rejects non-positive ratios", func() {
			Expect(s.SetMassRatio(0)).To(MatchError(collision.ErrBadMassRatio))
			Expect(s.SetMassRatio(-1)).To(MatchError(collision.ErrBadMassRatio))
		})
	})
})
