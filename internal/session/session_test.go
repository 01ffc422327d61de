package session_test

import (
	"bytes"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/session"
	"github.com/san-kum/pidlab/internal/sim"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Split(strings.TrimSuffix(b.buf.String(), "\n"), "\n")
}

var _ = Describe("Session", func() {
	var (
		mock     *clock.Mock
		sess     *session.Session
		diag     *syncBuffer
		observed atomic.Int64
		period   time.Duration
	)

	tickCount := func() int { return sess.Snapshot().Tick }

	advance := func(n int) {
		for i := 0; i < n; i++ {
			want := tickCount() + 1
			mock.Add(period)
			Eventually(tickCount).Should(Equal(want))
		}
	}

	BeforeEach(func() {
		mock = clock.NewMock()
		diag = &syncBuffer{}
		observed.Store(0)

		cfg := sim.DefaultConfig()
		period = cfg.Period
		simulator, err := sim.New(cfg)
		Expect(err).NotTo(HaveOccurred())

		logger := zap.New(zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.AddSync(GinkgoWriter),
			zap.DebugLevel,
		)).Sugar()

		sess, err = session.New(simulator,
			session.WithClock(mock),
			session.WithLogger(logger),
			session.WithDiagnostics(diag),
			session.WithObserver(sim.ObserverFunc(func(sim.Snapshot) { observed.Add(1) })),
		)
		Expect(err).NotTo(HaveOccurred())

		DeferCleanup(func() {
			Expect(sess.Close()).To(Succeed())
		})
	})

	It("starts stopped with the object at the bottom", func() {
		Expect(sess.State()).To(Equal(session.Stopped))
		Expect(sess.Snapshot().Plant.Position).To(Equal(585.0))
	})

	Describe("Start", func() {
		It("ticks once per period and emits a diagnostic line per tick", func() {
			sess.Start()
			Expect(sess.State()).To(Equal(session.Running))

			advance(2)

			snap := sess.Snapshot()
			Expect(snap.Plant.Position).To(Equal(545.0))
			Expect(snap.Plant.Velocity).To(Equal(-20.0))
			Eventually(diag.Lines).Should(Equal([]string{
				"y=565;v=-20;pid=-285;",
				"y=545;v=-20;pid=-265;",
			}))
			Eventually(observed.Load).Should(BeEquivalentTo(2))
		})

		It("restarts from a full reset when already running", func() {
			sess.Start()
			advance(3)

			sess.Start()

			Expect(sess.State()).To(Equal(session.Running))
			snap := sess.Snapshot()
			Expect(snap.Tick).To(Equal(0))
			Expect(snap.Plant).To(Equal(sim.PlantState{Position: 585}))

			advance(1)
			Expect(sess.Snapshot().Plant.Position).To(Equal(565.0))
		})
	})

	Describe("Stop", func() {
		It("halts ticking", func() {
			sess.Start()
			advance(2)

			sess.Stop()
			Expect(sess.State()).To(Equal(session.Stopped))

			mock.Add(5 * period)
			Consistently(tickCount, 50*time.Millisecond).Should(Equal(2))
		})

		It("is a no-op when stopped", func() {
			sess.Stop()
			Expect(sess.State()).To(Equal(session.Stopped))
			Expect(sess.Snapshot().Plant.Position).To(Equal(585.0))
		})
	})

	Describe("Restart", func() {
		It("always performs a full reset", func() {
			sess.Start()
			advance(4)
			sess.Stop()

			sess.Restart()

			Expect(sess.State()).To(Equal(session.Running))
			Expect(sess.Snapshot().Tick).To(Equal(0))
			Expect(sess.Snapshot().Plant.Position).To(Equal(585.0))
		})
	})

	Describe("Configure", func() {
		It("takes effect on the next tick without resetting", func() {
			sess.Start()
			advance(1)
			before := sess.Snapshot()

			sess.Configure(control.Params{Reference: 300}, 0)
			after := sess.Snapshot()
			Expect(after.Plant).To(Equal(before.Plant))
			Expect(after.Controller).To(Equal(before.Controller))

			advance(1)
			snap := sess.Snapshot()
			Expect(snap.Plant.LastControlOutput).To(BeZero())
			Expect(snap.Plant.Velocity).To(Equal(-20.0))
			Expect(snap.Plant.Position).To(Equal(545.0))
		})

		It("survives a restart", func() {
			p := control.Params{Reference: 200, Kp: 0.5, Ki: 0.1, Kd: 0.02}
			sess.Configure(p, 1.5)

			sess.Start()

			got, load := sess.Params()
			Expect(got).To(Equal(p))
			Expect(load).To(Equal(1.5))
		})
	})

	Describe("without a diagnostics writer", func() {
		It("logs the diagnostic line at debug level", func() {
			core, logs := observer.New(zap.DebugLevel)
			simulator, err := sim.New(sim.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())

			quiet, err := session.New(simulator,
				session.WithClock(mock),
				session.WithLogger(zap.New(core).Sugar()),
			)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(func() {
				Expect(quiet.Close()).To(Succeed())
			})

			quiet.Start()
			mock.Add(period)
			Eventually(func() int { return quiet.Snapshot().Tick }).Should(Equal(1))

			Eventually(func() int { return logs.FilterMessage("tick").Len() }).Should(Equal(1))
			entry := logs.FilterMessage("tick").All()[0]
			Expect(entry.Level).To(Equal(zapcore.DebugLevel))
			Expect(entry.ContextMap()).To(HaveKeyWithValue("diagnostic", "y=565;v=-20;pid=-285;"))
		})
	})
})
