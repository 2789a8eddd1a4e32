//go:build integration

package integration

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/Paarth01/Focus-Mode/internal/control"
	"github.com/Paarth01/Focus-Mode/internal/daemon"
	"github.com/Paarth01/Focus-Mode/internal/domain"
	"github.com/Paarth01/Focus-Mode/internal/infra"
	"github.com/Paarth01/Focus-Mode/internal/policy"
	"github.com/Paarth01/Focus-Mode/internal/usecase"
	"github.com/Paarth01/Focus-Mode/test/fixtures"
)

const (
	waitFor  = 5 * time.Second
	tickEach = 100 * time.Millisecond
)

// scriptedProbe stands in for the X11 probe.
type scriptedProbe struct {
	mu      sync.Mutex
	subject string
	ok      bool
}

func (p *scriptedProbe) Name() string { return "scripted" }

func (p *scriptedProbe) Probe(context.Context) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.subject, p.ok
}

func (p *scriptedProbe) focus(subject string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subject = subject
	p.ok = true
}

func (p *scriptedProbe) goDark() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subject = ""
	p.ok = false
}

// scriptedRunner records every executed command; reads are scripted.
type scriptedRunner struct {
	mu      sync.Mutex
	outputs map[string]string
	calls   []string
}

func newScriptedRunner() *scriptedRunner {
	return &scriptedRunner{outputs: make(map[string]string)}
}

func (r *scriptedRunner) script(line, out string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputs[line] = out
}

func (r *scriptedRunner) Run(_ context.Context, name string, args ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, strings.Join(append([]string{name}, args...), " "))
	return nil
}

func (r *scriptedRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	line := strings.Join(append([]string{name}, args...), " ")
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, line)
	out, ok := r.outputs[line]
	if !ok {
		return nil, fmt.Errorf("no output scripted for %q", line)
	}
	return []byte(out), nil
}

func (r *scriptedRunner) saw(line string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if c == line {
			return true
		}
	}
	return false
}

// scriptedPM stands in for the gopsutil process manager.
type scriptedPM struct {
	mu        sync.Mutex
	byPattern map[string][]int
	killed    []int
}

func newScriptedPM() *scriptedPM {
	return &scriptedPM{byPattern: make(map[string][]int)}
}

func (m *scriptedPM) FindByName(pattern string) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.byPattern[pattern]...), nil
}

func (m *scriptedPM) Terminate(pid int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.killed = append(m.killed, pid)
	return nil
}

func (m *scriptedPM) BusiestProcess() (string, error) {
	return "", fmt.Errorf("not scripted")
}

func (m *scriptedPM) terminated() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.killed...)
}

var _ = Describe("Focus daemon", func() {
	var (
		desk    *fixtures.FakeDesktop
		probe   *scriptedProbe
		runner  *scriptedRunner
		pm      *scriptedPM
		store   *infra.SQLiteStore
		ctrl    *daemon.Controller
		ctx     context.Context
		cancel  context.CancelFunc
		runDone chan error
	)

	startDaemon := func() {
		go func() { runDone <- ctrl.Run(ctx) }()
	}

	mode := func() domain.Mode { return ctrl.Status().Mode }

	lastRecordMode := func() domain.Mode {
		recs, err := store.Recent(1)
		if err != nil || len(recs) == 0 {
			return ""
		}
		return recs[0].Mode
	}

	BeforeEach(func() {
		desk = fixtures.NewFakeDesktop(GinkgoT().TempDir())
		Expect(desk.Create()).To(Succeed())

		logger := zap.NewNop()
		loader := policy.NewLoader(desk.ConfigFile, desk.SitesFile, logger)
		Expect(loader.Load()).To(Succeed())
		cfg := loader.Config()

		var err error
		store, err = infra.NewSQLiteStore(desk.DBFile, nil)
		Expect(err).NotTo(HaveOccurred())

		probe = &scriptedProbe{}
		runner = newScriptedRunner()
		runner.script("pactl get-sink-mute @DEFAULT_SINK@", "Mute: no\n")
		runner.script("gsettings get org.gnome.shell.extensions.dash-to-dock autohide", "false\n")

		pm = newScriptedPM()
		pm.byPattern["firefox"] = []int{9301}
		pm.byPattern["vlc"] = []int{9302}

		actions := []domain.EnforcementAction{
			infra.NewHostsBlock(cfg.HostsFile, cfg.RedirectIP, loader.Sites, logger),
			infra.NewProcessKill(pm, loader.DistractingApps, logger),
			infra.NewAudioMute(runner, cfg.ProbeTimeout, logger),
			infra.NewDockHide(runner, cfg.ProbeTimeout, logger),
		}

		engine := usecase.NewEngine(actions, store, "itest-run", logger)
		ctrl = daemon.NewController(loader, probe, engine, "0.0.0", "itest-run", logger)

		ctx, cancel = context.WithCancel(context.Background())
		runDone = make(chan error, 1)
	})

	AfterEach(func() {
		cancel()
		Eventually(runDone, waitFor).Should(Receive(BeNil()))
		Expect(store.Close()).To(Succeed())
	})

	Context("when a distracting app takes focus", func() {
		It("enters distracted mode and applies all enforcement", func() {
			probe.focus("firefox")
			startDaemon()

			Eventually(mode, waitFor, tickEach).Should(Equal(domain.ModeDistracted))

			Eventually(func() bool { return desk.HostsRedirects("youtube.com") }, waitFor, tickEach).Should(BeTrue())
			Expect(desk.HostsRedirects("reddit.com")).To(BeTrue())

			Eventually(pm.terminated, waitFor, tickEach).Should(ContainElements(9301, 9302))
			Eventually(func() bool { return runner.saw("pactl set-sink-mute @DEFAULT_SINK@ 1") },
				waitFor, tickEach).Should(BeTrue())
			Eventually(func() bool {
				return runner.saw("gsettings set org.gnome.shell.extensions.dash-to-dock autohide true")
			}, waitFor, tickEach).Should(BeTrue())

			Eventually(lastRecordMode, waitFor, tickEach).Should(Equal(domain.ModeDistracted))

			st := ctrl.Status()
			Expect(st.Subject).To(Equal("firefox"))
			Expect(st.Enforcement["hosts"]).To(BeTrue())
			Expect(st.Enforcement["kill"]).To(BeTrue())
		})
	})

	Context("when focus returns to productive work", func() {
		It("reverts enforcement and logs the transition", func() {
			probe.focus("firefox")
			startDaemon()
			Eventually(mode, waitFor, tickEach).Should(Equal(domain.ModeDistracted))

			probe.focus("code")
			Eventually(mode, waitFor, tickEach).Should(Equal(domain.ModeProductive))

			Eventually(desk.HostsClean, waitFor, tickEach).Should(BeTrue())
			Eventually(func() bool { return runner.saw("pactl set-sink-mute @DEFAULT_SINK@ 0") },
				waitFor, tickEach).Should(BeTrue())
			Eventually(func() bool {
				return runner.saw("gsettings set org.gnome.shell.extensions.dash-to-dock autohide false")
			}, waitFor, tickEach).Should(BeTrue())

			recs, err := store.Recent(2)
			Expect(err).NotTo(HaveOccurred())
			Expect(recs).To(HaveLen(2))
			Expect(recs[0].Mode).To(Equal(domain.ModeProductive))
			Expect(recs[0].AppName).To(Equal("code"))
			Expect(recs[1].Mode).To(Equal(domain.ModeDistracted))
		})
	})

	Context("when the window probe goes dark", func() {
		It("holds the current mode and keeps enforcing", func() {
			probe.focus("firefox")
			startDaemon()
			Eventually(mode, waitFor, tickEach).Should(Equal(domain.ModeDistracted))

			probe.goDark()

			Consistently(mode, 1500*time.Millisecond, tickEach).Should(Equal(domain.ModeDistracted))
			Expect(desk.HostsRedirects("youtube.com")).To(BeTrue())

			Eventually(func() domain.ErrorClass {
				if le := ctrl.Status().LastError; le != nil {
					return le.Class
				}
				return ""
			}, waitFor, tickEach).Should(Equal(domain.ErrorClassProbe))
		})
	})

	Context("when the daemon stops while distracted", func() {
		It("reverts everything and logs idle", func() {
			probe.focus("firefox")
			startDaemon()
			Eventually(mode, waitFor, tickEach).Should(Equal(domain.ModeDistracted))

			cancel()

			Eventually(desk.HostsClean, waitFor, tickEach).Should(BeTrue())
			Eventually(func() bool { return runner.saw("pactl set-sink-mute @DEFAULT_SINK@ 0") },
				waitFor, tickEach).Should(BeTrue())
			Eventually(lastRecordMode, waitFor, tickEach).Should(Equal(domain.ModeIdle))

			recs, err := store.Recent(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(recs[0].AppName).To(BeEmpty())
		})
	})

	Context("over the control socket", func() {
		It("serves status and performs a clean stop", func() {
			srv := control.NewServer(desk.SocketPath, &socketHandle{ctrl: ctrl, cancel: cancel}, zap.NewNop())
			Expect(srv.Start()).To(Succeed())

			probe.focus("firefox")
			go func() {
				err := ctrl.Run(ctx)
				srv.Close()
				runDone <- err
			}()

			client := control.NewClient(desk.SocketPath)
			Eventually(func() bool { return client.Alive(context.Background()) },
				waitFor, tickEach).Should(BeTrue())

			Eventually(func() domain.Mode {
				st, err := client.Status(context.Background())
				if err != nil {
					return ""
				}
				return st.Mode
			}, waitFor, tickEach).Should(Equal(domain.ModeDistracted))

			st, err := client.Status(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(st.Running).To(BeTrue())
			Expect(st.RunID).To(Equal("itest-run"))

			stopCtx, stopCancel := context.WithTimeout(context.Background(), waitFor)
			defer stopCancel()
			Expect(client.Stop(stopCtx)).To(Succeed())

			Expect(client.Alive(context.Background())).To(BeFalse())
			Eventually(desk.HostsClean, waitFor, tickEach).Should(BeTrue())
		})
	})
})

// socketHandle adapts the controller to the control server surface.
type socketHandle struct {
	ctrl   *daemon.Controller
	cancel context.CancelFunc
}

func (h *socketHandle) Status() domain.Status { return h.ctrl.Status() }

func (h *socketHandle) RequestStop() { h.cancel() }
