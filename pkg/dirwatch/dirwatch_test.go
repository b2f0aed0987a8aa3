package dirwatch_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/black-desk/dirwatch/internal/engine"
	"github.com/black-desk/dirwatch/pkg/dirwatch"
	"github.com/black-desk/dirwatch/pkg/dirwatch/config"
	"github.com/black-desk/dirwatch/pkg/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Watcher", func() {
	var (
		eng    *engine.Engine
		w      *dirwatch.Watcher
		tmpDir string
		err    error
	)

	BeforeEach(func() {
		tmpDir, err = os.MkdirTemp("", "dirwatch-test-*")
		Expect(err).To(Succeed())

		eng, err = engine.New(
			engine.WithConfig(&config.Config{
				Version:      1,
				Method:       "stat",
				PollInterval: 10,
			}),
		)
		Expect(err).To(Succeed())

		w, err = dirwatch.New(
			dirwatch.WithEngine(eng),
			dirwatch.WithName("test-watcher"),
		)
		Expect(err).To(Succeed())
	})

	AfterEach(func() {
		w.Close()
		eng.Close()

		err = os.RemoveAll(tmpDir)
		Expect(err).To(Succeed())
	})

	It("should carry the given name", func() {
		Expect(w.Name()).To(Equal("test-watcher"))
	})

	It("should refuse a nil engine", func() {
		_, err := dirwatch.New(dirwatch.WithEngine(nil))
		Expect(err).To(MatchError(dirwatch.ErrEngineMissing))
	})

	Context("watching a file", func() {
		var file string

		BeforeEach(func() {
			file = filepath.Join(tmpDir, "file")
			Expect(os.WriteFile(file, []byte("a"), 0o644)).To(Succeed())

			w.AddFile(file)
		})

		It("should know the path", func() {
			Expect(w.Contains(file)).To(BeTrue())
			Expect(w.CTime(file).IsZero()).To(BeFalse())
			Expect(w.InternalMethod(file)).To(Equal(types.MethodStat))
		})

		It("should deliver a change on its channel", func() {
			now := time.Now().Add(time.Hour)
			Expect(os.Chtimes(file, now, now)).To(Succeed())

			Eventually(w.Changed(), "3s").Should(Receive(Equal(file)))
		})

		It("should deliver deletion and recreation", func() {
			Expect(os.Remove(file)).To(Succeed())
			Eventually(w.Deleted(), "3s").Should(Receive(Equal(file)))

			Expect(os.WriteFile(file, []byte("b"), 0o644)).To(Succeed())
			Eventually(w.Created(), "3s").Should(Receive(Equal(file)))
		})

		It("should pause and resume with StopScan and StartScan", func() {
			Expect(w.IsStopped()).To(BeFalse())

			w.StopScan()
			Expect(w.IsStopped()).To(BeTrue())

			now := time.Now().Add(time.Hour)
			Expect(os.Chtimes(file, now, now)).To(Succeed())
			time.Sleep(100 * time.Millisecond)

			w.StartScan(false, false)
			Expect(w.IsStopped()).To(BeFalse())
			Consistently(w.Changed(), "300ms").ShouldNot(Receive())
		})
	})

	Context("watching a directory", func() {
		It("should resolve relative paths against the working directory", func() {
			cwd, err := os.Getwd()
			Expect(err).To(Succeed())

			rel, err := filepath.Rel(cwd, tmpDir)
			Expect(err).To(Succeed())

			w.AddDir(rel)
			Expect(w.Contains(tmpDir)).To(BeTrue())
		})

		It("should report the directory as changed when a child appears", func() {
			w.AddDir(tmpDir)

			Expect(os.WriteFile(
				filepath.Join(tmpDir, "child"), []byte("a"), 0o644,
			)).To(Succeed())

			Eventually(w.Changed(), "3s").Should(Receive(Equal(tmpDir)))
		})
	})

	Context("after Close", func() {
		It("should turn every call into a no-op", func() {
			file := filepath.Join(tmpDir, "file")
			Expect(os.WriteFile(file, []byte("a"), 0o644)).To(Succeed())

			w.Close()
			w.Close()

			w.AddFile(file)
			Expect(w.Contains(file)).To(BeFalse())
			Expect(w.CTime(file).IsZero()).To(BeTrue())
			Expect(w.InternalMethod(file)).To(Equal(types.MethodUnknown))
		})
	})
})

func TestDirwatch(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Watcher Suite")
}
