package engine_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/black-desk/dirwatch/internal/engine"
	"github.com/black-desk/dirwatch/pkg/dirwatch/config"
	"github.com/black-desk/dirwatch/pkg/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// recorder collects deliveries from the engine. Channels are buffered
// so the delivery callbacks never block the engine goroutine.
type recorder struct {
	name    string
	created chan string
	changed chan string
	deleted chan string
}

func newRecorder(name string) *recorder {
	return &recorder{
		name:    name,
		created: make(chan string, 64),
		changed: make(chan string, 64),
		deleted: make(chan string, 64),
	}
}

func (r *recorder) Name() string            { return r.name }
func (r *recorder) PathCreated(path string) { r.created <- path }
func (r *recorder) PathChanged(path string) { r.changed <- path }
func (r *recorder) PathDeleted(path string) { r.deleted <- path }

func touch(path string) {
	now := time.Now().Add(time.Hour)
	Expect(os.Chtimes(path, now, now)).To(Succeed())
}

var _ = Describe("Watch engine with the stat backend", func() {
	var (
		eng    *engine.Engine
		rec    *recorder
		tmpDir string
		err    error
	)

	BeforeEach(func() {
		tmpDir, err = os.MkdirTemp("", "dirwatch-test-*")
		Expect(err).To(Succeed())

		rec = newRecorder("recorder")

		eng, err = engine.New(
			engine.WithConfig(&config.Config{
				Version:      1,
				Method:       "stat",
				PollInterval: 10,
			}),
		)
		Expect(err).To(Succeed())
	})

	AfterEach(func() {
		eng.Close()

		err = os.RemoveAll(tmpDir)
		Expect(err).To(Succeed())
	})

	Context("watching an existing file", func() {
		var file string

		BeforeEach(func() {
			file = filepath.Join(tmpDir, "file")
			Expect(os.WriteFile(file, []byte("a"), 0o644)).To(Succeed())

			eng.AddEntry(rec, file, false, types.WatchDirOnly)
		})

		It("should know the path", func() {
			Expect(eng.Contains(rec, file)).To(BeTrue())
			Expect(eng.CTime(file).IsZero()).To(BeFalse())
			Expect(eng.Method(file)).To(Equal(types.MethodStat))
		})

		It("should report a change when the file is touched", func() {
			touch(file)

			Eventually(rec.changed, "3s").Should(Receive(Equal(file)))
		})

		It("should report deletion and later recreation", func() {
			Expect(os.Remove(file)).To(Succeed())
			Eventually(rec.deleted, "3s").Should(Receive(Equal(file)))

			Expect(os.WriteFile(file, []byte("b"), 0o644)).To(Succeed())
			Eventually(rec.created, "3s").Should(Receive(Equal(file)))
		})

		It("should report deletion and creation when the inode is swapped", func() {
			other := filepath.Join(tmpDir, "other")
			Expect(os.WriteFile(other, []byte("b"), 0o644)).To(Succeed())

			Expect(os.Rename(other, file)).To(Succeed())

			Eventually(rec.deleted, "3s").Should(Receive(Equal(file)))
			Eventually(rec.created, "3s").Should(Receive(Equal(file)))
		})

		It("should drop one registration per removal", func() {
			eng.AddEntry(rec, file, false, types.WatchDirOnly)

			eng.RemoveEntry(rec, file)
			Expect(eng.Contains(rec, file)).To(BeTrue())

			eng.RemoveEntry(rec, file)
			Expect(eng.Contains(rec, file)).To(BeFalse())
		})

		It("should forget every path on subscriber removal", func() {
			eng.RemoveSubscriber(rec)

			Expect(eng.Contains(rec, file)).To(BeFalse())
		})
	})

	Context("watching a path that does not exist yet", func() {
		It("should report creation once the path appears", func() {
			file := filepath.Join(tmpDir, "missing")
			eng.AddEntry(rec, file, false, types.WatchDirOnly)

			Expect(eng.CTime(file).IsZero()).To(BeTrue())

			Expect(os.WriteFile(file, []byte("a"), 0o644)).To(Succeed())

			Eventually(rec.created, "3s").Should(Receive(Equal(file)))
			Expect(eng.CTime(file).IsZero()).To(BeFalse())
		})

		It("should report creation even through missing ancestors", func() {
			file := filepath.Join(tmpDir, "a", "b", "file")
			eng.AddEntry(rec, file, false, types.WatchDirOnly)

			Expect(os.MkdirAll(filepath.Dir(file), 0o755)).To(Succeed())
			Expect(os.WriteFile(file, []byte("a"), 0o644)).To(Succeed())

			Eventually(rec.created, "3s").Should(Receive(Equal(file)))
		})
	})

	Context("suspending a single path", func() {
		var file string

		BeforeEach(func() {
			file = filepath.Join(tmpDir, "file")
			Expect(os.WriteFile(file, []byte("a"), 0o644)).To(Succeed())

			eng.AddEntry(rec, file, false, types.WatchDirOnly)
		})

		It("should not deliver what happened while suspended", func() {
			Expect(eng.StopEntryScan(rec, file)).To(BeTrue())

			touch(file)
			time.Sleep(100 * time.Millisecond)

			Expect(eng.RestartEntryScan(rec, file, false)).To(BeTrue())
			Consistently(rec.changed, "300ms").ShouldNot(Receive())
		})

		It("should resume delivery after the restart", func() {
			Expect(eng.StopEntryScan(rec, file)).To(BeTrue())
			Expect(eng.RestartEntryScan(rec, file, false)).To(BeTrue())

			touch(file)

			Eventually(rec.changed, "3s").Should(Receive(Equal(file)))
		})
	})

	Context("suspending the whole subscriber", func() {
		var file string

		BeforeEach(func() {
			file = filepath.Join(tmpDir, "file")
			Expect(os.WriteFile(file, []byte("a"), 0o644)).To(Succeed())

			eng.AddEntry(rec, file, false, types.WatchDirOnly)
		})

		It("should swallow changes made while stopped and resume afterwards", func() {
			eng.StopScan(rec)

			touch(file)
			time.Sleep(100 * time.Millisecond)

			eng.StartScan(rec, false, false)
			Consistently(rec.changed, "300ms").ShouldNot(Receive())

			touch(file)
			Eventually(rec.changed, "3s").Should(Receive(Equal(file)))
		})
	})
})

var _ = Describe("Watch engine with the inotify backend", func() {
	var (
		eng    *engine.Engine
		rec    *recorder
		tmpDir string
		err    error
	)

	BeforeEach(func() {
		tmpDir, err = os.MkdirTemp("", "dirwatch-test-*")
		Expect(err).To(Succeed())

		rec = newRecorder("recorder")

		eng, err = engine.New(
			engine.WithConfig(&config.Config{
				Version:      1,
				Method:       "inotify",
				PollInterval: 10,
			}),
		)
		Expect(err).To(Succeed())
	})

	AfterEach(func() {
		eng.Close()

		err = os.RemoveAll(tmpDir)
		Expect(err).To(Succeed())
	})

	requireINotify := func(path string) {
		if eng.Method(path) != types.MethodINotify {
			Skip("inotify is not available here")
		}
	}

	Context("watching a directory with interest in children", func() {
		BeforeEach(func() {
			eng.AddEntry(rec, tmpDir, true, types.WatchFiles|types.WatchSubDirs)
			requireINotify(tmpDir)
		})

		It("should report a new file inside the directory", func() {
			child := filepath.Join(tmpDir, "child")
			Expect(os.WriteFile(child, []byte("a"), 0o644)).To(Succeed())

			Eventually(rec.created, "3s").Should(Receive(Equal(child)))
		})

		It("should report a new subdirectory and changes within it", func() {
			sub := filepath.Join(tmpDir, "sub")
			Expect(os.Mkdir(sub, 0o755)).To(Succeed())

			Eventually(rec.created, "3s").Should(Receive(Equal(sub)))

			inner := filepath.Join(sub, "inner")
			Expect(os.WriteFile(inner, []byte("a"), 0o644)).To(Succeed())

			Eventually(rec.created, "3s").Should(Receive(Equal(inner)))
		})

		It("should report a deleted child", func() {
			child := filepath.Join(tmpDir, "child")
			Expect(os.WriteFile(child, []byte("a"), 0o644)).To(Succeed())
			Eventually(rec.created, "3s").Should(Receive(Equal(child)))

			Expect(os.Remove(child)).To(Succeed())
			Eventually(rec.deleted, "3s").Should(Receive(Equal(child)))
		})

		It("should report a modified child", func() {
			child := filepath.Join(tmpDir, "child")
			Expect(os.WriteFile(child, []byte("a"), 0o644)).To(Succeed())
			Eventually(rec.created, "3s").Should(Receive(Equal(child)))

			Expect(os.WriteFile(child, []byte("bb"), 0o644)).To(Succeed())
			Eventually(rec.changed, "3s").Should(Receive(Equal(child)))
		})
	})

	Context("watching a single file", func() {
		var file string

		BeforeEach(func() {
			file = filepath.Join(tmpDir, "file")
			Expect(os.WriteFile(file, []byte("a"), 0o644)).To(Succeed())

			eng.AddEntry(rec, file, false, types.WatchDirOnly)
			requireINotify(file)
		})

		It("should report modifications", func() {
			Expect(os.WriteFile(file, []byte("bb"), 0o644)).To(Succeed())

			Eventually(rec.changed, "3s").Should(Receive(Equal(file)))
		})

		It("should survive deletion and recreation of the path", func() {
			Expect(os.Remove(file)).To(Succeed())
			Eventually(rec.deleted, "3s").Should(Receive(Equal(file)))

			Expect(os.WriteFile(file, []byte("c"), 0o644)).To(Succeed())
			Eventually(rec.created, "3s").Should(Receive(Equal(file)))

			Expect(os.WriteFile(file, []byte("dd"), 0o644)).To(Succeed())
			Eventually(rec.changed, "3s").Should(Receive(Equal(file)))
		})
	})
})

func TestEngine(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Watch Engine Suite")
}
