package fstype_test

import (
	"path/filepath"
	"testing"

	"github.com/black-desk/dirwatch/internal/fstype"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Filesystem probing", func() {
	It("should classify the root filesystem", func() {
		Expect(fstype.Probe("/")).NotTo(Equal(fstype.Unknown))
	})

	It("should classify a temporary directory", func() {
		dir := GinkgoT().TempDir()
		Expect(fstype.Probe(dir)).To(Equal(fstype.Local))
	})

	It("should fall back to the nearest existing ancestor", func() {
		dir := GinkgoT().TempDir()
		missing := filepath.Join(dir, "does", "not", "exist")

		Expect(fstype.Probe(missing)).To(Equal(fstype.Probe(dir)))
	})
})

func TestFstype(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Filesystem Type Suite")
}
