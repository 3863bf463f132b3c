package dimsymbol_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestDimsymbol(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "dimsymbol suite")
}
