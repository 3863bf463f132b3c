package quant360_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestQuant360(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "quant360 vendor suite")
}
