package pointline_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestPointline(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "pointline suite")
}
