package rawcast_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRawcast(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "rawcast suite")
}
