package tardis_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestTardis(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "tardis vendor suite")
}
