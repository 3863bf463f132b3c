package bronzeio_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestBronzeio(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "bronzeio suite")
}
