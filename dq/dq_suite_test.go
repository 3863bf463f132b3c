package dq_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestDQ(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "dq suite")
}
