package mcpserver

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestMcpserver(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "mcpserver suite")
}
