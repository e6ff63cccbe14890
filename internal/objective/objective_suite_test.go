package objective_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestObjective(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Objective Suite")
}
